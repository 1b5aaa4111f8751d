package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/geobrief/geobrief/config"
	"github.com/geobrief/geobrief/internal/agent/telemetry"
	"github.com/geobrief/geobrief/internal/news"
	"github.com/geobrief/geobrief/internal/provider"
)

// PipelineData is the fixed data shape of every pipeline response. On failure
// all fields are present and empty so callers bind to one schema regardless
// of outcome.
type PipelineData struct {
	Country1              string     `json:"country_1"`
	Country2              string     `json:"country_2"`
	Relationship          string     `json:"relationship"`
	Country1Paragraph     string     `json:"country_1_paragraph"`
	Country2Paragraph     string     `json:"country_2_paragraph"`
	RelationshipParagraph string     `json:"relationship_paragraph"`
	Summary               string     `json:"summary"`
	ArticleCitations      []Citation `json:"article_citations"`
}

// PipelineError tags a failed run with a stage-specific type and the
// underlying message.
type PipelineError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PipelineMetadata describes how the answer was produced.
type PipelineMetadata struct {
	OriginalQuestion         string   `json:"original_question"`
	KeywordsExtracted        []string `json:"keywords_extracted"`
	ArticlesFound            int      `json:"articles_found"`
	ArticlesFiltered         int      `json:"articles_filtered"`
	Sources                  []string `json:"sources"`
	ProcessingStepsCompleted int      `json:"processing_steps_completed"`
	EditingNotes             string   `json:"editing_notes"`
}

// PipelineResult is the envelope returned for every question, success or not.
type PipelineResult struct {
	Success  bool             `json:"success"`
	Data     PipelineData     `json:"data"`
	Error    *PipelineError   `json:"error,omitempty"`
	Metadata PipelineMetadata `json:"metadata"`
}

// Orchestrator sequences the seven pipeline stages. It is the only place
// that interprets stage success flags: a failed stage short-circuits the run
// and its message is wrapped in a stage-specific error type.
type Orchestrator struct {
	keywords   *KeywordExtractor
	researcher *Researcher
	filter     *RelevanceFilter
	summarizer *Summarizer
	editor     *Editor
	entities   *EntityExtractor
	divider    *Divider

	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewOrchestrator wires the full pipeline from configuration.
func NewOrchestrator(cfg config.Config, tele *telemetry.Telemetry) *Orchestrator {
	llm := provider.NewOpenAIProvider(cfg.LLM)
	searcher := news.NewNewsAPIClient(cfg.Sources.NewsAPI)
	return NewOrchestratorWith(llm, searcher, tele)
}

// NewOrchestratorWith wires the pipeline around explicit collaborators.
// Tests use it to substitute mock providers and searchers.
func NewOrchestratorWith(llm provider.LLMProvider, searcher news.Searcher, tele *telemetry.Telemetry) *Orchestrator {
	return &Orchestrator{
		keywords:   NewKeywordExtractor(llm),
		researcher: NewResearcher(searcher),
		filter:     NewRelevanceFilter(llm),
		summarizer: NewSummarizer(llm),
		editor:     NewEditor(llm),
		entities:   NewEntityExtractor(llm),
		divider:    NewDivider(llm),
		telemetry:  tele,
		logger:     log.New(log.Writer(), "[ORCH] ", log.LstdFlags),
	}
}

// ProcessQuestion runs the question through the whole pipeline and always
// returns a fully shaped result. Panics anywhere in a stage are recovered
// here and reported as a generic processing error.
func (o *Orchestrator) ProcessQuestion(ctx context.Context, question string) (result PipelineResult) {
	runID := uuid.NewString()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("[%s] recovered from panic: %v", runID, r)
			result = o.failure(question, "Unexpected error in processing", fmt.Sprintf("%v", r))
		}
		o.telemetry.RecordRequest(result.Success, time.Since(started))
	}()

	o.logger.Printf("[%s] processing question: %s", runID, question)

	// Stage 1: keywords.
	kwOut := runStage(ctx, o, "keywords", o.keywords.Run, StageInput[string]{Payload: question})
	if !kwOut.Success {
		return o.failure(question, "Failed to extract keywords", kwOut.ErrorMessage)
	}
	keywords := kwOut.Payload
	o.logger.Printf("[%s] extracted keywords: %v", runID, keywords)

	// Stage 2: research.
	resOut := runStage(ctx, o, "research", o.researcher.Run, StageInput[[]string]{Payload: keywords, Metadata: kwOut.Metadata})
	if !resOut.Success {
		return o.failure(question, "Failed to research articles", resOut.ErrorMessage)
	}
	articles := resOut.Payload
	o.logger.Printf("[%s] found %d articles", runID, len(articles))
	if len(articles) == 0 {
		return o.failure(question, "No relevant articles found", "No articles found from reputable sources")
	}

	// Stage 3: relevance filter.
	filterOut := runStage(ctx, o, "filter", o.filter.Run, StageInput[FilterInput]{
		Payload:  FilterInput{Articles: articles, Question: question},
		Metadata: resOut.Metadata,
	})
	if !filterOut.Success {
		return o.failure(question, "Failed to filter articles for relevance", filterOut.ErrorMessage)
	}
	filtered := filterOut.Payload
	o.logger.Printf("[%s] kept %d of %d articles", runID, len(filtered), len(articles))
	if len(filtered) == 0 {
		return o.failure(question, "No relevant articles found", "No articles relevant to the question")
	}

	// Stage 4: summarize.
	sumOut := runStage(ctx, o, "summarize", o.summarizer.Run, StageInput[[]news.Article]{Payload: filtered, Metadata: filterOut.Metadata})
	if !sumOut.Success {
		return o.failure(question, "Failed to summarize articles", sumOut.ErrorMessage)
	}
	summary := sumOut.Payload

	// Stage 5: edit.
	editOut := runStage(ctx, o, "edit", o.editor.Run, StageInput[EditInput]{
		Payload:  EditInput{Summary: summary, Articles: filtered, Question: question},
		Metadata: sumOut.Metadata,
	})
	if !editOut.Success {
		return o.failure(question, "Failed to edit summary", editOut.ErrorMessage)
	}
	edited := editOut.Payload

	// Stage 6: entities.
	entOut := runStage(ctx, o, "entities", o.entities.Run, StageInput[string]{Payload: edited.EditedSummary, Metadata: editOut.Metadata})
	if !entOut.Success {
		return o.failure(question, "Failed to extract countries", entOut.ErrorMessage)
	}
	ents := entOut.Payload
	o.logger.Printf("[%s] extracted countries: %q / %q (%s)", runID, ents.Country1, ents.Country2, ents.Relationship)

	// Stage 7: divide.
	divOut := runStage(ctx, o, "divide", o.divider.Run, StageInput[DivideInput]{
		Payload:  DivideInput{Summary: edited.EditedSummary, Entities: ents},
		Metadata: entOut.Metadata,
	})
	if !divOut.Success {
		return o.failure(question, "Failed to create structured output", divOut.ErrorMessage)
	}
	paragraphs := divOut.Payload

	citations := edited.Citations
	if citations == nil {
		citations = []Citation{}
	}
	sources := make([]string, 0, len(filtered))
	for _, a := range filtered {
		sources = append(sources, a.Source)
	}

	o.logger.Printf("[%s] pipeline completed successfully", runID)
	return PipelineResult{
		Success: true,
		Data: PipelineData{
			Country1:              ents.Country1,
			Country2:              ents.Country2,
			Relationship:          ents.Relationship,
			Country1Paragraph:     paragraphs.Country1Paragraph,
			Country2Paragraph:     paragraphs.Country2Paragraph,
			RelationshipParagraph: paragraphs.RelationshipParagraph,
			Summary:               edited.EditedSummary,
			ArticleCitations:      citations,
		},
		Metadata: PipelineMetadata{
			OriginalQuestion:         question,
			KeywordsExtracted:        keywords,
			ArticlesFound:            len(articles),
			ArticlesFiltered:         len(filtered),
			Sources:                  sources,
			ProcessingStepsCompleted: 7,
			EditingNotes:             edited.EditingNotes,
		},
	}
}

// runStage executes one stage and records its timing and outcome.
func runStage[In, Out any](ctx context.Context, o *Orchestrator, name string, run func(context.Context, StageInput[In]) StageOutput[Out], in StageInput[In]) StageOutput[Out] {
	started := time.Now()
	out := run(ctx, in)
	o.telemetry.RecordStageEvent(telemetry.StageEvent{
		Stage:    name,
		Duration: time.Since(started),
		Success:  out.Success,
	})
	return out
}

// failure builds the uniform failure envelope: the data shape is fully
// present with empty values.
func (o *Orchestrator) failure(question, errType, message string) PipelineResult {
	o.logger.Printf("pipeline failed: %s: %s", errType, message)
	return PipelineResult{
		Success: false,
		Data: PipelineData{
			ArticleCitations: []Citation{},
		},
		Error: &PipelineError{Type: errType, Message: message},
		Metadata: PipelineMetadata{
			OriginalQuestion:  question,
			KeywordsExtracted: []string{},
			Sources:           []string{},
		},
	}
}
