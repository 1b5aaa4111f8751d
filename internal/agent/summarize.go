package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/geobrief/geobrief/internal/news"
	"github.com/geobrief/geobrief/internal/provider"
)

// Summarizer condenses the relevant articles into a factual, chronological
// prose summary. There is no fallback: a completion failure fails the stage.
type Summarizer struct {
	llm    provider.LLMProvider
	logger *log.Logger
}

func NewSummarizer(llm provider.LLMProvider) *Summarizer {
	return &Summarizer{
		llm:    llm,
		logger: log.New(log.Writer(), "[SUMMARIZE] ", log.LstdFlags),
	}
}

const summaryPrompt = `You are a professional news analyst. Please create a coherent, factual summary of the following news articles about current events.

Requirements:
- Create 2-3 comprehensive paragraphs
- Maintain chronological order where possible
- Focus on the most important developments
- Preserve factual accuracy
- Avoid speculation or opinion
- Include key figures, locations, and events mentioned

Articles to summarize:
%s

Please provide a concise but comprehensive summary:`

func (s *Summarizer) Run(ctx context.Context, in StageInput[[]news.Article]) StageOutput[string] {
	articles := in.Payload
	if len(articles) == 0 {
		return fail[string]("No articles provided for summarization")
	}

	s.logger.Printf("summarizing %d articles", len(articles))

	blocks := make([]string, len(articles))
	for i, a := range articles {
		blocks[i] = fmt.Sprintf("Article %d:\nTitle: %s\nSource: %s\nContent: %s",
			i+1, a.Title, a.Source, truncate(a.Content, 1000))
	}

	summary, err := s.llm.Complete(ctx, fmt.Sprintf(summaryPrompt, strings.Join(blocks, "\n\n")), provider.Options{
		Temperature: 0.3,
		MaxTokens:   800,
	})
	if err != nil {
		s.logger.Printf("summarization failed: %v", err)
		return fail[string](fmt.Sprintf("Failed to summarize articles: %v", err))
	}

	summary = strings.TrimSpace(summary)
	s.logger.Printf("created summary with %d characters", len(summary))

	sources := make([]string, len(articles))
	for i, a := range articles {
		sources[i] = a.Source
	}

	return succeed(summary, mergeMetadata(in.Metadata, map[string]any{
		"summary_length": len(summary),
		"sources":        sources,
	}))
}
