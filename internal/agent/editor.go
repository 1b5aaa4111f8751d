package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/geobrief/geobrief/internal/news"
	"github.com/geobrief/geobrief/internal/provider"
)

// EditInput bundles the raw summary with its source articles and the original
// question for context.
type EditInput struct {
	Summary  string
	Articles []news.Article
	Question string
}

// Citation maps a summary back to one source article.
type Citation struct {
	SourceName   string `json:"source_name"`
	ArticleURL   string `json:"article_url"`
	ArticleTitle string `json:"article_title"`
}

// EditResult is the editing stage output: the cleaned summary, the citation
// list and a short rationale.
type EditResult struct {
	EditedSummary string     `json:"edited_summary"`
	Citations     []Citation `json:"article_citations"`
	EditingNotes  string     `json:"editing_notes"`
}

// Editor cleans in-text attributions out of the summary and produces the
// citation list, with a regex fallback when the model response fails to
// parse. Country-name normalization is applied on both paths.
type Editor struct {
	llm    provider.LLMProvider
	logger *log.Logger
}

func NewEditor(llm provider.LLMProvider) *Editor {
	return &Editor{
		llm:    llm,
		logger: log.New(log.Writer(), "[EDITOR] ", log.LstdFlags),
	}
}

const editingPrompt = `You are an expert news editor. Your task is to edit and improve a news summary to make it clear, well-organized, and directly relevant to the user's question.

Original User Question: %q

Raw Summary to Edit:
%s

Source Articles Information:
%s

Please perform the following editing tasks:

1. **Content Relevance**: Ensure all information directly answers the user's question
2. **Remove In-Text Citations**: Remove phrases like "according to Reuters", "BBC reported", "Article 1 states", etc.
3. **Remove Article References**: Remove references to "Article 1", "Article 2", numbered references, etc.
4. **Improve Organization**: Organize information logically with clear flow
5. **Fix Grammar & Style**: Ensure professional, clear writing
6. **Maintain Accuracy**: Keep all factual information intact
7. **Extract Citations**: Identify which articles were referenced for citation purposes

Respond with this exact JSON format:
{
    "edited_summary": "The cleaned and improved summary text here",
    "article_citations": [
        {
            "source_name": "Reuters",
            "article_url": "https://...",
            "article_title": "Article title"
        }
    ],
    "editing_notes": "Brief explanation of main improvements made"
}

Make the edited summary flow naturally without any in-text citations or article references, while maintaining all important facts.`

func (e *Editor) Run(ctx context.Context, in StageInput[EditInput]) StageOutput[EditResult] {
	summary := in.Payload.Summary
	if strings.TrimSpace(summary) == "" {
		return fail[EditResult]("No summary provided for editing")
	}

	articleInfo := make([]map[string]any, len(in.Payload.Articles))
	for i, a := range in.Payload.Articles {
		articleInfo[i] = map[string]any{
			"index":        i,
			"title":        a.Title,
			"source":       a.Source,
			"url":          a.URL,
			"published_at": a.PublishedAt,
		}
	}
	infoJSON, err := json.MarshalIndent(articleInfo, "", "  ")
	if err != nil {
		return fail[EditResult](fmt.Sprintf("Failed to edit summary: %v", err))
	}

	raw, err := e.llm.Complete(ctx, fmt.Sprintf(editingPrompt, in.Payload.Question, summary, infoJSON), provider.Options{
		Temperature: 0.2,
		MaxTokens:   1000,
	})
	if err != nil {
		e.logger.Printf("editing request failed: %v", err)
		return fail[EditResult](fmt.Sprintf("Failed to edit summary: %v", err))
	}

	result, method := e.parseEditing(raw, summary, in.Payload.Articles)
	e.logger.Printf("edited summary %d -> %d characters, %d citations (%s)",
		len(summary), len(result.EditedSummary), len(result.Citations), method)

	return succeed(result, mergeMetadata(in.Metadata, map[string]any{
		"edited_summary_length": len(result.EditedSummary),
		"citations_count":       len(result.Citations),
		"editing_method":        method,
		"editing_notes":         result.EditingNotes,
	}))
}

func (e *Editor) parseEditing(raw, summary string, articles []news.Article) (EditResult, string) {
	var result EditResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &result); err != nil {
		e.logger.Printf("response parse failed, using regex fallback: %v", err)
		return fallbackEditing(summary, articles), "regex_fallback"
	}
	result.EditedSummary = NormalizeCountryNames(result.EditedSummary)
	return result, "ai_comprehensive_editing"
}

// attributionPatterns covers the in-text citation shapes the fallback strips.
var attributionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)according to [A-Za-z\s]+,?\s*`),
	regexp.MustCompile(`(?i)[A-Za-z\s]+ reported that\s*`),
	regexp.MustCompile(`(?i)[A-Za-z\s]+ stated that\s*`),
	regexp.MustCompile(`(?i)Article \d+ (?:states|mentions|reports) that\s*`),
	regexp.MustCompile(`(?i)Article \d+:?\s*`),
	regexp.MustCompile(`\([A-Za-z\s]+\)\s*`),
	regexp.MustCompile(`(?i)as reported by [A-Za-z\s]+,?\s*`),
}

var (
	multiSpace       = regexp.MustCompile(`\s+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,;:])`)
)

// fallbackEditing strips attribution phrases with fixed patterns and
// synthesizes one citation per article carrying both a source and a URL, in
// article order.
func fallbackEditing(summary string, articles []news.Article) EditResult {
	edited := summary
	for _, pattern := range attributionPatterns {
		edited = pattern.ReplaceAllString(edited, "")
	}
	edited = multiSpace.ReplaceAllString(edited, " ")
	edited = spaceBeforePunct.ReplaceAllString(edited, "$1")
	edited = NormalizeCountryNames(strings.TrimSpace(edited))

	var citations []Citation
	for _, a := range articles {
		if a.Source != "" && a.URL != "" {
			citations = append(citations, Citation{
				SourceName:   a.Source,
				ArticleURL:   a.URL,
				ArticleTitle: a.Title,
			})
		}
	}

	return EditResult{
		EditedSummary: edited,
		Citations:     citations,
		EditingNotes:  "Used fallback regex-based cleaning",
	}
}

var (
	usVariants   = regexp.MustCompile(`(?i)\b(USA|the US|U\.S\.A\.|U\.S\.|US)\b`)
	redundantThe = regexp.MustCompile(`(?i)\bthe United States\b`)
)

// NormalizeCountryNames collapses United States variants to the canonical
// full form and strips the redundant leading article. Idempotent: applying it
// to already-normalized text is a no-op.
func NormalizeCountryNames(text string) string {
	normalized := usVariants.ReplaceAllString(text, "United States")
	normalized = redundantThe.ReplaceAllString(normalized, "United States")
	return normalized
}
