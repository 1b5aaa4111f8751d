package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/geobrief/geobrief/internal/news"
	"github.com/geobrief/geobrief/internal/provider"
)

// FilterInput bundles the candidate articles with the question they must be
// judged against.
type FilterInput struct {
	Articles []news.Article
	Question string
}

// RelevanceFilter keeps only articles directly relevant to the original
// question, via LLM classification with a deterministic keyword-overlap
// fallback when the model response fails to parse.
type RelevanceFilter struct {
	llm    provider.LLMProvider
	logger *log.Logger
}

func NewRelevanceFilter(llm provider.LLMProvider) *RelevanceFilter {
	return &RelevanceFilter{
		llm:    llm,
		logger: log.New(log.Writer(), "[FILTER] ", log.LstdFlags),
	}
}

type articlePreview struct {
	Index          int    `json:"index"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Source         string `json:"source"`
	ContentPreview string `json:"content_preview"`
}

const relevancePrompt = `You are an expert news analyst. Given a user's question and a list of news articles, determine which articles are DIRECTLY relevant to answering the user's question.

User Question: %q

Articles to analyze:
%s

For each article, determine if it is directly relevant to the user's question. An article is considered relevant if:
1. It directly addresses the topic, countries, or events mentioned in the question
2. It provides information that would help answer the user's question
3. It's not just tangentially related but actually contains useful information for the response

Respond with a JSON object containing only the indices of the relevant articles:
{
    "relevant_article_indices": [0, 2, 3],
    "reasoning": "Brief explanation of why these articles are relevant"
}

Be strict - only include articles that truly help answer the user's question. If no articles are relevant, return an empty list.`

// Run filters the articles. Zero survivors is a valid outcome; only missing
// inputs or a transport failure abort the stage.
func (f *RelevanceFilter) Run(ctx context.Context, in StageInput[FilterInput]) StageOutput[[]news.Article] {
	articles := in.Payload.Articles
	question := in.Payload.Question

	if len(articles) == 0 {
		return fail[[]news.Article]("No articles provided for relevance filtering")
	}
	if question == "" {
		return fail[[]news.Article]("No original question provided for relevance filtering")
	}

	previews := make([]articlePreview, len(articles))
	for i, a := range articles {
		previews[i] = articlePreview{
			Index:          i,
			Title:          a.Title,
			Description:    a.Description,
			Source:         a.Source,
			ContentPreview: truncate(a.Content, 200),
		}
	}
	previewJSON, err := json.MarshalIndent(previews, "", "  ")
	if err != nil {
		return fail[[]news.Article](fmt.Sprintf("Failed to filter articles for relevance: %v", err))
	}

	raw, err := f.llm.Complete(ctx, fmt.Sprintf(relevancePrompt, question, previewJSON), provider.Options{
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		f.logger.Printf("relevance classification failed: %v", err)
		return fail[[]news.Article](fmt.Sprintf("Failed to filter articles for relevance: %v", err))
	}

	relevant, method := f.selectRelevant(articles, question, raw)
	f.logger.Printf("filtered %d -> %d relevant articles (%s)", len(articles), len(relevant), method)

	return succeed(relevant, mergeMetadata(in.Metadata, map[string]any{
		"articles_processed": len(articles),
		"articles_filtered":  len(relevant),
		"filter_method":      method,
	}))
}

// selectRelevant parses the model's index set, preserving the articles'
// relative order and ignoring out-of-range indices. Parse failure falls back
// to keyword matching.
func (f *RelevanceFilter) selectRelevant(articles []news.Article, question, raw string) ([]news.Article, string) {
	var parsed struct {
		RelevantArticleIndices []int  `json:"relevant_article_indices"`
		Reasoning              string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		f.logger.Printf("response parse failed, using keyword fallback: %v", err)
		return fallbackRelevanceFilter(articles, question), "keyword_fallback"
	}

	if parsed.Reasoning != "" {
		f.logger.Printf("relevance reasoning: %s", parsed.Reasoning)
	}

	keep := make(map[int]bool, len(parsed.RelevantArticleIndices))
	for _, idx := range parsed.RelevantArticleIndices {
		if idx >= 0 && idx < len(articles) {
			keep[idx] = true
		} else {
			f.logger.Printf("ignoring out-of-range article index %d", idx)
		}
	}

	var relevant []news.Article
	for i, a := range articles {
		if keep[i] {
			relevant = append(relevant, a)
		}
	}
	return relevant, "ai_relevance_analysis"
}

var questionStopwords = map[string]bool{
	"what": true, "when": true, "where": true, "how": true,
	"the": true, "and": true, "or": true, "but": true,
}

// fallbackRelevanceFilter keeps any article sharing at least one significant
// question token with its title, description or content. Deterministic for a
// fixed input.
func fallbackRelevanceFilter(articles []news.Article, question string) []news.Article {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,;:!?'\"")
		if len(word) > 3 && !questionStopwords[word] {
			keywords = append(keywords, word)
		}
	}

	var relevant []news.Article
	for _, a := range articles {
		title := strings.ToLower(a.Title)
		content := strings.ToLower(a.Content)
		description := strings.ToLower(a.Description)
		for _, kw := range keywords {
			if strings.Contains(title, kw) || strings.Contains(content, kw) || strings.Contains(description, kw) {
				relevant = append(relevant, a)
				break
			}
		}
	}
	return relevant
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
