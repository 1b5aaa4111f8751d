package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/geobrief/geobrief/internal/provider"
)

// KeywordExtractor turns a free-text question into a short list of news
// search keywords weighted toward countries, figures, events and
// organizations.
type KeywordExtractor struct {
	llm    provider.LLMProvider
	logger *log.Logger
}

func NewKeywordExtractor(llm provider.LLMProvider) *KeywordExtractor {
	return &KeywordExtractor{
		llm:    llm,
		logger: log.New(log.Writer(), "[KEYWORDS] ", log.LstdFlags),
	}
}

const keywordPrompt = `Extract the most important keywords for searching current events and news from this user question: %q

Focus on:
- Country names
- Political figures
- Major events or conflicts
- Economic terms
- International organizations

Return only the most relevant 3-5 keywords separated by commas, suitable for news search.

Example:
User: "What's happening with the war in Ukraine?"
Keywords: Ukraine, war, Russia, conflict

User prompt: %s
Keywords:`

// Run extracts 3-5 comma-separated keywords from the question. A transport
// error is a stage failure; an empty keyword list is not (the retrieval stage
// rejects it).
func (k *KeywordExtractor) Run(ctx context.Context, in StageInput[string]) StageOutput[[]string] {
	question := in.Payload
	k.logger.Printf("extracting keywords from question: %s", question)

	raw, err := k.llm.Complete(ctx, fmt.Sprintf(keywordPrompt, question, question), provider.Options{
		Temperature: 0.3,
		MaxTokens:   100,
	})
	if err != nil {
		k.logger.Printf("keyword extraction failed: %v", err)
		return fail[[]string](fmt.Sprintf("Failed to extract keywords: %v", err))
	}

	raw = strings.TrimSpace(raw)
	var keywords []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	k.logger.Printf("extracted keywords: %v", keywords)
	return succeed(keywords, mergeMetadata(in.Metadata, map[string]any{
		"original_question": question,
		"keywords_raw":      raw,
	}))
}
