package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/geobrief/geobrief/internal/provider"
)

// DivideInput bundles the edited summary with the extracted entities.
type DivideInput struct {
	Summary  string
	Entities EntityResult
}

// Paragraphs is the division stage output: one paragraph per country plus one
// for the relationship. In the single-entity case the slots hold internal
// developments, external relations and broader context instead.
type Paragraphs struct {
	Country1Paragraph     string `json:"country_1_paragraph"`
	Country2Paragraph     string `json:"country_2_paragraph"`
	RelationshipParagraph string `json:"relationship_paragraph"`
}

// Divider splits the summary into the three structured paragraphs, with a
// sentence-split fallback when the model response fails to parse.
type Divider struct {
	llm    provider.LLMProvider
	logger *log.Logger
}

func NewDivider(llm provider.LLMProvider) *Divider {
	return &Divider{
		llm:    llm,
		logger: log.New(log.Writer(), "[DIVIDER] ", log.LstdFlags),
	}
}

const twoCountryPrompt = `Based on the following news summary, create exactly three short, distinct paragraphs:

1. Paragraph about developments in %[1]s
2. Paragraph about developments in %[2]s
3. Paragraph describing the %[3]s between %[1]s and %[2]s

Summary:
%[4]s

Requirements:
- Each paragraph should be 2-4 sentences
- Focus on recent developments and current events
- Be factual and avoid speculation
- Keep paragraphs concise but informative

Please respond in this exact JSON format:
{
    "country_1_paragraph": "paragraph about %[1]s",
    "country_2_paragraph": "paragraph about %[2]s",
    "relationship_paragraph": "paragraph about their %[3]s"
}`

const singleCountryPrompt = `Based on the following news summary, create exactly three short, distinct paragraphs:

1. Paragraph about internal developments in %[1]s
2. Paragraph about %[1]s's international relations and external factors
3. Paragraph about the broader context and implications

Summary:
%[2]s

Requirements:
- Each paragraph should be 2-4 sentences
- Focus on recent developments and current events
- Be factual and avoid speculation
- Keep paragraphs concise but informative

Please respond in this exact JSON format:
{
    "country_1_paragraph": "paragraph about internal developments in %[1]s",
    "country_2_paragraph": "paragraph about %[1]s's international relations",
    "relationship_paragraph": "paragraph about broader context and implications"
}`

func (d *Divider) Run(ctx context.Context, in StageInput[DivideInput]) StageOutput[Paragraphs] {
	summary := in.Payload.Summary
	entities := in.Payload.Entities
	if strings.TrimSpace(summary) == "" {
		return fail[Paragraphs]("No summary text provided for division")
	}

	var prompt string
	if entities.Country2 != "" {
		prompt = fmt.Sprintf(twoCountryPrompt, entities.Country1, entities.Country2, entities.Relationship, summary)
	} else {
		prompt = fmt.Sprintf(singleCountryPrompt, entities.Country1, summary)
	}

	raw, err := d.llm.Complete(ctx, prompt, provider.Options{
		Temperature: 0.3,
		MaxTokens:   600,
	})
	if err != nil {
		d.logger.Printf("division failed: %v", err)
		return fail[Paragraphs](fmt.Sprintf("Failed to divide content: %v", err))
	}

	paragraphs, method := d.parseDivision(raw, summary)
	d.logger.Printf("created structured paragraphs (%s)", method)

	return succeed(paragraphs, mergeMetadata(in.Metadata, map[string]any{
		"division_method": method,
	}))
}

func (d *Divider) parseDivision(raw, summary string) (Paragraphs, string) {
	var result Paragraphs
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &result); err != nil {
		d.logger.Printf("response parse failed, using sentence-split fallback: %v", err)
		return fallbackDivision(summary), "sentence_split_fallback"
	}
	result.Country1Paragraph = strings.TrimSpace(result.Country1Paragraph)
	result.Country2Paragraph = strings.TrimSpace(result.Country2Paragraph)
	result.RelationshipParagraph = strings.TrimSpace(result.RelationshipParagraph)
	return result, "llm_division"
}

// fallbackDivision splits the summary into three contiguous thirds by
// sentence count. With fewer than three sentences the whole summary becomes
// the first paragraph and the other two get placeholder sentences.
func fallbackDivision(summary string) Paragraphs {
	sentences := strings.Split(summary, ". ")
	if len(sentences) < 3 {
		return Paragraphs{
			Country1Paragraph:     summary,
			Country2Paragraph:     "Additional context regarding the situation.",
			RelationshipParagraph: "The situation continues to develop.",
		}
	}

	third := len(sentences) / 3
	return Paragraphs{
		Country1Paragraph:     strings.Join(sentences[:third], ". ") + ".",
		Country2Paragraph:     strings.Join(sentences[third:third*2], ". ") + ".",
		RelationshipParagraph: strings.Join(sentences[third*2:], ". ") + ".",
	}
}
