package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/geobrief/geobrief/internal/provider"
)

// EntityResult names the two most significant countries in a summary and the
// relationship between them. An empty Country2 signals a single-entity
// (domestic) story.
type EntityResult struct {
	Country1     string `json:"country_1"`
	Country2     string `json:"country_2"`
	Relationship string `json:"relationship"`
}

// EntityExtractor pulls the country pair and relationship label out of a
// summary, with a regex fallback over a fixed list of major countries.
type EntityExtractor struct {
	llm    provider.LLMProvider
	logger *log.Logger
}

func NewEntityExtractor(llm provider.LLMProvider) *EntityExtractor {
	return &EntityExtractor{
		llm:    llm,
		logger: log.New(log.Writer(), "[ENTITIES] ", log.LstdFlags),
	}
}

const entityPrompt = `Analyze the following news summary and extract:
1. The TWO main countries mentioned (if only one country is prominent, leave country_2 empty)
2. The type of relationship or interaction between them

Summary:
%s

Please respond in this exact JSON format:
{
    "country_1": "primary country name",
    "country_2": "secondary country name or empty if not applicable",
    "relationship": "brief description of relationship (e.g., 'war', 'diplomatic talks', 'trade dispute', 'alliance', 'conflict')"
}

Focus on the most significant countries and their primary relationship. If there's only one main country involved, leave country_2 empty and describe the relationship as "domestic issues" or similar.`

func (e *EntityExtractor) Run(ctx context.Context, in StageInput[string]) StageOutput[EntityResult] {
	summary := in.Payload
	if strings.TrimSpace(summary) == "" {
		return fail[EntityResult]("No summary text provided for entity extraction")
	}

	raw, err := e.llm.Complete(ctx, fmt.Sprintf(entityPrompt, summary), provider.Options{
		Temperature: 0.1,
		MaxTokens:   200,
	})
	if err != nil {
		e.logger.Printf("entity extraction failed: %v", err)
		return fail[EntityResult](fmt.Sprintf("Failed to extract countries: %v", err))
	}

	result, method := e.parseEntities(raw)
	e.logger.Printf("extracted entities: %+v (%s)", result, method)

	return succeed(result, mergeMetadata(in.Metadata, map[string]any{
		"extraction_method": method,
	}))
}

func (e *EntityExtractor) parseEntities(raw string) (EntityResult, string) {
	var result EntityResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &result); err != nil {
		e.logger.Printf("response parse failed, using regex fallback: %v", err)
		return fallbackEntityExtraction(raw), "regex_fallback"
	}
	result.Country1 = strings.TrimSpace(result.Country1)
	result.Country2 = strings.TrimSpace(result.Country2)
	result.Relationship = strings.TrimSpace(result.Relationship)
	return result, "llm_analysis"
}

// countryPatterns lists the major countries the fallback recognizes, with
// common alias forms. Canonical name first in each alternation.
var countryPatterns = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"United States", regexp.MustCompile(`(?i)\b(United States|USA|America)\b`)},
	{"Russia", regexp.MustCompile(`(?i)\b(Russia|Russian Federation)\b`)},
	{"China", regexp.MustCompile(`(?i)\b(China|People's Republic of China)\b`)},
	{"Ukraine", regexp.MustCompile(`(?i)\b(Ukraine|Ukrainian)\b`)},
	{"Israel", regexp.MustCompile(`(?i)\b(Israel|Israeli)\b`)},
	{"Palestine", regexp.MustCompile(`(?i)\b(Palestine|Palestinian)\b`)},
	{"Iran", regexp.MustCompile(`(?i)\b(Iran|Iranian)\b`)},
	{"North Korea", regexp.MustCompile(`(?i)\b(North Korea|DPRK)\b`)},
	{"South Korea", regexp.MustCompile(`(?i)\b(South Korea|Republic of Korea)\b`)},
	{"United Kingdom", regexp.MustCompile(`(?i)\b(United Kingdom|UK|Britain)\b`)},
	{"France", regexp.MustCompile(`(?i)\b(France|French)\b`)},
	{"Germany", regexp.MustCompile(`(?i)\b(Germany|German)\b`)},
	{"Japan", regexp.MustCompile(`(?i)\b(Japan|Japanese)\b`)},
	{"India", regexp.MustCompile(`(?i)\b(India|Indian)\b`)},
	{"Pakistan", regexp.MustCompile(`(?i)\b(Pakistan|Pakistani)\b`)},
	{"Turkey", regexp.MustCompile(`(?i)\b(Turkey|Turkish)\b`)},
	{"Saudi Arabia", regexp.MustCompile(`(?i)\b(Saudi Arabia|Saudi)\b`)},
}

// relationshipKeywords is the priority-ordered list for the fallback label.
var relationshipKeywords = []string{
	"war", "conflict", "dispute", "negotiations", "talks",
	"alliance", "trade", "sanctions", "diplomatic",
}

// fallbackEntityExtraction scans the text for known countries in first-seen
// order, deduplicated, and picks the first matching relationship keyword.
func fallbackEntityExtraction(text string) EntityResult {
	type match struct {
		name string
		pos  int
	}
	var matches []match
	for _, cp := range countryPatterns {
		if loc := cp.pattern.FindStringIndex(text); loc != nil {
			matches = append(matches, match{name: cp.name, pos: loc[0]})
		}
	}
	// order by first appearance in the text
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].pos < matches[j-1].pos; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	relationship := "international relations"
	lower := strings.ToLower(text)
	for _, kw := range relationshipKeywords {
		if strings.Contains(lower, kw) {
			relationship = kw
			break
		}
	}

	result := EntityResult{Relationship: relationship}
	if len(matches) > 0 {
		result.Country1 = matches[0].name
	}
	if len(matches) > 1 {
		result.Country2 = matches[1].name
	}
	return result
}
