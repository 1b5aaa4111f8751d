package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/geobrief/geobrief/internal/news"
)

// Researcher retrieves candidate articles for a keyword list. Query
// construction biases toward geopolitical entities: keywords matching the
// location gazetteer become required AND terms, the rest become a short OR
// tail.
type Researcher struct {
	searcher news.Searcher
	logger   *log.Logger
}

func NewResearcher(searcher news.Searcher) *Researcher {
	return &Researcher{
		searcher: searcher,
		logger:   log.New(log.Writer(), "[RESEARCH] ", log.LstdFlags),
	}
}

// priorityLocations is the gazetteer of country and region names used to
// split keywords into required location terms and optional topic terms.
var priorityLocations = []string{
	"afghanistan", "ukraine", "russia", "china", "israel", "palestine",
	"iran", "north korea", "south korea", "germany", "france", "uk",
	"united kingdom", "united states", "usa", "america", "india", "pakistan",
	"taiwan", "philippines", "japan", "australia", "canada", "brazil",
	"mexico", "turkey", "saudi arabia", "egypt", "south africa", "nigeria",
	"vietnam", "thailand", "indonesia", "malaysia", "singapore", "myanmar",
	"bangladesh", "nepal", "sri lanka", "georgia", "armenia", "azerbaijan",
}

// Run fetches articles for the keywords. An empty keyword list and any search
// backend error are hard failures; an empty result list is a valid output the
// orchestrator treats as a pipeline-ending condition of its own.
func (r *Researcher) Run(ctx context.Context, in StageInput[[]string]) StageOutput[[]news.Article] {
	keywords := in.Payload
	if len(keywords) == 0 {
		return fail[[]news.Article]("No keywords provided for research")
	}

	query := buildQuery(keywords)
	r.logger.Printf("constructed query: %s", query)

	articles, err := r.searcher.Search(ctx, query)
	if err != nil {
		r.logger.Printf("search failed: %v", err)
		return fail[[]news.Article](fmt.Sprintf("Failed to research articles: %v", err))
	}

	if len(articles) == 0 {
		r.logger.Printf("no articles found from reputable sources")
	} else {
		r.logger.Printf("found %d articles", len(articles))
	}

	return succeed(articles, mergeMetadata(in.Metadata, map[string]any{
		"keywords":       keywords,
		"search_query":   query,
		"articles_found": len(articles),
	}))
}

// buildQuery partitions keywords into location and other terms. With
// locations present the query requires all of them ANDed with an OR of up to
// two other terms; without locations it ORs up to three keywords. Multi-word
// terms are quoted.
func buildQuery(keywords []string) string {
	var locations, others []string
	for _, kw := range keywords {
		if isLocationKeyword(kw) {
			locations = append(locations, kw)
		} else {
			others = append(others, kw)
		}
	}

	if len(locations) > 0 {
		required := make([]string, len(locations))
		for i, kw := range locations {
			required[i] = quoteTerm(kw)
		}
		if len(others) > 2 {
			others = others[:2]
		}
		if len(others) > 0 {
			return fmt.Sprintf("(%s) AND (%s)", strings.Join(required, " AND "), strings.Join(others, " OR "))
		}
		return strings.Join(required, " AND ")
	}

	if len(keywords) > 3 {
		keywords = keywords[:3]
	}
	formatted := make([]string, len(keywords))
	for i, kw := range keywords {
		formatted[i] = quoteTerm(kw)
	}
	return strings.Join(formatted, " OR ")
}

func isLocationKeyword(kw string) bool {
	lower := strings.ToLower(kw)
	for _, loc := range priorityLocations {
		if strings.Contains(lower, loc) {
			return true
		}
	}
	return false
}

func quoteTerm(kw string) string {
	if strings.Contains(kw, " ") {
		return fmt.Sprintf("%q", kw)
	}
	return kw
}
