package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/geobrief/geobrief/internal/news"
)

func filterArticles() []news.Article {
	return []news.Article{
		{Title: "Ukraine peace talks resume", Content: "Negotiators met again.", Source: "Reuters"},
		{Title: "Celebrity gossip roundup", Content: "A pop star released an album.", Source: "CNN"},
		{Title: "Ukraine grain exports rise", Content: "Shipments increased.", Source: "BBC"},
	}
}

func TestRelevanceFilterKeepsSelectedIndices(t *testing.T) {
	llm := &mockLLM{responses: []string{`{"relevant_article_indices":[2,0,7],"reasoning":"both about Ukraine"}`}}
	filter := NewRelevanceFilter(llm)

	out := filter.Run(context.Background(), StageInput[FilterInput]{
		Payload: FilterInput{Articles: filterArticles(), Question: "What is happening in Ukraine?"},
	})
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.ErrorMessage)
	}
	if len(out.Payload) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(out.Payload))
	}
	// relative article order is preserved regardless of index order
	if out.Payload[0].Title != "Ukraine peace talks resume" || out.Payload[1].Title != "Ukraine grain exports rise" {
		t.Fatalf("unexpected selection: %q, %q", out.Payload[0].Title, out.Payload[1].Title)
	}
	if out.Metadata["filter_method"] != "ai_relevance_analysis" {
		t.Fatalf("unexpected filter method: %v", out.Metadata["filter_method"])
	}
	if out.Metadata["articles_processed"] != 3 || out.Metadata["articles_filtered"] != 2 {
		t.Fatalf("unexpected counts in metadata: %v", out.Metadata)
	}
}

func TestRelevanceFilterZeroSurvivorsIsSuccess(t *testing.T) {
	llm := &mockLLM{responses: []string{`{"relevant_article_indices":[],"reasoning":"nothing matches"}`}}
	filter := NewRelevanceFilter(llm)

	out := filter.Run(context.Background(), StageInput[FilterInput]{
		Payload: FilterInput{Articles: filterArticles(), Question: "What is happening in Ukraine?"},
	})
	if !out.Success {
		t.Fatalf("zero survivors must not fail the stage: %s", out.ErrorMessage)
	}
	if len(out.Payload) != 0 {
		t.Fatalf("expected no articles, got %d", len(out.Payload))
	}
}

func TestRelevanceFilterFallbackOnParseError(t *testing.T) {
	llm := &mockLLM{responses: []string{"I think articles 0 and 2 look good."}}
	filter := NewRelevanceFilter(llm)

	out := filter.Run(context.Background(), StageInput[FilterInput]{
		Payload: FilterInput{Articles: filterArticles(), Question: "Ukraine conflict latest?"},
	})
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.ErrorMessage)
	}
	if out.Metadata["filter_method"] != "keyword_fallback" {
		t.Fatalf("expected keyword fallback, got %v", out.Metadata["filter_method"])
	}
	for _, a := range out.Payload {
		if !strings.Contains(strings.ToLower(a.Title), "ukraine") {
			t.Fatalf("fallback kept an unrelated article: %q", a.Title)
		}
	}
	if len(out.Payload) != 2 {
		t.Fatalf("expected the 2 Ukraine articles, got %d", len(out.Payload))
	}
}

func TestRelevanceFilterFallbackIsDeterministic(t *testing.T) {
	question := "Ukraine conflict latest?"
	first := fallbackRelevanceFilter(filterArticles(), question)
	for i := 0; i < 10; i++ {
		again := fallbackRelevanceFilter(filterArticles(), question)
		if len(again) != len(first) {
			t.Fatalf("fallback is not deterministic: %d vs %d articles", len(again), len(first))
		}
		for j := range again {
			if again[j].Title != first[j].Title {
				t.Fatalf("fallback ordering changed on run %d", i)
			}
		}
	}
}

func TestRelevanceFilterEmptyInputsFail(t *testing.T) {
	filter := NewRelevanceFilter(&mockLLM{})

	out := filter.Run(context.Background(), StageInput[FilterInput]{
		Payload: FilterInput{Articles: nil, Question: "anything"},
	})
	if out.Success {
		t.Fatalf("expected failure on empty article list")
	}

	out = filter.Run(context.Background(), StageInput[FilterInput]{
		Payload: FilterInput{Articles: filterArticles(), Question: ""},
	})
	if out.Success {
		t.Fatalf("expected failure on empty question")
	}
}

func TestRelevanceFilterTransportFailure(t *testing.T) {
	filter := NewRelevanceFilter(&mockLLM{err: errors.New("timeout")})

	out := filter.Run(context.Background(), StageInput[FilterInput]{
		Payload: FilterInput{Articles: filterArticles(), Question: "Ukraine?"},
	})
	if out.Success {
		t.Fatalf("expected failure on transport error")
	}
	if !strings.HasPrefix(out.ErrorMessage, "Failed to filter articles for relevance:") {
		t.Fatalf("unexpected error message: %s", out.ErrorMessage)
	}
}
