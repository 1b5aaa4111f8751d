package agent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/geobrief/geobrief/internal/news"
)

func TestSummarizerBuildsArticleBlocks(t *testing.T) {
	llm := &mockLLM{responses: []string{"  A coherent summary.  "}}
	summarizer := NewSummarizer(llm)

	articles := []news.Article{
		{Title: "First title", Content: "First content", Source: "Reuters"},
		{Title: "Second title", Content: "Second content", Source: "BBC"},
	}
	out := summarizer.Run(context.Background(), StageInput[[]news.Article]{Payload: articles})
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.ErrorMessage)
	}
	if out.Payload != "A coherent summary." {
		t.Fatalf("expected trimmed summary, got %q", out.Payload)
	}

	prompt := llm.prompts[0]
	for _, part := range []string{"Article 1:", "Article 2:", "First title", "Second content", "Source: BBC"} {
		if !strings.Contains(prompt, part) {
			t.Fatalf("prompt missing %q:\n%s", part, prompt)
		}
	}

	sources, ok := out.Metadata["sources"].([]string)
	if !ok || !reflect.DeepEqual(sources, []string{"Reuters", "BBC"}) {
		t.Fatalf("unexpected sources metadata: %v", out.Metadata["sources"])
	}
}

func TestSummarizerTruncatesLongContent(t *testing.T) {
	llm := &mockLLM{responses: []string{"summary"}}
	summarizer := NewSummarizer(llm)

	long := strings.Repeat("x", 5000)
	out := summarizer.Run(context.Background(), StageInput[[]news.Article]{
		Payload: []news.Article{{Title: "t", Content: long, Source: "s"}},
	})
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.ErrorMessage)
	}
	if strings.Contains(llm.prompts[0], long) {
		t.Fatalf("article content was not truncated in the prompt")
	}
	if !strings.Contains(llm.prompts[0], strings.Repeat("x", 1000)+"...") {
		t.Fatalf("expected truncation marker in prompt")
	}
}

func TestSummarizerEmptyArticlesFails(t *testing.T) {
	summarizer := NewSummarizer(&mockLLM{})

	out := summarizer.Run(context.Background(), StageInput[[]news.Article]{Payload: nil})
	if out.Success {
		t.Fatalf("expected failure on empty article list")
	}
	if out.ErrorMessage != "No articles provided for summarization" {
		t.Fatalf("unexpected error message: %s", out.ErrorMessage)
	}
}

func TestSummarizerTransportFailure(t *testing.T) {
	summarizer := NewSummarizer(&mockLLM{err: errors.New("rate limited")})

	out := summarizer.Run(context.Background(), StageInput[[]news.Article]{
		Payload: []news.Article{{Title: "t", Content: "c"}},
	})
	if out.Success {
		t.Fatalf("expected failure on transport error")
	}
	if !strings.HasPrefix(out.ErrorMessage, "Failed to summarize articles:") {
		t.Fatalf("unexpected error message: %s", out.ErrorMessage)
	}
}
