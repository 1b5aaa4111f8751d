package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestKeywordExtractorSplitsAndTrims(t *testing.T) {
	llm := &mockLLM{responses: []string{" Ukraine, war , Russia,,conflict "}}
	extractor := NewKeywordExtractor(llm)

	out := extractor.Run(context.Background(), StageInput[string]{Payload: "What's happening in Ukraine?"})
	if !out.Success {
		t.Fatalf("expected success, got error: %s", out.ErrorMessage)
	}

	want := []string{"Ukraine", "war", "Russia", "conflict"}
	if len(out.Payload) != len(want) {
		t.Fatalf("expected %d keywords, got %v", len(want), out.Payload)
	}
	for i, kw := range want {
		if out.Payload[i] != kw {
			t.Fatalf("keyword %d: expected %q, got %q", i, kw, out.Payload[i])
		}
	}

	if out.Metadata["original_question"] != "What's happening in Ukraine?" {
		t.Fatalf("expected original question in metadata, got %v", out.Metadata)
	}
}

func TestKeywordExtractorIncludesQuestionInPrompt(t *testing.T) {
	llm := &mockLLM{responses: []string{"taxes"}}
	extractor := NewKeywordExtractor(llm)

	extractor.Run(context.Background(), StageInput[string]{Payload: "How are tariffs affecting trade?"})
	if llm.calls != 1 {
		t.Fatalf("expected exactly one completion call, got %d", llm.calls)
	}
	if !strings.Contains(llm.prompts[0], "How are tariffs affecting trade?") {
		t.Fatalf("prompt does not contain the question: %s", llm.prompts[0])
	}
}

func TestKeywordExtractorTransportFailure(t *testing.T) {
	llm := &mockLLM{err: errors.New("connection refused")}
	extractor := NewKeywordExtractor(llm)

	out := extractor.Run(context.Background(), StageInput[string]{Payload: "anything"})
	if out.Success {
		t.Fatalf("expected failure on transport error")
	}
	if !strings.HasPrefix(out.ErrorMessage, "Failed to extract keywords:") {
		t.Fatalf("unexpected error message: %s", out.ErrorMessage)
	}
}
