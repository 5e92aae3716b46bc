package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/docstitch/docstitch/internal/document"
	"github.com/docstitch/docstitch/internal/llm"
)

func newTestEngine(client llm.Client, cfg Config) *Engine {
	return New(client, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var testPages = []document.Page{
	{Number: 1, Text: "1. Intro\nBody ends."},
}

const validEvents = `{"events":[
	{"event":"STARTS","level":"section","page_number":1,"title":"Intro","fingerprint":"1. Intro"},
	{"event":"ENDS","level":"section","page_number":1,"fingerprint":"Body ends."}
]}`

func TestEngine_ProcessPages(t *testing.T) {
	mock := llm.NewMockClient(validEvents)
	eng := newTestEngine(mock, Config{})

	chunks, err := eng.ProcessPages(context.Background(), testPages, "doc.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "1. Intro\nBody ends." {
		t.Errorf("unexpected chunk text %q", chunks[0].Text)
	}
	if chunks[0].Metadata.SourceDocument != "doc.txt" {
		t.Errorf("unexpected source %q", chunks[0].Metadata.SourceDocument)
	}
	if calls := mock.Calls(); len(calls) != 1 {
		t.Errorf("expected 1 model call, got %d", len(calls))
	}
}

func TestEngine_CorrectiveRetryOnBadPageNumber(t *testing.T) {
	badPage := `{"events":[{"event":"STARTS","level":"section","page_number":9,"fingerprint":"1. Intro"}]}`
	mock := llm.NewMockClient(badPage, validEvents)
	eng := newTestEngine(mock, Config{MaxAttempts: 3})

	chunks, err := eng.ProcessPages(context.Background(), testPages, "doc.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(calls))
	}
	if strings.Contains(calls[0].UserPrompt, "previous response") {
		t.Error("first prompt should carry no corrections")
	}
	second := calls[1].UserPrompt
	if !strings.Contains(second, "[9]") || !strings.Contains(second, "between 1 and 1") {
		t.Errorf("expected page correction in second prompt, got:\n%s", second)
	}
}

func TestEngine_CorrectiveRetryOnMissingFingerprint(t *testing.T) {
	badFP := `{"events":[{"event":"STARTS","level":"section","page_number":1,"fingerprint":"phantom heading"}]}`
	mock := llm.NewMockClient(badFP, validEvents)
	eng := newTestEngine(mock, Config{MaxAttempts: 3})

	if _, err := eng.ProcessPages(context.Background(), testPages, "doc.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(calls))
	}
	if !strings.Contains(calls[1].UserPrompt, `"phantom heading"`) {
		t.Errorf("expected fingerprint correction in second prompt, got:\n%s", calls[1].UserPrompt)
	}
}

func TestEngine_AttemptBudgetExhausted(t *testing.T) {
	badPage := `{"events":[{"event":"STARTS","level":"section","page_number":9,"fingerprint":"1. Intro"}]}`
	mock := llm.NewMockClient(badPage)
	eng := newTestEngine(mock, Config{MaxAttempts: 3})

	_, err := eng.ProcessPages(context.Background(), testPages, "doc.txt")
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	var pageErr *PageNumberError
	if !errors.As(err, &pageErr) {
		t.Errorf("expected error to wrap PageNumberError, got %v", err)
	}
	if calls := mock.Calls(); len(calls) != 3 {
		t.Errorf("expected 3 model calls, got %d", len(calls))
	}
}

func TestEngine_MalformedResponseRetriedWithoutCorrections(t *testing.T) {
	mock := llm.NewMockClient("this is not json", validEvents)
	eng := newTestEngine(mock, Config{MaxAttempts: 3})

	if _, err := eng.ProcessPages(context.Background(), testPages, "doc.txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(calls))
	}
	// Malformed output is not a semantic mistake the model can fix from
	// feedback; the retry prompt stays clean.
	if strings.Contains(calls[1].UserPrompt, "previous response") {
		t.Errorf("expected no corrections after malformed response, got:\n%s", calls[1].UserPrompt)
	}
}

func TestEngine_MalformedResponseExhaustsBudget(t *testing.T) {
	mock := llm.NewMockClient("garbage")
	eng := newTestEngine(mock, Config{MaxAttempts: 2})

	_, err := eng.ProcessPages(context.Background(), testPages, "doc.txt")
	var fmtErr *llm.ResponseFormatError
	if !errors.As(err, &fmtErr) {
		t.Errorf("expected ResponseFormatError, got %v", err)
	}
	if calls := mock.Calls(); len(calls) != 2 {
		t.Errorf("expected 2 model calls, got %d", len(calls))
	}
}

func TestEngine_ContextCancellation(t *testing.T) {
	mock := llm.NewMockClient(validEvents)
	eng := newTestEngine(mock, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.ProcessPages(ctx, testPages, "doc.txt")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEngine_MultipleBatches(t *testing.T) {
	pages := []document.Page{
		{Number: 1, Text: "Part one opens here."},
		{Number: 2, Text: "Part one closes now."},
	}
	first := `{"events":[{"event":"STARTS","level":"section","page_number":1,"fingerprint":"Part one opens"}]}`
	second := `{"events":[{"event":"ENDS","level":"section","page_number":2,"fingerprint":"closes now."}]}`
	mock := llm.NewMockClient(first, second)
	eng := newTestEngine(mock, Config{PageBatchSize: 1})

	chunks, err := eng.ProcessPages(context.Background(), pages, "doc.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk spanning both pages, got %d", len(chunks))
	}
	if got := chunks[0].Metadata.Pages; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("expected pages [1 2], got %v", got)
	}

	calls := mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(calls))
	}
	// The second batch's prompt carries the still-open block.
	if !strings.Contains(calls[1].UserPrompt, "OPEN BLOCKS") || strings.Contains(calls[1].UserPrompt, "OPEN BLOCKS: none") {
		t.Errorf("expected open block in second prompt, got:\n%s", calls[1].UserPrompt)
	}
}

func TestEngine_ProcessPagewiseUnsupported(t *testing.T) {
	eng := newTestEngine(llm.NewMockClient(validEvents), Config{})
	_, err := eng.ProcessPagewise(context.Background(), testPages, "doc.txt")
	if !errors.Is(err, ErrPagewiseUnsupported) {
		t.Errorf("expected ErrPagewiseUnsupported, got %v", err)
	}
}

func TestEngine_NoPages(t *testing.T) {
	eng := newTestEngine(llm.NewMockClient(validEvents), Config{})
	chunks, err := eng.ProcessPages(context.Background(), nil, "doc.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chunks != nil {
		t.Errorf("expected nil chunks, got %v", chunks)
	}
}
