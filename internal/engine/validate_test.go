package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/docstitch/docstitch/internal/llm"
)

func TestValidateEvents_Valid(t *testing.T) {
	pages := map[int]string{
		5: "1. Introduction This chapter begins here.",
		6: "and concludes the introductory material.",
	}
	events := []llm.Event{
		{Kind: llm.EventStarts, Level: "section", PageNumber: 5, Fingerprint: "1. Introduction"},
		{Kind: llm.EventEnds, Level: "section", PageNumber: 6, Fingerprint: "introductory material."},
	}
	if err := ValidateEvents(events, pages); err != nil {
		t.Fatalf("expected valid batch, got %v", err)
	}
}

func TestValidateEvents_InvalidPageNumbers(t *testing.T) {
	pages := map[int]string{5: "page five", 6: "page six"}
	events := []llm.Event{
		{Kind: llm.EventStarts, PageNumber: 9, Fingerprint: "page five"},
		{Kind: llm.EventContinuation, PageNumber: 5},
		{Kind: llm.EventEnds, PageNumber: 9, Fingerprint: "page six"},
		{Kind: llm.EventEnds, PageNumber: 2, Fingerprint: "page six"},
	}

	err := ValidateEvents(events, pages)
	var pageErr *PageNumberError
	if !errors.As(err, &pageErr) {
		t.Fatalf("expected PageNumberError, got %v", err)
	}
	if !reflect.DeepEqual(pageErr.InvalidPages, []int{2, 9}) {
		t.Errorf("expected invalid pages [2 9], got %v", pageErr.InvalidPages)
	}
	if pageErr.ValidMin != 5 || pageErr.ValidMax != 6 {
		t.Errorf("expected valid range [5,6], got [%d,%d]", pageErr.ValidMin, pageErr.ValidMax)
	}
}

func TestValidateEvents_PageCheckBeforeFingerprints(t *testing.T) {
	// A batch with both problems reports the page error first.
	pages := map[int]string{1: "alpha"}
	events := []llm.Event{
		{Kind: llm.EventStarts, PageNumber: 1, Fingerprint: "missing"},
		{Kind: llm.EventEnds, PageNumber: 3, Fingerprint: "alpha"},
	}
	err := ValidateEvents(events, pages)
	var pageErr *PageNumberError
	if !errors.As(err, &pageErr) {
		t.Fatalf("expected PageNumberError, got %v", err)
	}
}

func TestValidateEvents_MissingFingerprints(t *testing.T) {
	pages := map[int]string{1: "alpha beta", 2: "gamma delta"}
	events := []llm.Event{
		{Kind: llm.EventStarts, PageNumber: 1, Fingerprint: "alpha"},
		{Kind: llm.EventEnds, PageNumber: 1, Fingerprint: "epsilon"},
		{Kind: llm.EventStarts, PageNumber: 2, Fingerprint: "zeta"},
	}

	err := ValidateEvents(events, pages)
	var fpErr *FingerprintError
	if !errors.As(err, &fpErr) {
		t.Fatalf("expected FingerprintError, got %v", err)
	}
	want := []MissingFingerprint{
		{Fingerprint: "epsilon", PageNumber: 1},
		{Fingerprint: "zeta", PageNumber: 2},
	}
	if !reflect.DeepEqual(fpErr.Missing, want) {
		t.Errorf("expected missing %v, got %v", want, fpErr.Missing)
	}
}

func TestValidateEvents_ContinuationNeedsNoFingerprint(t *testing.T) {
	pages := map[int]string{1: "text"}
	events := []llm.Event{
		{Kind: llm.EventContinuation, PageNumber: 1},
		{Kind: llm.EventContinuation, PageNumber: 1, Fingerprint: "not on the page"},
	}
	if err := ValidateEvents(events, pages); err != nil {
		t.Fatalf("expected continuations to pass, got %v", err)
	}
}

func TestValidateEvents_EmptyFingerprintSkipped(t *testing.T) {
	// An empty anchor fingerprint is handled later as a soft drop, not a
	// batch rejection.
	pages := map[int]string{1: "text"}
	events := []llm.Event{
		{Kind: llm.EventStarts, PageNumber: 1, Fingerprint: "  "},
	}
	if err := ValidateEvents(events, pages); err != nil {
		t.Fatalf("expected empty fingerprint to pass validation, got %v", err)
	}
}

func TestValidateEvents_EmptyBatch(t *testing.T) {
	if err := ValidateEvents(nil, map[int]string{1: "x"}); err != nil {
		t.Fatalf("expected empty batch to be valid, got %v", err)
	}
}
