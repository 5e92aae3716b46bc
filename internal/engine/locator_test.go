package engine

import "testing"

func TestLocate_ExactMatch(t *testing.T) {
	page := "Intro text. 3.1 Scope: This section covers the basics."
	span, ok := Locate(page, "3.1 Scope")
	if !ok {
		t.Fatal("expected to find fingerprint")
	}
	if got := page[span.Start:span.End]; got != "3.1 Scope" {
		t.Errorf("expected span text %q, got %q", "3.1 Scope", got)
	}
	if span.Start != 12 {
		t.Errorf("expected start 12, got %d", span.Start)
	}
}

func TestLocate_FirstOccurrenceWins(t *testing.T) {
	page := "alpha beta alpha beta"
	span, ok := Locate(page, "alpha")
	if !ok {
		t.Fatal("expected to find fingerprint")
	}
	if span.Start != 0 {
		t.Errorf("expected first occurrence at 0, got %d", span.Start)
	}
}

func TestLocate_WhitespaceTolerantInLine(t *testing.T) {
	// Double space in the page, single space in the fingerprint.
	page := "Refer to Safety  Procedures for details."
	span, ok := Locate(page, "Safety Procedures")
	if !ok {
		t.Fatal("expected whitespace-tolerant match")
	}
	if got := page[span.Start:span.End]; got != "Safety  Procedures" {
		t.Errorf("expected span text %q, got %q", "Safety  Procedures", got)
	}
}

func TestLocate_AcrossLineBreak(t *testing.T) {
	page := "see the Safety\nProcedures chapter"
	span, ok := Locate(page, "Safety Procedures")
	if !ok {
		t.Fatal("expected match across line break")
	}
	if got := page[span.Start:span.End]; got != "Safety\nProcedures" {
		t.Errorf("expected span to cover original text with newline, got %q", got)
	}
}

func TestLocate_SpanCoversOriginalWhitespace(t *testing.T) {
	// The located span must slice the original text, not the length of
	// the searched fingerprint.
	page := "a   b c"
	span, ok := Locate(page, "a b")
	if !ok {
		t.Fatal("expected tolerant match")
	}
	if got := page[span.Start:span.End]; got != "a   b" {
		t.Errorf("expected %q, got %q", "a   b", got)
	}
}

func TestLocate_FingerprintTrimmed(t *testing.T) {
	page := "one two three"
	span, ok := Locate(page, "  two  ")
	if !ok {
		t.Fatal("expected trimmed fingerprint to match")
	}
	if got := page[span.Start:span.End]; got != "two" {
		t.Errorf("expected %q, got %q", "two", got)
	}
}

func TestLocate_NotFound(t *testing.T) {
	if _, ok := Locate("some page text", "absent phrase"); ok {
		t.Error("expected no match")
	}
}

func TestLocate_NoFuzzyMatching(t *testing.T) {
	// One character off must not match.
	if _, ok := Locate("Safety Procedures", "Safety Procedure!"); ok {
		t.Error("expected near-miss to fail")
	}
}

func TestLocate_EmptyInputs(t *testing.T) {
	if _, ok := Locate("", "x"); ok {
		t.Error("expected no match in empty page")
	}
	if _, ok := Locate("page", ""); ok {
		t.Error("expected empty fingerprint to fail")
	}
	if _, ok := Locate("page", "   "); ok {
		t.Error("expected whitespace-only fingerprint to fail")
	}
}

func TestLocate_Unicode(t *testing.T) {
	page := "vor dem Kapitel Sicherheitsmaßnahmen\nund Prüfung danach"
	span, ok := Locate(page, "Sicherheitsmaßnahmen und Prüfung")
	if !ok {
		t.Fatal("expected match")
	}
	if got := page[span.Start:span.End]; got != "Sicherheitsmaßnahmen\nund Prüfung" {
		t.Errorf("unexpected span text %q", got)
	}
}
