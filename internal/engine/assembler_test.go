package engine

import (
	"reflect"
	"testing"
)

func TestAssemble_Basic(t *testing.T) {
	blocks := []CompletedBlock{
		{
			ID:              "b1",
			Level:           "section",
			Title:           "Introduction",
			Text:            "  1. Introduction\nBody text.  ",
			StartPage:       1,
			EndPage:         3,
			ParentHierarchy: []string{"Manual"},
		},
	}

	chunks := Assemble(blocks, "manual.pdf")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Text != "1. Introduction\nBody text." {
		t.Errorf("expected trimmed text, got %q", c.Text)
	}
	if c.Metadata.Title != "Introduction" || c.Metadata.Level != "section" {
		t.Errorf("unexpected metadata: %+v", c.Metadata)
	}
	if c.Metadata.SourceDocument != "manual.pdf" {
		t.Errorf("expected source document, got %q", c.Metadata.SourceDocument)
	}
	if !reflect.DeepEqual(c.Metadata.Pages, []int{1, 2, 3}) {
		t.Errorf("expected pages [1 2 3], got %v", c.Metadata.Pages)
	}
	if !reflect.DeepEqual(c.Metadata.ParentHierarchy, []string{"Manual"}) {
		t.Errorf("expected parent hierarchy [Manual], got %v", c.Metadata.ParentHierarchy)
	}
}

func TestAssemble_DropsEmptyBlocks(t *testing.T) {
	blocks := []CompletedBlock{
		{Text: "   \n\t  ", StartPage: 1, EndPage: 1},
		{Text: "kept", StartPage: 2, EndPage: 2},
	}
	chunks := Assemble(blocks, "doc.txt")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "kept" {
		t.Errorf("expected surviving chunk %q, got %q", "kept", chunks[0].Text)
	}
}

func TestAssemble_EndPageBeforeStartPage(t *testing.T) {
	// Force-closed blocks can carry an end page before their start page;
	// the page list still covers at least the start page.
	blocks := []CompletedBlock{
		{Text: "late block", StartPage: 4, EndPage: 1},
	}
	chunks := Assemble(blocks, "doc.txt")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !reflect.DeepEqual(chunks[0].Metadata.Pages, []int{4}) {
		t.Errorf("expected pages [4], got %v", chunks[0].Metadata.Pages)
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	blocks := []CompletedBlock{
		{Text: "a", StartPage: 1, EndPage: 1},
		{Text: "b", StartPage: 1, EndPage: 2},
	}
	first := Assemble(blocks, "doc.txt")
	second := Assemble(blocks, "doc.txt")
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical output across calls")
	}
}

func TestAssemble_Empty(t *testing.T) {
	if got := Assemble(nil, "doc.txt"); len(got) != 0 {
		t.Errorf("expected no chunks, got %d", len(got))
	}
}
