package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docstitch/docstitch/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Word documents flow without fixed
// pages, so the whole document becomes a single page; paragraphs become
// blocks with heading styles mapped to larger bold fonts.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) ([]document.Page, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docstitch-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	var blocks []document.Block

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		lines = append(lines, text)
		blocks = append(blocks, docxBlock(para, text))
	}

	if len(lines) == 0 {
		return nil, nil
	}

	return []document.Page{{
		Number: 1,
		Text:   strings.Join(lines, "\n"),
		Blocks: blocks,
	}}, nil
}

// docxBlock maps the paragraph's heading style onto font attributes so
// the markup renderer can promote headings.
func docxBlock(para *docx.Paragraph, text string) document.Block {
	level := docxHeadingLevel(para)
	if level == 0 {
		return document.Block{Text: text, FontSize: 12, FontWeight: "normal"}
	}
	size := 24.0 - float64(level-1)*2
	if size < 14 {
		size = 14
	}
	return document.Block{Text: text, FontSize: size, FontWeight: "bold"}
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch style {
	case "heading1":
		return 1
	case "heading2":
		return 2
	case "heading3":
		return 3
	case "heading4":
		return 4
	case "heading5":
		return 5
	case "heading6":
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
