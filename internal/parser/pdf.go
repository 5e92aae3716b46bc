package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/docstitch/docstitch/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) ([]document.Page, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docstitch-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		pages, err = extractPdftotextPages(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf pages: %w", err)
	}
	return pages, nil
}

func extractPDFPages(path string) ([]document.Page, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []document.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		pageObj := reader.Page(i)
		if pageObj.V.IsNull() {
			continue
		}
		text, err := pageObj.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		var blocks []document.Block
		content := pageObj.Content()
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			blocks = append(blocks, document.Block{
				Text:       t.S,
				BBox:       [4]float64{t.X, t.Y, t.X + t.W, t.Y + t.FontSize},
				FontSize:   t.FontSize,
				FontWeight: fontWeight(t.Font),
			})
		}

		pages = append(pages, document.Page{
			Number: len(pages) + 1,
			Text:   text,
			Blocks: blocks,
		})
	}
	return pages, nil
}

// fontWeight guesses bold from the PostScript font name.
func fontWeight(fontname string) string {
	lower := strings.ToLower(fontname)
	if strings.Contains(lower, "bold") || strings.Contains(lower, "black") {
		return "bold"
	}
	return "normal"
}

func extractPdftotextPages(path string) ([]document.Page, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}

	// pdftotext separates pages with form feeds. No layout blocks are
	// available on this path; the markup renderer falls back to raw text.
	var pages []document.Page
	for _, part := range strings.Split(string(out), "\f") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pages = append(pages, document.Page{
			Number: len(pages) + 1,
			Text:   part,
		})
	}
	return pages, nil
}
