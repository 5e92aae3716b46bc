package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/docstitch/docstitch/internal/document"
)

// TextParser handles plain text files. The whole file becomes a single
// page; each non-blank line becomes a block with default layout values.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]document.Page, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	var blocks []document.Block

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
		blocks = append(blocks, document.Block{
			Text:       line,
			FontSize:   12,
			FontWeight: "normal",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
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
