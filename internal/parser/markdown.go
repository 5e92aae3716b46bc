package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/docstitch/docstitch/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. The document
// becomes a single page; headings carry font attributes derived from
// their level so downstream rendering can reconstruct the structure.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]document.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var lines []string
	var blocks []document.Block

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := string(node.Text(src))
			if title == "" {
				continue
			}
			lines = append(lines, title)
			blocks = append(blocks, document.Block{
				Text:       title,
				FontSize:   headingFontSize(node.Level),
				FontWeight: "bold",
			})
		default:
			t := extractText(n, src)
			if t == "" {
				continue
			}
			lines = append(lines, t)
			blocks = append(blocks, document.Block{
				Text:       t,
				FontSize:   12,
				FontWeight: "normal",
			})
		}
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

func headingFontSize(level int) float64 {
	size := 24.0 - float64(level-1)*2
	if size < 14 {
		size = 14
	}
	return size
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	// Also handle inline children.
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			// Recurse for nested inlines.
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
