package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/docstitch/docstitch/internal/document"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. The document becomes a single page;
// heading tags carry level-derived font attributes.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) ([]document.Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var lines []string
	var blocks []document.Block

	appendBlock := func(text string, level int) {
		if text == "" {
			return
		}
		lines = append(lines, text)
		if level > 0 {
			blocks = append(blocks, document.Block{
				Text:       text,
				FontSize:   headingFontSize(level),
				FontWeight: "bold",
			})
		} else {
			blocks = append(blocks, document.Block{
				Text:       text,
				FontSize:   12,
				FontWeight: "normal",
			})
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				appendBlock(textContent(n), level)
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "pre":
				appendBlock(textContent(n), 0)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
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

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
