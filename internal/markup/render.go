// Package markup converts a page's layout blocks into a simplified
// markdown rendering for the model. Font size and weight heuristics
// recover headings and emphasis that plain text extraction loses.
package markup

import (
	"strings"

	"github.com/docstitch/docstitch/internal/document"
)

// Render produces a markdown view of a page. When no layout blocks are
// available it returns the raw page text unchanged.
func Render(page document.Page) string {
	if len(page.Blocks) == 0 {
		return page.Text
	}

	bodySize := dominantFontSize(page.Blocks)
	if bodySize <= 0 {
		return page.Text
	}

	merged := mergeBlocks(page.Blocks)

	var lines []string
	for _, b := range merged {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}

		isHeading := b.FontSize > bodySize*1.15
		isBold := b.FontWeight == "bold"

		switch {
		case isHeading && isBold:
			if b.FontSize > bodySize*1.5 {
				lines = append(lines, "# "+text)
			} else {
				lines = append(lines, "## "+text)
			}
		case isBold:
			lines = append(lines, "**"+text+"**")
		default:
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, "\n\n")
}

// dominantFontSize returns the most frequent positive font size, the
// best guess at the body text style.
func dominantFontSize(blocks []document.Block) float64 {
	counts := make(map[float64]int)
	for _, b := range blocks {
		if b.FontSize > 0 {
			counts[b.FontSize]++
		}
	}
	var best float64
	bestCount := 0
	for size, n := range counts {
		if n > bestCount || (n == bestCount && size < best) {
			best = size
			bestCount = n
		}
	}
	return best
}

// mergeBlocks joins consecutive blocks that share font size and weight,
// so word-level extraction does not fragment paragraphs.
func mergeBlocks(blocks []document.Block) []document.Block {
	if len(blocks) == 0 {
		return nil
	}
	merged := make([]document.Block, 0, len(blocks))
	current := blocks[0]
	for _, next := range blocks[1:] {
		if next.FontSize == current.FontSize && next.FontWeight == current.FontWeight {
			current.Text += " " + next.Text
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)
	return merged
}
