package engine

import (
	"strings"

	"github.com/docstitch/docstitch/internal/document"
)

// Assemble converts completed blocks into output chunks. Whitespace-only
// blocks are dropped; page lists cover the block's full start..end range.
// Pure function of its input, safe to call more than once.
func Assemble(blocks []CompletedBlock, sourceDocument string) []document.Chunk {
	chunks := make([]document.Chunk, 0, len(blocks))
	for _, blk := range blocks {
		text := strings.TrimSpace(blk.Text)
		if text == "" {
			continue
		}

		start, end := blk.StartPage, blk.EndPage
		if end < start {
			end = start
		}
		pages := make([]int, 0, end-start+1)
		for p := start; p <= end; p++ {
			pages = append(pages, p)
		}

		chunks = append(chunks, document.Chunk{
			Text: text,
			Metadata: document.Metadata{
				Title:           blk.Title,
				Level:           blk.Level,
				SourceDocument:  sourceDocument,
				Pages:           pages,
				ParentHierarchy: append([]string(nil), blk.ParentHierarchy...),
			},
		})
	}
	return chunks
}
