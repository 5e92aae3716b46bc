package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// systemPrompt instructs the model to emit boundary events rather than
// chunk text. The engine reconstructs exact text itself, so the model
// only ever reports where blocks start and end.
const systemPrompt = `You are a document structure analyst. You receive consecutive pages of a document and report the structural blocks you observe as a list of events. You never copy out block contents; you only mark boundaries.

For each page, emit zero or more events:

- "STARTS": a new structural block begins on this page. Include a "fingerprint": the first 3-8 words of the block, copied verbatim from the page text (including any heading number). Include a "title" when the block has one.
- "ENDS": the innermost open block finishes on this page. Include a "fingerprint": the last 3-8 words of the block, copied verbatim from the page text.
- "CONTINUATION": an open block continues across this page with no boundary on it. No fingerprint.

Rules:
- Fingerprints must appear verbatim in the page text they reference. Do not paraphrase, correct typos, or normalize punctuation.
- "page_number" must be one of the page numbers shown to you in this request.
- Blocks nest: close inner blocks before their parents. A block that opened on an earlier page is listed for you under OPEN BLOCKS; you may close it but must not re-open it.
- "level" describes the kind of block: "section", "subsection", "paragraph", "table", "list", or "figure".
- When a section ends exactly where the next begins, emit the ENDS event and then the STARTS event, both with their own fingerprints.

Respond with a single JSON object and nothing else:

{
  "events": [
    {"event": "STARTS", "level": "section", "page_number": 1, "title": "Introduction", "fingerprint": "1. Introduction This document describes"},
    {"event": "CONTINUATION", "level": "section", "page_number": 2},
    {"event": "ENDS", "level": "section", "page_number": 3, "fingerprint": "concludes the introductory material."}
  ]
}`

// SystemPrompt returns the instruction text sent with every batch.
func SystemPrompt() string { return systemPrompt }

// BuildBatchPrompt assembles the user prompt for one batch of pages.
// openBlocks is the stitcher's current open stack; corrections carries
// accumulated feedback from failed attempts and is appended verbatim.
func BuildBatchPrompt(pages []int, contents map[int]string, openBlocks []BlockSummary, corrections []string) string {
	var b strings.Builder

	if len(pages) == 1 {
		fmt.Fprintf(&b, "Analyze page %d of the document.\n\n", pages[0])
	} else {
		fmt.Fprintf(&b, "Analyze pages %d-%d of the document.\n\n", pages[0], pages[len(pages)-1])
	}

	if len(openBlocks) > 0 {
		b.WriteString("OPEN BLOCKS (innermost last, opened on earlier pages, still awaiting their ENDS event):\n")
		for _, ob := range openBlocks {
			enc, err := json.Marshal(ob)
			if err != nil {
				continue
			}
			b.Write(enc)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	} else {
		b.WriteString("OPEN BLOCKS: none. The document has no open blocks yet.\n\n")
	}

	for _, p := range pages {
		fmt.Fprintf(&b, "--- PAGE %d ---\n", p)
		b.WriteString(contents[p])
		if !strings.HasSuffix(contents[p], "\n") {
			b.WriteByte('\n')
		}
	}

	if len(corrections) > 0 {
		b.WriteString("\nYour previous response had problems. Fix them this time:\n")
		for _, c := range corrections {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// estimateTokens approximates the token count of text for budget checks.
// Word count scaled up, which tracks English prose closely enough.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) * 1.33)
}
