package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span marks a located fingerprint inside the original page text. End is
// exclusive. With whitespace-tolerant matches the span length can differ
// from the searched fingerprint's length; callers must slice with the
// span, never with len(fingerprint).
type Span struct {
	Start int
	End   int
}

// Locate finds the first occurrence of fingerprint in pageText.
//
// It tries three strategies in order: exact substring match, a
// whitespace-tolerant per-line match, and a whitespace-collapsed match
// over the whole page (which catches fingerprints whose whitespace
// drift spans a line break). There is no fuzzy matching: the
// fingerprint's non-whitespace content must appear verbatim or the
// lookup fails.
func Locate(pageText, fingerprint string) (Span, bool) {
	fp := strings.TrimSpace(fingerprint)
	if fp == "" {
		return Span{}, false
	}

	if i := strings.Index(pageText, fp); i >= 0 {
		return Span{Start: i, End: i + len(fp)}, true
	}

	cfp, _ := collapseWhitespace(fp)
	if cfp == "" {
		return Span{}, false
	}

	if sp, ok := locateInLines(pageText, cfp); ok {
		return sp, true
	}
	return locateCollapsed(pageText, cfp, 0)
}

// locateInLines searches each line with whitespace stripped, mapping the
// match back to offsets in the original text.
func locateInLines(pageText, collapsedFP string) (Span, bool) {
	lineStart := 0
	for {
		lineEnd := strings.IndexByte(pageText[lineStart:], '\n')
		var line string
		if lineEnd < 0 {
			line = pageText[lineStart:]
		} else {
			line = pageText[lineStart : lineStart+lineEnd]
		}

		if sp, ok := locateCollapsed(line, collapsedFP, lineStart); ok {
			return sp, true
		}

		if lineEnd < 0 {
			return Span{}, false
		}
		lineStart += lineEnd + 1
	}
}

// locateCollapsed removes all whitespace from text, searches for the
// collapsed fingerprint, and maps the match back through a byte-offset
// table. base shifts the resulting span into page coordinates.
func locateCollapsed(text, collapsedFP string, base int) (Span, bool) {
	collapsed, offsets := collapseWhitespace(text)
	i := strings.Index(collapsed, collapsedFP)
	if i < 0 {
		return Span{}, false
	}
	start := offsets[i]
	end := offsets[i+len(collapsedFP)-1] + 1
	return Span{Start: base + start, End: base + end}, true
}

// collapseWhitespace strips all whitespace runes from s. The returned
// slice maps each byte of the collapsed string to the byte offset it
// came from in s.
func collapseWhitespace(s string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, 0, len(s))
	for i, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
		for k := 0; k < utf8.RuneLen(r); k++ {
			offsets = append(offsets, i+k)
		}
	}
	return b.String(), offsets
}
