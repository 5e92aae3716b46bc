package engine

import (
	"strings"

	"github.com/docstitch/docstitch/internal/llm"
)

// ValidateEvents checks a candidate event batch against the pages that
// were actually sent to the model: every page_number must be a page in
// the batch, and every STARTS/ENDS fingerprint must be locatable in its
// page's text. Pure; safe to call speculatively before committing
// events to the stitcher.
//
// pageText maps page number to the exact content the model saw.
func ValidateEvents(events []llm.Event, pageText map[int]string) error {
	if len(pageText) == 0 && len(events) == 0 {
		return nil
	}

	validMin, validMax := pageBounds(pageText)

	var invalid []int
	for _, ev := range events {
		if _, ok := pageText[ev.PageNumber]; !ok {
			invalid = append(invalid, ev.PageNumber)
		}
	}
	if len(invalid) > 0 {
		return &PageNumberError{
			InvalidPages: sortedUnique(invalid),
			ValidMin:     validMin,
			ValidMax:     validMax,
		}
	}

	var missing []MissingFingerprint
	for _, ev := range events {
		if ev.Kind == llm.EventContinuation {
			continue
		}
		fp := strings.TrimSpace(ev.Fingerprint)
		if fp == "" {
			// Empty fingerprints are a stitcher soft-failure, not a
			// batch rejection.
			continue
		}
		if _, ok := Locate(pageText[ev.PageNumber], fp); !ok {
			missing = append(missing, MissingFingerprint{
				Fingerprint: fp,
				PageNumber:  ev.PageNumber,
			})
		}
	}
	if len(missing) > 0 {
		return &FingerprintError{Missing: missing}
	}
	return nil
}

func pageBounds(pageText map[int]string) (min, max int) {
	first := true
	for n := range pageText {
		if first {
			min, max = n, n
			first = false
			continue
		}
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	return min, max
}
