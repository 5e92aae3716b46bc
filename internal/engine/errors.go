package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrPagewiseUnsupported is returned by the unbatched processing path,
// which exists only to direct callers to the batched one.
var ErrPagewiseUnsupported = errors.New("pagewise processing is unsupported: use the batched Process path")

// PageNumberError reports events that reference pages outside the batch
// actually sent to the model. Recoverable by a corrective retry.
type PageNumberError struct {
	InvalidPages []int
	ValidMin     int
	ValidMax     int
}

func (e *PageNumberError) Error() string {
	return fmt.Sprintf("events reference invalid pages %v, valid range is [%d,%d]",
		e.InvalidPages, e.ValidMin, e.ValidMax)
}

// MissingFingerprint is one unresolvable anchor claim.
type MissingFingerprint struct {
	Fingerprint string
	PageNumber  int
}

// FingerprintError reports anchors that could not be located in their
// page's text. Recoverable by a corrective retry.
type FingerprintError struct {
	Missing []MissingFingerprint
}

func (e *FingerprintError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, fmt.Sprintf("%q (page %d)", m.Fingerprint, m.PageNumber))
	}
	return "fingerprints not found in page text: " + strings.Join(parts, ", ")
}

func sortedUnique(vals []int) []int {
	seen := make(map[int]bool, len(vals))
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
