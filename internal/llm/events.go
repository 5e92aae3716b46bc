package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// EventKind is the closed set of structural claims the model can make.
// Levels, by contrast, are an open vocabulary.
type EventKind string

const (
	EventStarts       EventKind = "STARTS"
	EventEnds         EventKind = "ENDS"
	EventContinuation EventKind = "CONTINUATION"
)

// Event is one structural claim from the model about a page.
type Event struct {
	Kind        EventKind `json:"event"`
	Level       string    `json:"level"`
	PageNumber  int       `json:"page_number"`
	Title       string    `json:"title,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
}

// EventBatch is the decoded wire shape of one model response.
type EventBatch struct {
	Events []Event `json:"events"`
}

// ResponseFormatError reports a model response that could not be decoded
// as an event batch. It is not recoverable by a corrective prompt: the
// shape itself was unparseable or violated the schema.
type ResponseFormatError struct {
	Raw string
	Err error
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("malformed model response: %v (raw: %s)", e.Err, truncate(e.Raw, 200))
}

func (e *ResponseFormatError) Unwrap() error { return e.Err }

// DecodeEventBatch parses and validates a raw model response. The whole
// response is rejected if any event is missing a required field or uses
// an unknown event kind; extra fields are ignored.
func DecodeEventBatch(raw string) (*EventBatch, error) {
	text := stripCodeBlock(raw)
	if strings.TrimSpace(text) == "" {
		return nil, &ResponseFormatError{Raw: raw, Err: fmt.Errorf("empty response")}
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ResponseFormatError{Raw: raw, Err: fmt.Errorf("parse json: %w", err)}
	}
	if err := eventSchema.Validate(doc); err != nil {
		return nil, &ResponseFormatError{Raw: raw, Err: fmt.Errorf("schema: %w", err)}
	}

	var batch EventBatch
	if err := json.Unmarshal([]byte(text), &batch); err != nil {
		return nil, &ResponseFormatError{Raw: raw, Err: fmt.Errorf("decode events: %w", err)}
	}
	return &batch, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
