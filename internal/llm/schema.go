package llm

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// eventSchemaJSON is the canonical JSON schema for event batches. The
// same document is sent to providers as the structured-output format and
// compiled locally so responses fail closed instead of partial-parsing.
const eventSchemaJSON = `{
  "type": "object",
  "properties": {
    "events": {
      "type": "array",
      "description": "List of structural events identified in the document pages",
      "items": {
        "type": "object",
        "properties": {
          "event": {
            "type": "string",
            "enum": ["STARTS", "ENDS", "CONTINUATION"],
            "description": "The type of structural event"
          },
          "level": {
            "type": "string",
            "description": "The semantic level of the element (e.g. 'section', 'table', 'list', 'code_block')"
          },
          "page_number": {
            "type": "integer",
            "minimum": 1,
            "description": "The 1-indexed page number where this event occurs"
          },
          "title": {
            "type": "string",
            "description": "The title of the element, expected on STARTS events"
          },
          "fingerprint": {
            "type": "string",
            "description": "A short verbatim text snippet anchoring the event's position on the page"
          }
        },
        "required": ["event", "level", "page_number"]
      }
    }
  },
  "required": ["events"]
}`

// responseFormatJSON wraps the schema the way chat-completions endpoints
// expect a structured-output request.
const responseFormatJSON = `{
  "type": "json_schema",
  "json_schema": {
    "name": "document_structure_events",
    "description": "Structural events marking where semantic blocks start, end, or continue",
    "schema": ` + eventSchemaJSON + `,
    "strict": false
  }
}`

var eventSchema = jsonschema.MustCompileString("events.json", eventSchemaJSON)

// EventResponseFormat returns the response_format payload for providers
// that support structured output.
func EventResponseFormat() string {
	return strings.TrimSpace(responseFormatJSON)
}
