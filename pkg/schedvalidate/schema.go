// Package schedvalidate implements the out-of-core validator and loader
// described by the calendar-input contract: a JSON document format for
// weekly rules plus dated exceptions, validated before it is ever handed to
// workcal.New.
package schedvalidate

import "bytes"

// JSONSchema returns the generated JSON Schema for the calendar-input
// document, built field-by-field rather than derived by reflection so its
// text matches the documented shape exactly.
func JSONSchema() []byte {
	var buf bytes.Buffer
	buf.WriteString(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "calendar-input",
  "type": "object",
  "properties": {
    "id": {"type": "string"},
    "calendar": {"$ref": "#/$defs/calendar"}
  },
  "required": ["calendar"],
  "$defs": {
    "calendar": {
      "type": "object",
      "properties": {
        "rules": {
          "type": "object",
          "patternProperties": {
            "^[0-6]$": {
              "type": "array",
              "items": {
                "type": "array",
                "items": {"type": "string", "pattern": "^[0-2][0-9]:[0-5][0-9]$"},
                "minItems": 2,
                "maxItems": 2
              }
            }
          },
          "additionalProperties": false
        },
        "exceptions": {
          "type": "object",
          "patternProperties": {
            "^\\d{4}-\\d{2}-\\d{2}$": {
              "type": "array",
              "items": {"$ref": "#/$defs/exceptionEntry"}
            }
          },
          "additionalProperties": false
        }
      },
      "required": ["rules"]
    },
    "exceptionEntry": {
      "type": "object",
      "properties": {
        "is_working": {"type": "boolean"},
        "start": {"type": "string", "pattern": "^[0-2][0-9]:[0-5][0-9]$"},
        "end": {"type": "string", "pattern": "^[0-2][0-9]:[0-5][0-9]$"}
      },
      "required": ["is_working"]
    }
  }
}
`)
	return buf.Bytes()
}
