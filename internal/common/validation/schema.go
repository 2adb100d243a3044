// Package validation checks job variables against JSON schemas before they are decoded.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// IncidentVariablesSchema describes the variables of a new-incident job.
// Identifiers are bounded here; free-text fields are bounded when composed.
const IncidentVariablesSchema = `{
  "type": "object",
  "required": ["incidentId"],
  "properties": {
    "incidentId":   {"type": "string", "minLength": 1, "maxLength": 128, "pattern": "\\S"},
    "teamName":     {"type": ["string", "null"]},
    "area":         {"type": ["string", "null"]},
    "teamId":       {"type": ["string", "null"], "maxLength": 128},
    "reporterName": {"type": ["string", "null"]}
  }
}`

var incidentSchema = gojsonschema.NewStringLoader(IncidentVariablesSchema)

// ValidationError lists every schema violation found in a document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// ValidateIncidentVariables validates the raw job variables document.
func ValidateIncidentVariables(variables string) error {
	return Validate(incidentSchema, gojsonschema.NewStringLoader(variables))
}

// Validate checks document against schema. A malformed document or schema is
// reported as a plain error, violations as *ValidationError.
func Validate(schema, document gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return &ValidationError{Violations: errs}
	}

	return nil
}
