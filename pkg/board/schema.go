package board

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/matzehuels/trailmap/pkg/errors"
)

const stepsSchemaURL = "https://trailmap.dev/schemas/steps.json"

const stepsSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://trailmap.dev/schemas/steps.json",
  "type": "object",
  "required": ["steps"],
  "properties": {
    "course": { "type": "string" },
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": { "type": "string", "minLength": 1, "maxLength": 256 },
          "status": { "type": "string" },
          "progress": { "type": "number", "minimum": 0, "maximum": 100 }
        }
      }
    },
    "marker_images": {
      "type": "array",
      "items": { "type": "string", "minLength": 1 }
    }
  }
}`

var (
	stepsSchemaOnce sync.Once
	stepsSchema     *jsonschema.Schema
	stepsSchemaErr  error
)

func compiledStepsSchema() (*jsonschema.Schema, error) {
	stepsSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(stepsSchemaJSON))
		if err != nil {
			stepsSchemaErr = fmt.Errorf("unmarshal steps schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(stepsSchemaURL, doc); err != nil {
			stepsSchemaErr = fmt.Errorf("add steps schema resource: %w", err)
			return
		}
		stepsSchema, stepsSchemaErr = c.Compile(stepsSchemaURL)
	})
	return stepsSchema, stepsSchemaErr
}

// ValidateStepsJSON checks a raw steps document against the steps schema.
// All violations are reported in one INVALID_INPUT error.
func ValidateStepsJSON(data []byte) error {
	schema, err := compiledStepsSchema()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "steps schema")
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "steps document is not valid JSON")
	}
	if err := schema.Validate(doc); err != nil {
		return toInputError(err)
	}
	return nil
}

func toInputError(err error) error {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid steps document")
	}
	violations := collectViolations(verr)
	switch len(violations) {
	case 0:
		return errors.New(errors.ErrCodeInvalidInput, "invalid steps document: %s", verr.Error())
	case 1:
		return errors.New(errors.ErrCodeInvalidInput, "invalid steps document: %s", violations[0])
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid steps document: %d violations: %s",
			len(violations), strings.Join(violations, "; "))
	}
}

func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/" + strings.Join(verr.InstanceLocation, "/")
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}
	var out []string
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}
