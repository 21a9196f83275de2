package board

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
)

// Format names an input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Steps is the input document: a course in display order.
type Steps struct {
	Course       string    `json:"course,omitempty" yaml:"course,omitempty" bson:"course,omitempty"`
	Steps        []StepDoc `json:"steps" yaml:"steps" bson:"steps"`
	MarkerImages []string  `json:"marker_images,omitempty" yaml:"marker_images,omitempty" bson:"marker_images,omitempty"`
}

// StepDoc is one step as the backend reports it. Status is kept verbatim;
// unknown values are folded to NOT_STARTED only when converting.
type StepDoc struct {
	ID       string  `json:"id" yaml:"id" bson:"id"`
	Status   string  `json:"status,omitempty" yaml:"status,omitempty" bson:"status,omitempty"`
	Progress float64 `json:"progress,omitempty" yaml:"progress,omitempty" bson:"progress,omitempty"`
}

// ToTrail converts the document into engine steps.
// Every id is validated; duplicates are rejected.
func (s Steps) ToTrail() ([]trail.Step, error) {
	out := make([]trail.Step, len(s.Steps))
	seen := make(map[string]int, len(s.Steps))
	for i, d := range s.Steps {
		if err := errors.ValidateStepID(d.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "step %d", i)
		}
		if j, dup := seen[d.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate step id %q at %d and %d", d.ID, j, i)
		}
		seen[d.ID] = i
		out[i] = trail.Step{ID: d.ID, Status: trail.ParseStatus(d.Status), Progress: d.Progress}
	}
	return out, nil
}

// FromTrail builds a document from engine steps.
func FromTrail(course string, steps []trail.Step, images []string) Steps {
	docs := make([]StepDoc, len(steps))
	for i, s := range steps {
		docs[i] = StepDoc{ID: s.ID, Status: s.Status.String(), Progress: s.Progress}
	}
	return Steps{Course: course, Steps: docs, MarkerImages: images}
}

// ReadSteps decodes and validates a steps document.
// YAML input is normalized to JSON before schema validation so both
// encodings are held to the same rules.
func ReadSteps(r io.Reader, format Format) (Steps, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Steps{}, fmt.Errorf("read steps: %w", err)
	}
	if format == FormatYAML {
		if data, err = yamlToJSON(data); err != nil {
			return Steps{}, err
		}
	}
	return ParseStepsJSON(data)
}

// ParseStepsJSON validates data against the steps schema and decodes it.
func ParseStepsJSON(data []byte) (Steps, error) {
	if err := ValidateStepsJSON(data); err != nil {
		return Steps{}, err
	}
	var s Steps
	if err := json.Unmarshal(data, &s); err != nil {
		return Steps{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode steps")
	}
	return s, nil
}

// ReadStepsFile reads a steps document, choosing the decoder by extension.
func ReadStepsFile(path string) (Steps, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Steps{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "steps file %s", path)
		}
		return Steps{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSteps(f, FormatFromPath(path))
}

// MarshalSteps encodes a steps document in the given format.
func MarshalSteps(s Steps, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(s)
	}
	return json.MarshalIndent(s, "", "  ")
}

// WriteStepsFile writes a steps document, choosing the encoder by extension.
func WriteStepsFile(s Steps, path string) error {
	data, err := MarshalSteps(s, FormatFromPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "yaml document is not representable as JSON")
	}
	return out, nil
}
