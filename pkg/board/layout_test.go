package board

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/trailmap/pkg/core/trail"
	"github.com/matzehuels/trailmap/pkg/errors"
)

func samplePath(t *testing.T) trail.Path {
	t.Helper()
	steps := make([]trail.Step, 10)
	for i := range steps {
		steps[i] = trail.Step{ID: string(rune('a' + i))}
	}
	steps[0].Status = trail.Completed
	steps[1].Status, steps[1].Progress = trail.InProgress, 50

	p, err := trail.LayoutPath(steps, 390, []string{"pikachu.png", "eevee.png"})
	if err != nil {
		t.Fatalf("LayoutPath: %v", err)
	}
	return p
}

func TestLayoutRoundTrip(t *testing.T) {
	p := samplePath(t)
	l := FromPath(p, trail.DefaultConfig())

	data, err := MarshalLayout(l)
	if err != nil {
		t.Fatalf("MarshalLayout: %v", err)
	}
	got, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}
	if !reflect.DeepEqual(got.ToPath(), p) {
		t.Errorf("round trip changed the path:\n got %+v\nwant %+v", got.ToPath(), p)
	}
	if got.Config != trail.DefaultConfig() {
		t.Errorf("Config = %+v, want defaults", got.Config)
	}
}

func TestLayoutJSONShape(t *testing.T) {
	data, err := MarshalLayout(FromPath(samplePath(t), trail.DefaultConfig()))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"side": "right"`, `"icon": "peak"`, `"facing": "left"`, `"anchor_id": "g"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("layout JSON missing %s", want)
		}
	}
}

func TestUnmarshalLayoutRejectsInconsistent(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad json", `{`},
		{"zero width", `{"width": 0, "nodes": [], "markers": []}`},
		{"index gap", `{"width": 390, "nodes": [{"id": "a", "index": 1}]}`},
		{"dangling marker", `{"width": 390, "nodes": [{"id": "a", "index": 0}], "markers": [{"anchor_id": "a", "anchor_index": 2}]}`},
		{"wrong anchor id", `{"width": 390, "nodes": [{"id": "a", "index": 0}], "markers": [{"anchor_id": "b", "anchor_index": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalLayout([]byte(tt.doc))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestLayoutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "path.layout.json")
	l := FromPath(samplePath(t), trail.DefaultConfig())
	l.StepsHash = "abc123"

	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile: %v", err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile: %v", err)
	}
	if got.StepsHash != "abc123" || len(got.Nodes) != 10 || len(got.Markers) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestIsLayoutJSON(t *testing.T) {
	data, _ := MarshalLayout(FromPath(samplePath(t), trail.DefaultConfig()))
	if !IsLayoutJSON(data) {
		t.Error("IsLayoutJSON(layout) = false")
	}
	if IsLayoutJSON([]byte(stepsJSON)) {
		t.Error("IsLayoutJSON(steps) = true")
	}
	if IsLayoutJSON([]byte("not json")) {
		t.Error("IsLayoutJSON(garbage) = true")
	}
}
