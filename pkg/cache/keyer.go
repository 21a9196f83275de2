package cache

import "fmt"

// Keyer builds cache keys. Keys are namespaced by kind so one backend can
// hold every kind of entry.
type Keyer interface {
	// PageKey identifies one page of a course listing on a backend.
	PageKey(baseURL, course string, page, pageSize int) string

	// LayoutKey identifies a layout computed from a steps document.
	LayoutKey(stepsHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the inputs besides the steps that change a layout.
type LayoutKeyOpts struct {
	Width        float64  `json:"width"`
	ConfigHash   string   `json:"config_hash"`
	MarkerImages []string `json:"marker_images,omitempty"`
}

// ArtifactKeyOpts are the inputs besides the layout that change an artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Theme  string `json:"theme,omitempty"`
	Labels bool   `json:"labels,omitempty"`
}

// DefaultKeyer is the standard key scheme:
//
//	page:<baseURL>:<course>:<page>:<size>
//	layout:<sha256(stepsHash, opts)>
//	artifact:<sha256(layoutHash, opts)>
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) PageKey(baseURL, course string, page, pageSize int) string {
	return fmt.Sprintf("page:%s:%s:%d:%d", baseURL, course, page, pageSize)
}

func (DefaultKeyer) LayoutKey(stepsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", stepsHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
