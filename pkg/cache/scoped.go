package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving each tenant
// (school, classroom, API token) its own namespace in a shared backend.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "school:42:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) PageKey(baseURL, course string, page, pageSize int) string {
	return k.prefix + k.inner.PageKey(baseURL, course, page, pageSize)
}

func (k *ScopedKeyer) LayoutKey(stepsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(stepsHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
