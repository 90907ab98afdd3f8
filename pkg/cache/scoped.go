package cache

// ScopedKeyer wraps a Keyer with a prefix, giving separate namespaces in a
// shared backend such as one Redis instance used by several projects.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "hiweave:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HierarchyKey generates a prefixed hierarchy key.
func (k *ScopedKeyer) HierarchyKey(inputHash string, opts HierarchyKeyOpts) string {
	return k.prefix + k.inner.HierarchyKey(inputHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(documentHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(documentHash, opts)
}
