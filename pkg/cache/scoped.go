package cache

// ScopedKeyer prefixes every key produced by an inner Keyer, so several
// consumers can share one backend without colliding. The API server scopes
// its keys with "api:" to keep them apart from CLI entries in a shared Redis.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer means DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// GraphKey implements Keyer.
func (k *ScopedKeyer) GraphKey(recordsHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(recordsHash, opts)
}

// LayoutKey implements Keyer.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
