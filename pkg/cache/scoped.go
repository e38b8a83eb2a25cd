package cache

// ScopedKeyer prefixes the keys of another Keyer. Endpoints queried with
// different credentials may see different data, so their responses are kept
// apart even when they share a URL and a backend.
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "user:alice:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer that prepends prefix to every key of
// inner, or of the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) QueryKey(endpoint string, defaultGraphs []string, accept, query string) string {
	return k.prefix + k.inner.QueryKey(endpoint, defaultGraphs, accept, query)
}
