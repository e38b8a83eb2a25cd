package cache

// Keyer derives cache keys.
type Keyer interface {
	// QueryKey identifies the response of one protocol request.
	QueryKey(endpoint string, defaultGraphs []string, accept, query string) string
}

// DefaultKeyer hashes every request component into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// QueryKey returns "query:<sha256>" over all arguments.
func (DefaultKeyer) QueryKey(endpoint string, defaultGraphs []string, accept, query string) string {
	return hashKey("query", endpoint, defaultGraphs, accept, query)
}
