package cache

// ScopedKeyer prefixes every key of another Keyer, so servers with
// different defaults can share one Redis.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "flowscope:staging:")
type ScopedKeyer struct {
	Keyer
	Prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return ScopedKeyer{Keyer: inner, Prefix: prefix}
}

func (k ScopedKeyer) TraceKey(sourceHash string) string {
	return k.Prefix + k.Keyer.TraceKey(sourceHash)
}

func (k ScopedKeyer) LayoutKey(traceHash string, opts LayoutKeyOpts) string {
	return k.Prefix + k.Keyer.LayoutKey(traceHash, opts)
}

func (k ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.Prefix + k.Keyer.ArtifactKey(layoutHash, opts)
}
