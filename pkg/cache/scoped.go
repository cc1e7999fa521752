package cache

// ScopedKeyer prefixes every key an inner Keyer builds. Measurements depend
// on slot geometry, so the measurement cache scopes its keys with
// [GeometryKeyer].
type ScopedKeyer struct {
	Keyer
	Prefix string
}

// NewScopedKeyer returns inner scoped by prefix. A nil inner means
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return ScopedKeyer{Keyer: inner, Prefix: prefix}
}

// GeometryKeyer scopes inner to one inventory geometry hash.
func GeometryKeyer(inner Keyer, geometry string) Keyer {
	return NewScopedKeyer(inner, "geom:"+geometry+":")
}

func (k ScopedKeyer) MeasureKey(opts MeasureKeyOpts) string {
	return k.Prefix + k.Keyer.MeasureKey(opts)
}

func (k ScopedKeyer) PlanKey(inputHash string, opts PlanKeyOpts) string {
	return k.Prefix + k.Keyer.PlanKey(inputHash, opts)
}
