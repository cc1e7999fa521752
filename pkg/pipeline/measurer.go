package pipeline

import (
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/slotfit/pkg/measure"
	"github.com/matzehuels/slotfit/pkg/page"
)

// BaseMeasurer returns the unrelaxed measurer selected by opts. Proof
// documents re-check placed frames with it.
func BaseMeasurer(opts Options) measure.Measurer {
	cfg := opts.Config
	if opts.Measurer == MeasurerCapacity {
		return measure.NewCapacity(cfg.Body, cfg.Title)
	}
	return measure.NewTypesetter(cfg.Body, cfg.Title)
}

// measurer builds the solve-time stack for one inventory:
//
//	Cached → Serial(lock) → Relaxer → base
//
// Memo hits do not take the host lock. Persisted entries are scoped by the
// inventory geometry.
func (r *Runner) measurer(opts Options, inv *page.Inventory, lock *semaphore.Weighted) *measure.Cached {
	relaxed := measure.NewRelaxer(BaseMeasurer(opts), opts.Config.Overset)
	return measure.NewCached(measure.NewSerialShared(relaxed, lock), measure.CacheOptions{
		Store:   r.Cache,
		Keyer:   r.Keyer,
		Scope:   inv.GeometryHash(),
		Variant: opts.measureVariant(),
		TTL:     opts.Config.Cache.TTL,
		Logger:  opts.Logger,
	})
}
