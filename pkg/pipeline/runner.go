package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/slotfit/pkg/cache"
	slotio "github.com/matzehuels/slotfit/pkg/io"
	"github.com/matzehuels/slotfit/pkg/observability"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/proof"
	"github.com/matzehuels/slotfit/pkg/realize"
	"github.com/matzehuels/slotfit/pkg/report"
	"github.com/matzehuels/slotfit/pkg/solver"
)

// Runner executes the pipeline with caching. CLI and API share it.
//
// The Runner holds no per-run state; several goroutines may use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Run solves, realizes and renders every inventory covering slots and notes.
//
// Inventories with slots but no notes produce no_docx_found rows. Notes on
// pages without slots are solved against an empty inventory and come back
// with no_slot_available. A canceled context stops the run between pages;
// the pages finished so far are returned along with ctx's error.
func (r *Runner) Run(ctx context.Context, slots []page.Slot, notes []page.Note, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	invs, err := page.Partition(slots, slotio.NotePages(notes), opts.Spreads)
	if err != nil {
		return nil, err
	}
	grouped, orphans := slotio.GroupNotes(invs, notes)
	for _, n := range orphans {
		opts.Logger.Warn("note outside every page", "note", n.ID, "page", n.Page)
	}

	result := &Result{Report: report.New(opts.Config.Solver.Strategy)}
	for _, inv := range invs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		pr, err := r.RunPage(ctx, inv, grouped[inv.Key()], opts)
		if err != nil {
			return result, fmt.Errorf("page %s: %w", inv.Key(), err)
		}
		result.add(pr)
		result.Report.Rows = append(result.Report.Rows, pr.Rows...)
	}

	opts.Logger.Info("run complete",
		"inventories", result.Stats.Inventories,
		"notes", result.Stats.Notes,
		"overflow", result.Stats.Overflow,
		"hard", result.Stats.Hard,
		"plan_hits", result.CacheInfo.PlanHits)
	return result, nil
}

// RunPage solves, realizes and renders one inventory.
func (r *Runner) RunPage(ctx context.Context, inv *page.Inventory, notes []page.Note, opts Options) (PageResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return PageResult{}, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	pr := PageResult{Key: inv.Key(), Pages: inv.Pages()}
	pr.Rows = append(pr.Rows, emptyPageRows(inv, notes)...)
	if len(notes) == 0 {
		opts.Logger.Info("no notes for page", "page", inv.Key(), "slots", inv.Len())
		return pr, nil
	}

	doc := proof.New(inv, BaseMeasurer(opts))

	plan, hit, err := r.solvePage(ctx, inv, notes, opts, doc.Lock())
	if err != nil {
		return pr, err
	}
	pr.Plan = plan
	pr.CacheHit = hit

	realizeStart := time.Now()
	rows, err := realize.New(doc, realize.Options{
		Photo:  opts.Config.Photo.Spec(),
		Lock:   doc.Lock(),
		Logger: opts.Logger,
	}).Realize(ctx, inv, plan)
	if err != nil {
		return pr, err
	}
	pr.Rows = append(pr.Rows, rows...)
	pr.RealizeTime = time.Since(realizeStart)

	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		pr.Artifacts, err = Render(doc, opts.Formats)
		if err != nil {
			return pr, err
		}
		pr.RenderTime = time.Since(renderStart)
		opts.Logger.Debug("rendered proof", "page", inv.Key(), "formats", opts.Formats, "duration", pr.RenderTime)
	}

	opts.Logger.Info("solved page",
		"page", inv.Key(),
		"notes", len(notes),
		"overflow", plan.Overflow,
		"hard", plan.Hard,
		"cached", hit,
		"realize", pr.RealizeTime)
	return pr, nil
}

// SolvePage solves one inventory with plan caching and reports whether the
// plan came from the cache.
func (r *Runner) SolvePage(ctx context.Context, inv *page.Inventory, notes []page.Note, opts Options) (*solver.Result, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	return r.solvePage(ctx, inv, notes, opts, semaphore.NewWeighted(1))
}

func (r *Runner) solvePage(ctx context.Context, inv *page.Inventory, notes []page.Note, opts Options, lock *semaphore.Weighted) (*solver.Result, bool, error) {
	enabled := cache.Enabled(r.Cache)
	cacheKey := ""
	if enabled {
		cacheKey = r.PlanKey(inv, notes, opts)
	}

	if enabled && !opts.Refresh {
		var cached solver.Result
		hit, err := cache.GetJSON(ctx, r.Cache, cacheKey, &cached)
		if err != nil {
			opts.Logger.Debug("plan cache read failed", "page", inv.Key(), "error", err)
		}
		if hit && len(cached.Notes) == len(notes) {
			observability.Cache().OnCacheHit(ctx, "plan")
			return &cached, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "plan")

	m := r.measurer(opts, inv, lock)
	observability.Pipeline().OnSolveStart(ctx, inv.Key(), len(notes), inv.Len())
	start := time.Now()
	res, err := solver.Solve(ctx, m, inv, notes, opts.SolverOptions())
	overflow := 0
	if res != nil {
		overflow = res.Overflow
	}
	observability.Pipeline().OnSolveComplete(ctx, inv.Key(), overflow, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	calls, hits := m.Stats()
	opts.Logger.Debug("search finished",
		"page", inv.Key(),
		"strategy", res.Strategy,
		"expanded", res.Expanded,
		"budget", res.Budget,
		"exhausted", res.Exhausted,
		"measurements", calls,
		"memo_hits", hits)

	// Plans cut short by cancellation are not cached.
	if enabled && ctx.Err() == nil {
		if n, err := cache.SetJSON(ctx, r.Cache, cacheKey, res, cache.PlanTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "plan", n)
		}
	}
	return res, false, nil
}

// PlanKey returns the cache key of the plan for notes on inv.
func (r *Runner) PlanKey(inv *page.Inventory, notes []page.Note, opts Options) string {
	input := cache.HashJSON(planInput{Geometry: inv.GeometryHash(), Notes: notes})
	return r.Keyer.PlanKey(input, opts.PlanKeyOpts())
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// emptyPageRows returns a no_docx_found row for each page of inv that has
// slots but no notes.
func emptyPageRows(inv *page.Inventory, notes []page.Note) []report.Row {
	var rows []report.Row
	for _, p := range inv.Pages() {
		hasNotes := slices.ContainsFunc(notes, func(n page.Note) bool { return n.Page == p })
		hasSlots := slices.ContainsFunc(inv.Slots(), func(s page.Slot) bool { return s.Page == p })
		if hasSlots && !hasNotes {
			rows = append(rows, report.PageRow(p, inv.Key(), page.WarnNoDocxFound))
		}
	}
	return rows
}

func (r *Result) add(pr PageResult) {
	r.Pages = append(r.Pages, pr)
	r.Stats.Inventories++
	r.Stats.RealizeTime += pr.RealizeTime
	r.Stats.RenderTime += pr.RenderTime
	if pr.Plan == nil {
		return
	}
	r.Stats.Notes += len(pr.Plan.Notes)
	r.Stats.Overflow += pr.Plan.Overflow
	r.Stats.Hard += pr.Plan.Hard
	r.Stats.SolveTime += pr.Plan.Duration
	if pr.CacheHit {
		r.CacheInfo.PlanHits++
	} else {
		r.CacheInfo.PlanMisses++
	}
}
