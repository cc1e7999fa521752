// Package pipeline runs the page layout flow for slotfit.
//
// The pipeline groups notes by the inventory (page or spread) that holds
// their slots, then for each inventory:
//
//  1. Solve: choose a placement per note with the configured strategy
//  2. Realize: place the chosen frames into a proof document
//  3. Render: produce the requested proof formats (SVG, PNG)
//
// Plans are cached by the inventory geometry, the notes and the resolved
// configuration, so re-running an unchanged page skips the search.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Run(ctx, slots, notes, pipeline.Options{
//	    Config:  cfg,
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    return err
//	}
//	report.WriteCSV(os.Stdout, res.Report.Rows)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/slotfit/pkg/cache"
	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/report"
	"github.com/matzehuels/slotfit/pkg/solver"
)

// =============================================================================
// Default Values
// =============================================================================

// Measurer names.
const (
	// MeasurerTypeset breaks lines with real glyph advances.
	MeasurerTypeset = "typeset"
	// MeasurerCapacity uses the character-width model. It is deterministic
	// and font independent.
	MeasurerCapacity = "capacity"
)

// DefaultMeasurer is used when Options.Measurer is empty.
const DefaultMeasurer = MeasurerTypeset

// Proof formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported proof formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
}

// ValidMeasurers is the set of supported measurers.
var ValidMeasurers = map[string]bool{
	MeasurerTypeset:  true,
	MeasurerCapacity: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configure one pipeline run.
type Options struct {
	// Config is the resolved run configuration. A zero value uses
	// config.Default().
	Config config.Config `json:"config"`
	// Measurer selects the measurement model.
	Measurer string `json:"measurer,omitempty"`
	// Formats lists the proof formats to render per inventory. Empty
	// renders nothing.
	Formats []string `json:"formats,omitempty"`
	// Spreads groups pages solved as one inventory.
	Spreads [][]int `json:"spreads,omitempty"`
	// Refresh ignores cached plans (they are still written).
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger         `json:"-"`
	Progress solver.ProgressFunc `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Report holds one row per note plus page-level notices, in page order.
	Report *report.Report

	// Pages holds the per-inventory outcomes, in page order.
	Pages []PageResult

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks plan cache usage.
	CacheInfo CacheInfo
}

// PageResult is the outcome for one inventory.
type PageResult struct {
	Key   string
	Pages []int
	// Plan is nil when the inventory had no notes.
	Plan *solver.Result
	Rows []report.Row
	// Artifacts contains proof outputs keyed by format.
	Artifacts map[string][]byte
	CacheHit  bool

	RealizeTime time.Duration
	RenderTime  time.Duration
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Inventories int
	Notes       int
	Overflow    int
	Hard        int
	SolveTime   time.Duration
	RealizeTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo counts plan cache lookups.
type CacheInfo struct {
	PlanHits   int
	PlanMisses int
}

// Success reports whether every solved inventory succeeded.
func (r *Result) Success() bool {
	for _, p := range r.Pages {
		if p.Plan != nil && !p.Plan.Success {
			return false
		}
	}
	return true
}

// Page returns the result of the inventory with key.
func (r *Result) Page(key string) (PageResult, bool) {
	for _, p := range r.Pages {
		if p.Key == key {
			return p, true
		}
	}
	return PageResult{}, false
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMeasurer checks that a measurer name is valid.
func ValidateMeasurer(name string) error {
	if !ValidMeasurers[name] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid measurer: %q (must be one of: typeset, capacity)", name)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config.Body.Base == 0 && o.Config.Solver.Strategy == "" {
		o.Config = config.Default()
	}
	if o.Measurer == "" {
		o.Measurer = DefaultMeasurer
	}
	if err := ValidateMeasurer(o.Measurer); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if _, err := solver.NewStrategy(o.Config.Solver.Strategy, o.Config.Solver.BeamWidth); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ConfigHash identifies the parts of the configuration that affect plans.
func (o *Options) ConfigHash() string {
	c := o.Config
	return cache.HashJSON(struct {
		Body    config.Typography
		Title   config.Typography
		Overset config.Overset
		Solver  config.Solver
	}{c.Body, c.Title, c.Overset, c.Solver})
}

// PlanKeyOpts returns cache key options for plan caching.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		Strategy:   o.Config.Solver.Strategy,
		ConfigHash: o.ConfigHash(),
		Measurer:   o.Measurer,
	}
}

// SolverOptions returns the search options for this run.
func (o *Options) SolverOptions() solver.Options {
	so := solver.OptionsFrom(o.Config)
	so.Logger = o.Logger
	so.Progress = o.Progress
	return so
}

// measureVariant distinguishes persisted measurements of different stacks.
func (o *Options) measureVariant() string {
	return fmt.Sprintf("%s/%s", o.Measurer, cache.HashJSON(o.Config.Overset))
}

// planInput is hashed into the plan cache key.
type planInput struct {
	Geometry string      `json:"geometry"`
	Notes    []page.Note `json:"notes"`
}
