// Package config holds the resolved run configuration.
//
// A [Config] is built once per run: start from [Default], optionally overlay a
// TOML file with [Load] and environment variables with [Config.ApplyEnv],
// then call [Config.Resolve]. Resolve validates every section independently;
// a section that fails validation is replaced by its defaults and a warning
// is recorded in Config.Warnings. Configuration problems never abort a run.
//
// The resolved value is passed by value into every component. Nothing in
// slotfit reads configuration from ambient state.
package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/style"
)

// Strategy names.
const (
	StrategyBestFirst = "best-first"
	StrategyBeam      = "beam"
	StrategyGreedy    = "greedy"
)

// Cache and store backend names.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Typography is the size band and metrics for one text part.
type Typography struct {
	Base            float64 `toml:"base" json:"base" validate:"gtefield=Min,ltefield=Max"`
	Min             float64 `toml:"min" json:"min" validate:"gt=0"`
	Max             float64 `toml:"max" json:"max" validate:"gt=0,lte=200"`
	Leading         float64 `toml:"leading" json:"leading" validate:"gt=0,lte=4"`
	CharWidthFactor float64 `toml:"char_width_factor" json:"char_width_factor" validate:"gt=0,lte=2"`
	SpacingAfter    float64 `toml:"spacing_after" json:"spacing_after" validate:"gte=0"`
}

// Bounds returns the size band.
func (t Typography) Bounds() style.Bounds {
	return style.Bounds{Base: t.Base, Min: t.Min, Max: t.Max}
}

// Profiles returns the size profiles the option generator tries.
func (c Config) Profiles() []style.Profile {
	return style.Generate(c.Body.Bounds(), c.Title.Bounds(), c.Solver.ProfileStep)
}

// Overset bounds the measurement adapter's local relaxation.
type Overset struct {
	MaxHeightExpansionMM float64 `toml:"max_height_expansion_mm" json:"max_height_expansion_mm" validate:"gte=0"`
	ExpansionStepMM      float64 `toml:"expansion_step_mm" json:"expansion_step_mm" validate:"gt=0"`
	FontStep             float64 `toml:"font_step" json:"font_step" validate:"gt=0,lte=4"`
	MaxBodyDrop          float64 `toml:"max_body_drop" json:"max_body_drop" validate:"gte=0"`
	MaxTitleDrop         float64 `toml:"max_title_drop" json:"max_title_drop" validate:"gte=0"`
	SoftToleranceChars   int     `toml:"soft_tolerance_chars" json:"soft_tolerance_chars" validate:"gte=0"`
}

// Tier maps a note count to an expansion budget. MaxNotes 0 means
// "any count" and must be the last tier.
type Tier struct {
	MaxNotes int `toml:"max_notes" json:"max_notes" validate:"gte=0"`
	Attempts int `toml:"attempts" json:"attempts" validate:"gt=0"`
}

// Solver configures option generation and search.
type Solver struct {
	Strategy          string  `toml:"strategy" json:"strategy" validate:"oneof=best-first beam greedy"`
	Tiers             []Tier  `toml:"tiers" json:"tiers" validate:"min=1,dive"`
	TopK              int     `toml:"top_k" json:"top_k" validate:"gte=1,lte=64"`
	HardPenalty       float64 `toml:"hard_penalty" json:"hard_penalty" validate:"gt=0"`
	BeamWidth         int     `toml:"beam_width" json:"beam_width" validate:"gte=1,lte=1024"`
	SpanNudge         float64 `toml:"span_nudge" json:"span_nudge" validate:"gte=0"`
	TitleCharsPerSpan int     `toml:"title_chars_per_span" json:"title_chars_per_span" validate:"gt=0"`
	Separate          bool    `toml:"separate" json:"separate"`
	ProfileStep       float64 `toml:"profile_step" json:"profile_step" validate:"gte=0,lte=4"`
}

// Photo describes the fixed photo box.
type Photo struct {
	WidthCM     float64 `toml:"width_cm" json:"width_cm" validate:"gt=0"`
	MinHeightCM float64 `toml:"min_height_cm" json:"min_height_cm" validate:"gt=0"`
	ToleranceMM float64 `toml:"tolerance_mm" json:"tolerance_mm" validate:"gte=0"`
	Strict      bool    `toml:"strict" json:"strict"`
}

// Spec converts the photo settings to points.
func (p Photo) Spec() page.PhotoSpec {
	return page.PhotoSpec{
		Width:     page.FromCM(p.WidthCM),
		MinHeight: page.FromCM(p.MinHeightCM),
		Tolerance: page.FromMM(p.ToleranceMM),
		Strict:    p.Strict,
	}
}

// Column holds defaults applied to slots that carry no column metadata.
type Column struct {
	GutterPt       float64 `toml:"gutter_pt" json:"gutter_pt" validate:"gte=0"`
	ColumnWidthMM  float64 `toml:"column_width_mm" json:"column_width_mm" validate:"gt=0"`
	MinSlotSizeMM  float64 `toml:"min_slot_size_mm" json:"min_slot_size_mm" validate:"gt=0"`
	DefaultColumns int     `toml:"default_columns" json:"default_columns" validate:"gte=0,lte=12"`
}

// Cache selects the measurement and plan cache backend.
type Cache struct {
	Backend  string        `toml:"backend" json:"backend" validate:"oneof=none memory file redis"`
	Dir      string        `toml:"dir" json:"dir"`
	RedisURL string        `toml:"redis_url" json:"-"`
	TTL      time.Duration `toml:"ttl" json:"ttl" validate:"gte=0"`
}

// Store selects where report rows are persisted.
type Store struct {
	Backend    string `toml:"backend" json:"backend" validate:"oneof=none file mongo"`
	Dir        string `toml:"dir" json:"dir"`
	MongoURI   string `toml:"mongo_uri" json:"-"`
	Database   string `toml:"database" json:"database"`
	Collection string `toml:"collection" json:"collection"`
}

// Config is the full run configuration.
type Config struct {
	Body    Typography `toml:"body" json:"body"`
	Title   Typography `toml:"title" json:"title"`
	Overset Overset    `toml:"overset" json:"overset"`
	Solver  Solver     `toml:"solver" json:"solver"`
	Photo   Photo      `toml:"photo" json:"photo"`
	Column  Column     `toml:"column" json:"column"`
	Cache   Cache      `toml:"cache" json:"cache"`
	Store   Store      `toml:"store" json:"store"`

	// Warnings collects recovered configuration problems.
	Warnings []string `toml:"-" json:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Body: Typography{
			Base: 9.5, Min: 9.0, Max: 10.0,
			Leading: 1.2, CharWidthFactor: 0.42, SpacingAfter: 6,
		},
		Title: Typography{
			Base: 25, Min: 24, Max: 26,
			Leading: 1.08, CharWidthFactor: 0.36, SpacingAfter: 8,
		},
		Overset: Overset{
			MaxHeightExpansionMM: 0,
			ExpansionStepMM:      2,
			FontStep:             0.25,
			MaxBodyDrop:          0.5,
			MaxTitleDrop:         1.0,
			SoftToleranceChars:   0,
		},
		Solver: Solver{
			Strategy: StrategyBestFirst,
			Tiers: []Tier{
				{MaxNotes: 3, Attempts: 200},
				{MaxNotes: 6, Attempts: 1500},
				{MaxNotes: 10, Attempts: 6000},
				{MaxNotes: 0, Attempts: 20000},
			},
			TopK:              6,
			HardPenalty:       500,
			BeamWidth:         8,
			SpanNudge:         0.5,
			TitleCharsPerSpan: 35,
			Separate:          true,
			ProfileStep:       0.5,
		},
		Photo: Photo{
			WidthCM:     10.145,
			MinHeightCM: 5.35,
			ToleranceMM: 1.5,
			Strict:      true,
		},
		Column: Column{
			GutterPt:       12,
			ColumnWidthMM:  48,
			MinSlotSizeMM:  40,
			DefaultColumns: 0,
		},
		Cache: Cache{Backend: BackendFile, TTL: 7 * 24 * time.Hour},
		Store: Store{Backend: BackendFile, Database: "slotfit", Collection: "reports"},
	}
}

// Load overlays the TOML file at path onto the defaults. A missing or
// unreadable file is an error; a malformed file yields the defaults with a
// warning. Keys that do not map onto the configuration are reported as
// warnings.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		d := Default()
		d.Warnings = append(d.Warnings, fmt.Sprintf("config %s: %v; using defaults", path, err))
		return d, nil
	}
	for _, key := range md.Undecoded() {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("config %s: unknown key %q", path, key.String()))
	}
	return cfg, nil
}

// Decode overlays TOML text onto c and returns the result. Used for inline
// style overrides.
func (c Config) Decode(data string) (Config, error) {
	out := c
	out.Warnings = slices.Clone(c.Warnings)
	md, err := toml.Decode(data, &out)
	if err != nil {
		return c, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	for _, key := range md.Undecoded() {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unknown key %q", key.String()))
	}
	return out, nil
}

// Environment variable names read by ApplyEnv.
const (
	EnvRedisURL = "SLOTFIT_REDIS_URL"
	EnvMongoURI = "SLOTFIT_MONGO_URI"
	EnvStrategy = "SLOTFIT_STRATEGY"
	EnvCacheDir = "SLOTFIT_CACHE_DIR"
)

// ApplyEnv overlays backend settings from the environment.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
		c.Cache.Backend = BackendRedis
	}
	if v := getenv(EnvMongoURI); v != "" {
		c.Store.MongoURI = v
		c.Store.Backend = BackendMongo
	}
	if v := getenv(EnvStrategy); v != "" {
		c.Solver.Strategy = strings.ToLower(v)
	}
	if v := getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
	return c
}

var validate = validator.New()

// Resolve validates every section and replaces invalid ones with defaults.
// The returned value is ready to use; Warnings lists what was replaced.
func (c Config) Resolve() Config {
	d := Default()
	out := c
	out.Warnings = slices.Clone(c.Warnings)

	check := func(name string, section any, reset func()) {
		if err := validate.Struct(section); err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("[%s] invalid (%s); using defaults", name, summarize(err)))
			reset()
		}
	}
	check("body", out.Body, func() { out.Body = d.Body })
	check("title", out.Title, func() { out.Title = d.Title })
	check("overset", out.Overset, func() { out.Overset = d.Overset })
	check("solver", out.Solver, func() { out.Solver = d.Solver })
	check("photo", out.Photo, func() { out.Photo = d.Photo })
	check("column", out.Column, func() { out.Column = d.Column })
	check("cache", out.Cache, func() { out.Cache = d.Cache })
	check("store", out.Store, func() { out.Store = d.Store })

	out.Solver.Tiers = normalizeTiers(out.Solver.Tiers)
	if out.Cache.Backend == BackendRedis {
		if err := errors.ValidateURL(out.Cache.RedisURL, "redis", "rediss"); err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("[cache] %s; using file cache", errors.UserMessage(err)))
			out.Cache.Backend = BackendFile
		}
	}
	if out.Store.Backend == BackendMongo {
		if err := errors.ValidateURL(out.Store.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("[store] %s; using file store", errors.UserMessage(err)))
			out.Store.Backend = BackendFile
		}
	}
	return out
}

// normalizeTiers sorts bounded tiers ascending and keeps a single catch-all
// tier (MaxNotes 0) at the end, synthesising one from the largest tier if
// none was given.
func normalizeTiers(in []Tier) []Tier {
	var bounded []Tier
	var open *Tier
	for _, t := range in {
		if t.MaxNotes == 0 {
			if open == nil || t.Attempts > open.Attempts {
				tt := t
				open = &tt
			}
			continue
		}
		bounded = append(bounded, t)
	}
	sort.SliceStable(bounded, func(i, j int) bool { return bounded[i].MaxNotes < bounded[j].MaxNotes })
	if open == nil {
		last := bounded[len(bounded)-1]
		open = &Tier{Attempts: last.Attempts}
	}
	return append(bounded, *open)
}

func summarize(err error) string {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

// Attempts returns the expansion budget for n notes.
func (s Solver) Attempts(n int) int {
	for _, t := range s.Tiers {
		if t.MaxNotes == 0 || n <= t.MaxNotes {
			return t.Attempts
		}
	}
	if len(s.Tiers) > 0 {
		return s.Tiers[len(s.Tiers)-1].Attempts
	}
	return 1
}

// MaxHeightExpansion returns the expansion cap in points.
func (o Overset) MaxHeightExpansion() float64 { return page.FromMM(o.MaxHeightExpansionMM) }

// ExpansionStep returns the expansion step in points.
func (o Overset) ExpansionStep() float64 { return page.FromMM(o.ExpansionStepMM) }
