package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/slotfit/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slotfit.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default().Resolve()
	if len(cfg.Warnings) != 0 {
		t.Errorf("Default().Resolve() warnings = %v", cfg.Warnings)
	}
	if cfg.Body.Base != 9.5 || cfg.Title.Base != 25 {
		t.Errorf("base sizes = %v/%v, want 9.5/25", cfg.Body.Base, cfg.Title.Base)
	}
	if cfg.Solver.HardPenalty != 500 {
		t.Errorf("HardPenalty = %v, want 500", cfg.Solver.HardPenalty)
	}
	if cfg.Overset.SoftToleranceChars != 0 {
		t.Errorf("SoftToleranceChars = %d, want 0", cfg.Overset.SoftToleranceChars)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := writeConfig(t, `
[body]
base = 9.75

[solver]
strategy = "beam"
beam_width = 4
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	cfg = cfg.Resolve()
	if cfg.Body.Base != 9.75 {
		t.Errorf("Body.Base = %v, want 9.75", cfg.Body.Base)
	}
	if cfg.Body.Min != 9 {
		t.Errorf("Body.Min = %v, want default 9", cfg.Body.Min)
	}
	if cfg.Solver.Strategy != StrategyBeam || cfg.Solver.BeamWidth != 4 {
		t.Errorf("Solver = %+v", cfg.Solver)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("Warnings = %v", cfg.Warnings)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeConfig(t, "[body]\nbase = 9.5\ncolour = \"red\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], "colour") {
		t.Errorf("Warnings = %v, want one about colour", cfg.Warnings)
	}
}

func TestLoadMalformedFallsBack(t *testing.T) {
	path := writeConfig(t, "[body\nbase = ")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Body != Default().Body {
		t.Errorf("Body = %+v, want defaults", cfg.Body)
	}
	if len(cfg.Warnings) != 1 {
		t.Errorf("Warnings = %v, want 1", cfg.Warnings)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestResolveInvalidSectionFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		check   func(Config) bool
		section string
	}{
		{
			name:    "base below min",
			mutate:  func(c *Config) { c.Body.Base = 8 },
			check:   func(c Config) bool { return c.Body == Default().Body },
			section: "[body]",
		},
		{
			name:    "min above max",
			mutate:  func(c *Config) { c.Title.Min = 30 },
			check:   func(c Config) bool { return c.Title == Default().Title },
			section: "[title]",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Solver.Strategy = "annealing" },
			check:   func(c Config) bool { return c.Solver.Strategy == StrategyBestFirst },
			section: "[solver]",
		},
		{
			name:    "zero font step",
			mutate:  func(c *Config) { c.Overset.FontStep = 0 },
			check:   func(c Config) bool { return c.Overset.FontStep == 0.25 },
			section: "[overset]",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Solver.Tiers = []Tier{{MaxNotes: 0, Attempts: 0}} },
			check:   func(c Config) bool { return len(c.Solver.Tiers) == 4 },
			section: "[solver]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			cfg = cfg.Resolve()
			if !tt.check(cfg) {
				t.Errorf("section not reset to defaults: %+v", cfg)
			}
			if len(cfg.Warnings) != 1 || !strings.HasPrefix(cfg.Warnings[0], tt.section) {
				t.Errorf("Warnings = %v, want one for %s", cfg.Warnings, tt.section)
			}
		})
	}
}

func TestResolveBackendURLs(t *testing.T) {
	cfg := Default()
	cfg.Cache.Backend = BackendRedis
	cfg.Store.Backend = BackendMongo
	cfg = cfg.Resolve()
	if cfg.Cache.Backend != BackendFile || cfg.Store.Backend != BackendFile {
		t.Errorf("backends = %s/%s, want file/file", cfg.Cache.Backend, cfg.Store.Backend)
	}
	if len(cfg.Warnings) != 2 {
		t.Errorf("Warnings = %v, want 2", cfg.Warnings)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvRedisURL: "redis://localhost:6379/0",
		EnvMongoURI: "mongodb://localhost:27017",
		EnvStrategy: "GREEDY",
	}
	cfg := Default().ApplyEnv(func(k string) string { return env[k] }).Resolve()
	if cfg.Cache.Backend != BackendRedis {
		t.Errorf("Cache.Backend = %s, want redis", cfg.Cache.Backend)
	}
	if cfg.Store.Backend != BackendMongo {
		t.Errorf("Store.Backend = %s, want mongo", cfg.Store.Backend)
	}
	if cfg.Solver.Strategy != StrategyGreedy {
		t.Errorf("Strategy = %s, want greedy", cfg.Solver.Strategy)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("Warnings = %v", cfg.Warnings)
	}
}

func TestAttempts(t *testing.T) {
	s := Default().Solver
	tests := []struct {
		notes int
		want  int
	}{
		{0, 200},
		{1, 200},
		{3, 200},
		{4, 1500},
		{6, 1500},
		{10, 6000},
		{11, 20000},
		{100, 20000},
	}
	for _, tt := range tests {
		if got := s.Attempts(tt.notes); got != tt.want {
			t.Errorf("Attempts(%d) = %d, want %d", tt.notes, got, tt.want)
		}
	}
}

func TestNormalizeTiers(t *testing.T) {
	got := normalizeTiers([]Tier{{MaxNotes: 8, Attempts: 50}, {MaxNotes: 2, Attempts: 10}})
	want := []Tier{{2, 10}, {8, 50}, {0, 50}}
	if len(got) != len(want) {
		t.Fatalf("normalizeTiers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tier %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDecodeInline(t *testing.T) {
	cfg, err := Default().Decode("[photo]\nstrict = false\n")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if cfg.Photo.Strict {
		t.Error("Photo.Strict should be false after overlay")
	}
	if _, err := Default().Decode("[photo"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Decode(malformed) error = %v", err)
	}
}

func TestPhotoSpec(t *testing.T) {
	spec := Default().Photo.Spec()
	if spec.Width < 287 || spec.Width > 288 {
		t.Errorf("Width = %v pt, want ~287.6", spec.Width)
	}
	if !spec.Strict {
		t.Error("default photo matching should be strict")
	}
}

func TestProfiles(t *testing.T) {
	ps := Default().Profiles()
	if len(ps) == 0 || ps[0].Body != 9.5 || ps[0].Title != 25 {
		t.Fatalf("Profiles()[0] = %v, want base 9.5/25", ps)
	}
	// Body 9.0-10.0 in 0.5 steps, title 24-26 in 0.5 steps.
	if len(ps) != 15 {
		t.Errorf("len(Profiles()) = %d, want 15", len(ps))
	}

	cfg := Default()
	cfg.Solver.ProfileStep = 0
	if ps := cfg.Profiles(); len(ps) != 1 {
		t.Errorf("step 0 gave %d profiles, want 1", len(ps))
	}
}
