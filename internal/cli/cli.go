// Package cli implements the slotfit command-line interface.
package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matzehuels/slotfit/pkg/buildinfo"
	"github.com/matzehuels/slotfit/pkg/cache"
	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "slotfit"

	// defaultConfigFile is read from the working directory when --config is
	// not given.
	defaultConfigFile = "slotfit.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Process exit codes.
const (
	ExitFailure    = 1
	ExitUsage      = 2
	ExitIncomplete = 3
	ExitCanceled   = 130
)

// ExitCode maps a command error to a process exit code. Bad input exits 2
// and a plan rejected by --strict exits 3.
func ExitCode(err error) int {
	code := errors.GetCode(err)
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, context.Canceled):
		return ExitCanceled
	case code == errors.ErrCodeIncomplete:
		return ExitIncomplete
	case code.Invalid():
		return ExitUsage
	}
	return ExitFailure
}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	envFile    string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Slotfit places newspaper notes into page slots",
		Long:         `Slotfit assigns article notes to the fixed text and photo slots of newspaper pages, choosing font sizes and title spans so that as little text as possible oversets.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML configuration file (default ./"+defaultConfigFile+" if present)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file with backend credentials")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.slotsCommand())
	root.AddCommand(c.notesCommand())
	root.AddCommand(c.profilesCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the dotenv file, the TOML file and the environment, in
// that order, and resolves the result. Recovered problems are logged.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !os.IsNotExist(err) {
			c.Logger.Warn("could not read env file", "path", c.envFile, "error", err)
		}
	}

	cfg := config.Default()
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
		c.Logger.Debug("loaded config", "path", path)
	}

	cfg = cfg.ApplyEnv(os.Getenv).Resolve()
	for _, w := range cfg.Warnings {
		c.Logger.Warn(w)
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	if noCache {
		return pipeline.NewRunner(cache.NewNullCache(), nil, c.Logger), nil
	}
	cc, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Cache.Backend, "error", err)
		cc = cache.NewNullCache()
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
