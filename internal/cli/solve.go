package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/errors"
	slotio "github.com/matzehuels/slotfit/pkg/io"
	"github.com/matzehuels/slotfit/pkg/observability"
	"github.com/matzehuels/slotfit/pkg/pipeline"
	"github.com/matzehuels/slotfit/pkg/report"
)

// solveOpts holds the command-line flags for the solve command.
type solveOpts struct {
	slots    string   // slot geometry file
	notes    string   // notes file (.json or .csv)
	strategy string   // overrides [solver] strategy
	measurer string   // typeset or capacity
	spreads  []string // page groups solved together, e.g. "2-3"
	output   string   // directory for proof files
	formats  string   // proof formats (comma-separated)
	csvPath  string   // report CSV ("-" for stdout)
	jsonPath string   // report JSON ("-" for stdout)
	noCache  bool
	refresh  bool
	save     bool
	strict   bool
	quiet    bool
}

// solveCommand creates the solve command, which places notes into slots and
// writes the report and proofs.
func (c *CLI) solveCommand() *cobra.Command {
	opts := solveOpts{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Place notes into page slots",
		Long: `Solve reads the slot geometry and the notes, assigns every note to a slot
on its page and picks font sizes and title spans that minimise overset text.

The result is printed as a table and can be written as CSV or JSON. Proofs
of each page are rendered when --format is given.`,
		Example: `  slotfit solve --slots slots.json --notes notes.json
  slotfit solve --slots slots.json --notes notes.csv --spread 2-3 --csv report.csv
  slotfit solve --slots slots.json --notes notes.json -f svg,png -o proofs/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.slots, "slots", "", "slot geometry file (JSON)")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "notes file (JSON or CSV)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "search strategy: best-first, beam, greedy")
	cmd.Flags().StringVar(&opts.measurer, "measurer", pipeline.DefaultMeasurer, "measurement model: typeset, capacity")
	cmd.Flags().StringArrayVar(&opts.spreads, "spread", nil, "pages solved together (repeatable), e.g. 2-3")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "directory for proof files (default .)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "proof format(s): svg, png (comma-separated)")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "write report rows as CSV (- for stdout)")
	cmd.Flags().StringVar(&opts.jsonPath, "json", "", "write the report as JSON (- for stdout)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable measurement and plan caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached plans")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist the report to the configured store")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with an error when any note is missing or hard overset")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the row table")
	_ = cmd.MarkFlagRequired("slots")
	_ = cmd.MarkFlagRequired("notes")

	return cmd
}

func (c *CLI) runSolve(ctx context.Context, opts solveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.strategy != "" {
		cfg.Solver.Strategy = opts.strategy
	}

	slots, err := slotio.ImportSlots(opts.slots, slotio.SlotOptionsFrom(cfg.Column))
	if err != nil {
		return err
	}
	notes, err := slotio.ImportNotes(opts.notes)
	if err != nil {
		return err
	}
	spreads, err := slotio.ParseSpreads(opts.spreads)
	if err != nil {
		return err
	}
	c.Logger.Debug("inputs loaded", "slots", len(slots), "notes", len(notes), "spreads", len(spreads))

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Solving %d notes", len(notes)))
	popts := pipeline.Options{
		Config:   cfg,
		Measurer: opts.measurer,
		Formats:  parseFormats(opts.formats),
		Spreads:  spreads,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
		Progress: searchProgress(c.Logger, searchProgressInterval, func(expanded, frontier int, best float64) {
			spinner.SetDetail("%d expanded, %d open", expanded, frontier)
		}),
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	counters := observability.NewCounters()
	defer observability.Register(counters)()

	elapsed := stopwatch()
	spinner.Start()
	result, err := runner.Run(ctx, slots, notes, popts)
	spinner.Stop()
	if err != nil {
		if result != nil && len(result.Pages) > 0 {
			printWarning("stopped after %d pages", len(result.Pages))
		}
		return err
	}
	c.Logger.Info("solved", "pages", result.Stats.Inventories, "elapsed", elapsed())

	printPages(result)
	if !opts.quiet && len(result.Report.Rows) > 0 {
		fmt.Println()
		fmt.Println(rowsTable(result.Report.Rows))
	}

	if err := writeArtifacts(result, opts.output); err != nil {
		return err
	}
	if opts.csvPath != "" {
		if err := writeOutput(opts.csvPath, func(w io.Writer) error {
			return report.WriteCSV(w, result.Report.Rows)
		}); err != nil {
			return err
		}
	}
	if opts.jsonPath != "" {
		if err := writeOutput(opts.jsonPath, func(w io.Writer) error {
			return report.WriteJSON(w, result.Report)
		}); err != nil {
			return err
		}
	}
	if opts.save {
		if err := c.saveReport(ctx, cfg.Store, result.Report); err != nil {
			return err
		}
	}

	sum := result.Report.Summarize()
	fmt.Println()
	printKeyValue("Placed", fmt.Sprintf("%d/%d", sum.Placed, sum.Notes))
	printKeyValue("Overset", fmt.Sprintf("%d chars", sum.Overflow))
	stats := counters.Snapshot()
	printDetail("%d states expanded, %d measurements, %d measure cache hits, %d/%d plans cached",
		stats.Expanded, stats.Measurements, stats.CacheHits["measure"],
		result.CacheInfo.PlanHits, result.CacheInfo.PlanHits+result.CacheInfo.PlanMisses)
	if sum.Hard+sum.Missing > 0 {
		printWarning("%d hard overset, %d missing", sum.Hard, sum.Missing)
		if opts.strict {
			return errors.New(errors.ErrCodeIncomplete, "%d notes could not be placed cleanly", sum.Hard+sum.Missing)
		}
	}
	return nil
}

// printPages prints one status block per solved inventory.
func printPages(result *pipeline.Result) {
	for _, pr := range result.Pages {
		if pr.Plan == nil {
			printInfo("Page %s", StyleDim.Render(pr.Key+" (no notes)"))
			continue
		}
		label := "Page " + StyleNumber.Render(pr.Key)
		if pr.Plan.Success {
			printSuccess("%s", label)
		} else {
			printError("%s", label)
		}
		fmt.Println(pageStatusLine(len(pr.Plan.Notes), pr.Plan.Overflow, pr.Plan.Hard, pr.CacheHit))
	}
}

// writeArtifacts writes each rendered proof as page-<key>.<format> under dir.
func writeArtifacts(result *pipeline.Result, dir string) error {
	if dir == "" {
		dir = "."
	}
	wrote := false
	for _, pr := range result.Pages {
		for format, data := range pr.Artifacts {
			if !wrote {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
				fmt.Println()
				wrote = true
			}
			path := filepath.Join(dir, fmt.Sprintf("page-%s.%s", pr.Key, format))
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printFile(path)
		}
	}
	return nil
}

// writeOutput runs write against stdout when path is "-" and against a
// newly created file otherwise.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printFile(path)
	return nil
}

func (c *CLI) saveReport(ctx context.Context, cfg config.Store, rep *report.Report) error {
	store, err := report.Open(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		printWarning("store backend is none, report not saved")
		return nil
	}
	defer store.Close()
	if err := store.Save(ctx, rep); err != nil {
		return err
	}
	printKeyValue("Run", rep.RunID)
	printNextStep("Browse it", "slotfit inspect "+rep.RunID)
	return nil
}
