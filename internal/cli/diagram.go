package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slotfit/pkg/diagram"
	"github.com/matzehuels/slotfit/pkg/errors"
	slotio "github.com/matzehuels/slotfit/pkg/io"
	"github.com/matzehuels/slotfit/pkg/page"
	"github.com/matzehuels/slotfit/pkg/pipeline"
)

const (
	diagramDOT = "dot"
	diagramSVG = "svg"
	diagramPNG = "png"
)

// diagramOpts holds the command-line flags for the diagram command.
type diagramOpts struct {
	slots    string
	notes    string
	strategy string
	measurer string
	spreads  []string
	output   string
	format   string
	detailed bool
	noCache  bool
}

// diagramCommand draws the note-to-slot assignment of each page as a
// node-link graph.
func (c *CLI) diagramCommand() *cobra.Command {
	opts := diagramOpts{format: diagramSVG}
	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Draw the note-to-slot assignment as a graph",
		Example: `  slotfit diagram --slots slots.json --notes notes.json
  slotfit diagram --slots slots.json --notes notes.json -f dot --detailed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case diagramDOT, diagramSVG, diagramPNG:
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "invalid diagram format %q (must be dot, svg or png)", opts.format)
			}
			return c.runDiagram(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.slots, "slots", "", "slot geometry file (JSON)")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "notes file (JSON or CSV)")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "search strategy: best-first, beam, greedy")
	cmd.Flags().StringVar(&opts.measurer, "measurer", pipeline.DefaultMeasurer, "measurement model: typeset, capacity")
	cmd.Flags().StringArrayVar(&opts.spreads, "spread", nil, "pages solved together (repeatable), e.g. 2-3")
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, png, dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label edges with sizes and overset")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable measurement and plan caching")
	_ = cmd.MarkFlagRequired("slots")
	_ = cmd.MarkFlagRequired("notes")
	return cmd
}

func (c *CLI) runDiagram(ctx context.Context, opts diagramOpts) error {
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

	invs, err := page.Partition(slots, slotio.NotePages(notes), spreads)
	if err != nil {
		return err
	}
	grouped, _ := slotio.GroupNotes(invs, notes)

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{Config: cfg, Measurer: opts.measurer, Logger: c.Logger}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, inv := range invs {
		pageNotes := grouped[inv.Key()]
		if len(pageNotes) == 0 {
			continue
		}
		res, _, err := runner.SolvePage(ctx, inv, pageNotes, popts)
		if err != nil {
			return fmt.Errorf("page %s: %w", inv.Key(), err)
		}

		dot := diagram.ToDOT(inv, res, diagram.Options{Detailed: opts.detailed})
		var data []byte
		switch opts.format {
		case diagramDOT:
			data = []byte(dot)
		case diagramSVG:
			data, err = diagram.RenderSVG(ctx, dot)
		case diagramPNG:
			data, err = diagram.RenderPNG(ctx, dot)
		}
		if err != nil {
			return err
		}

		path := filepath.Join(opts.output, fmt.Sprintf("diagram-%s.%s", inv.Key(), opts.format))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
