package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	slotio "github.com/matzehuels/slotfit/pkg/io"
)

// slotsCommand groups the slot inspection commands.
func (c *CLI) slotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Inspect and convert slot geometry",
	}
	cmd.AddCommand(c.slotsSummaryCommand())
	cmd.AddCommand(c.slotsConvertCommand())
	return cmd
}

func (c *CLI) slotsSummaryCommand() *cobra.Command {
	var (
		minArea float64
		csvPath string
	)
	cmd := &cobra.Command{
		Use:   "summary <file>",
		Short: "Count slots and area per page",
		Long: `Summary reads a slot file and prints, per page, the number of text and
photo slots, how many slots can hold the configured photo box, the column
count and the slot area in square centimetres.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSlotsSummary(args[0], minArea, csvPath)
		},
	}
	cmd.Flags().Float64Var(&minArea, "min-area", 0, "skip slots smaller than this many cm²")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the summary as CSV (- for stdout)")
	return cmd
}

func (c *CLI) runSlotsSummary(path string, minArea float64, csvPath string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	slots, err := slotio.ImportSlots(path, slotio.SlotOptionsFrom(cfg.Column))
	if err != nil {
		return err
	}
	sums := slotio.Summarize(slots, cfg.Photo.Spec(), minArea)

	if csvPath != "" {
		return writeOutput(csvPath, func(w io.Writer) error {
			return slotio.WriteSummaryCSV(w, sums)
		})
	}

	cells := make([][]string, len(sums))
	for i, s := range sums {
		cells[i] = []string{
			strconv.Itoa(s.Page),
			strconv.Itoa(s.Slots),
			strconv.Itoa(s.Text),
			strconv.Itoa(s.Photo),
			strconv.Itoa(s.PhotoFits),
			strconv.Itoa(s.Columns),
			fmt.Sprintf("%.1f", s.AreaCM2),
			fmt.Sprintf("%.1f", s.AverageCM2),
		}
	}
	headers := []string{"Page", "Slots", "Text", "Photo", "Fits", "Cols", "Area cm²", "Avg cm²"}
	fmt.Println(renderTable(headers, cells, firstColumn(StyleNumber)))
	printDetail("%d slots on %d pages", len(slots), len(sums))
	return nil
}

func (c *CLI) slotsConvertCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Rewrite a slot file in the flat point format",
		Long: `Convert reads any supported slot layout (flat, paged or page report) and
writes it as a flat JSON list in points with roles and column counts
resolved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSlotsConvert(args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
	return cmd
}

func (c *CLI) runSlotsConvert(path, output string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	slots, err := slotio.ImportSlots(path, slotio.SlotOptionsFrom(cfg.Column))
	if err != nil {
		return err
	}
	if output == "-" {
		return slotio.WriteSlots(os.Stdout, slots)
	}
	if err := slotio.ExportSlots(slots, output); err != nil {
		return err
	}
	printSuccess("Converted %d slots", len(slots))
	printFile(output)
	return nil
}

// notesCommand groups the note conversion commands.
func (c *CLI) notesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Convert note files",
	}
	var output string
	convert := &cobra.Command{
		Use:   "convert <file>",
		Short: "Rewrite a CSV or JSON notes file as paged JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNotesConvert(args[0], output)
		},
	}
	convert.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
	cmd.AddCommand(convert)
	return cmd
}

func (c *CLI) runNotesConvert(path, output string) error {
	notes, err := slotio.ImportNotes(path)
	if err != nil {
		return err
	}
	c.Logger.Debug("notes loaded", "count", len(notes), "pages", len(slotio.NotePages(notes)))
	return writeOutput(output, func(w io.Writer) error {
		return slotio.WriteNotes(w, notes)
	})
}
