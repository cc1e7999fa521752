package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/slotfit/pkg/errors"
	"github.com/matzehuels/slotfit/pkg/report"
)

// inspectCommand browses a report from a JSON file or the report store.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		list  bool
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "inspect [report.json | run-id]",
		Short: "Browse a solve report",
		Long: `Inspect opens a report written by "solve --json" or saved with "solve --save".
Without an argument it lists the stored runs and lets you pick one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if list {
				return c.runList(ctx)
			}
			var rep *report.Report
			var err error
			if len(args) == 0 {
				rep, err = c.pickReport(ctx)
			} else {
				rep, err = c.loadReport(ctx, args[0])
			}
			if err != nil || rep == nil {
				return err
			}
			if plain {
				fmt.Println(rowsTable(rep.Rows))
				return nil
			}
			_, err = tea.NewProgram(NewReportModel(rep), tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "print the stored runs and exit")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the rows as a table instead of the browser")
	return cmd
}

// loadReport reads ref as a JSON file when it exists and as a stored run id
// otherwise.
func (c *CLI) loadReport(ctx context.Context, ref string) (*report.Report, error) {
	if strings.HasSuffix(ref, ".json") {
		f, err := os.Open(ref)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "report %s", ref)
			}
			return nil, err
		}
		defer f.Close()
		return report.ReadJSON(f)
	}

	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx, ref)
}

func (c *CLI) pickReport(ctx context.Context) (*report.Report, error) {
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	runs, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		printInfo("No stored runs")
		printNextStep("Save one with", "slotfit solve --save ...")
		return nil, nil
	}

	final, err := tea.NewProgram(NewRunListModel(runs), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(RunListModel)
	if !ok || m.Selected == nil {
		return nil, nil
	}
	return store.Load(ctx, m.Selected.RunID)
}

func (c *CLI) runList(ctx context.Context) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No stored runs")
		return nil
	}
	fmt.Println(runsTable(runs))
	return nil
}

func (c *CLI) openStore(ctx context.Context) (report.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := report.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no report store configured")
	}
	return store, nil
}

func runsTable(runs []report.Summary) string {
	cells := make([][]string, len(runs))
	for i, r := range runs {
		cells[i] = []string{
			r.RunID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(r.Pages),
			fmt.Sprintf("%d/%d", r.Placed, r.Notes),
			strconv.Itoa(r.Hard),
			strconv.Itoa(r.Missing),
			strconv.Itoa(r.Overflow),
		}
	}
	headers := []string{"Run", "Created", "Pages", "Placed", "Hard", "Missing", "Over"}
	return renderTable(headers, cells, firstColumn(StyleValue))
}
