package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/slotfit/pkg/style"
)

// profilesCommand lists the font size profiles the solver tries, in the
// order it tries them.
func (c *CLI) profilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the font size profiles tried by the solver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			profiles := cfg.Profiles()
			fmt.Println(profilesTable(profiles))
			printDetail("%d profiles, step %g pt", len(profiles), cfg.Solver.ProfileStep)
			return nil
		},
	}
}

func profilesTable(profiles []style.Profile) string {
	cells := make([][]string, len(profiles))
	for i, p := range profiles {
		cells[i] = []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.2f", p.Body),
			fmt.Sprintf("%.2f", p.Title),
		}
	}
	// The first profile is the preferred one.
	return renderTable([]string{"#", "Body pt", "Title pt"}, cells, func(row, _ int) (lipgloss.Style, bool) {
		return StyleSuccess, row == 0
	})
}
