package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/slotfit/pkg/config"
	"github.com/matzehuels/slotfit/pkg/pipeline"
)

// completionCommand prints a shell completion script.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Completion prints a completion script for the given shell. Flag values
such as --strategy, --measurer and --format complete as well.

  bash        source <(slotfit completion bash)
  zsh         slotfit completion zsh > "${fpath[1]}/_slotfit"
  fish        slotfit completion fish > ~/.config/fish/completions/slotfit.fish
  powershell  slotfit completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			default:
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
		},
	}
}

// flagValues lists the fixed values of enumerated flags, by flag name.
// "format" differs per command and is filled in by registerCompletions.
var flagValues = map[string][]string{
	"strategy": {config.StrategyBestFirst, config.StrategyBeam, config.StrategyGreedy},
	"measurer": {pipeline.MeasurerTypeset, pipeline.MeasurerCapacity},
}

// registerCompletions attaches value completion to the enumerated flags of
// every subcommand of root.
func registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		values := map[string][]string{"format": {pipeline.FormatSVG, pipeline.FormatPNG}}
		if cmd.Name() == "diagram" {
			values["format"] = []string{diagramSVG, diagramPNG, diagramDOT}
		}
		for name, v := range flagValues {
			values[name] = v
		}
		for name, v := range values {
			if cmd.Flags().Lookup(name) == nil {
				continue
			}
			_ = cmd.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(v, cobra.ShellCompDirectiveNoFileComp))
		}
		for _, name := range []string{"slots", "notes"} {
			if cmd.Flags().Lookup(name) != nil {
				_ = cmd.MarkFlagFilename(name, "json", "csv")
			}
		}
	}
}
