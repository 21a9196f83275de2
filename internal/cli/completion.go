package cli

import (
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trailmap/pkg/pipeline"
	"github.com/matzehuels/trailmap/pkg/render"
)

// completionScripts maps each shell to its cobra generator.
var completionScripts = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	shells := make([]string, 0, len(completionScripts))
	for s := range completionScripts {
		shells = append(shells, s)
	}
	sort.Strings(shells)

	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for trailmap.

  $ source <(trailmap completion bash)
  $ trailmap completion zsh > "${fpath[1]}/_trailmap"
  $ trailmap completion fish > ~/.config/fish/completions/trailmap.fish
  PS> trailmap completion powershell | Out-String | Invoke-Expression

Steps and layout arguments complete to .json and .yaml files; --format and
--theme complete to their known values.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionScripts[args[0]](cmd.Root(), stdout)
		},
	}
}

// completeInputFiles limits positional completion to steps and layout files.
func completeInputFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}

// registerRenderCompletions offers the known formats and themes.
func registerRenderCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		formats := make([]string, 0, len(pipeline.ValidFormats))
		for f := range pipeline.ValidFormats {
			formats = append(formats, f)
		}
		sort.Strings(formats)
		return formats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("theme", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		themes := render.Themes()
		names := make([]string, len(themes))
		for i, t := range themes {
			names[i] = string(t)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}
