package main

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for scanwatch.

To load completions:

Bash:
  $ source <(scanwatch completion bash)
  # To load completions for each session, execute once:
  $ scanwatch completion bash > /etc/bash_completion.d/scanwatch

Zsh:
  $ scanwatch completion zsh > "${fpath[1]}/_scanwatch"
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ scanwatch completion fish > ~/.config/fish/completions/scanwatch.fish

PowerShell:
  PS> scanwatch completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		default:
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
