// Package cli provides the command-line interface for dbtscore.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leapstack-labs/dbtscore/internal/cli/commands"
	"github.com/leapstack-labs/dbtscore/internal/cli/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const banner = `     _ _     _
  __| | |__ | |_   ___  ___ ___  _ __ ___
 / _' | '_ \| __| / __|/ __/ _ \| '__/ _ \
| (_| | |_) | |_  \__ \ (_| (_) | | |  __/
 \__,_|_.__/ \__| |___/\___\___/|_|  \___|
`

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile string
		debug   bool
	)

	rootCmd := &cobra.Command{
		Use:   "dbtscore",
		Short: "dbtscore - Linter and scorer for dbt metadata",
		Long: banner + `
dbtscore lints the metadata of a dbt project. Rules are evaluated against
every model, source, snapshot, seed, exposure and macro of the manifest, and
each resource and the project as a whole receive a score between 0 and 10.

Configuration is read from dbt_score.yaml, DBT_SCORE_* environment variables
and command-line flags, in increasing order of precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			level := new(slog.LevelVar)
			if debug {
				level.Set(slog.LevelDebug)
			}
			logger := newLogger(cmd.ErrOrStderr(), level)

			cfg, err := config.Load(cfgFile, cmd.Flags(), logger)
			if err != nil {
				return err
			}
			if cfg.Debug {
				level.Set(slog.LevelDebug)
			}
			if cfg.ConfigFile != "" {
				logger.Debug("using config file", slog.String("path", cfg.ConfigFile))
			}

			ctx := config.WithLogger(cmd.Context(), logger)
			ctx = config.WithConfig(ctx, cfg)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Linter and scorer for dbt metadata
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: dbt_score.yaml, searched upward)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(commands.NewLintCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

func newLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(rootCmd *cobra.Command, args []string, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil {
		var exitErr *commands.ExitError
		if !errors.As(err, &exitErr) || !exitErr.Reported {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	}
	return commands.ExitCode(err)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dbtscore.

To load completions:

Bash:
  $ source <(dbtscore completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ dbtscore completion bash > /etc/bash_completion.d/dbtscore
  # macOS:
  $ dbtscore completion bash > $(brew --prefix)/etc/bash_completion.d/dbtscore

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ dbtscore completion zsh > "${fpath[1]}/_dbtscore"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ dbtscore completion fish | source

  # To load completions for each session, execute once:
  $ dbtscore completion fish > ~/.config/fish/completions/dbtscore.fish

PowerShell:
  PS> dbtscore completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> dbtscore completion powershell > dbtscore.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
