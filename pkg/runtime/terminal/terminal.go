package terminal

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/report-deck/pkg/runtime/app"
	"github.com/de-tools/report-deck/pkg/runtime/terminal/commands"
	"github.com/de-tools/report-deck/pkg/runtime/terminal/export"
	"github.com/de-tools/report-deck/pkg/services/config"
)

// CLI represents the command-line interface
type CLI struct {
	reporter   *export.Reporter
	logs       io.Writer
	configPath string
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	// Logs receives diagnostics; defaults to stderr.
	Logs io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logs == nil {
		opts.Logs = os.Stderr
	}

	cli := &CLI{
		reporter: export.NewReporter(opts.Output),
		logs:     opts.Logs,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// SetArgs overrides os.Args, mostly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "deck",
		Short:         "Report deck generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.logs}).With().Timestamp().Logger()
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}
	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to a config file")

	cmd.AddCommand(commands.NewRenderCmd(cli.loadApp, cli.reporter))
	cmd.AddCommand(commands.NewInspectCmd(cli.reporter))

	return cmd
}

func (cli *CLI) loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig(cli.configPath)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg)
}
