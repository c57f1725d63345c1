package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/cashplan/cmd/cashplan/cli"
	"github.com/odyssey-erp/cashplan/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(".env")
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(cli.ExitUsage)
	}
	logger := app.NewLogger(cfg)

	root := newRootCommand(cfg, logger)
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(exitCode(err))
	}
}

type exitError struct {
	code int
}

func (e exitError) Error() string {
	return "exit"
}

func exitCode(err error) int {
	if e, ok := err.(exitError); ok {
		return e.code
	}
	return cli.ExitUsage
}

func newRootCommand(cfg *app.Config, logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "cashplan",
		Short:        "Multi-month cash-flow projections from business rules",
		SilenceUsage: true,
	}
	root.AddCommand(newProjectCommand(cfg, logger))
	return root
}

func newProjectCommand(cfg *app.Config, logger *slog.Logger) *cobra.Command {
	opts := cli.ProjectOptions{
		Format:   cfg.OutputFormat,
		Locale:   cfg.DisplayLocale,
		Currency: cfg.DisplayCurrency,
	}
	cmd := &cobra.Command{
		Use:   "project --input FILE [--input FILE...]",
		Short: "Compute projections from JSON or YAML input documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Stdin = cmd.InOrStdin()
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			opts.Logger = logger
			if code := cli.NewProjectCLI().ProjectCommand(cmd.Context(), opts); code != cli.ExitOK {
				cmd.SilenceErrors = true
				return exitError{code: code}
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.Inputs, "input", "i", nil, "input document (.json, .yaml, .yml or - for JSON on stdin)")
	flags.StringVarP(&opts.Format, "format", "f", opts.Format, "output format: table, json or csv")
	flags.StringVar(&opts.Locale, "locale", opts.Locale, "display locale for table output")
	flags.StringVar(&opts.Currency, "currency", opts.Currency, "ISO 4217 currency for table output")
	return cmd
}
