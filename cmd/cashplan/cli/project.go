package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/cashplan/internal/app"
	"github.com/odyssey-erp/cashplan/internal/money"
	"github.com/odyssey-erp/cashplan/internal/projection"
	"github.com/odyssey-erp/cashplan/internal/projection/export"
)

// Exit codes returned by ProjectCommand.
const (
	ExitOK         = 0
	ExitUsage      = 1
	ExitProjection = 2
)

// ProjectOptions defines available flags for the project command.
type ProjectOptions struct {
	Inputs   []string
	Format   string
	Locale   string
	Currency string
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
}

// ProjectionReport is one projection in JSON output.
type ProjectionReport struct {
	Input  string             `json:"input"`
	Result *projection.Result `json:"result"`
}

// ProjectCLI computes projections from input documents.
type ProjectCLI struct {
	compute func(projection.Input) (*projection.Result, error)
}

// NewProjectCLI constructs the helper around projection.Compute.
func NewProjectCLI() *ProjectCLI {
	return &ProjectCLI{compute: projection.Compute}
}

// ProjectCommand decodes every input, computes the projections concurrently and
// renders them in input order.
func (c *ProjectCLI) ProjectCommand(ctx context.Context, opts ProjectOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(opts.Inputs) == 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "project: at least one --input is required (use - for stdin)")
		return ExitUsage
	}
	switch opts.Format {
	case app.OutputTable, app.OutputJSON, app.OutputCSV:
	case "":
		opts.Format = app.OutputTable
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "project: unsupported format %q (expected table, json or csv)\n", opts.Format)
		return ExitUsage
	}
	var formatter *money.Formatter
	if opts.Format == app.OutputTable {
		f, err := money.NewFormatter(opts.Locale, opts.Currency)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "project: %v\n", err)
			return ExitUsage
		}
		formatter = f
	}

	runID := uuid.NewString()
	logger := opts.Logger.With(slog.String("run_id", runID))

	inputs := make([]projection.Input, len(opts.Inputs))
	for i, path := range opts.Inputs {
		in, err := readInput(path, opts.Stdin)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "project: %s: %v\n", path, err)
			return ExitUsage
		}
		inputs[i] = in
	}

	results := make([]*projection.Result, len(inputs))
	g, _ := errgroup.WithContext(ctx)
	for i := range inputs {
		i := i
		g.Go(func() error {
			started := time.Now()
			result, err := c.compute(inputs[i])
			if err != nil {
				logger.Warn("projection failed", slog.String("input", opts.Inputs[i]), slog.Any("error", err))
				return fmt.Errorf("%s: %w", opts.Inputs[i], err)
			}
			logger.Info("projection computed",
				slog.String("input", opts.Inputs[i]),
				slog.Int("horizon", result.Setup.Horizon),
				slog.Float64("ending_balance", result.Indicators.EndingBalance),
				slog.Duration("elapsed", time.Since(started)),
			)
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "project: %v\n", err)
		if errors.Is(err, projection.ErrConfiguration) || errors.Is(err, projection.ErrShape) || errors.Is(err, projection.ErrComputation) {
			return ExitProjection
		}
		return ExitUsage
	}

	if err := render(opts, formatter, results); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "project: render: %v\n", err)
		return ExitUsage
	}
	return ExitOK
}

func readInput(path string, stdin io.Reader) (projection.Input, error) {
	if path == "-" {
		return projection.DecodeInput(stdin, projection.FormatJSON)
	}
	f, err := os.Open(path)
	if err != nil {
		return projection.Input{}, err
	}
	defer f.Close()
	return projection.DecodeInput(f, projection.FormatFromPath(path))
}

func render(opts ProjectOptions, formatter *money.Formatter, results []*projection.Result) error {
	switch opts.Format {
	case app.OutputJSON:
		reports := make([]ProjectionReport, len(results))
		for i, result := range results {
			reports[i] = ProjectionReport{Input: opts.Inputs[i], Result: result}
		}
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case app.OutputCSV:
		for i, result := range results {
			if len(results) > 1 {
				if _, err := fmt.Fprintf(opts.Stdout, "# %s\n", opts.Inputs[i]); err != nil {
					return err
				}
			}
			if err := export.WriteTableCSV(opts.Stdout, result); err != nil {
				return err
			}
		}
		return nil
	default:
		for i, result := range results {
			if i > 0 {
				if _, err := fmt.Fprintln(opts.Stdout); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(opts.Stdout, "Cash-flow projection: %s\n\n", opts.Inputs[i]); err != nil {
				return err
			}
			if err := export.WriteTableText(opts.Stdout, result, formatter); err != nil {
				return err
			}
		}
		return nil
	}
}
