package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"spillovers/internal/app"
	"spillovers/internal/config"
	apperrors "spillovers/internal/errors"
	"spillovers/internal/infrastructure"
	"spillovers/pkg/contracts"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes one study and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("spillover", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "YAML configuration file")
	settingsFile := fs.String("settings", "", "xlsx settings workbook with Settings and Sectors sheets")
	pricesDir := fs.String("prices", "", "directory of per-sector price files (<sector>.csv or <sector>.xlsx)")
	outDir := fs.String("out", "", "output directory")
	workers := fs.Int("workers", 0, "parallel window fits (defaults to the number of CPUs)")
	skipFailed := fs.Bool("skip-failed-windows", false, "skip windows whose model cannot be fitted instead of aborting")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitOK
		}
		return apperrors.ExitConfig
	}
	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return apperrors.ExitOK
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := config.Load(*configFile, func(c *config.Config) {
		if set["settings"] {
			c.Paths.SettingsFile = *settingsFile
		}
		if set["prices"] {
			c.Paths.PricesDir = *pricesDir
		}
		if set["out"] {
			c.Paths.OutputDir = *outDir
		}
		if set["workers"] {
			c.Runtime.Workers = *workers
		}
		if set["skip-failed-windows"] && *skipFailed {
			c.Runtime.FailurePolicy = config.Skip
		}
	})
	if err != nil {
		fmt.Fprintf(stderr, "configuration error: %v\n", err)
		return apperrors.ExitCode(err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return apperrors.ExitConfig
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := app.NewRunner(*cfg, logger).Run(ctx)
	if err != nil {
		logger.Error("spillover study failed",
			slog.String("error", err.Error()),
			slog.String("error_type", string(apperrors.TypeOf(err))))
		return apperrors.ExitCode(err)
	}

	logger.Info("spillover study written",
		slog.String("run_id", result.RunID),
		slog.String("output_dir", result.Paths.Root),
		slog.Int("tables", result.Tables),
		slog.Float64("spillover_index", result.Estimate.Table.Index),
		slog.Int("lag_order", result.Estimate.LagOrder),
		slog.Duration("elapsed", result.Duration))
	return apperrors.ExitOK
}
