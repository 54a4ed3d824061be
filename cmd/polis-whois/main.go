// Package main is the entry point for the polis-whois binary. It parses WHOIS
// responses from files or stdin, or serves the parser over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/polisai/polis-whois/internal/governance"
	"github.com/polisai/polis-whois/internal/server"
	"github.com/polisai/polis-whois/pkg/config"
	"github.com/polisai/polis-whois/pkg/export"
	"github.com/polisai/polis-whois/pkg/logging"
	"github.com/polisai/polis-whois/pkg/telemetry"
	"github.com/polisai/polis-whois/pkg/whois"
)

const telemetryShutdownTimeout = 5 * time.Second

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	tablesPath string
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "polis-whois",
		Short: "Parse raw WHOIS responses into normalized JSON records",
		Long: `polis-whois turns the free-form text returned by WHOIS servers into a
normalized record with canonical fields, contact blocks and parse diagnostics.

Examples:
  whois example.com | polis-whois parse --pretty
  polis-whois parse --concurrency 16 responses/*.txt
  polis-whois serve --listen :8043 --tables tables.yaml`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&opts.tablesPath, "tables", "", "Path to an alias/redaction/date table file")

	rootCmd.AddCommand(newParseCmd(opts), newServeCmd(opts))
	return rootCmd
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.tablesPath != "" {
		cfg.Parser.TablesFile = opts.tablesPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// buildParser creates a parser with the configured limits and tables.
func buildParser(cfg *config.Config, logger zerolog.Logger) (*whois.Parser, error) {
	opts, err := cfg.ParserOptions()
	if err != nil {
		return nil, err
	}
	tables, err := config.BuildTables(cfg.Parser.TablesFile)
	if err != nil {
		return nil, err
	}
	opts = append(opts, whois.WithTables(tables), whois.WithLogger(logger))
	return whois.New(opts...), nil
}

func newParseCmd(opts *globalOptions) *cobra.Command {
	var (
		pretty      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "parse [files...]",
		Short: "Parse WHOIS responses from files or stdin",
		Long: `Parse each file (or stdin when no file or "-" is given) and write one JSON
envelope per input to stdout, in input order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := logging.SetupLogger(cfg.LoggingSettings())

			parser, err := buildParser(cfg, logger)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.Batch.Concurrency
			}

			inputs := args
			if len(inputs) == 0 {
				inputs = []string{"-"}
			}
			return runParse(cmd.Context(), parser, inputs, cmd.InOrStdin(), cmd.OutOrStdout(), concurrency, pretty)
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "Maximum number of inputs parsed in parallel")
	return cmd
}

// runParse parses every input with bounded parallelism and writes the
// envelopes in input order. It fails when any input failed to parse.
func runParse(ctx context.Context, parser *whois.Parser, inputs []string, stdin io.Reader, out io.Writer, concurrency int, pretty bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([][]byte, len(inputs))
	failed := make([]bool, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, name := range inputs {
		g.Go(func() error {
			text, err := readInput(name, stdin)
			if err != nil {
				return err
			}
			payload, err := export.ParseJSON(gctx, parser, text, pretty)
			results[i] = payload
			failed[i] = err != nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	nFailed := 0
	for i, payload := range results {
		if _, err := out.Write(append(payload, '\n')); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		if failed[i] {
			nFailed++
		}
	}
	if nFailed > 0 {
		return fmt.Errorf("%d of %d inputs failed to parse", nFailed, len(inputs))
	}
	return nil
}

func readInput(name string, stdin io.Reader) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	// #nosec G304 -- input paths come from the command line
	b, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(b), nil
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parser over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Address = listen
			}
			logger := logging.SetupLogger(cfg.LoggingSettings())

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	return cmd
}

// runServe orchestrates the server lifecycle.
func runServe(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	traceShutdown, err := telemetry.SetupProvider(ctx, cfg.TelemetrySettings())
	if err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}
	defer shutdownWithTimeout(traceShutdown, logger, "tracer provider")

	monitoring, err := telemetry.NewMonitoring(ctx, cfg.TelemetrySettings())
	if err != nil {
		return fmt.Errorf("metrics initialization failed: %w", err)
	}
	monitoring.SetAsGlobal()
	defer shutdownWithTimeout(monitoring.Shutdown, logger, "meter provider")

	parser, err := buildParser(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Parser.TablesFile != "" {
		watcher, err := config.NewTablesWatcher(cfg.Parser.TablesFile, parser, func(err error) {
			if err != nil {
				monitoring.RecordTablesReload("failure")
				return
			}
			monitoring.RecordTablesReload("success")
		}, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close tables watcher")
			}
		}()
	}

	var limiter *governance.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = governance.NewRateLimiter(governance.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.Burst,
		})
	}

	handler := server.NewHandler(server.Options{
		Parser:       parser,
		Limiter:      limiter,
		Metrics:      monitoring,
		Logger:       logger,
		MaxBodyBytes: int64(cfg.Parser.MaxInputBytes),
	})

	logger.Info().
		Str("addr", cfg.Server.Address).
		Bool("rate_limit", limiter != nil).
		Str("tables", cfg.Parser.TablesFile).
		Msg("starting polis-whois")

	err = server.New(cfg.Server, handler, logger).ListenAndRun(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func shutdownWithTimeout(fn func(context.Context) error, logger zerolog.Logger, what string) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		logger.Error().Err(err).Str("component", what).Msg("shutdown failed")
	}
}
