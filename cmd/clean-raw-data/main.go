// Command clean-raw-data joins the SRRS2 radon site readings with the county
// uranium table and writes the cleaned table to stdout as TSV.
//
// Usage:
//
//	clean-raw-data [-variant county-idx|state-county] [-state MN] srrs2.dat cty.dat > clean_data.tsv
//
// Optional sinks are enabled through the environment: KAFKA_SINK_TOPIC
// publishes every row to Kafka, SQLITE_PATH stores the table in SQLite, and
// METRICS_TEXTFILE writes run metrics for the node-exporter textfile collector.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/radon-data-etl/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/radon-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/radon-data-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/radon-data-etl/internal/adapter/tsv"
	"github.com/couchcryptid/radon-data-etl/internal/config"
	"github.com/couchcryptid/radon-data-etl/internal/domain"
	"github.com/couchcryptid/radon-data-etl/internal/observability"
	"github.com/couchcryptid/radon-data-etl/internal/pipeline"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("clean-raw-data", flag.ContinueOnError)
	fs.SetOutput(stderr)
	variantFlag := fs.String("variant", string(domain.VariantCountyIndex), "transform variant: county-idx or state-county")
	state := fs.String("state", "MN", "keep only this state code; empty keeps all states")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: clean-raw-data [flags] <site_file> <county_file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return exitUsage
	}

	variant, err := domain.ParseVariant(*variantFlag)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewTextHandler(stderr, nil)).Error("failed to load config", "error", err)
		return exitError
	}

	logger := observability.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := bufio.NewWriter(stdout)
	loaders := []pipeline.Loader{tsv.NewWriter(out)}
	var closers []io.Closer

	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite sink", "error", err, "path", cfg.SQLitePath)
			return exitError
		}
		closers = append(closers, store)
		loaders = append(loaders, store)
		logger.Info("sqlite sink enabled", "path", cfg.SQLitePath)
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		closers = append(closers, writer)
		loaders = append(loaders, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	loader := csvfile.NewLoader(fs.Arg(0), fs.Arg(1), *state, logger)
	transformer := pipeline.NewTransformer(variant, logger)
	p := pipeline.New(loader, transformer, loaders, logger, metrics, nil)

	_, runErr := p.Run(ctx)
	if runErr == nil {
		if err := out.Flush(); err != nil {
			runErr = fmt.Errorf("flush stdout: %w", err)
		}
	}

	code := exitOK
	if runErr != nil {
		logger.Error("clean failed", "error", runErr)
		code = exitError
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("metrics export failed", "error", err)
		}
	}

	if err := closeAll(closers, cfg, logger); err != nil {
		logger.Error("sink close error", "error", err)
		code = exitError
	}
	return code
}

// closeAll closes sinks in reverse order, bounded by the shutdown timeout.
func closeAll(closers []io.Closer, cfg *config.Config, logger *slog.Logger) error {
	done := make(chan error, 1)
	go func() {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
		done <- errors.Join(errs...)
	}()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	select {
	case err := <-done:
		return err
	case <-shutdownCtx.Done():
		logger.Warn("sinks did not close before shutdown timeout", "timeout", cfg.ShutdownTimeout)
		return shutdownCtx.Err()
	}
}
