// Command jsonbench measures PostgreSQL json against jsonb latency for bulk
// insert, full read, partial write and partial read.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/rodolfodpk/go-jsonbench/internal/archive"
	"github.com/rodolfodpk/go-jsonbench/internal/report"
	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench"
	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench/postgres"
)

func main() {
	var cfg Config
	var parser = flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	InitLog(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("benchmark failed")
	}
}

func run(ctx context.Context, cfg Config) error {
	benchCfg := cfg.benchConfig()
	if err := benchCfg.Validate(); err != nil {
		return err
	}

	payloads, err := jsonbench.LoadPayloads(afero.NewOsFs(), cfg.DataDir, cfg.Extension, log.StandardLogger())
	if err != nil {
		return err
	}

	if err := waitForServices(ctx, cfg.StartupDelay); err != nil {
		return err
	}

	pool, err := connect(ctx, cfg.DatabaseURL, cfg.ConnectRetries)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := postgres.NewStore(pool, log.StandardLogger())
	if err != nil {
		return err
	}

	opts := []jsonbench.Option{jsonbench.WithLogger(log.StandardLogger())}
	if cfg.Format == "table" {
		opts = append(opts, jsonbench.WithPhaseHook(func(phase jsonbench.Phase, summaries []jsonbench.Summary) {
			report.WritePhase(os.Stdout, phase, summaries)
		}))
	}

	bench, err := jsonbench.NewRun(benchCfg, store, payloads, opts...)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	results, err := bench.Execute(ctx)
	if err != nil {
		return err
	}
	log.WithField("elapsed", time.Since(startedAt).Round(time.Millisecond)).Info("benchmark complete")

	logTableStats(ctx, store)

	runID, err := archive.NewRunID()
	if err != nil {
		return err
	}
	summaries := results.SummarizeAll()

	if cfg.Format == "json" {
		err = report.WriteJSON(os.Stdout, report.Document{
			RunID:          runID,
			Backend:        store.Name(),
			Payloads:       len(payloads),
			PayloadBytes:   jsonbench.PayloadBytes(payloads),
			InsertLoops:    benchCfg.InsertLoopCount,
			IterationCount: benchCfg.IterationCount,
			Results:        report.Entries(summaries),
		})
		if err != nil {
			return err
		}
	}

	if cfg.ArchivePath != "" {
		if err := archiveRun(ctx, cfg.ArchivePath, archive.Run{
			ID:        runID,
			Backend:   store.Name(),
			Config:    bench.Config,
			Payloads:  len(payloads),
			StartedAt: startedAt,
		}, summaries); err != nil {
			return err
		}
	}
	return nil
}

func logTableStats(ctx context.Context, store *postgres.Store) {
	stats, err := store.Stats(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to collect table stats")
		return
	}
	for _, s := range stats {
		log.WithFields(log.Fields{
			"table":         s.Table,
			"rows":          s.Rows,
			"distinct_keys": s.DistinctKeys,
			"size":          humanize.IBytes(uint64(s.TotalBytes)),
		}).Info("table stats")
	}
}

func archiveRun(ctx context.Context, path string, run archive.Run, summaries []jsonbench.Summary) error {
	a, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Record(ctx, run, summaries); err != nil {
		return err
	}
	log.WithFields(log.Fields{"run": run.ID, "archive": path}).Info("run archived")
	return nil
}
