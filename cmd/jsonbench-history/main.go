// Command jsonbench-history prints benchmark runs recorded in a jsonbench archive.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	"github.com/rodolfodpk/go-jsonbench/internal/archive"
	"github.com/rodolfodpk/go-jsonbench/internal/report"
)

// Config is the command line configuration of jsonbench-history
type Config struct {
	ArchivePath string `long:"archive" env:"ARCHIVE_PATH" required:"true" description:"SQLite file written by jsonbench --archive"`
	Run         string `long:"run" env:"RUN_ID" description:"Only show this run"`
	Limit       int    `long:"limit" env:"HISTORY_LIMIT" default:"10" description:"Most recent runs to show (0 = all)"`
	Format      string `long:"format" env:"OUTPUT_FORMAT" default:"table" choice:"table" choice:"json" description:"Output format"`
	Level       string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Logging level"`
}

func main() {
	var cfg Config
	if _, err := flags.NewParser(&cfg, flags.Default).Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if lvl, err := log.ParseLevel(cfg.Level); err != nil {
		log.WithField("err", err).Fatal("unrecognized log level")
	} else {
		log.SetLevel(lvl)
	}

	if err := run(context.Background(), cfg, os.Stdout); err != nil {
		log.WithError(err).Fatal("failed to read history")
	}
}

func run(ctx context.Context, cfg Config, w io.Writer) error {
	a, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := selectRuns(ctx, a, cfg)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"archive": cfg.ArchivePath, "runs": len(runs)}).Debug("runs selected")

	for _, r := range runs {
		summaries, err := a.Summaries(ctx, r.ID)
		if err != nil {
			return err
		}

		if cfg.Format == "json" {
			err = report.WriteJSON(w, report.Document{
				RunID:          r.ID,
				Backend:        r.Backend,
				Payloads:       r.Payloads,
				InsertLoops:    r.Config.InsertLoopCount,
				IterationCount: r.Config.IterationCount,
				Results:        report.Entries(summaries),
			})
			if err != nil {
				return err
			}
			continue
		}

		fmt.Fprintf(w, "\n%s  %s  backend=%s payloads=%d insert-loops=%d iterations=%d\n",
			r.ID, r.StartedAt.UTC().Format("2006-01-02 15:04:05"), r.Backend, r.Payloads,
			r.Config.InsertLoopCount, r.Config.IterationCount)
		report.WriteAll(w, summaries)
	}
	return nil
}

// selectRuns returns the run named by cfg.Run, or the cfg.Limit most recent runs
func selectRuns(ctx context.Context, a *archive.Archive, cfg Config) ([]archive.Run, error) {
	runs, err := a.Runs(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Run != "" {
		for _, r := range runs {
			if r.ID == cfg.Run {
				return []archive.Run{r}, nil
			}
		}
		return nil, fmt.Errorf("run %s not found in %s", cfg.Run, cfg.ArchivePath)
	}

	if cfg.Limit > 0 && len(runs) > cfg.Limit {
		runs = runs[:cfg.Limit]
	}
	return runs, nil
}
