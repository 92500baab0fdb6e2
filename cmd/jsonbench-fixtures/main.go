// Command jsonbench-fixtures writes a synthetic fixture set for jsonbench.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/rodolfodpk/go-jsonbench/internal/fixtures"
)

// Config is the command line configuration of jsonbench-fixtures
type Config struct {
	Out   string `long:"out" env:"DATA_DIR" default:"./data" description:"Directory to write fixture files to"`
	Size  string `long:"size" env:"FIXTURE_SIZE" default:"small" description:"Fixture preset (tiny, small, medium, large)"`
	Seed  int64  `long:"seed" env:"SEED" default:"1" description:"Generator seed"`
	Level string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Logging level"`
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

	if err := run(afero.NewOsFs(), cfg); err != nil {
		log.WithError(err).Fatal("fixture generation failed")
	}
}

func run(fs afero.Fs, cfg Config) error {
	size, ok := fixtures.Sizes[cfg.Size]
	if !ok {
		return fmt.Errorf("invalid fixture size %q, available: %s", cfg.Size, strings.Join(fixtures.SizeNames(), ", "))
	}

	log.WithFields(log.Fields{
		"size":      cfg.Size,
		"documents": size.Documents,
		"students":  size.Students,
	}).Info("generating fixtures")

	payloads, err := fixtures.Generate(size, cfg.Seed)
	if err != nil {
		return err
	}
	return fixtures.Write(fs, cfg.Out, payloads, log.StandardLogger())
}
