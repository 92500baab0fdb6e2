package jsonbench

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// LoadPayloads reads every regular file in dir whose extension matches ext.
// Files are returned in directory-listing order and their contents are not
// validated; a malformed document only surfaces once it is inserted.
func LoadPayloads(fs afero.Fs, dir, ext string, log logrus.FieldLogger) ([]Payload, error) {
	if ext == "" {
		ext = DefaultFixtureExtension
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, &LoadError{
			BenchError: BenchError{Op: "load payloads", Err: err},
			Dir:        dir,
		}
	}

	var payloads []Payload

	for _, entry := range entries {
		if !entry.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}

		data, err := afero.ReadFile(fs, filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, &LoadError{
				BenchError: BenchError{Op: "load payloads", Err: fmt.Errorf("read %s: %w", entry.Name(), err)},
				Dir:        dir,
			}
		}

		payloads = append(payloads, Payload{Name: entry.Name(), Data: data})
	}

	total := PayloadBytes(payloads)

	log.WithFields(logrus.Fields{
		"dir":   dir,
		"files": len(payloads),
		"size":  humanize.Bytes(total),
	}).Infof("loaded %d file(s) with %s of data", len(payloads), humanize.Bytes(total))

	return payloads, nil
}

// PayloadBytes returns the aggregate size of all payloads
func PayloadBytes(payloads []Payload) uint64 {
	var total uint64
	for _, p := range payloads {
		total += uint64(len(p.Data))
	}
	return total
}
