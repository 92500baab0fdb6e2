// Package fixtures generates synthetic JSON documents for the benchmark data directory.
package fixtures

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench"
)

// SizeConfig defines how many documents are generated and how large each one is
type SizeConfig struct {
	Documents int // Number of fixture files
	Students  int // Entries of the nested students array per document
	Tags      int // Entries of the tags array per document
}

// Sizes provides predefined fixture configurations
var Sizes = map[string]SizeConfig{
	"tiny": {
		Documents: 5,
		Students:  2,
		Tags:      2,
	},
	"small": {
		Documents: 20,
		Students:  20,
		Tags:      5,
	},
	"medium": {
		Documents: 50,
		Students:  200,
		Tags:      10,
	},
	"large": {
		Documents: 100,
		Students:  2_000,
		Tags:      20,
	},
}

// SizeNames returns the preset names in ascending order of document count
func SizeNames() []string {
	names := make([]string, 0, len(Sizes))
	for name := range Sizes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return Sizes[names[i]].Documents < Sizes[names[j]].Documents
	})
	return names
}

// Course is the shape of one generated document
type Course struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Instructor string    `json:"instructor"`
	Capacity   int       `json:"capacity"`
	Active     bool      `json:"active"`
	Rating     float64   `json:"rating"`
	Tags       []string  `json:"tags"`
	Students   []Student `json:"students"`
	Schedule   Schedule  `json:"schedule"`
}

// Student is one entry of Course.Students
type Student struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	EnrolledAt string `json:"enrolled_at"`
}

// Schedule is a nested object of Course
type Schedule struct {
	Day      string `json:"day"`
	Room     string `json:"room"`
	Duration int    `json:"duration_minutes"`
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// Generate builds cfg.Documents fixture payloads. The same seed always yields
// the same documents.
func Generate(cfg SizeConfig, seed int64) ([]jsonbench.Payload, error) {
	if cfg.Documents < 1 {
		return nil, fmt.Errorf("documents must be positive, got %d", cfg.Documents)
	}
	rng := rand.New(rand.NewSource(seed))

	payloads := make([]jsonbench.Payload, 0, cfg.Documents)
	for i := 0; i < cfg.Documents; i++ {
		course := Course{
			ID:         fmt.Sprintf("course-%d", i),
			Name:       fmt.Sprintf("Course %d", i),
			Instructor: fmt.Sprintf("Instructor %d", rng.Intn(cfg.Documents)),
			Capacity:   cfg.Students + rng.Intn(100),
			Active:     rng.Intn(2) == 0,
			Rating:     float64(rng.Intn(50)) / 10,
			Tags:       make([]string, cfg.Tags),
			Students:   make([]Student, cfg.Students),
			Schedule: Schedule{
				Day:      weekdays[rng.Intn(len(weekdays))],
				Room:     fmt.Sprintf("room-%d", rng.Intn(300)),
				Duration: 30 * (1 + rng.Intn(4)),
			},
		}
		for t := range course.Tags {
			course.Tags[t] = fmt.Sprintf("tag-%d", rng.Intn(1000))
		}
		for s := range course.Students {
			id := rng.Intn(1_000_000)
			course.Students[s] = Student{
				ID:         fmt.Sprintf("student-%d", id),
				Name:       fmt.Sprintf("Student %d", id),
				Email:      fmt.Sprintf("student%d@example.com", id),
				EnrolledAt: "2024-01-01T00:00:00Z",
			}
		}

		data, err := json.Marshal(course)
		if err != nil {
			return nil, fmt.Errorf("failed to encode course %d: %w", i, err)
		}
		payloads = append(payloads, jsonbench.Payload{
			Name: fmt.Sprintf("course-%04d.json", i),
			Data: data,
		})
	}
	return payloads, nil
}

// Write stores payloads as files under dir, creating it if needed
func Write(fs afero.Fs, dir string, payloads []jsonbench.Payload, log logrus.FieldLogger) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}
	for _, p := range payloads {
		if err := afero.WriteFile(fs, filepath.Join(dir, p.Name), p.Data, 0644); err != nil {
			return fmt.Errorf("failed to write fixture %s: %w", p.Name, err)
		}
	}

	log.WithFields(logrus.Fields{
		"dir":   dir,
		"files": len(payloads),
		"size":  humanize.Bytes(jsonbench.PayloadBytes(payloads)),
	}).Info("fixtures written")
	return nil
}
