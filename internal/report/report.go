// Package report formats benchmark summaries for the console.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench"
)

// WritePhase prints the summaries of one phase as a table
func WritePhase(w io.Writer, phase jsonbench.Phase, summaries []jsonbench.Summary) {
	fmt.Fprintf(w, "\n%s results\n", phase)
	writeTable(w, summaries)
}

// WriteAll prints every summary of a run in one table
func WriteAll(w io.Writer, summaries []jsonbench.Summary) {
	writeTable(w, summaries)
}

func writeTable(w io.Writer, summaries []jsonbench.Summary) {
	var table = tablewriter.NewWriter(w)
	table.Header("Phase", "Representation", "Samples", "Failures", "Skipped", "Average")

	for _, s := range summaries {
		table.Append([]string{
			s.Phase.String(),
			s.Representation.String(),
			strconv.Itoa(s.Count),
			strconv.Itoa(s.Failures),
			strconv.Itoa(s.Skipped),
			FormatMean(s),
		})
	}
	table.Render()
}

// FormatMean renders the mean of s, or n/a when nothing was recorded
func FormatMean(s jsonbench.Summary) string {
	if s.Err != nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3fms", s.MeanMs)
}

// Entry is the JSON form of one summary
type Entry struct {
	Phase          string   `json:"phase"`
	Representation string   `json:"representation"`
	Samples        int      `json:"samples"`
	Failures       int      `json:"failures"`
	Skipped        int      `json:"skipped"`
	MeanMs         *float64 `json:"mean_ms"` // null when nothing was recorded
}

// Document is the JSON form of a whole run
type Document struct {
	RunID          string  `json:"run_id"`
	Backend        string  `json:"backend"`
	Payloads       int     `json:"payloads"`
	PayloadBytes   uint64  `json:"payload_bytes"`
	InsertLoops    int     `json:"insert_loops"`
	IterationCount int     `json:"iteration_count"`
	Results        []Entry `json:"results"`
}

// Entries converts summaries to their JSON form
func Entries(summaries []jsonbench.Summary) []Entry {
	entries := make([]Entry, 0, len(summaries))
	for _, s := range summaries {
		e := Entry{
			Phase:          s.Phase.String(),
			Representation: s.Representation.String(),
			Samples:        s.Count,
			Failures:       s.Failures,
			Skipped:        s.Skipped,
		}
		if s.Err == nil {
			mean := s.MeanMs
			e.MeanMs = &mean
		}
		entries = append(entries, e)
	}
	return entries
}

// WriteJSON writes doc as indented JSON to w
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}
