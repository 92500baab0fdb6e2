package postgres

import (
	"context"
	"fmt"

	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench"
)

// TableStats describes the population of one benchmark table
type TableStats struct {
	Representation jsonbench.Representation
	Table          string
	Rows           int64
	DistinctKeys   int64
	TotalBytes     int64 // Heap, TOAST and index size
}

// Stats returns row counts and on-disk size for each table
func (s *Store) Stats(ctx context.Context) ([]TableStats, error) {
	var out []TableStats
	for _, rep := range jsonbench.Representations {
		table, err := tableFor(rep)
		if err != nil {
			return nil, err
		}

		stats := TableStats{Representation: rep, Table: table}
		err = s.pool.QueryRow(ctx,
			fmt.Sprintf("SELECT count(*), count(DISTINCT key), pg_total_relation_size('%s') FROM %s", table, table),
		).Scan(&stats.Rows, &stats.DistinctKeys, &stats.TotalBytes)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", table, err)
		}
		out = append(out, stats)
	}
	return out, nil
}

// SharedKeys counts logical keys present in both tables
func (s *Store) SharedKeys(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s t JOIN %s b ON b.key = t.key", TextTable, IndexedTable),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count shared keys: %w", err)
	}
	return n, nil
}
