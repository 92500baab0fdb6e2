package postgres

import (
	"context"
	"fmt"

	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench"
)

// Table names, one per representation
const (
	TextTable    = "test_json"
	IndexedTable = "test_jsonb"
)

// resetStatements return the public schema to an empty state. Failures are tolerated.
var resetStatements = []string{
	"DROP SCHEMA IF EXISTS public CASCADE",
	"CREATE SCHEMA public",
	"GRANT ALL ON SCHEMA public TO CURRENT_USER",
	"GRANT ALL ON SCHEMA public TO public",
}

// tableStatements builds the DDL for one table. The id is both unique-indexed and
// the primary key; key carries the logical key shared across representations.
func tableStatements(table, columnType string) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE %s (id SERIAL NOT NULL, key TEXT NOT NULL, value %s NOT NULL)", table, columnType),
		fmt.Sprintf("CREATE UNIQUE INDEX %s_id_uindex ON %s (id)", table, table),
		fmt.Sprintf("CREATE UNIQUE INDEX %s_key_uindex ON %s (key)", table, table),
		fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s_pk PRIMARY KEY (id)", table, table),
	}
}

// ProvisionSchema resets the public schema and creates both tables
func (s *Store) ProvisionSchema(ctx context.Context) error {
	s.log.Info("resetting database back to vanilla")
	for _, stmt := range resetStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			s.log.WithError(err).WithField("statement", stmt).Warn("schema reset statement failed")
		}
	}

	s.log.Info("creating tables")
	var ddl []string
	ddl = append(ddl, tableStatements(TextTable, "JSON")...)
	ddl = append(ddl, tableStatements(IndexedTable, "JSONB")...)

	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return jsonbench.NewSchemaError(stmt, err)
		}
	}
	return nil
}

func tableFor(rep jsonbench.Representation) (string, error) {
	switch rep {
	case jsonbench.RepresentationText:
		return TextTable, nil
	case jsonbench.RepresentationIndexed:
		return IndexedTable, nil
	default:
		return "", fmt.Errorf("no table for representation %d", rep)
	}
}
