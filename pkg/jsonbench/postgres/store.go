package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// ErrRowNotFound is returned when no row carries the requested identifier
var ErrRowNotFound = errors.New("row not found")

// Store benchmarks PostgreSQL json against jsonb
type Store struct {
	pool *pgxpool.Pool
	log  logrus.FieldLogger
}

var _ jsonbench.Backend = (*Store)(nil)

// NewStore creates a store over an existing pool. The pool stays owned by the caller.
func NewStore(pool *pgxpool.Pool, log logrus.FieldLogger) (*Store, error) {
	if pool == nil {
		return nil, &jsonbench.ValidationError{
			BenchError: jsonbench.BenchError{
				Op:  "NewStore",
				Err: fmt.Errorf("pool cannot be nil"),
			},
			Field: "pool",
			Value: "nil",
		}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{pool: pool, log: log.WithField("backend", "postgres")}, nil
}

// Name implements jsonbench.Backend
func (s *Store) Name() string {
	return "postgres"
}

// Supports reports which phases each representation can serve. json has no
// in-place field mutation, so partial-write is jsonb only.
func (s *Store) Supports(rep jsonbench.Representation, phase jsonbench.Phase) bool {
	if phase == jsonbench.PhasePartialWrite {
		return rep == jsonbench.RepresentationIndexed
	}
	return rep == jsonbench.RepresentationText || rep == jsonbench.RepresentationIndexed
}

// Insert stores value under key and returns the assigned id. The json table
// receives the raw text; the jsonb table receives the parsed document, so
// parsing is part of the measured cost. Documents are sent as text so the
// server parses them in every query exec mode.
func (s *Store) Insert(ctx context.Context, rep jsonbench.Representation, key string, value []byte) (int64, error) {
	table, err := tableFor(rep)
	if err != nil {
		return 0, err
	}

	doc := value
	if rep == jsonbench.RepresentationIndexed {
		if doc, err = parseDocument(value); err != nil {
			return 0, err
		}
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		fmt.Sprintf("INSERT INTO %s (key, value) VALUES ($1, $2) RETURNING id", table),
		key, string(doc),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

// ReadFull returns the stored document of row id
func (s *Store) ReadFull(ctx context.Context, rep jsonbench.Representation, id int64) ([]byte, error) {
	table, err := tableFor(rep)
	if err != nil {
		return nil, err
	}

	var value []byte
	err = s.pool.QueryRow(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = $1", table), id).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s id %d: %w", table, id, ErrRowNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s id %d: %w", table, id, err)
	}
	return value, nil
}

// ReadField returns the value of one top-level field of row id, or nil if the
// field is absent
func (s *Store) ReadField(ctx context.Context, rep jsonbench.Representation, id int64, field string) ([]byte, error) {
	table, err := tableFor(rep)
	if err != nil {
		return nil, err
	}

	var value []byte
	err = s.pool.QueryRow(ctx, fmt.Sprintf("SELECT value -> $1::text FROM %s WHERE id = $2", table), field, id).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s id %d: %w", table, id, ErrRowNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read field %q of %s id %d: %w", field, table, id, err)
	}
	return value, nil
}

// WriteField sets one top-level field of row id to value, a JSON literal
func (s *Store) WriteField(ctx context.Context, rep jsonbench.Representation, id int64, field string, value []byte) error {
	if !s.Supports(rep, jsonbench.PhasePartialWrite) {
		return jsonbench.NewUnsupportedError("write field", rep, jsonbench.PhasePartialWrite)
	}

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("UPDATE %s SET value = jsonb_set(value, ARRAY[$1::text], $2::jsonb) WHERE id = $3", IndexedTable),
		field, string(value), id)
	if err != nil {
		return fmt.Errorf("write field %q of %s id %d: %w", field, IndexedTable, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s id %d: %w", IndexedTable, id, ErrRowNotFound)
	}
	return nil
}

// parseDocument decodes value and re-encodes it, keeping numbers verbatim
func parseDocument(value []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse document: trailing data after top-level value")
	}
	return json.Marshal(doc)
}
