package jsonbench_test

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rodolfodpk/go-jsonbench/pkg/jsonbench"
)

type memoryRow struct {
	id    int64
	key   string
	value []byte
}

// memoryBackend is an in-process Backend used to drive phases without a database
type memoryBackend struct {
	tables      map[jsonbench.Representation][]memoryRow
	serial      map[jsonbench.Representation]int64
	provisioned int
	calls       []string
	failOn      func(op string, rep jsonbench.Representation) error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		tables: make(map[jsonbench.Representation][]memoryRow),
		serial: make(map[jsonbench.Representation]int64),
	}
}

func (m *memoryBackend) Name() string { return "memory" }

func (m *memoryBackend) ProvisionSchema(ctx context.Context) error {
	m.provisioned++
	m.tables = make(map[jsonbench.Representation][]memoryRow)
	m.serial = make(map[jsonbench.Representation]int64)
	return m.check("provision", jsonbench.RepresentationText)
}

func (m *memoryBackend) Supports(rep jsonbench.Representation, phase jsonbench.Phase) bool {
	if phase == jsonbench.PhasePartialWrite {
		return rep == jsonbench.RepresentationIndexed
	}
	return true
}

// Insert consumes an identifier on every attempt, failed or not, like a SERIAL column
func (m *memoryBackend) Insert(ctx context.Context, rep jsonbench.Representation, key string, value []byte) (int64, error) {
	m.serial[rep]++
	id := m.serial[rep]

	if err := m.check("insert", rep); err != nil {
		return 0, err
	}
	if !json.Valid(value) {
		return 0, fmt.Errorf("invalid input syntax for type json")
	}
	for _, row := range m.tables[rep] {
		if row.key == key {
			return 0, fmt.Errorf("duplicate key %s", key)
		}
	}
	m.tables[rep] = append(m.tables[rep], memoryRow{id: id, key: key, value: append([]byte(nil), value...)})
	return id, nil
}

func (m *memoryBackend) ReadFull(ctx context.Context, rep jsonbench.Representation, id int64) ([]byte, error) {
	if err := m.check("read", rep); err != nil {
		return nil, err
	}
	row, err := m.row(rep, id)
	if err != nil {
		return nil, err
	}
	return row.value, nil
}

func (m *memoryBackend) ReadField(ctx context.Context, rep jsonbench.Representation, id int64, field string) ([]byte, error) {
	if err := m.check("read field", rep); err != nil {
		return nil, err
	}
	row, err := m.row(rep, id)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(row.value, &doc); err != nil {
		return nil, err
	}
	return doc[field], nil
}

func (m *memoryBackend) WriteField(ctx context.Context, rep jsonbench.Representation, id int64, field string, value []byte) error {
	if !m.Supports(rep, jsonbench.PhasePartialWrite) {
		return jsonbench.NewUnsupportedError("write field", rep, jsonbench.PhasePartialWrite)
	}
	if err := m.check("write field", rep); err != nil {
		return err
	}
	row, err := m.row(rep, id)
	if err != nil {
		return err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(row.value, &doc); err != nil {
		return err
	}
	doc[field] = json.RawMessage(value)
	row.value, err = json.Marshal(doc)
	return err
}

func (m *memoryBackend) row(rep jsonbench.Representation, id int64) (*memoryRow, error) {
	rows := m.tables[rep]
	for i := range rows {
		if rows[i].id == id {
			return &rows[i], nil
		}
	}
	return nil, fmt.Errorf("%s id %d not found", rep, id)
}

func (m *memoryBackend) check(op string, rep jsonbench.Representation) error {
	m.calls = append(m.calls, fmt.Sprintf("%s %s", op, rep))
	if m.failOn != nil {
		return m.failOn(op, rep)
	}
	return nil
}

// seed inserts docs directly, bypassing the insert phase
func (m *memoryBackend) seed(docs ...string) {
	for _, rep := range jsonbench.Representations {
		for i, doc := range docs {
			m.serial[rep]++
			m.tables[rep] = append(m.tables[rep], memoryRow{id: m.serial[rep], key: fmt.Sprintf("seed-%d", i), value: []byte(doc)})
		}
	}
}

func (m *memoryBackend) count(op string) int {
	n := 0
	for _, c := range m.calls {
		if c == op {
			n++
		}
	}
	return n
}
