package jsonbench

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

type phaseStep struct {
	precondition func(r *Run) error
	run          func(ctx context.Context, r *Run) error
}

var pipeline = map[Phase]phaseStep{
	PhaseInsert:       {precondition: requirePayloads, run: runInsert},
	PhaseFullRead:     {precondition: requireRows, run: runFullRead},
	PhasePartialWrite: {precondition: requireRows, run: runPartialWrite},
	PhasePartialRead:  {precondition: requireRows, run: runPartialRead},
}

func requirePayloads(r *Run) error {
	if len(r.Payloads) == 0 {
		return errors.New("no payloads loaded")
	}
	return nil
}

func requireRows(r *Run) error {
	for _, rep := range Representations {
		if len(r.rowIDs[rep]) > 0 {
			return nil
		}
	}
	return errors.New("no rows inserted")
}

// runInsert stores every payload InsertLoopCount times in each representation.
// Both rows of one payload instance share a logical key. Only identifiers of
// successful inserts become eligible for the later phases.
func runInsert(ctx context.Context, r *Run) error {
	passes := r.Config.InsertLoopCount
	r.log.Infof("inserting %d test items into each table", passes*len(r.Payloads))

	for pass := 0; pass < passes; pass++ {
		r.log.WithField("pass", pass).Debugf("insert pass %d of %d", pass+1, passes)

		for _, payload := range r.Payloads {
			key, err := r.newKey()
			if err != nil {
				return fmt.Errorf("generate logical key: %w", err)
			}

			for _, rep := range Representations {
				if !r.Backend.Supports(rep, PhaseInsert) {
					continue
				}
				var id int64
				err := r.record(ctx, PhaseInsert, rep, 0, func(ctx context.Context) error {
					var err error
					id, err = r.Backend.Insert(ctx, rep, key, payload.Data)
					return err
				})
				if err != nil {
					return err
				}
				if id > 0 {
					r.addRow(rep, id)
				}
			}
		}
	}
	return nil
}

// runFullRead fetches randomly chosen documents, drawing a separate id per representation
func runFullRead(ctx context.Context, r *Run) error {
	for i := 0; i < r.Config.IterationCount; i++ {
		r.log.WithField("iteration", i).Debug("full read")

		for _, rep := range Representations {
			if !r.Backend.Supports(rep, PhaseFullRead) {
				continue
			}
			id, err := r.randomID(PhaseFullRead, rep)
			if err != nil {
				if err := r.fail(r.Results.Series(rep, PhaseFullRead), err); err != nil {
					return err
				}
				continue
			}
			err = r.record(ctx, PhaseFullRead, rep, id, func(ctx context.Context) error {
				_, err := r.Backend.ReadFull(ctx, rep, id)
				return err
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// runPartialWrite sets a random top-level field to the sentinel. Only the
// mutation is timed; fetching the document to pick a field is setup.
func runPartialWrite(ctx context.Context, r *Run) error {
	sentinel := []byte(r.Config.Sentinel)

	for i := 0; i < r.Config.IterationCount; i++ {
		r.log.WithField("iteration", i).Debug("partial write")

		for _, rep := range Representations {
			if !r.Backend.Supports(rep, PhasePartialWrite) {
				continue
			}
			id, field, err := r.sampleField(ctx, PhasePartialWrite, rep)
			if err != nil {
				if err := r.fail(r.Results.Series(rep, PhasePartialWrite), err); err != nil {
					return err
				}
				continue
			}
			err = r.record(ctx, PhasePartialWrite, rep, id, func(ctx context.Context) error {
				return r.Backend.WriteField(ctx, rep, id, field, sentinel)
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// runPartialRead extracts one random top-level field per representation
func runPartialRead(ctx context.Context, r *Run) error {
	for i := 0; i < r.Config.IterationCount; i++ {
		r.log.WithField("iteration", i).Debug("partial read")

		for _, rep := range Representations {
			if !r.Backend.Supports(rep, PhasePartialRead) {
				continue
			}
			id, field, err := r.sampleField(ctx, PhasePartialRead, rep)
			if err != nil {
				if err := r.fail(r.Results.Series(rep, PhasePartialRead), err); err != nil {
					return err
				}
				continue
			}
			err = r.record(ctx, PhasePartialRead, rep, id, func(ctx context.Context) error {
				_, err := r.Backend.ReadField(ctx, rep, id, field)
				return err
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// sampleField picks a random row and one of its top-level fields. Rows whose
// document has no fields are counted as skipped and redrawn, up to
// MaxSamplingAttempts times.
func (r *Run) sampleField(ctx context.Context, phase Phase, rep Representation) (int64, string, error) {
	attempts := r.Config.MaxSamplingAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		id, err := r.randomID(phase, rep)
		if err != nil {
			return 0, "", err
		}

		doc, err := r.Backend.ReadFull(ctx, rep, id)
		if err != nil {
			return 0, "", newOperationError(phase, rep, id, fmt.Errorf("fetch document: %w", err))
		}

		field, err := r.Sampler.RandomFieldName(doc)
		if err == nil {
			return id, field, nil
		}
		if !IsEmptyDocumentError(err) {
			return 0, "", err
		}

		r.Results.Series(rep, phase).Skip()
		r.log.WithFields(logrus.Fields{
			"phase":          phase.String(),
			"representation": rep.String(),
			"id":             id,
		}).Debug("document has no fields, redrawing")
	}

	return 0, "", &EmptyDocumentError{
		BenchError: BenchError{
			Op:  fmt.Sprintf("%s %s", phase, rep),
			Err: fmt.Errorf("no document with top-level fields after %d attempts", attempts),
		},
	}
}
