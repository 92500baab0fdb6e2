package jsonbench

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.jetify.com/typeid"
)

// KeyPrefix prefixes every logical key generated for inserted rows
const KeyPrefix = "row"

// PhaseHook is called after each phase completes with that phase's summaries
type PhaseHook func(phase Phase, summaries []Summary)

// Run holds the whole state of one benchmark run. Phases read and mutate it in
// sequence; nothing else shares it.
type Run struct {
	Config   Config
	Payloads []Payload
	Backend  Backend
	Sampler  *Sampler
	Results  *Results

	// MaxID is the highest synthetic identifier known to exist. It is set by the
	// insert phase, or by SeedRows when a phase runs on pre-populated tables.
	MaxID int64

	// rowIDs holds the identifiers of rows that exist in each representation.
	// Failed inserts may leave gaps, so draws pick from this list.
	rowIDs map[Representation][]int64

	log    logrus.FieldLogger
	newKey func() (string, error)
	hooks  []PhaseHook
}

// Option configures a Run
type Option func(*Run)

// WithLogger sets the logger used for progress output
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Run) { r.log = log }
}

// WithSampler replaces the config-seeded sampler
func WithSampler(s *Sampler) Option {
	return func(r *Run) { r.Sampler = s }
}

// WithKeyGenerator replaces the typeid logical key generator
func WithKeyGenerator(fn func() (string, error)) Option {
	return func(r *Run) { r.newKey = fn }
}

// WithPhaseHook registers a callback invoked after each phase
func WithPhaseHook(hook PhaseHook) Option {
	return func(r *Run) { r.hooks = append(r.hooks, hook) }
}

// NewRun validates cfg and builds the run state
func NewRun(cfg Config, backend Backend, payloads []Payload, opts ...Option) (*Run, error) {
	if backend == nil {
		return nil, &ValidationError{
			BenchError: BenchError{Op: "NewRun", Err: fmt.Errorf("backend cannot be nil")},
			Field:      "backend",
			Value:      "nil",
		}
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Run{
		Config:   cfg,
		Payloads: payloads,
		Backend:  backend,
		Results:  NewResults(),
		rowIDs:   make(map[Representation][]int64),
		log:      logrus.StandardLogger(),
		newKey:   NewLogicalKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Sampler == nil {
		r.Sampler = NewSampler(cfg.Seed)
	}
	return r, nil
}

// NewLogicalKey generates a unique logical key for one inserted payload instance
func NewLogicalKey() (string, error) {
	tid, err := typeid.WithPrefix(KeyPrefix)
	if err != nil {
		return "", err
	}
	return tid.String(), nil
}

// SeedRows declares that n rows already exist in every table, satisfying the
// precondition of the read and write phases without running insert.
func (r *Run) SeedRows(n int64) {
	r.rowIDs = make(map[Representation][]int64)
	for _, rep := range Representations {
		ids := make([]int64, 0, n)
		for id := int64(1); id <= n; id++ {
			ids = append(ids, id)
		}
		r.rowIDs[rep] = ids
	}
	r.MaxID = n
}

// RowIDs returns the identifiers known to exist for rep, in insertion order
func (r *Run) RowIDs(rep Representation) []int64 {
	return r.rowIDs[rep]
}

func (r *Run) addRow(rep Representation, id int64) {
	r.rowIDs[rep] = append(r.rowIDs[rep], id)
	if id > r.MaxID {
		r.MaxID = id
	}
}

// Execute provisions the schema and runs every phase in order
func (r *Run) Execute(ctx context.Context) (*Results, error) {
	r.Results = NewResults()
	r.rowIDs = make(map[Representation][]int64)
	r.MaxID = 0

	r.log.WithField("backend", r.Backend.Name()).Info("provisioning schema")
	if err := r.Backend.ProvisionSchema(ctx); err != nil {
		return nil, err
	}

	for _, phase := range Phases {
		if err := r.RunPhase(ctx, phase); err != nil {
			return r.Results, err
		}
	}
	return r.Results, nil
}

// RunPhase checks the precondition of phase and runs it
func (r *Run) RunPhase(ctx context.Context, phase Phase) error {
	step, ok := pipeline[phase]
	if !ok {
		return fmt.Errorf("unknown phase %d", phase)
	}
	if err := step.precondition(r); err != nil {
		return &PreconditionError{
			BenchError: BenchError{Op: phase.String(), Err: err},
			Phase:      phase,
		}
	}

	log := r.log.WithField("phase", phase.String())
	log.Info("starting phase")

	if err := step.run(ctx, r); err != nil {
		log.WithError(err).Error("phase aborted")
		return err
	}

	summaries := r.Results.Summarize(phase)
	for _, s := range summaries {
		entry := log.WithFields(logrus.Fields{
			"representation": s.Representation.String(),
			"count":          s.Count,
			"failures":       s.Failures,
			"skipped":        s.Skipped,
		})
		if s.Err != nil {
			entry.WithError(s.Err).Warn("average: n/a")
			continue
		}
		entry.Infof("average: %.3fms", s.MeanMs)
	}
	for _, hook := range r.hooks {
		hook(phase, summaries)
	}
	return nil
}

// record times op and files the outcome under phase and rep
func (r *Run) record(ctx context.Context, phase Phase, rep Representation, id int64, op func(ctx context.Context) error) error {
	series := r.Results.Series(rep, phase)

	elapsed, err := Timed(ctx, op)
	if err != nil {
		return r.fail(series, newOperationError(phase, rep, id, err))
	}
	series.Append(elapsed)
	return nil
}

// fail counts err against series when the run tolerates errors, otherwise returns it
func (r *Run) fail(series *Series, err error) error {
	if !r.Config.ContinueOnError {
		return err
	}
	series.Fail()
	r.log.WithError(err).Warn("operation failed")
	return nil
}

// randomID draws one of the identifiers that exist for rep, uniformly
func (r *Run) randomID(phase Phase, rep Representation) (int64, error) {
	ids := r.rowIDs[rep]
	if len(ids) == 0 {
		return 0, newOperationError(phase, rep, 0, fmt.Errorf("no %s rows to sample from", rep))
	}
	n, err := r.Sampler.RandomInRange(1, int64(len(ids)))
	if err != nil {
		return 0, err
	}
	return ids[n-1], nil
}
