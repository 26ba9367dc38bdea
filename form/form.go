// Package form wires the full pipeline for one multi-step form: slide
// registry, validator, navigation engine, event bus, progress fanout,
// persistence, submission, and archive.
//
// A Form is a self-contained instance. Hosts that run several forms at
// once key them through a Manager; there is no package-level state.
package form

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formstep-io/formstep/archive"
	"github.com/formstep-io/formstep/bus"
	"github.com/formstep-io/formstep/engine"
	"github.com/formstep-io/formstep/log"
	"github.com/formstep-io/formstep/metrics"
	"github.com/formstep-io/formstep/observe"
	"github.com/formstep-io/formstep/persist"
	"github.com/formstep-io/formstep/registry"
	"github.com/formstep-io/formstep/submit"
	"github.com/formstep-io/formstep/types"
	"github.com/formstep-io/formstep/validate"
)

// Options tunes one form instance. Zero values take documented defaults.
type Options struct {
	// InitialIndex is the starting slide.
	InitialIndex int
	// ValidateByDefault gates forward navigation on the current slide's
	// validation.
	ValidateByDefault bool
	// RetargetForward prefers the slide after a group when the current
	// slide's group hides.
	RetargetForward bool

	// DebounceWindow, AnimationDelay, RequeueDelay, and QueueCapacity
	// tune the navigation engine; zero values take the engine defaults.
	DebounceWindow time.Duration
	AnimationDelay time.Duration
	RequeueDelay   time.Duration
	QueueCapacity  int

	// TTL bounds how long persisted snapshots survive. Zero applies
	// persist.DefaultTTL.
	TTL time.Duration

	// Visibility filters slide definitions at discovery. Nil keeps all.
	Visibility registry.VisibilityFn

	// Observers receive position updates alongside any built-in ones.
	Observers []observe.Observer

	// Store persists the data snapshot. Nil disables persistence.
	Store persist.Store
	// Submitter delivers completed submissions. Nil disables delivery.
	Submitter submit.Submitter
	// Archiver retains completed submissions. Nil disables archiving.
	Archiver archive.Archiver

	// Logger receives structured output. Nil discards it.
	Logger *log.Logger
	// Scheduler overrides engine timing; nil uses the wall clock.
	Scheduler engine.Scheduler
	// Clock overrides the submission timestamp source; nil uses time.Now.
	Clock func() time.Time
}

// Form is one wired multi-step form instance.
type Form struct {
	id   string
	name string
	opts Options

	reg       *registry.Registry
	validator *validate.Validator
	engine    *engine.Engine
	events    *bus.Bus
	observers *observe.Fanout
	store     persist.Store
	collector *metrics.Collector
	logger    *log.Logger
}

// New builds a form from slide definitions and wires every component.
// The engine is primed, so observers see the initial position before the
// first navigation.
func New(id, name string, slides []types.Slide, groups []types.SlideGroup, opts Options) (*Form, error) {
	if id == "" {
		return nil, errors.New("form requires an id")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	collector := metrics.NewCollector(id, name)

	store := opts.Store
	if store != nil {
		// Count save/load failures without teaching the validator about
		// metrics.
		store = &countingStore{Store: store, collector: collector}
	}

	reg := registry.New(logger, opts.Visibility)
	reg.Discover(slides, groups)

	validator := validate.New(id, reg, store, logger, opts.TTL)
	events := bus.New(logger)
	fanout := observe.NewFanout(logger, opts.Observers...)

	var gate engine.Gate
	if opts.ValidateByDefault {
		gate = validator
	}

	eng := engine.New(engine.Config{
		DebounceWindow:  opts.DebounceWindow,
		AnimationDelay:  opts.AnimationDelay,
		RequeueDelay:    opts.RequeueDelay,
		QueueCapacity:   opts.QueueCapacity,
		InitialIndex:    opts.InitialIndex,
		ValidateForward: opts.ValidateByDefault,
		RetargetForward: opts.RetargetForward,
	}, reg, gate, events, fanout, opts.Scheduler, logger, collector)
	eng.Prime()

	logger.Info("form ready", map[string]any{
		"form_id": id,
		"slides":  reg.Len(),
		"groups":  len(groups),
	})

	return &Form{
		id:        id,
		name:      name,
		opts:      opts,
		reg:       reg,
		validator: validator,
		engine:    eng,
		events:    events,
		observers: fanout,
		store:     store,
		collector: collector,
		logger:    logger,
	}, nil
}

// ID returns the form identifier.
func (f *Form) ID() string { return f.id }

// Name returns the display name.
func (f *Form) Name() string { return f.name }

// Registry exposes the slide registry for structural changes.
func (f *Form) Registry() *registry.Registry { return f.reg }

// Events exposes the lifecycle event bus for read-only listeners.
func (f *Form) Events() *bus.Bus { return f.events }

// AddObserver attaches a progress observer. Call before navigating.
func (f *Form) AddObserver(obs observe.Observer) { f.observers.Add(obs) }

// Next advances one slide, validating the current slide first when the
// form validates by default.
func (f *Form) Next() (types.ValidationResult, bool) { return f.engine.Next() }

// Prev steps back one slide without validating.
func (f *Form) Prev() { f.engine.Prev() }

// GoTo requests navigation to an index.
func (f *Form) GoTo(index int) { f.engine.RequestGoTo(index) }

// GoToSlide requests navigation to a slide by ID.
func (f *Form) GoToSlide(id string) error {
	idx := f.reg.IndexOf(id)
	if idx < 0 {
		return types.UsageError("go to slide: unknown slide", id)
	}
	f.engine.RequestGoTo(idx)
	return nil
}

// Position returns the current navigation position.
func (f *Form) Position() observe.Position { return f.engine.Position() }

// CurrentSlide returns the committed slide, or nil for an empty form.
func (f *Form) CurrentSlide() *types.Slide { return f.reg.At(f.engine.Current()) }

// RecordFieldChange merges one input mutation into the data snapshot and
// persists it.
func (f *Form) RecordFieldChange(ctx context.Context, ch validate.FieldChange) error {
	return f.validator.RecordFieldChange(ctx, ch)
}

// ValidateCurrent validates the committed slide.
func (f *Form) ValidateCurrent() types.ValidationResult {
	res := f.validator.Validate(f.CurrentSlide())
	f.collector.IncValidationRun()
	if !res.Valid {
		f.collector.IncValidationFailure()
	}
	return res
}

// Snapshot returns a copy of the collected form data.
func (f *Form) Snapshot() types.FormDataSnapshot { return f.validator.Snapshot() }

// Metrics returns a point-in-time view of this form's counters.
func (f *Form) Metrics() metrics.Snapshot { return f.collector.Snapshot() }

// Restore rehydrates the data snapshot from the store. It reports
// whether a persisted session was found.
func (f *Form) Restore(ctx context.Context) (bool, error) {
	if f.store == nil {
		return false, nil
	}
	rec, err := f.store.Load(ctx, f.id)
	if err != nil {
		return false, fmt.Errorf("restore form %s: %w", f.id, err)
	}
	if rec == nil {
		return false, nil
	}
	f.validator.Restore(rec.Data)
	f.logger.Info("session restored", map[string]any{
		"form_id": f.id,
		"slides":  len(rec.Data),
	})
	return true, nil
}

// Submit validates every slide and, when all pass, delivers and archives
// the submission. The persisted snapshot is cleared on success; the
// in-memory data survives so the host can render a confirmation.
func (f *Form) Submit(ctx context.Context) (*submit.Submission, error) {
	for _, slide := range f.reg.Slides() {
		res := f.validator.Validate(slide)
		f.collector.IncValidationRun()
		if !res.Valid {
			f.collector.IncValidationFailure()
			if first := res.FirstError(); first != nil {
				return nil, fmt.Errorf("submit form %s: slide %s field %s: %s: %w",
					f.id, res.SlideID, first.FieldKey, first.Message, types.ErrValidation)
			}
			return nil, fmt.Errorf("submit form %s: slide %s: %w", f.id, res.SlideID, types.ErrValidation)
		}
	}

	sub := submit.NewSubmission(f.id, f.name, f.validator.Snapshot(), f.opts.Clock())

	if f.opts.Submitter != nil {
		if err := f.opts.Submitter.Submit(ctx, sub); err != nil {
			return nil, fmt.Errorf("submit form %s: %w", f.id, err)
		}
	}
	if f.opts.Archiver != nil {
		// Archive is retention, not delivery; a failure never takes back
		// an already-delivered submission.
		if err := f.opts.Archiver.Archive(ctx, sub); err != nil {
			f.logger.Error("submission archive failed", map[string]any{
				"form_id":       f.id,
				"submission_id": sub.SubmissionID,
				"error":         err.Error(),
			})
		}
	}

	if f.store != nil {
		if err := f.store.Clear(ctx, f.id); err != nil {
			f.logger.Warn("clearing persisted snapshot failed", map[string]any{
				"form_id": f.id,
				"error":   err.Error(),
			})
		}
	}

	f.collector.IncSubmission()
	f.events.Publish(bus.Event{
		Type:    bus.EventSubmit,
		Payload: bus.SubmitPayload{FormID: f.id, Data: sub.Data},
	})
	f.logger.Info("form submitted", map[string]any{
		"form_id":       f.id,
		"submission_id": sub.SubmissionID,
	})
	return sub, nil
}

// Reset clears collected data, persisted state, and navigation history.
func (f *Form) Reset(ctx context.Context) {
	f.validator.Reset()
	f.engine.Reset()
	if f.store != nil {
		if err := f.store.Clear(ctx, f.id); err != nil {
			f.logger.Warn("clearing persisted snapshot failed", map[string]any{
				"form_id": f.id,
				"error":   err.Error(),
			})
		}
	}
	f.collector.IncReset()
	f.events.Publish(bus.Event{
		Type:    bus.EventReset,
		Payload: bus.ResetPayload{FormID: f.id},
	})
}

// Close releases the submitter and store.
func (f *Form) Close() error {
	var errs []error
	if f.opts.Submitter != nil {
		if err := f.opts.Submitter.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if f.store != nil {
		if err := f.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// countingStore decorates a store with failure counters.
type countingStore struct {
	persist.Store
	collector *metrics.Collector
}

func (s *countingStore) Save(ctx context.Context, key string, rec *types.SnapshotRecord, ttl time.Duration) error {
	err := s.Store.Save(ctx, key, rec, ttl)
	if err != nil {
		s.collector.IncSaveFailure()
	}
	return err
}

func (s *countingStore) Load(ctx context.Context, key string) (*types.SnapshotRecord, error) {
	rec, err := s.Store.Load(ctx, key)
	if err != nil {
		s.collector.IncLoadFailure()
	}
	return rec, err
}
