package form_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/formstep-io/formstep/bus"
	"github.com/formstep-io/formstep/engine"
	"github.com/formstep-io/formstep/form"
	"github.com/formstep-io/formstep/observe"
	"github.com/formstep-io/formstep/persist"
	"github.com/formstep-io/formstep/submit"
	"github.com/formstep-io/formstep/types"
	"github.com/formstep-io/formstep/validate"
)

// immediateScheduler fires every timer synchronously so facade tests see
// settled state without sleeping.
type immediateScheduler struct{}

type firedTimer struct{}

func (firedTimer) Stop() bool { return false }

func (immediateScheduler) Now() time.Time { return time.Now() }

func (immediateScheduler) AfterFunc(_ time.Duration, fn func()) engine.Timer {
	fn()
	return firedTimer{}
}

func intakeSlides() []types.Slide {
	return []types.Slide{
		{
			ID:    "contact",
			Title: "Contact",
			Fields: []types.Field{
				{Name: "email", Type: types.FieldEmail},
			},
		},
		{
			ID:          "notes",
			Title:       "Notes",
			Requirement: types.RequirementOptional,
			Fields: []types.Field{
				{Name: "comments", Type: types.FieldTextarea},
			},
		},
	}
}

func newTestForm(t *testing.T, opts form.Options) *form.Form {
	t.Helper()
	if opts.Scheduler == nil {
		opts.Scheduler = immediateScheduler{}
	}
	f, err := form.New("intake", "Mortgage intake", intakeSlides(), nil, opts)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return f
}

func TestForm_RequiresID(t *testing.T) {
	if _, err := form.New("", "", nil, nil, form.Options{}); err == nil {
		t.Fatal("expected error for empty form id")
	}
}

func TestForm_NavigationRoundTrip(t *testing.T) {
	f := newTestForm(t, form.Options{})

	f.GoTo(1)
	if got := f.Position(); got.Current != 1 || got.SlideID != "notes" {
		t.Errorf("position after GoTo: %+v", got)
	}

	f.Prev()
	if got := f.Position(); got.Current != 0 {
		t.Errorf("position after Prev: %+v", got)
	}
	if got := f.Position(); got.MaxVisited != 1 {
		t.Errorf("max visited lost: %+v", got)
	}
}

func TestForm_GoToSlideUnknownID(t *testing.T) {
	f := newTestForm(t, form.Options{})

	err := f.GoToSlide("nope")
	if !errors.Is(err, types.ErrUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
	if err := f.GoToSlide("notes"); err != nil {
		t.Errorf("known slide rejected: %v", err)
	}
}

func TestForm_NextBlockedUntilValid(t *testing.T) {
	f := newTestForm(t, form.Options{ValidateByDefault: true})

	res, ok := f.Next()
	if ok {
		t.Fatal("Next advanced past empty required email")
	}
	if first := res.FirstError(); first == nil || first.FieldKey != "email" {
		t.Errorf("unexpected validation result: %+v", res)
	}

	err := f.RecordFieldChange(context.Background(), validate.FieldChange{
		SlideID: "contact", Field: "email", Value: "dev@example.test",
	})
	if err != nil {
		t.Fatalf("record change: %v", err)
	}

	if _, ok := f.Next(); !ok {
		t.Fatal("Next blocked after field became valid")
	}
	if got := f.Position().Current; got != 1 {
		t.Errorf("current = %d after valid Next", got)
	}
}

func TestForm_PersistAndRestore(t *testing.T) {
	store := persist.NewMemoryStore()
	f := newTestForm(t, form.Options{Store: store})

	err := f.RecordFieldChange(context.Background(), validate.FieldChange{
		SlideID: "contact", Field: "email", Value: "dev@example.test",
	})
	if err != nil {
		t.Fatalf("record change: %v", err)
	}

	// A second instance over the same store picks the session up.
	f2 := newTestForm(t, form.Options{Store: store})
	found, err := f2.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !found {
		t.Fatal("persisted session not found")
	}
	if got := f2.Snapshot()["contact"]["email"]; got != "dev@example.test" {
		t.Errorf("restored snapshot wrong: %v", got)
	}
}

func TestForm_RestoreWithoutSession(t *testing.T) {
	f := newTestForm(t, form.Options{Store: persist.NewMemoryStore()})

	found, err := f.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if found {
		t.Error("restore reported a session on an empty store")
	}
}

type recordingSubmitter struct {
	mu   sync.Mutex
	subs []*submit.Submission
	err  error
}

func (r *recordingSubmitter) Submit(_ context.Context, sub *submit.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.subs = append(r.subs, sub)
	return nil
}

func (r *recordingSubmitter) Close() error { return nil }

func TestForm_SubmitValidatesEverySlide(t *testing.T) {
	sink := &recordingSubmitter{}
	f := newTestForm(t, form.Options{Submitter: sink})

	_, err := f.Submit(context.Background())
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(sink.subs) != 0 {
		t.Fatal("invalid form reached the submitter")
	}

	err = f.RecordFieldChange(context.Background(), validate.FieldChange{
		SlideID: "contact", Field: "email", Value: "dev@example.test",
	})
	if err != nil {
		t.Fatalf("record change: %v", err)
	}

	sub, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.SubmissionID == "" || sub.FormID != "intake" {
		t.Errorf("malformed submission: %+v", sub)
	}
	if len(sink.subs) != 1 {
		t.Fatalf("submitter called %d times", len(sink.subs))
	}
	if got := f.Metrics().Submissions; got != 1 {
		t.Errorf("Submissions = %d", got)
	}
}

func TestForm_SubmitClearsPersistedSnapshot(t *testing.T) {
	store := persist.NewMemoryStore()
	f := newTestForm(t, form.Options{Store: store})

	err := f.RecordFieldChange(context.Background(), validate.FieldChange{
		SlideID: "contact", Field: "email", Value: "dev@example.test",
	})
	if err != nil {
		t.Fatalf("record change: %v", err)
	}

	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	exists, err := store.Exists(context.Background(), "intake")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("persisted snapshot survived submission")
	}
	// In-memory data survives for confirmation rendering.
	if got := f.Snapshot()["contact"]["email"]; got != "dev@example.test" {
		t.Errorf("in-memory snapshot cleared by submit: %v", got)
	}
}

func TestForm_SubmitterFailurePropagates(t *testing.T) {
	sink := &recordingSubmitter{err: errors.New("downstream down")}
	f := newTestForm(t, form.Options{Submitter: sink})

	err := f.RecordFieldChange(context.Background(), validate.FieldChange{
		SlideID: "contact", Field: "email", Value: "dev@example.test",
	})
	if err != nil {
		t.Fatalf("record change: %v", err)
	}

	if _, err := f.Submit(context.Background()); err == nil {
		t.Fatal("expected error from failing submitter")
	}
	if got := f.Metrics().Submissions; got != 0 {
		t.Errorf("failed submission counted: %d", got)
	}
}

func TestForm_ResetClearsEverything(t *testing.T) {
	store := persist.NewMemoryStore()
	f := newTestForm(t, form.Options{Store: store})

	var resetSeen bool
	f.Events().Subscribe(bus.EventReset, func(e bus.Event) {
		if p := e.Payload.(bus.ResetPayload); p.FormID == "intake" {
			resetSeen = true
		}
	})

	err := f.RecordFieldChange(context.Background(), validate.FieldChange{
		SlideID: "contact", Field: "email", Value: "dev@example.test",
	})
	if err != nil {
		t.Fatalf("record change: %v", err)
	}
	f.GoTo(1)

	f.Reset(context.Background())

	if len(f.Snapshot()) != 0 {
		t.Error("reset left form data")
	}
	if got := f.Position(); got.Current != 0 || got.MaxVisited != 0 {
		t.Errorf("reset left navigation state: %+v", got)
	}
	exists, _ := store.Exists(context.Background(), "intake")
	if exists {
		t.Error("reset left persisted snapshot")
	}
	if !resetSeen {
		t.Error("reset event not published")
	}
	if got := f.Metrics().Resets; got != 1 {
		t.Errorf("Resets = %d", got)
	}
}

func TestForm_ObserversSeeNavigation(t *testing.T) {
	counter := observe.NewCounter()
	f := newTestForm(t, form.Options{Observers: []observe.Observer{counter}})

	if got := counter.View(); got != "1/2" {
		t.Errorf("observer not primed: %q", got)
	}
	f.GoTo(1)
	if got := counter.View(); got != "2/2" {
		t.Errorf("observer missed navigation: %q", got)
	}
}

func TestManager_AddGetRemove(t *testing.T) {
	m := form.NewManager()
	f := newTestForm(t, form.Options{})

	if err := m.Add(f); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.Add(f); !errors.Is(err, types.ErrUsage) {
		t.Errorf("duplicate add not rejected: %v", err)
	}

	got, ok := m.Get("intake")
	if !ok || got != f {
		t.Fatal("registered form not retrievable")
	}
	if ids := m.IDs(); len(ids) != 1 || ids[0] != "intake" {
		t.Errorf("IDs = %v", ids)
	}

	if !m.Remove("intake") {
		t.Fatal("remove reported failure")
	}
	if m.Remove("intake") {
		t.Error("second remove reported success")
	}
	if m.Len() != 0 {
		t.Errorf("manager not empty: %d", m.Len())
	}
}
