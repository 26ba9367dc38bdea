package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/formstep-io/formstep/persist"
	"github.com/formstep-io/formstep/types"
)

func testRecord(formID string) *types.SnapshotRecord {
	return types.NewSnapshotRecord(formID, types.FormDataSnapshot{
		"slide-contact": {"email": "ada@example.com", "phone": "555-0100"},
		"slide-extras":  {"extras": []string{"insurance"}},
	}, time.Now(), persist.DefaultTTL)
}

func newTestStore(t *testing.T, mr *miniredis.Miniredis) *Store {
	t.Helper()
	s, err := New(Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	rec := testRecord("mortgage")
	if err := s.Save(context.Background(), "mortgage", rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(context.Background(), "mortgage")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.FormID != "mortgage" {
		t.Errorf("expected form_id mortgage, got %s", got.FormID)
	}
	if got.Data["slide-contact"]["email"] != "ada@example.com" {
		t.Errorf("unexpected email: %v", got.Data["slide-contact"]["email"])
	}
}

func TestLoadMissing(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	got, err := s.Load(context.Background(), "absent")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing key, got %+v", got)
	}
}

func TestNativeTTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	if err := s.Save(context.Background(), "k", testRecord("f"), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	if ok, _ := s.Exists(context.Background(), "k"); !ok {
		t.Fatal("expected record before TTL")
	}

	mr.FastForward(2 * time.Minute)

	got, err := s.Load(context.Background(), "k")
	if err != nil {
		t.Fatalf("load after expiry: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil after TTL elapsed")
	}
	if ok, _ := s.Exists(context.Background(), "k"); ok {
		t.Error("expected exists=false after TTL elapsed")
	}
}

func TestStaleRecordStampCleared(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	// A record whose stamp already lapsed, as an older client with a long
	// native TTL would have written it.
	rec := types.NewSnapshotRecord("f", types.FormDataSnapshot{}, time.Now().Add(-48*time.Hour), time.Hour)
	if err := s.Save(context.Background(), "k", rec, 24*time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(context.Background(), "k")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatal("expected stale record treated as absent")
	}
	if mr.Exists(DefaultPrefix + "k") {
		t.Error("expected stale entry cleared from redis")
	}
}

func TestCorruptRecordReportsPersistenceFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	if err := mr.Set(DefaultPrefix+"k", "not msgpack at all"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := s.Load(context.Background(), "k")
	if err == nil {
		t.Fatal("expected error for corrupt record")
	}
	if !errors.Is(err, types.ErrPersistence) {
		t.Errorf("expected persistence classification, got %v", err)
	}
	if mr.Exists(DefaultPrefix + "k") {
		t.Error("expected corrupt entry cleared")
	}
}

func TestClearAll(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	_ = s.Save(context.Background(), "a", testRecord("a"), 0)
	_ = s.Save(context.Background(), "b", testRecord("b"), 0)
	// A foreign key outside the prefix must survive.
	if err := mr.Set("other:key", "keep"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := s.ClearAll(context.Background()); err != nil {
		t.Fatalf("clear all: %v", err)
	}

	if ok, _ := s.Exists(context.Background(), "a"); ok {
		t.Error("expected a cleared")
	}
	if ok, _ := s.Exists(context.Background(), "b"); ok {
		t.Error("expected b cleared")
	}
	if !mr.Exists("other:key") {
		t.Error("expected foreign key untouched")
	}
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Config{})
	if err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(Config{URL: "not-a-redis-url"})
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestNew_DefaultsApplied(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)

	if s.config.Prefix != DefaultPrefix {
		t.Errorf("expected default prefix %q, got %q", DefaultPrefix, s.config.Prefix)
	}
	if s.config.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, s.config.Timeout)
	}
}
