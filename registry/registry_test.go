package registry_test

import (
	"testing"

	"github.com/formstep-io/formstep/registry"
	"github.com/formstep-io/formstep/types"
)

func defs() []types.Slide {
	return []types.Slide{
		{ID: "intro", Title: "Welcome"},
		{Title: "Unlabeled one"},
		{ID: "income", Title: "Income", GroupID: "finance"},
		{ID: "assets", Title: "Assets", GroupID: "finance"},
		{Title: "Unlabeled two"},
	}
}

func groups() []types.SlideGroup {
	return []types.SlideGroup{
		{ID: "finance", Title: "Finances"},
	}
}

func TestDiscover_AssignsSyntheticIDsInOrder(t *testing.T) {
	r := registry.New(nil, nil)
	slides := r.Discover(defs(), groups())

	if len(slides) != 5 {
		t.Fatalf("expected 5 slides, got %d", len(slides))
	}
	if slides[1].ID != "slide-1" {
		t.Errorf("expected first synthetic id slide-1, got %s", slides[1].ID)
	}
	if slides[4].ID != "slide-2" {
		t.Errorf("expected second synthetic id slide-2, got %s", slides[4].ID)
	}
	if slides[0].ID != "intro" {
		t.Errorf("explicit id lost: %s", slides[0].ID)
	}
}

func TestDiscover_FiltersByVisibilityPredicate(t *testing.T) {
	hidden := map[string]bool{"income": true}
	r := registry.New(nil, func(s *types.Slide) bool { return !hidden[s.ID] })

	slides := r.Discover(defs(), groups())
	if len(slides) != 4 {
		t.Fatalf("expected 4 slides after predicate, got %d", len(slides))
	}
	if r.IndexOf("income") != -1 {
		t.Error("predicate-rejected slide entered the index space")
	}
}

func TestDiscover_DropsUnknownGroupLink(t *testing.T) {
	r := registry.New(nil, nil)
	slides := r.Discover([]types.Slide{{ID: "a", GroupID: "nope"}}, nil)
	if slides[0].GroupID != "" {
		t.Errorf("expected unknown group link dropped, got %q", slides[0].GroupID)
	}
}

func TestInsert_ClampsPosition(t *testing.T) {
	r := registry.New(nil, nil)
	r.Discover(defs(), groups())

	s := r.Insert(types.Slide{ID: "late"}, 99)
	if got := r.IndexOf("late"); got != 5 {
		t.Errorf("expected clamp to end (5), got %d", got)
	}
	if s.ID != "late" {
		t.Errorf("unexpected returned slide: %s", s.ID)
	}

	r.Insert(types.Slide{ID: "early"}, 0)
	if got := r.IndexOf("early"); got != 0 {
		t.Errorf("expected insert at 0, got %d", got)
	}
	if got := r.IndexOf("intro"); got != 1 {
		t.Errorf("expected intro shifted to 1, got %d", got)
	}
}

func TestRemove_ByIndexIDAndReference(t *testing.T) {
	r := registry.New(nil, nil)
	slides := r.Discover(defs(), groups())

	if !r.Remove(0) {
		t.Fatal("remove by index failed")
	}
	if !r.Remove("income") {
		t.Fatal("remove by id failed")
	}
	if !r.Remove(slides[3]) { // "assets"
		t.Fatal("remove by reference failed")
	}
	if r.Remove("income") {
		t.Error("expected second removal to report false")
	}
	if r.Remove(42) {
		t.Error("expected out-of-range index removal to report false")
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 slides left, got %d", r.Len())
	}
}

func TestSetGroupVisibility(t *testing.T) {
	r := registry.New(nil, nil)
	r.Discover(defs(), groups())

	if r.SetGroupVisibility("nope", false) {
		t.Error("expected false for unknown group")
	}
	if !r.SetGroupVisibility("finance", false) {
		t.Fatal("expected toggle to succeed")
	}
	if !r.GroupHidden(2) || !r.GroupHidden(3) {
		t.Error("expected finance slides hidden")
	}
	if r.GroupHidden(0) {
		t.Error("ungrouped slide reported hidden")
	}
}

func TestGroupBounds(t *testing.T) {
	r := registry.New(nil, nil)
	r.Discover(defs(), groups())

	first, last, ok := r.GroupBounds("finance")
	if !ok || first != 2 || last != 3 {
		t.Errorf("expected bounds [2,3], got [%d,%d] ok=%v", first, last, ok)
	}
	if _, _, ok := r.GroupBounds("nope"); ok {
		t.Error("expected ok=false for empty group")
	}
}

func TestFirstFullyVisible(t *testing.T) {
	r := registry.New(nil, nil)
	r.Discover([]types.Slide{
		{ID: "a", GroupID: "g"},
		{ID: "b", GroupID: "g"},
		{ID: "c"},
	}, []types.SlideGroup{{ID: "g", Hidden: true}})

	if got := r.FirstFullyVisible(); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}

	r.SetGroupVisibility("g", true)
	if got := r.FirstFullyVisible(); got != 0 {
		t.Errorf("expected 0 after unhide, got %d", got)
	}
}

func TestSubscribe_NotifiedOnEveryStructuralChange(t *testing.T) {
	r := registry.New(nil, nil)

	var changes []registry.Change
	r.Subscribe(func(c registry.Change) { changes = append(changes, c) })

	r.Discover(defs(), groups())
	r.Insert(types.Slide{ID: "x"}, 1)
	r.Remove("x")
	r.SetGroupVisibility("finance", false)
	// Toggling to the same state must not notify.
	r.SetGroupVisibility("finance", false)

	kinds := []registry.ChangeKind{
		registry.ChangeDiscover,
		registry.ChangeInsert,
		registry.ChangeRemove,
		registry.ChangeGroupVisibility,
	}
	if len(changes) != len(kinds) {
		t.Fatalf("expected %d notifications, got %d", len(kinds), len(changes))
	}
	for i, k := range kinds {
		if changes[i].Kind != k {
			t.Errorf("notification %d: expected %s, got %s", i, k, changes[i].Kind)
		}
	}
	if changes[1].Index != 1 || changes[1].Slide.ID != "x" {
		t.Errorf("insert change payload wrong: %+v", changes[1])
	}
	if changes[3].Visible {
		t.Error("expected Visible=false on hide notification")
	}
}
