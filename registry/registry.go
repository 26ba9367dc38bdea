// Package registry owns the ordered slide list and its structural identity.
//
// The registry is the only component that mutates slide/group structure.
// Every structural change notifies subscribers synchronously, so no
// index-based assumption elsewhere survives a change unrevalidated.
//
// Slides rejected by the host visibility predicate at discovery never enter
// the index space. Slides inside hidden groups DO stay in it: they can be
// targeted by navigation, which forces their group visible first.
package registry

import (
	"fmt"
	"sync"

	"github.com/formstep-io/formstep/log"
	"github.com/formstep-io/formstep/types"
)

// VisibilityFn decides whether a slide definition is visible at discovery
// time. Hosts supply this to keep the registry decoupled from any
// particular rendering technology. Nil means "everything is visible".
type VisibilityFn func(slide *types.Slide) bool

// ChangeKind discriminates structural change notifications.
type ChangeKind string

const (
	ChangeDiscover        ChangeKind = "discover"
	ChangeInsert          ChangeKind = "insert"
	ChangeRemove          ChangeKind = "remove"
	ChangeGroupVisibility ChangeKind = "group_visibility"
)

// Change describes one structural mutation.
type Change struct {
	Kind ChangeKind
	// Index is the affected position for insert/remove, -1 otherwise.
	Index int
	// Slide is the inserted/removed slide, nil otherwise.
	Slide *types.Slide
	// GroupID and Visible describe group visibility toggles.
	GroupID string
	Visible bool
	// Total is the slide count after the change.
	Total int
}

// Registry holds the ordered, navigable slide list and its groups.
type Registry struct {
	mu      sync.Mutex
	logger  *log.Logger
	visible VisibilityFn
	slides  []*types.Slide
	groups  map[string]*types.SlideGroup
	subs    []func(Change)
	nextID  int
}

// New creates an empty registry. A nil logger discards log output.
func New(logger *log.Logger, visible VisibilityFn) *Registry {
	if logger == nil {
		logger = log.Nop()
	}
	return &Registry{
		logger:  logger,
		visible: visible,
		groups:  make(map[string]*types.SlideGroup),
	}
}

// Subscribe registers a structural change listener. Listeners run
// synchronously, after the mutation, outside the registry lock.
func (r *Registry) Subscribe(fn func(Change)) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}

// Discover builds the slide list from definitions, excluding slides the
// visibility predicate rejects, assigning synthetic IDs to unlabeled slides
// in discovery order, and recording group membership. It replaces any
// previous contents and returns the discovered slides in order.
func (r *Registry) Discover(defs []types.Slide, groups []types.SlideGroup) []*types.Slide {
	r.mu.Lock()

	r.groups = make(map[string]*types.SlideGroup, len(groups))
	for i := range groups {
		g := groups[i]
		r.groups[g.ID] = &g
	}

	r.slides = r.slides[:0]
	skipped := 0
	for i := range defs {
		s := defs[i]
		if r.visible != nil && !r.visible(&s) {
			skipped++
			continue
		}
		if s.ID == "" {
			s.ID = r.assignIDLocked()
		}
		if s.GroupID != "" {
			if _, ok := r.groups[s.GroupID]; !ok {
				// Unknown group reference: keep the slide, drop the link.
				r.logger.Warn("slide references unknown group", map[string]any{
					"slide_id": s.ID,
					"group_id": s.GroupID,
				})
				s.GroupID = ""
			}
		}
		r.slides = append(r.slides, &s)
	}

	out := make([]*types.Slide, len(r.slides))
	copy(out, r.slides)
	total := len(r.slides)
	r.mu.Unlock()

	r.logger.Info("slides discovered", map[string]any{
		"total":   total,
		"skipped": skipped,
		"groups":  len(groups),
	})
	r.notify(Change{Kind: ChangeDiscover, Index: -1, Total: total})
	return out
}

// assignIDLocked mints the next synthetic slide ID. Caller holds r.mu.
func (r *Registry) assignIDLocked() string {
	r.nextID++
	return fmt.Sprintf("slide-%d", r.nextID)
}

// Insert adds a slide at the requested position, clamped to the valid
// range; a negative position appends. Returns the inserted slide.
func (r *Registry) Insert(slide types.Slide, pos int) *types.Slide {
	r.mu.Lock()
	if slide.ID == "" {
		slide.ID = r.assignIDLocked()
	}
	if pos < 0 || pos > len(r.slides) {
		pos = len(r.slides)
	}

	s := &slide
	r.slides = append(r.slides, nil)
	copy(r.slides[pos+1:], r.slides[pos:])
	r.slides[pos] = s
	total := len(r.slides)
	r.mu.Unlock()

	r.notify(Change{Kind: ChangeInsert, Index: pos, Slide: s, Total: total})
	return s
}

// Remove deletes a slide identified by index (int), ID (string), or slide
// reference (*types.Slide). Returns whether removal occurred.
func (r *Registry) Remove(ref any) bool {
	r.mu.Lock()
	idx := -1
	switch v := ref.(type) {
	case int:
		if v >= 0 && v < len(r.slides) {
			idx = v
		}
	case string:
		idx = r.indexOfLocked(v)
	case *types.Slide:
		if v != nil {
			idx = r.indexOfLocked(v.ID)
		}
	}

	if idx < 0 {
		r.mu.Unlock()
		r.logger.Warn("remove: slide not found", map[string]any{"ref": fmt.Sprint(ref)})
		return false
	}

	s := r.slides[idx]
	r.slides = append(r.slides[:idx], r.slides[idx+1:]...)
	total := len(r.slides)
	r.mu.Unlock()

	r.notify(Change{Kind: ChangeRemove, Index: idx, Slide: s, Total: total})
	return true
}

// SetGroupVisibility toggles a group. Returns false when the group is
// unknown.
func (r *Registry) SetGroupVisibility(groupID string, visible bool) bool {
	r.mu.Lock()
	g, ok := r.groups[groupID]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("unknown slide group", map[string]any{"group_id": groupID})
		return false
	}
	if g.Hidden == !visible {
		// No change; do not notify.
		r.mu.Unlock()
		return true
	}
	g.Hidden = !visible
	total := len(r.slides)
	r.mu.Unlock()

	r.notify(Change{Kind: ChangeGroupVisibility, Index: -1, GroupID: groupID, Visible: visible, Total: total})
	return true
}

// notify fans a change out to subscribers, outside the lock.
func (r *Registry) notify(c Change) {
	r.mu.Lock()
	subs := make([]func(Change), len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}

// Len returns the slide count.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slides)
}

// At returns the slide at index, or nil when out of range.
func (r *Registry) At(index int) *types.Slide {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.slides) {
		return nil
	}
	return r.slides[index]
}

// IndexOf returns the position of the slide with the given ID, or -1.
func (r *Registry) IndexOf(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOfLocked(id)
}

func (r *Registry) indexOfLocked(id string) int {
	for i, s := range r.slides {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Slides returns a copy of the ordered slide list.
func (r *Registry) Slides() []*types.Slide {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.Slide, len(r.slides))
	copy(out, r.slides)
	return out
}

// Group returns the group with the given ID, or nil.
func (r *Registry) Group(id string) *types.SlideGroup {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.groups[id]
}

// GroupHidden reports whether the slide at index sits inside a hidden
// group. Out-of-range indices report false.
func (r *Registry) GroupHidden(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.slides) {
		return false
	}
	return r.groupHiddenLocked(r.slides[index])
}

func (r *Registry) groupHiddenLocked(s *types.Slide) bool {
	if s.GroupID == "" {
		return false
	}
	g, ok := r.groups[s.GroupID]
	return ok && g.Hidden
}

// GroupBounds returns the first and last index of the named group's
// slides. ok is false when the group has no slides in the list.
func (r *Registry) GroupBounds(groupID string) (first, last int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	first, last = -1, -1
	for i, s := range r.slides {
		if s.GroupID == groupID {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last, first >= 0
}

// FirstFullyVisible scans forward from index 0 for the first slide not
// inside a hidden group. Returns -1 when every slide is hidden.
func (r *Registry) FirstFullyVisible() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.slides {
		if !r.groupHiddenLocked(s) {
			return i
		}
	}
	return -1
}
