// Package validate owns the form data snapshot and per-slide validation.
//
// Validation runs two passes: choice groups first (mutually exclusive radio
// groups, plus fields conditionally required only while their parent choice
// is selected), then independent fields. Requiredness resolves
// hierarchically — field marker over block marker over slide marker, closest
// scope wins — and the first "optional" found walking up short-circuits.
//
// The snapshot is handed to the persistence store after every recorded
// change. Store failures are logged and swallowed: persistence is never
// allowed to break data entry.
package validate

import (
	"context"
	"sync"
	"time"

	"github.com/formstep-io/formstep/log"
	"github.com/formstep-io/formstep/persist"
	"github.com/formstep-io/formstep/registry"
	"github.com/formstep-io/formstep/types"
)

// FieldChange describes one input mutation reported by the host.
type FieldChange struct {
	// SlideID locates the slide.
	SlideID string
	// Field is the field name within the slide.
	Field string
	// Value is the new value: a scalar for text-like fields, the option
	// value for radio/checkbox, or []types.FileRef for file inputs. When
	// empty for a choice field, the field's declared Choice is used.
	Value any
	// Checked carries the toggle state for radio/checkbox fields.
	Checked bool
}

// Validator validates slides and accumulates the form data snapshot.
type Validator struct {
	mu       sync.Mutex
	reg      *registry.Registry
	store    persist.Store
	logger   *log.Logger
	formID   string
	ttl      time.Duration
	snapshot types.FormDataSnapshot
}

// New creates a validator for the given form. A nil store disables
// persistence; a nil logger discards output. A zero ttl applies
// persist.DefaultTTL on save.
func New(formID string, reg *registry.Registry, store persist.Store, logger *log.Logger, ttl time.Duration) *Validator {
	if logger == nil {
		logger = log.Nop()
	}
	return &Validator{
		reg:      reg,
		store:    store,
		logger:   logger,
		formID:   formID,
		ttl:      ttl,
		snapshot: make(types.FormDataSnapshot),
	}
}

// Snapshot returns a read-only copy of the collected form data.
func (v *Validator) Snapshot() types.FormDataSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot.Clone()
}

// Restore replaces the snapshot with previously persisted data, e.g. when
// rehydrating a session.
func (v *Validator) Restore(data types.FormDataSnapshot) {
	v.mu.Lock()
	if data == nil {
		v.snapshot = make(types.FormDataSnapshot)
	} else {
		v.snapshot = data.Clone()
	}
	v.mu.Unlock()
}

// Reset clears the snapshot.
func (v *Validator) Reset() {
	v.mu.Lock()
	v.snapshot = make(types.FormDataSnapshot)
	v.mu.Unlock()
}

// RecordFieldChange updates the snapshot for one field change, applying
// type-specific merge semantics, then hands the snapshot to the store.
// Unknown slide or field references are caller errors and are returned.
func (v *Validator) RecordFieldChange(ctx context.Context, ch FieldChange) error {
	idx := v.reg.IndexOf(ch.SlideID)
	if idx < 0 {
		return types.UsageError("record field change: unknown slide", ch.SlideID)
	}
	slide := v.reg.At(idx)
	field := slide.Field(ch.Field)
	if field == nil {
		return types.UsageError("record field change: unknown field", ch.SlideID+"."+ch.Field)
	}

	v.mu.Lock()
	v.applyLocked(slide, field, ch)
	v.mu.Unlock()

	v.persistSnapshot(ctx)
	return nil
}

// applyLocked merges one change into the snapshot. Caller holds v.mu.
func (v *Validator) applyLocked(slide *types.Slide, field *types.Field, ch FieldChange) {
	fields := v.snapshot[slide.ID]
	if fields == nil {
		fields = make(map[string]any)
		v.snapshot[slide.ID] = fields
	}
	key := field.SnapshotKey()

	switch field.Type {
	case types.FieldRadio:
		if !ch.Checked {
			// Unchecking a radio directly does not happen in practice;
			// treat it as clearing the key.
			delete(fields, key)
			break
		}
		value := choiceValue(field, ch.Value)
		// Last-checked-wins: clear stale keys written by differently-keyed
		// radios in the same group.
		for i := range slide.Fields {
			m := &slide.Fields[i]
			if m.Type == types.FieldRadio && m.Group == field.Group && m.SnapshotKey() != key {
				delete(fields, m.SnapshotKey())
			}
		}
		fields[key] = value
		// Fields inside a now-unselected conditional wrapper are omitted.
		for i := range slide.Fields {
			c := &slide.Fields[i]
			if c.WhenChoice != "" && c.Group == field.Group && c.WhenChoice != value {
				delete(fields, c.SnapshotKey())
			}
		}

	case types.FieldCheckbox:
		set, _ := fields[key].([]string)
		value := choiceValue(field, ch.Value)
		if ch.Checked {
			set = unionAdd(set, value)
		} else {
			set = setRemove(set, value)
		}
		if len(set) == 0 {
			delete(fields, key)
		} else {
			fields[key] = set
		}

	case types.FieldFile:
		refs, _ := ch.Value.([]types.FileRef)
		if len(refs) == 0 {
			delete(fields, key)
		} else {
			fields[key] = refs
		}

	default:
		// Single-value semantics for text/number/date/email/textarea.
		if field.WhenChoice != "" && field.Group != "" {
			if v.selectedChoiceLocked(slide, field.Group) != field.WhenChoice {
				// Parent choice not selected: the field is omitted.
				delete(fields, key)
				return
			}
		}
		s, _ := ch.Value.(string)
		if ch.Value == nil || s == "" && isString(ch.Value) {
			delete(fields, key)
		} else {
			fields[key] = ch.Value
		}
	}

	if len(fields) == 0 {
		delete(v.snapshot, slide.ID)
	}
}

// selectedChoiceLocked returns the group's currently selected radio value,
// or "". Caller holds v.mu.
func (v *Validator) selectedChoiceLocked(slide *types.Slide, group string) string {
	fields := v.snapshot[slide.ID]
	if fields == nil {
		return ""
	}
	for i := range slide.Fields {
		m := &slide.Fields[i]
		if m.Type != types.FieldRadio || m.Group != group {
			continue
		}
		if val, ok := fields[m.SnapshotKey()].(string); ok && val != "" {
			return val
		}
	}
	return ""
}

// persistSnapshot hands the current snapshot to the store. Failures are
// logged, never propagated: the user keeps working in-memory.
func (v *Validator) persistSnapshot(ctx context.Context) {
	if v.store == nil {
		return
	}
	rec := types.NewSnapshotRecord(v.formID, v.Snapshot(), time.Now(), effectiveTTL(v.ttl))
	if err := v.store.Save(ctx, v.formID, rec, effectiveTTL(v.ttl)); err != nil {
		v.logger.Warn("snapshot save failed, continuing in-memory", map[string]any{
			"error": err.Error(),
		})
	}
}

func effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return persist.DefaultTTL
	}
	return ttl
}

func choiceValue(f *types.Field, value any) string {
	if s, ok := value.(string); ok && s != "" {
		return s
	}
	return f.Choice
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func unionAdd(set []string, value string) []string {
	for _, s := range set {
		if s == value {
			return set
		}
	}
	return append(set, value)
}

func setRemove(set []string, value string) []string {
	out := set[:0]
	for _, s := range set {
		if s != value {
			out = append(out, s)
		}
	}
	return out
}
