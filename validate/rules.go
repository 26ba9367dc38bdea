package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/formstep-io/formstep/types"
)

// emailPattern is an RFC-5322-lite check, the WHATWG input[type=email]
// grammar. Deliberately permissive on the local part.
var emailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)

const dateLayout = "2006-01-02"

// Validate checks one slide against the current snapshot. A slide with no
// validatable fields is vacuously valid. Each invalid field reports exactly
// one error (first failing rule wins), carrying its enclosing block so the
// host can mark both.
func (v *Validator) Validate(slide *types.Slide) types.ValidationResult {
	if slide == nil {
		return types.ValidationResult{Valid: true}
	}
	result := types.ValidationResult{SlideID: slide.ID, Valid: true}
	if len(slide.Fields) == 0 {
		return result
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	fields := v.snapshot[slide.ID]

	// Pass A: choice groups, then their conditional dependents.
	groups := choiceGroups(slide)
	handled := make(map[string]bool, len(slide.Fields))
	for _, g := range groups {
		for _, m := range g.members {
			handled[m.Name] = true
		}
		// Conditional dependents belong to pass A alongside their group.
		for i := range slide.Fields {
			if f := &slide.Fields[i]; f.WhenChoice != "" && f.Group == g.name {
				handled[f.Name] = true
			}
		}
		v.validateGroupLocked(slide, g, fields, &result)
	}

	// Pass B: independent fields. Conditional fields are validated only
	// while their parent choice is selected.
	for i := range slide.Fields {
		f := &slide.Fields[i]
		if handled[f.Name] {
			continue
		}
		if f.WhenChoice != "" && f.Group != "" {
			if v.selectedChoiceLocked(slide, f.Group) != f.WhenChoice {
				continue
			}
		}
		if ferr := checkField(slide, f, fields[f.SnapshotKey()]); ferr != nil {
			result.Valid = false
			result.Errors = append(result.Errors, *ferr)
		}
	}

	return result
}

// choiceGroup collects the members of one choice group on a slide.
type choiceGroup struct {
	name    string
	kind    types.FieldType
	members []*types.Field
}

// choiceGroups gathers radio and checkbox groups in field order.
func choiceGroups(slide *types.Slide) []choiceGroup {
	index := make(map[string]int)
	var out []choiceGroup
	for i := range slide.Fields {
		f := &slide.Fields[i]
		if !f.IsChoice() || f.WhenChoice != "" {
			continue
		}
		at, ok := index[f.Group]
		if !ok {
			index[f.Group] = len(out)
			out = append(out, choiceGroup{name: f.Group, kind: f.Type})
			at = len(out) - 1
		}
		out[at].members = append(out[at].members, f)
	}
	return out
}

// validateGroupLocked checks one choice group and, when a choice is
// selected, its conditional dependents. Caller holds v.mu.
//
// A group counts as optional when ANY member or its ancestry declares
// optional. That mirrors the markup-driven original, where each input
// carries its own marker and one opt-out wins; representatives of the
// shared constraint are not required to agree.
func (v *Validator) validateGroupLocked(slide *types.Slide, g choiceGroup, fields map[string]any, result *types.ValidationResult) {
	required := true
	for _, m := range g.members {
		if resolveRequirement(slide, m) == types.RequirementOptional {
			required = false
			break
		}
	}

	selected := false
	switch g.kind {
	case types.FieldRadio:
		selected = v.selectedChoiceLocked(slide, g.name) != ""
	case types.FieldCheckbox:
		for _, m := range g.members {
			if set, ok := fields[m.SnapshotKey()].([]string); ok && len(set) > 0 {
				selected = true
				break
			}
		}
	}

	if required && !selected {
		first := g.members[0]
		result.Valid = false
		result.Errors = append(result.Errors, types.FieldError{
			FieldKey: first.SnapshotKey(),
			BlockID:  first.BlockID,
			Message:  "select an option",
		})
		return
	}

	if g.kind != types.FieldRadio || !selected {
		return
	}

	// Conditional dependents of the selected choice.
	choice := v.selectedChoiceLocked(slide, g.name)
	for i := range slide.Fields {
		f := &slide.Fields[i]
		if f.WhenChoice == "" || f.Group != g.name || f.WhenChoice != choice {
			continue
		}
		if ferr := checkField(slide, f, fields[f.SnapshotKey()]); ferr != nil {
			result.Valid = false
			result.Errors = append(result.Errors, *ferr)
		}
	}
}

// resolveRequirement walks field, block, slide. Closest non-inherit marker
// wins; when every scope inherits, the field is required.
func resolveRequirement(slide *types.Slide, f *types.Field) types.Requirement {
	if f.Requirement != types.RequirementInherit {
		return f.Requirement
	}
	if b := slide.Block(f.BlockID); b != nil && b.Requirement != types.RequirementInherit {
		return b.Requirement
	}
	if slide.Requirement != types.RequirementInherit {
		return slide.Requirement
	}
	return types.RequirementRequired
}

// checkField runs the per-field rule chain. Returns nil when valid,
// otherwise the single error for this field.
func checkField(slide *types.Slide, f *types.Field, value any) *types.FieldError {
	fail := func(msg string) *types.FieldError {
		return &types.FieldError{FieldKey: f.SnapshotKey(), BlockID: f.BlockID, Message: msg}
	}

	required := resolveRequirement(slide, f) == types.RequirementRequired
	if isEmpty(value) {
		if required {
			return fail("this field is required")
		}
		return nil
	}

	s, _ := value.(string)

	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err == nil && !re.MatchString(s) {
			return fail("value does not match the expected format")
		}
	}
	if f.MinLen > 0 && len(s) < f.MinLen {
		return fail(fmt.Sprintf("must be at least %d characters", f.MinLen))
	}
	if f.MaxLen > 0 && len(s) > f.MaxLen {
		return fail(fmt.Sprintf("must be at most %d characters", f.MaxLen))
	}

	switch f.Type {
	case types.FieldNumber:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fail("must be a number")
		}
		if f.Min != nil && n < *f.Min {
			return fail(fmt.Sprintf("must be at least %g", *f.Min))
		}
		if f.Max != nil && n > *f.Max {
			return fail(fmt.Sprintf("must be at most %g", *f.Max))
		}
	case types.FieldDate:
		if _, err := time.Parse(dateLayout, s); err != nil {
			return fail("must be a date in YYYY-MM-DD form")
		}
	case types.FieldEmail:
		if !emailPattern.MatchString(s) {
			return fail("must be a valid email address")
		}
	}

	return nil
}

// isEmpty reports whether a snapshot value counts as absent.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []types.FileRef:
		return len(v) == 0
	default:
		return false
	}
}
