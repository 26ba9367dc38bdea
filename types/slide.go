// Package types defines the shared data model for formstep: slides, slide
// groups, fields, validation results, and the persisted snapshot record.
//
// Ownership rules:
//   - registry.Registry owns the slide/group list and structural identity
//   - validate.Validator owns the form data snapshot and validation results
//   - engine.Engine owns navigation state
//
// Nothing outside the owning package mutates these values.
package types

// Requirement is a tri-state requiredness marker. Markers resolve
// hierarchically: a field's own marker overrides its block's, which
// overrides its slide's. Walking up from the field, the first
// RequirementOptional found short-circuits the requirement.
type Requirement string

const (
	// RequirementInherit defers to the enclosing scope.
	RequirementInherit Requirement = ""
	// RequirementRequired marks the scope as required.
	RequirementRequired Requirement = "required"
	// RequirementOptional marks the scope as optional.
	RequirementOptional Requirement = "optional"
)

// Slide is one navigable step of the form. Identity (ID) is stable across
// reorderings; index is positional and is not.
type Slide struct {
	// ID is the stable slide identifier. Assigned synthetically at
	// discovery when the definition leaves it empty.
	ID string `yaml:"id"`
	// Title is a human-readable heading for the slide.
	Title string `yaml:"title"`
	// GroupID is the enclosing slide group, empty when ungrouped.
	GroupID string `yaml:"group"`
	// Requirement is the slide-level requiredness marker.
	Requirement Requirement `yaml:"requirement"`
	// Blocks are named content blocks with their own markers.
	Blocks []Block `yaml:"blocks"`
	// Fields are the validatable inputs on this slide, in display order.
	Fields []Field `yaml:"fields"`
}

// Block is a named content block within a slide. Fields reference their
// block by ID for requirement resolution and error marking.
type Block struct {
	ID          string      `yaml:"id"`
	Requirement Requirement `yaml:"requirement"`
}

// Block returns the named block, or nil when the slide has none by that ID.
func (s *Slide) Block(id string) *Block {
	for i := range s.Blocks {
		if s.Blocks[i].ID == id {
			return &s.Blocks[i]
		}
	}
	return nil
}

// Field returns the field with the given name, or nil.
func (s *Slide) Field(name string) *Field {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// SlideGroup is a named collection of contiguous slides that is shown or
// hidden as a unit. Hiding a group that contains the current slide forces
// a navigation side effect (see engine.Engine).
type SlideGroup struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Hidden bool   `yaml:"hidden"`
}
