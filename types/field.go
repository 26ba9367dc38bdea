package types

// FieldType discriminates input kinds for validation and snapshot merge
// semantics.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldEmail    FieldType = "email"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
)

// Field is a single validatable input on a slide.
type Field struct {
	// Name is the field's name attribute, unique within its slide.
	Name string `yaml:"name"`
	// Key is the explicit snapshot key. Takes priority over Name when set.
	Key string `yaml:"key"`
	// Label is the human-readable prompt.
	Label string `yaml:"label"`
	// Type selects validation and merge semantics. Defaults to text.
	Type FieldType `yaml:"type"`
	// BlockID is the enclosing content block, empty when directly on the slide.
	BlockID string `yaml:"block"`
	// Group names the choice group for radio/checkbox fields. Radios in one
	// group are mutually exclusive; checkboxes in one group form a value set.
	Group string `yaml:"group"`
	// Choice is the option value this field contributes to its group.
	Choice string `yaml:"choice"`
	// WhenChoice makes the field conditional: it is validated and collected
	// only while the named Group's selected value equals WhenChoice.
	WhenChoice string `yaml:"when_choice"`
	// Requirement is the field-level requiredness marker.
	Requirement Requirement `yaml:"requirement"`
	// Pattern is an optional regular expression the value must match.
	Pattern string `yaml:"pattern"`
	// MinLen/MaxLen bound the value length. Zero means unbounded.
	MinLen int `yaml:"min_len"`
	MaxLen int `yaml:"max_len"`
	// Min/Max bound numeric values. Nil means unbounded.
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
}

// SnapshotKey returns the key under which this field's value is stored:
// the explicit key attribute when present, otherwise the name.
func (f *Field) SnapshotKey() string {
	if f.Key != "" {
		return f.Key
	}
	return f.Name
}

// IsChoice reports whether the field participates in a choice group.
func (f *Field) IsChoice() bool {
	return f.Group != "" && (f.Type == FieldRadio || f.Type == FieldCheckbox)
}

// FileRef is an opaque reference to an attached file. The engine never
// reads file contents; it only carries references through the snapshot.
type FileRef struct {
	Name string `msgpack:"name" json:"name"`
	Size int64  `msgpack:"size" json:"size"`
	Path string `msgpack:"path" json:"path"`
}
