package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/formstep-io/formstep/form"
	"github.com/formstep-io/formstep/types"
)

// Config represents a formstep.yaml definition file: one form, its
// slides and groups, plus persistence, submission, and archive wiring.
type Config struct {
	Form        FormConfig        `yaml:"form"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Submit      SubmitConfig      `yaml:"submit"`
	Archive     ArchiveConfig     `yaml:"archive"`
}

// FormConfig declares the form and its structure.
type FormConfig struct {
	ID      string        `yaml:"id"`
	Name    string        `yaml:"name"`
	Options OptionsConfig `yaml:"options"`
	Groups  []GroupConfig `yaml:"groups"`
	Slides  []SlideConfig `yaml:"slides"`
}

// OptionsConfig holds navigation and persistence tunables. Zero values
// take the library defaults.
type OptionsConfig struct {
	InitialIndex      int      `yaml:"initial_index"`
	ValidateByDefault bool     `yaml:"validate_by_default"`
	RetargetForward   bool     `yaml:"retarget_forward"`
	DebounceWindow    Duration `yaml:"debounce_window"`
	AnimationDelay    Duration `yaml:"animation_delay"`
	QueueCapacity     int      `yaml:"queue_capacity"`
	TTL               Duration `yaml:"ttl"`
}

// GroupConfig declares a slide group.
type GroupConfig struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Hidden bool   `yaml:"hidden"`
}

// SlideConfig declares one slide.
type SlideConfig struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Group       string        `yaml:"group"`
	Requirement string        `yaml:"requirement"`
	Blocks      []BlockConfig `yaml:"blocks"`
	Fields      []FieldConfig `yaml:"fields"`
}

// BlockConfig declares a content block within a slide.
type BlockConfig struct {
	ID          string `yaml:"id"`
	Requirement string `yaml:"requirement"`
}

// FieldConfig declares one input field.
type FieldConfig struct {
	Name        string   `yaml:"name"`
	Key         string   `yaml:"key"`
	Label       string   `yaml:"label"`
	Type        string   `yaml:"type"`
	Block       string   `yaml:"block"`
	Group       string   `yaml:"group"`
	Choice      string   `yaml:"choice"`
	WhenChoice  string   `yaml:"when_choice"`
	Requirement string   `yaml:"requirement"`
	Pattern     string   `yaml:"pattern"`
	MinLen      int      `yaml:"min_len"`
	MaxLen      int      `yaml:"max_len"`
	Min         *float64 `yaml:"min"`
	Max         *float64 `yaml:"max"`
}

// PersistenceConfig selects the snapshot store.
type PersistenceConfig struct {
	// Backend is "memory", "redis", or empty for no persistence.
	Backend string   `yaml:"backend"`
	URL     string   `yaml:"url"`
	Prefix  string   `yaml:"prefix"`
	Timeout Duration `yaml:"timeout"`
}

// SubmitConfig wires the webhook submitter. Empty URL disables delivery.
type SubmitConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// ArchiveConfig wires the S3 submission archive. Empty bucket disables it.
type ArchiveConfig struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "500ms", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "300ms" or "5m30s". A "d"
// suffix means whole days ("7d"), for TTL-style values.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid duration %q", s)
		}
		d.Duration = time.Duration(n) * 24 * time.Hour
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks the structural requirements a form cannot start without.
func (c *Config) Validate() error {
	if c.Form.ID == "" {
		return errors.New("form.id is required")
	}
	if len(c.Form.Slides) == 0 {
		return errors.New("form.slides must not be empty")
	}
	for _, s := range c.Form.Slides {
		for _, f := range s.Fields {
			if f.Name == "" {
				return fmt.Errorf("slide %s: field without a name", s.ID)
			}
			if _, err := parseFieldType(f.Type); err != nil {
				return fmt.Errorf("slide %s field %s: %w", s.ID, f.Name, err)
			}
		}
	}
	if c.Persistence.Backend == "redis" && c.Persistence.URL == "" {
		return errors.New("persistence.url is required for the redis backend")
	}
	return nil
}

// SlideDefs converts the declared slides into library slide definitions.
func (f *FormConfig) SlideDefs() []types.Slide {
	slides := make([]types.Slide, 0, len(f.Slides))
	for _, sc := range f.Slides {
		s := types.Slide{
			ID:          sc.ID,
			Title:       sc.Title,
			GroupID:     sc.Group,
			Requirement: types.Requirement(sc.Requirement),
		}
		for _, bc := range sc.Blocks {
			s.Blocks = append(s.Blocks, types.Block{
				ID:          bc.ID,
				Requirement: types.Requirement(bc.Requirement),
			})
		}
		for _, fc := range sc.Fields {
			ft, _ := parseFieldType(fc.Type)
			s.Fields = append(s.Fields, types.Field{
				Name:        fc.Name,
				Key:         fc.Key,
				Label:       fc.Label,
				Type:        ft,
				BlockID:     fc.Block,
				Group:       fc.Group,
				Choice:      fc.Choice,
				WhenChoice:  fc.WhenChoice,
				Requirement: types.Requirement(fc.Requirement),
				Pattern:     fc.Pattern,
				MinLen:      fc.MinLen,
				MaxLen:      fc.MaxLen,
				Min:         fc.Min,
				Max:         fc.Max,
			})
		}
		slides = append(slides, s)
	}
	return slides
}

// GroupDefs converts the declared groups into library group definitions.
func (f *FormConfig) GroupDefs() []types.SlideGroup {
	groups := make([]types.SlideGroup, 0, len(f.Groups))
	for _, gc := range f.Groups {
		groups = append(groups, types.SlideGroup{
			ID:     gc.ID,
			Title:  gc.Title,
			Hidden: gc.Hidden,
		})
	}
	return groups
}

// FormOptions converts the tunables into facade options. Store, submitter,
// and archiver are wired separately by the caller.
func (o *OptionsConfig) FormOptions() form.Options {
	return form.Options{
		InitialIndex:      o.InitialIndex,
		ValidateByDefault: o.ValidateByDefault,
		RetargetForward:   o.RetargetForward,
		DebounceWindow:    o.DebounceWindow.Duration,
		AnimationDelay:    o.AnimationDelay.Duration,
		QueueCapacity:     o.QueueCapacity,
		TTL:               o.TTL.Duration,
	}
}

// parseFieldType maps a config type string to a field type. An empty
// string defaults to text.
func parseFieldType(s string) (types.FieldType, error) {
	switch s {
	case "":
		return types.FieldText, nil
	case "text", "textarea", "number", "date", "email", "radio", "checkbox", "file":
		return types.FieldType(s), nil
	default:
		return "", fmt.Errorf("unknown field type %q", s)
	}
}
