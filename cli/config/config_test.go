package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/formstep-io/formstep/engine"
	"github.com/formstep-io/formstep/types"
)

const sampleYAML = `
form:
  id: intake
  name: Mortgage intake
  options:
    validate_by_default: true
    debounce_window: 250ms
    animation_delay: 150ms
    queue_capacity: 2
    ttl: 48h
  groups:
    - id: rental
      title: Rental details
      hidden: true
  slides:
    - id: contact
      title: Contact
      blocks:
        - id: phone-block
          requirement: optional
      fields:
        - name: email
          type: email
          label: Email address
        - name: phone
          type: text
          block: phone-block
    - id: usage
      title: Property usage
      fields:
        - name: use-own
          type: radio
          key: usage
          group: usage
          choice: own
        - name: use-rent
          type: radio
          key: usage
          group: usage
          choice: rent
    - id: rent-details
      title: Rent details
      group: rental
      fields:
        - name: monthly-rent
          type: number
          min: 0
persistence:
  backend: memory
submit:
  url: https://example.test/submit
  headers:
    Authorization: Bearer token
archive:
  bucket: forms
  prefix: submissions
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formstep.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullDefinition(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Form.ID != "intake" || cfg.Form.Name != "Mortgage intake" {
		t.Errorf("form identity wrong: %+v", cfg.Form)
	}
	if len(cfg.Form.Slides) != 3 || len(cfg.Form.Groups) != 1 {
		t.Fatalf("structure wrong: %d slides, %d groups", len(cfg.Form.Slides), len(cfg.Form.Groups))
	}
	if !cfg.Form.Groups[0].Hidden {
		t.Error("hidden group flag lost")
	}
	if cfg.Persistence.Backend != "memory" {
		t.Errorf("persistence backend = %s", cfg.Persistence.Backend)
	}
	if cfg.Submit.URL != "https://example.test/submit" {
		t.Errorf("submit url = %s", cfg.Submit.URL)
	}
	if cfg.Archive.Bucket != "forms" {
		t.Errorf("archive bucket = %s", cfg.Archive.Bucket)
	}
}

func TestLoad_DurationsParse(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	o := cfg.Form.Options
	if o.DebounceWindow.Duration != 250*time.Millisecond {
		t.Errorf("debounce = %v", o.DebounceWindow.Duration)
	}
	if o.AnimationDelay.Duration != 150*time.Millisecond {
		t.Errorf("animation = %v", o.AnimationDelay.Duration)
	}
	if o.TTL.Duration != 48*time.Hour {
		t.Errorf("ttl = %v", o.TTL.Duration)
	}
}

func TestLoad_DaySuffixDuration(t *testing.T) {
	yaml := strings.Replace(sampleYAML, "ttl: 48h", "ttl: 7d", 1)
	cfg, err := Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Form.Options.TTL.Duration; got != 7*24*time.Hour {
		t.Errorf("ttl = %v, want 168h", got)
	}
}

func TestFormOptions_Conversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := cfg.Form.Options.FormOptions()
	if !opts.ValidateByDefault {
		t.Error("validate_by_default lost")
	}
	if opts.QueueCapacity != 2 {
		t.Errorf("queue capacity = %d", opts.QueueCapacity)
	}
	// Unset tunables stay zero so the engine applies its own defaults.
	if opts.RequeueDelay != 0 {
		t.Errorf("requeue delay = %v, want 0 (engine default %v)", opts.RequeueDelay, engine.DefaultRequeueDelay)
	}
}

func TestSlideDefs_Conversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	slides := cfg.Form.SlideDefs()
	if len(slides) != 3 {
		t.Fatalf("slides = %d", len(slides))
	}

	contact := slides[0]
	if contact.ID != "contact" || len(contact.Fields) != 2 || len(contact.Blocks) != 1 {
		t.Fatalf("contact slide wrong: %+v", contact)
	}
	if contact.Fields[0].Type != types.FieldEmail {
		t.Errorf("email field type = %s", contact.Fields[0].Type)
	}
	if contact.Blocks[0].Requirement != types.RequirementOptional {
		t.Errorf("block requirement = %s", contact.Blocks[0].Requirement)
	}

	usage := slides[1]
	if usage.Fields[0].SnapshotKey() != "usage" || usage.Fields[0].Choice != "own" {
		t.Errorf("radio field lost attributes: %+v", usage.Fields[0])
	}

	rent := slides[2]
	if rent.GroupID != "rental" {
		t.Errorf("group link lost: %+v", rent)
	}
	if rent.Fields[0].Min == nil || *rent.Fields[0].Min != 0 {
		t.Errorf("numeric bound lost: %+v", rent.Fields[0])
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SUBMIT_URL", "https://hook.test/forms")

	yaml := strings.Replace(sampleYAML,
		"url: https://example.test/submit",
		"url: ${SUBMIT_URL}", 1)

	cfg, err := Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Submit.URL != "https://hook.test/forms" {
		t.Errorf("env not expanded: %s", cfg.Submit.URL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_RejectsMissingFormID(t *testing.T) {
	yaml := strings.Replace(sampleYAML, "id: intake", "id: \"\"", 1)
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Fatal("expected error for missing form id")
	}
}

func TestLoad_RejectsUnknownFieldType(t *testing.T) {
	yaml := strings.Replace(sampleYAML, "type: email", "type: dropdown", 1)
	_, err := Load(writeConfig(t, yaml))
	if err == nil || !strings.Contains(err.Error(), "unknown field type") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_RejectsRedisWithoutURL(t *testing.T) {
	yaml := strings.Replace(sampleYAML, "backend: memory", "backend: redis", 1)
	_, err := Load(writeConfig(t, yaml))
	if err == nil || !strings.Contains(err.Error(), "persistence.url") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_RejectsInvalidDuration(t *testing.T) {
	yaml := strings.Replace(sampleYAML, "debounce_window: 250ms", "debounce_window: fast", 1)
	_, err := Load(writeConfig(t, yaml))
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("unexpected error: %v", err)
	}
}
