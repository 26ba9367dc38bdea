package types

// FieldError describes a single failed field. Each invalid field reports
// exactly one error: the first failing rule wins.
type FieldError struct {
	// FieldKey is the snapshot key of the failed field.
	FieldKey string `json:"field_key"`
	// BlockID is the enclosing content block, marked errored alongside
	// the field. Empty when the field sits directly on the slide.
	BlockID string `json:"block_id,omitempty"`
	// Message is the human-readable error.
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating one slide. It is recomputed
// on demand and never persisted.
type ValidationResult struct {
	// SlideID identifies the validated slide.
	SlideID string `json:"slide_id"`
	// Valid is true when no field or group check failed. A slide with no
	// validatable fields is vacuously valid.
	Valid bool `json:"valid"`
	// Errors holds one entry per invalid field, in field order.
	Errors []FieldError `json:"errors,omitempty"`
}

// FirstError returns the first field error, or nil when the slide is valid.
// Hosts use it to move focus to the first invalid field.
func (r *ValidationResult) FirstError() *FieldError {
	if len(r.Errors) == 0 {
		return nil
	}
	return &r.Errors[0]
}
