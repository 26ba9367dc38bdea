// Package submit defines the submission boundary: where a completed
// form's collected data leaves the library.
//
// Submitters deliver the submission envelope to a downstream system.
// The form facade owns submitter lifecycle; hosts provide configuration
// only.
package submit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/formstep-io/formstep/types"
)

// Submission is the envelope delivered when a form completes.
type Submission struct {
	FormID       string                 `json:"form_id"`
	FormName     string                 `json:"form_name,omitempty"`
	SubmissionID string                 `json:"submission_id"`
	SubmittedAt  string                 `json:"submitted_at"` // RFC 3339
	Data         types.FormDataSnapshot `json:"data"`
}

// NewSubmission assembles an envelope with a fresh submission ID and the
// given timestamp. The snapshot is cloned so later edits cannot mutate
// an in-flight submission.
func NewSubmission(formID, formName string, data types.FormDataSnapshot, at time.Time) *Submission {
	return &Submission{
		FormID:       formID,
		FormName:     formName,
		SubmissionID: uuid.NewString(),
		SubmittedAt:  at.UTC().Format(time.RFC3339),
		Data:         data.Clone(),
	}
}

// Submitter delivers submissions to a downstream system.
type Submitter interface {
	// Submit sends one submission. Must respect context cancellation and
	// deadlines.
	Submit(ctx context.Context, sub *Submission) error

	// Close releases submitter resources.
	Close() error
}
