package lesson

import (
	"errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

var (
	// errors
	ErrNotFound          = errors.New("lesson note not found")
	ErrInvalidTransition = errors.New("invalid lesson status transition")
	ErrNotEditable       = errors.New("lesson note can no longer be edited")
	ErrFeedbackRequired  = errors.New("feedback is required when rejecting a lesson")
)

type Event string

// Events
const (
	EventSaveDraft Event = "save_draft"
	EventSubmit    Event = "submit"
	EventApprove   Event = "approve"
	EventReject    Event = "reject"
)

// DefaultApprovalFeedback is stored when a note is approved without feedback.
const DefaultApprovalFeedback = "Lesson approved"

// transitions lists, per current status, the events allowed and the resulting status.
// The empty status stands for a note that does not exist yet. Approved is terminal.
var transitions = map[Status]map[Event]Status{
	"": {
		EventSaveDraft: StatusDraft,
		EventSubmit:    StatusPending,
	},
	StatusDraft: {
		EventSaveDraft: StatusDraft,
		EventSubmit:    StatusPending,
	},
	StatusRejected: {
		EventSaveDraft: StatusDraft,
		EventSubmit:    StatusPending,
	},
	StatusPending: {
		EventApprove: StatusApproved,
		EventReject:  StatusRejected,
	},
	StatusApproved: {},
}

var (
	draftRequired  = []string{"subject", "class", "week"}
	submitRequired = []string{"subject", "class", "week", "topic", "objectives", "materials", "development", "evaluation"}
)

// Transition returns the status a note in status `from` moves to on event `ev`.
// Owner events on a note that is pending or approved fail with ErrNotEditable;
// any other disallowed event fails with ErrInvalidTransition.
func Transition(from Status, ev Event) (Status, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	if (ev == EventSaveDraft || ev == EventSubmit) && (from == StatusPending || from == StatusApproved) {
		return from, ErrNotEditable
	}
	return from, ErrInvalidTransition
}

// RequiredFields returns the content fields that must be non-empty for the event.
func RequiredFields(ev Event) []string {
	switch ev {
	case EventSaveDraft:
		return draftRequired
	case EventSubmit:
		return submitRequired
	}
	return nil
}

// ValidateFor checks that every field required by the event is filled in.
// It returns a *core.ValidationError with one FieldError per missing field.
func (c Content) ValidateFor(ev Event) error {
	required := RequiredFields(ev)
	if len(required) == 0 {
		return nil
	}
	values := make(map[string]string, len(required))
	for _, fld := range c.fields() {
		values[fld.name] = *fld.val
	}

	var fldErrs []core.FieldError
	for _, name := range required {
		if core.IsBlank(values[name]) {
			fldErrs = append(fldErrs, core.FieldError{Field: name, Error: "this field is required"})
		}
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

// ValidateReview checks the reviewer's feedback and returns the feedback to store.
func ValidateReview(ev Event, feedback string) (string, error) {
	feedback = core.CleanString(feedback)
	switch ev {
	case EventApprove:
		if feedback == "" {
			feedback = DefaultApprovalFeedback
		}
	case EventReject:
		if feedback == "" {
			return "", core.NewValidationError(
				ErrFeedbackRequired, core.FieldError{Field: "feedback", Error: ErrFeedbackRequired.Error()},
			)
		}
	default:
		return "", ErrInvalidTransition
	}
	return feedback, nil
}
