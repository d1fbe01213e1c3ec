// Package agent routes utterances through the dialogue and owns the session turn loop.
package agent

import (
	"errors"
	"fmt"

	"github.com/hrygo/callparrot/plugin/ai/contact"
)

// Dialogue error kinds. None of them ends a session; each maps to a reply.
var (
	// ErrInvalidContact indicates a contact value failed validation.
	// Recovery: re-prompt for the same field.
	ErrInvalidContact = errors.New("invalid contact information")

	// ErrUnresolvedDate indicates the utterance carried no resolvable date.
	// Recovery: ask when the call should be scheduled.
	ErrUnresolvedDate = errors.New("date could not be resolved")

	// ErrNoActiveContact indicates an operation needs contact details that were never collected.
	// Recovery: none, the user is told and the state is unchanged.
	ErrNoActiveContact = errors.New("no active contact")

	// ErrDownstreamFailure indicates a collaborator (answerer, collector) failed.
	// Recovery: none, an apology is returned and the state is unchanged.
	ErrDownstreamFailure = errors.New("downstream failure")

	// ErrTransient marks collaborator failures that may succeed if the user asks again.
	ErrTransient = errors.New("transient failure")
)

// DialogueError wraps a dialogue error kind with a user-facing message and its cause.
type DialogueError struct {
	Kind    error
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *DialogueError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *DialogueError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func newDialogueError(kind error, message string, cause error) *DialogueError {
	return &DialogueError{Kind: kind, Message: message, Cause: cause}
}

// IsRecoverable reports whether the dialogue can continue by asking the user again.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInvalidContact) ||
		errors.Is(err, ErrUnresolvedDate)
}

// IsDownstream reports whether err came from a collaborator rather than the user.
func IsDownstream(err error) bool {
	return errors.Is(err, ErrDownstreamFailure)
}

// IsTransient reports whether a collaborator failure may go away on its own.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// rejectionReason turns a contact validation error into the user-facing reason.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, contact.ErrInvalidEmail):
		return "Invalid email format."
	case errors.Is(err, contact.ErrInvalidPhone):
		return "Invalid phone number format."
	case errors.Is(err, contact.ErrEmptyName):
		return "Name must not be empty."
	default:
		return "Invalid value."
	}
}
