package agent

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/callparrot/plugin/ai/contact"
)

func TestDialogueError(t *testing.T) {
	cause := errors.New("connection refused")
	err := newDialogueError(ErrDownstreamFailure, "document answerer", cause)

	assert.EqualError(t, err, "downstream failure: document answerer: connection refused")
	assert.ErrorIs(t, err, ErrDownstreamFailure)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsDownstream(err))
	assert.False(t, IsRecoverable(err))

	var de *DialogueError
	assert.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &de)
	assert.Equal(t, "document answerer", de.Message)

	plain := newDialogueError(ErrUnresolvedDate, "no date in utterance", nil)
	assert.EqualError(t, plain, "date could not be resolved: no date in utterance")
	assert.True(t, IsRecoverable(plain))
	assert.False(t, IsDownstream(plain))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		recoverable bool
		downstream  bool
		transient   bool
	}{
		{"invalid contact", ErrInvalidContact, true, false, false},
		{"unresolved date", fmt.Errorf("resolve: %w", ErrUnresolvedDate), true, false, false},
		{"no contact", ErrNoActiveContact, false, false, false},
		{"downstream", ErrDownstreamFailure, false, true, false},
		{"transient downstream", newDialogueError(ErrDownstreamFailure, "answer", ErrTransient), false, true, true},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.recoverable, IsRecoverable(tt.err))
			assert.Equal(t, tt.downstream, IsDownstream(tt.err))
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

func TestRejectionReason(t *testing.T) {
	assert.Equal(t, "Invalid email format.", rejectionReason(contact.ErrInvalidEmail))
	assert.Equal(t, "Invalid phone number format.", rejectionReason(contact.ErrInvalidPhone))
	assert.Equal(t, "Name must not be empty.", rejectionReason(contact.ErrEmptyName))
	assert.Equal(t, "Invalid value.", rejectionReason(contact.ErrUnknownField))
}
