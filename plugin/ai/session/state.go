package session

import (
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/callparrot/plugin/ai/aitime"
	"github.com/hrygo/callparrot/plugin/ai/contact"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one utterance in the conversation history.
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// ScheduledCall is a confirmed call. It is never modified after creation.
type ScheduledCall struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // ISO-8601 calendar date
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// NewScheduledCall creates a call for date with the given contact details.
func NewScheduledCall(date aitime.Date, info contact.Info, createdAt time.Time) ScheduledCall {
	return ScheduledCall{
		ID:        shortuuid.New(),
		Date:      date.String(),
		Name:      info.Name,
		Email:     info.Email,
		Phone:     info.Phone,
		CreatedAt: createdAt,
	}
}

// Phase is the contact-collection phase of a session.
type Phase string

const (
	PhaseNoContact         Phase = "no_contact"
	PhaseCollectingContact Phase = "collecting_contact"
	PhaseHasContact        Phase = "has_contact"
)

// DialogueState is the per-session record the router reads and replaces.
// Every With* method returns a new value and leaves the receiver untouched,
// so a failed handler can simply drop its result.
type DialogueState struct {
	// Contact is nil until name, email and phone have all been validated.
	Contact        *contact.Info   `json:"contact,omitempty"`
	ScheduledCalls []ScheduledCall `json:"scheduled_calls"`
	History        []Turn          `json:"history"`
	// AwaitingDate is set after a schedule request whose date could not be resolved.
	AwaitingDate bool `json:"awaiting_date,omitempty"`
}

// HasContact reports whether validated contact details are present.
func (s DialogueState) HasContact() bool {
	return s.Contact != nil
}

// Phase derives the persisted contact phase. CollectingContact only exists
// while a schedule request is running, so it is never stored.
func (s DialogueState) Phase() Phase {
	if s.HasContact() {
		return PhaseHasContact
	}
	return PhaseNoContact
}

// Clone returns a deep copy.
func (s DialogueState) Clone() DialogueState {
	out := DialogueState{AwaitingDate: s.AwaitingDate}
	if s.Contact != nil {
		c := *s.Contact
		out.Contact = &c
	}
	if s.ScheduledCalls != nil {
		out.ScheduledCalls = append([]ScheduledCall(nil), s.ScheduledCalls...)
	}
	if s.History != nil {
		out.History = append([]Turn(nil), s.History...)
	}
	return out
}

// WithContact stores a copy of info as the session's contact.
func (s DialogueState) WithContact(info contact.Info) DialogueState {
	out := s.Clone()
	out.Contact = &info
	return out
}

// WithoutContact clears the contact and any pending date request.
// Scheduled calls are kept.
func (s DialogueState) WithoutContact() DialogueState {
	out := s.Clone()
	out.Contact = nil
	out.AwaitingDate = false
	return out
}

// WithCall appends call and clears any pending date request.
func (s DialogueState) WithCall(call ScheduledCall) DialogueState {
	out := s.Clone()
	out.ScheduledCalls = append(out.ScheduledCalls, call)
	out.AwaitingDate = false
	return out
}

// WithAwaitingDate sets the pending date flag.
func (s DialogueState) WithAwaitingDate(awaiting bool) DialogueState {
	out := s.Clone()
	out.AwaitingDate = awaiting
	return out
}

// WithExchange appends a user utterance and the assistant's reply.
func (s DialogueState) WithExchange(utterance, reply string, at time.Time) DialogueState {
	out := s.Clone()
	out.History = append(out.History,
		Turn{Speaker: SpeakerUser, Text: utterance, At: at},
		Turn{Speaker: SpeakerAssistant, Text: reply, At: at},
	)
	return out
}

// WithHistoryCleared drops every turn. Contact and calls are kept.
func (s DialogueState) WithHistoryCleared() DialogueState {
	out := s.Clone()
	out.History = nil
	return out
}

// RecentTurns returns a copy of the last n turns, oldest first.
func (s DialogueState) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := max(len(s.History)-n, 0)
	return append([]Turn(nil), s.History[start:]...)
}

// Trimmed keeps only the last window turns. A non-positive window keeps everything.
func (s DialogueState) Trimmed(window int) DialogueState {
	if window <= 0 || len(s.History) <= window {
		return s
	}
	out := s.Clone()
	out.History = s.RecentTurns(window)
	return out
}
