// Package router classifies user utterances into dialogue intents.
// Classification is a fixed, ordered rule table; the first matching rule wins.
package router

// Classifier assigns an utterance to exactly one Intent.
// hasContact reports whether the session already holds validated contact details,
// which enables the contact-dependent rules.
type Classifier interface {
	Classify(utterance string, hasContact bool) Intent
}

// Intent represents the purpose of a single utterance. It is computed per
// utterance and never persisted.
type Intent string

const (
	IntentClearHistory       Intent = "clear_history"
	IntentShowScheduledCalls Intent = "show_scheduled_calls"
	IntentHelp               Intent = "help"
	IntentHistoryQuery       Intent = "history_query"
	IntentScheduleRequest    Intent = "schedule_request"
	IntentCancelRequest      Intent = "cancel_request"
	IntentUpdateInfoRequest  Intent = "update_info_request"
	IntentScheduleHelp       Intent = "schedule_help"
	IntentDocumentQuery      Intent = "document_query"
)

// AllIntents lists every intent, in rule-table order.
var AllIntents = []Intent{
	IntentClearHistory,
	IntentShowScheduledCalls,
	IntentHelp,
	IntentHistoryQuery,
	IntentScheduleRequest,
	IntentCancelRequest,
	IntentUpdateInfoRequest,
	IntentScheduleHelp,
	IntentDocumentQuery,
}

// String returns the intent name.
func (i Intent) String() string {
	return string(i)
}
