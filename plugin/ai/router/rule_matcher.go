package router

import (
	"regexp"
	"slices"
	"strings"
)

// Rule maps a predicate over the normalized utterance to an Intent.
// lower is the trimmed, lowercased utterance.
type Rule struct {
	Name   string
	Intent Intent
	Match  func(lower string, hasContact bool) bool
}

var (
	clearCommands = []string{"clear history", "clear chat", "erase history", "erase chat"}

	helpKeywords = []string{
		"help", "how to", "guide", "explain", "what can you do", "capabilities", "features",
	}

	memoryPhrases = []string{
		"what did i just", "last question", "previous", "what were we talking about", "what was i saying",
	}

	cancelKeywords = []string{"cancel", "reschedule"}

	updatableFields = []string{"email", "phone", "name"}

	scheduleHelpCommands = []string{"call", "schedule", "book"}

	schedulingKeywords = []string{
		"schedule", "book", "appointment", "call", "meet", "want to talk", "discuss",
		"consultation", "meeting", "set up", "arrange", "plan", "catch up", "sync",
		"connect", "get in touch", "reach out",
	}

	timeKeywords = []string{
		"morning", "afternoon", "evening", "night", "today", "tomorrow", "next", "weekend",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
		"week", "month", "o'clock", ":00",
	}
)

// meridiemPattern finds "am"/"pm" as a word or after a digit ("3pm", "10 am").
// As a bare substring "am" would match "name" and shadow the change-name rule.
var meridiemPattern = regexp.MustCompile(`\b(?:am|pm)\b|\d\s*(?:am|pm)\b`)

// DefaultRules returns the canonical priority table. Order is load-bearing:
// help and history phrases pre-empt scheduling vocabulary.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "clear_command",
			Intent: IntentClearHistory,
			Match:  func(lower string, _ bool) bool { return slices.Contains(clearCommands, lower) },
		},
		{
			Name:   "show_scheduled_calls",
			Intent: IntentShowScheduledCalls,
			Match:  func(lower string, _ bool) bool { return strings.Contains(lower, "show scheduled calls") },
		},
		{
			Name:   "help_keyword",
			Intent: IntentHelp,
			Match:  func(lower string, _ bool) bool { return containsAny(lower, helpKeywords) },
		},
		{
			Name:   "memory_phrase",
			Intent: IntentHistoryQuery,
			Match:  func(lower string, _ bool) bool { return containsAny(lower, memoryPhrases) },
		},
		{
			Name:   "contact_time_reference",
			Intent: IntentScheduleRequest,
			Match:  func(lower string, hasContact bool) bool { return hasContact && hasTimeReference(lower) },
		},
		{
			Name:   "contact_cancel",
			Intent: IntentCancelRequest,
			Match:  func(lower string, hasContact bool) bool { return hasContact && containsAny(lower, cancelKeywords) },
		},
		{
			Name:   "contact_change_field",
			Intent: IntentUpdateInfoRequest,
			Match: func(lower string, hasContact bool) bool {
				return hasContact && strings.Contains(lower, "change") && containsAny(lower, updatableFields)
			},
		},
		{
			Name:   "scheduling_keyword",
			Intent: IntentScheduleRequest,
			Match:  func(lower string, _ bool) bool { return containsAny(lower, schedulingKeywords) },
		},
		{
			// Every command here also matches scheduling_keyword, so this rule
			// only fires when a custom table drops or reorders that rule.
			Name:   "schedule_help_command",
			Intent: IntentScheduleHelp,
			Match:  func(lower string, _ bool) bool { return slices.Contains(scheduleHelpCommands, lower) },
		},
		{
			Name:   "fallback",
			Intent: IntentDocumentQuery,
			Match:  func(string, bool) bool { return true },
		},
	}
}

// hasTimeReference reports whether lower mentions a time of day, day or period.
func hasTimeReference(lower string) bool {
	return containsAny(lower, timeKeywords) || meridiemPattern.MatchString(lower)
}

// containsAny checks if s contains any of the patterns.
func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
