package agent

import (
	"fmt"
	"strings"

	"github.com/hrygo/callparrot/plugin/ai/contact"
	"github.com/hrygo/callparrot/plugin/ai/session"
)

// HelpText lists what the assistant can do.
const HelpText = `I can help you with the following:

1. Schedule Appointments:
   - "Schedule a call"
   - "Book an appointment"
   - "Let's meet next week"

2. Manage Your Information:
   - Update contact details ("change my email")
   - Cancel or reschedule appointments

3. Answer Questions:
   - Ask about any topic in the loaded documents
   - Check conversation history ("what did I just ask?")

4. Dates:
   - Natural language ("next Monday", "tomorrow", "next month")
   - Exact dates (MM/DD/YYYY, "December 25th")

5. Commands:
   - "show scheduled calls" - List your scheduled calls
   - "clear chat" - Erase conversation history
   - "help" - Show this help message
   - "cancel" - Cancel the current appointment

How can I assist you today?`

// SchedulingHelpText explains how to book a call.
const SchedulingHelpText = `Would you like to schedule a call? Here's how:

1. Say "I want to schedule a call" or "Book an appointment"
2. I'll collect your contact information
3. Then specify your preferred date:
   - "tomorrow"
   - "next Monday"
   - "December 25th"
   - Or any specific date (MM/DD/YYYY)

Please let me know how you'd like to proceed!`

// DefaultAnswerSystemPrompt instructs the document answerer.
const DefaultAnswerSystemPrompt = `You are a helpful assistant answering questions about the user's documents.
Answer concisely from the documents. If the answer is not in the documents, say you don't know.`

const (
	msgHistoryCleared   = "Chat history has been cleared."
	msgNoScheduledCalls = "No scheduled calls at the moment."
	msgConversationNew  = "This is the start of our conversation."
	msgAskDate          = "When would you like to schedule the call?"
	msgNoActiveCancel   = "There's no active appointment to cancel."
	msgNoActiveUpdate   = "There's no contact information to update yet. Schedule a call first."
	msgCancelled        = "Your appointment has been cancelled. Let me know if you'd like to schedule a new one!"
	msgWhichField       = "What information would you like to update? (name, email, or phone)"
	msgAnswerFailed     = "I apologize, but I couldn't answer that right now. Please try again."
	msgCollectFailed    = "I couldn't finish collecting your contact details, so nothing was scheduled."
	msgUpdateFailed     = "I couldn't read the new value. No changes made."
)

// fieldLabels are the display names of contact fields.
var fieldLabels = map[contact.Field]string{
	contact.FieldName:  "Name",
	contact.FieldEmail: "Email",
	contact.FieldPhone: "Phone number",
}

func confirmationMessage(call session.ScheduledCall) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I've scheduled a call for %s with:\n", call.Date)
	fmt.Fprintf(&b, "Name: %s\n", call.Name)
	fmt.Fprintf(&b, "Email: %s\n", call.Email)
	fmt.Fprintf(&b, "Phone: %s", call.Phone)
	return b.String()
}

func scheduledCallsMessage(calls []session.ScheduledCall) string {
	if len(calls) == 0 {
		return msgNoScheduledCalls
	}

	var b strings.Builder
	b.WriteString("Here are your scheduled calls:")
	for _, call := range calls {
		fmt.Fprintf(&b, "\n- Date: %s, Name: %s, Email: %s, Phone: %s", call.Date, call.Name, call.Email, call.Phone)
	}
	return b.String()
}

func historySummary(turns []session.Turn) string {
	if len(turns) == 0 {
		return msgConversationNew
	}

	var b strings.Builder
	b.WriteString("Recent conversation:\n")
	for _, turn := range turns {
		who := "You"
		if turn.Speaker == session.SpeakerAssistant {
			who = "Bot"
		}
		fmt.Fprintf(&b, "\n%s: %s", who, turn.Text)
	}
	return b.String()
}

func updatedMessage(field contact.Field, value string) string {
	return fmt.Sprintf("%s updated successfully to: %s", fieldLabels[field], value)
}

func rejectedUpdateMessage(err error) string {
	return rejectionReason(err) + " No changes made."
}
