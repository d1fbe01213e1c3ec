package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/callparrot/plugin/ai/aitime"
	"github.com/hrygo/callparrot/plugin/ai/contact"
	"github.com/hrygo/callparrot/plugin/ai/metrics"
	"github.com/hrygo/callparrot/plugin/ai/router"
	"github.com/hrygo/callparrot/plugin/ai/session"
	"github.com/hrygo/callparrot/plugin/ai/timeout"
)

// DefaultHistoryWindow is the number of turns kept per session.
const DefaultHistoryWindow = 20

// RouterConfig wires the collaborators of a ConversationRouter.
// Only Collector is required; nil fields fall back to defaults.
type RouterConfig struct {
	Classifier    router.Classifier
	Resolver      aitime.DateResolver
	Collector     ContactCollector
	Answerer      DocumentAnswerer
	Clock         aitime.Clock
	Metrics       metrics.MetricsService
	PhoneRegion   string
	AnswerTimeout time.Duration
	HistoryWindow int
}

// ConversationRouter turns one utterance and the current DialogueState into
// the next state and a reply. It holds no per-session data.
type ConversationRouter struct {
	classifier    router.Classifier
	resolver      aitime.DateResolver
	collector     ContactCollector
	answerer      DocumentAnswerer
	clock         aitime.Clock
	metrics       metrics.MetricsService
	region        string
	answerTimeout time.Duration
	historyWindow int
}

// explainer is implemented by classifiers that can name the rule that fired.
type explainer interface {
	Explain(utterance string, hasContact bool) (router.Intent, string)
}

// NewConversationRouter creates a router from cfg.
func NewConversationRouter(cfg RouterConfig) *ConversationRouter {
	r := &ConversationRouter{
		classifier:    cfg.Classifier,
		resolver:      cfg.Resolver,
		collector:     cfg.Collector,
		answerer:      cfg.Answerer,
		clock:         cfg.Clock,
		metrics:       cfg.Metrics,
		region:        cfg.PhoneRegion,
		answerTimeout: cfg.AnswerTimeout,
		historyWindow: cfg.HistoryWindow,
	}
	if r.classifier == nil {
		r.classifier = router.NewService(router.Config{})
	}
	if r.resolver == nil {
		r.resolver = aitime.RuleResolver{}
	}
	if r.answerer == nil {
		r.answerer = UnavailableAnswerer{}
	}
	if r.clock == nil {
		r.clock = aitime.SystemClock{}
	}
	if r.metrics == nil {
		r.metrics = (*metrics.Service)(nil)
	}
	if r.region == "" {
		r.region = contact.DefaultRegion
	}
	if r.answerTimeout <= 0 {
		r.answerTimeout = timeout.DocumentAnswerTimeout
	}
	if r.historyWindow <= 0 {
		r.historyWindow = DefaultHistoryWindow
	}
	return r
}

// Handle routes one utterance. It never fails: every outcome, including
// collaborator failures, is expressed in the reply.
func (r *ConversationRouter) Handle(ctx context.Context, state session.DialogueState, utterance string) (session.DialogueState, string) {
	start := time.Now()
	intent, rule := r.classify(utterance, state.HasContact())
	r.metrics.RecordIntent(ctx, intent.String(), rule)

	var (
		next  session.DialogueState
		reply string
	)
	switch intent {
	case router.IntentClearHistory:
		// The clear command itself is not recorded.
		return state.WithHistoryCleared(), msgHistoryCleared
	case router.IntentShowScheduledCalls:
		next, reply = state, scheduledCallsMessage(state.ScheduledCalls)
	case router.IntentHelp:
		next, reply = state, HelpText
	case router.IntentHistoryQuery:
		next, reply = state, historySummary(state.RecentTurns(timeout.HistorySummaryTurns))
	case router.IntentScheduleRequest:
		next, reply = r.handleSchedule(ctx, state, utterance)
	case router.IntentCancelRequest:
		next, reply = r.handleCancel(state)
	case router.IntentUpdateInfoRequest:
		next, reply = r.handleUpdate(ctx, state, utterance)
	case router.IntentScheduleHelp:
		next, reply = state, SchedulingHelpText
	default:
		next, reply = r.handleDocumentQuery(ctx, state, utterance)
	}

	slog.Debug("utterance handled",
		"input", truncateForLog(utterance, timeout.MaxTruncateLength),
		"intent", intent,
		"rule", rule,
		"phase", next.Phase(),
		"latency_ms", time.Since(start).Milliseconds())

	return next.WithExchange(utterance, reply, r.clock.Now()).Trimmed(r.historyWindow), reply
}

func (r *ConversationRouter) classify(utterance string, hasContact bool) (router.Intent, string) {
	if ex, ok := r.classifier.(explainer); ok {
		return ex.Explain(utterance, hasContact)
	}
	return r.classifier.Classify(utterance, hasContact), "unknown"
}

// handleSchedule collects missing contact details, then books the call for the
// date in utterance or asks for one.
func (r *ConversationRouter) handleSchedule(ctx context.Context, state session.DialogueState, utterance string) (session.DialogueState, string) {
	if !state.HasContact() {
		info, err := r.collectContact(ctx)
		if err != nil {
			slog.Warn("contact collection aborted", "error", err)
			return state, msgCollectFailed
		}
		state = state.WithContact(info)
	}

	next, reply, err := r.schedule(ctx, state, utterance)
	if errors.Is(err, ErrUnresolvedDate) {
		return state.WithAwaitingDate(true), msgAskDate
	}
	return next, reply
}

// schedule books a call for the date in utterance. The state must hold a contact.
func (r *ConversationRouter) schedule(ctx context.Context, state session.DialogueState, utterance string) (session.DialogueState, string, error) {
	now := r.clock.Now()
	date, ok := r.resolver.Resolve(utterance, now)
	if !ok {
		return state, "", newDialogueError(ErrUnresolvedDate, "no date in utterance", nil)
	}

	call := session.NewScheduledCall(date, *state.Contact, now)
	r.metrics.RecordScheduledCall(ctx)
	slog.Info("call scheduled", "call_id", call.ID, "date", call.Date, "email", contact.Mask(call.Email))

	return state.WithCall(call), confirmationMessage(call), nil
}

// collectContact prompts for every field until the validator accepts it.
// Only a collector error or ctx cancellation stops it.
func (r *ConversationRouter) collectContact(ctx context.Context) (contact.Info, error) {
	if r.collector == nil {
		return contact.Info{}, newDialogueError(ErrDownstreamFailure, "no contact collector configured", nil)
	}

	var info contact.Info
	for _, field := range contact.Fields {
		for attempt := 0; ; attempt++ {
			if err := ctx.Err(); err != nil {
				return contact.Info{}, err
			}

			value, err := r.collector.Prompt(ctx, field, attempt)
			if err != nil {
				return contact.Info{}, newDialogueError(ErrDownstreamFailure, "collect "+string(field), err)
			}

			value = strings.TrimSpace(value)
			if err := contact.Validate(field, value, r.region); err != nil {
				r.metrics.RecordContactRejection(ctx, string(field))
				slog.Debug("contact value rejected",
					"field", field,
					"attempt", attempt,
					"error", newDialogueError(ErrInvalidContact, rejectionReason(err), err))
				continue
			}

			info = info.With(field, value)
			break
		}
	}
	return info, nil
}

func (r *ConversationRouter) handleCancel(state session.DialogueState) (session.DialogueState, string) {
	if !state.HasContact() {
		slog.Debug("cancel without contact", "error", ErrNoActiveContact)
		return state, msgNoActiveCancel
	}
	return state.WithoutContact(), msgCancelled
}

// handleUpdate replaces the one field named in utterance: email, else phone, else name.
// A rejected value leaves the contact unchanged.
func (r *ConversationRouter) handleUpdate(ctx context.Context, state session.DialogueState, utterance string) (session.DialogueState, string) {
	if !state.HasContact() {
		return state, msgNoActiveUpdate
	}

	field, ok := namedField(utterance)
	if !ok {
		return state, msgWhichField
	}
	if r.collector == nil {
		return state, msgUpdateFailed
	}

	value, err := r.collector.Prompt(ctx, field, 0)
	if err != nil {
		slog.Warn("contact update aborted", "field", field, "error", err)
		return state, msgUpdateFailed
	}

	value = strings.TrimSpace(value)
	if err := contact.Validate(field, value, r.region); err != nil {
		r.metrics.RecordContactRejection(ctx, string(field))
		return state, rejectedUpdateMessage(err)
	}

	return state.WithContact(state.Contact.With(field, value)), updatedMessage(field, value)
}

func namedField(utterance string) (contact.Field, bool) {
	lower := strings.ToLower(utterance)
	for _, field := range []contact.Field{contact.FieldEmail, contact.FieldPhone, contact.FieldName} {
		if strings.Contains(lower, string(field)) {
			return field, true
		}
	}
	return "", false
}

// handleDocumentQuery answers from the documents. While a date is pending the
// utterance is first tried as that date.
func (r *ConversationRouter) handleDocumentQuery(ctx context.Context, state session.DialogueState, utterance string) (session.DialogueState, string) {
	if state.AwaitingDate && state.HasContact() {
		if next, reply, err := r.schedule(ctx, state, utterance); err == nil {
			return next, reply
		}
	}

	answer, err := r.answer(ctx, state, utterance)
	if err != nil {
		slog.Warn("document query failed",
			"input", truncateForLog(utterance, timeout.MaxTruncateLength),
			"transient", IsTransient(err),
			"error", err)
		return state, msgAnswerFailed
	}
	return state, answer
}

func (r *ConversationRouter) answer(ctx context.Context, state session.DialogueState, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.answerTimeout)
	defer cancel()

	start := time.Now()
	answer, err := r.answerer.Answer(ctx, question, state.RecentTurns(r.historyWindow))
	r.metrics.RecordAnswer(ctx, time.Since(start), err == nil)
	if err != nil {
		return "", newDialogueError(ErrDownstreamFailure, "document answerer", err)
	}
	return answer, nil
}

func truncateForLog(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
