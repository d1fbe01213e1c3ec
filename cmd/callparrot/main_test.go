package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/callparrot/internal/profile"
	"github.com/hrygo/callparrot/plugin/ai/agent"
	"github.com/hrygo/callparrot/plugin/ai/aitime"
	"github.com/hrygo/callparrot/plugin/ai/contact"
	"github.com/hrygo/callparrot/plugin/ai/session"
	"github.com/hrygo/callparrot/store/db"
)

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "callparrot dev")
	assert.Contains(t, out, "commit: none")
}

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"classify", "book a call next friday"}, "schedule_request\tscheduling_keyword\n"},
		{[]string{"classify", "what", "is", "in", "the", "report"}, "document_query\tfallback\n"},
		{[]string{"classify", "clear", "history"}, "clear_history\tclear_command\n"},
		{[]string{"classify", "--has-contact", "please change my email"}, "update_info_request\tcontact_change_field\n"},
		{[]string{"classify", "please change my email"}, "document_query\tfallback\n"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args[1:], " "), func(t *testing.T) {
			out, err := execute(t, "", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestClassifyCommand_RequiresUtterance(t *testing.T) {
	_, err := execute(t, "", "classify")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"today", []string{"resolve", "--now", "2026-11-10", "today"}, "2026-11-10\n"},
		{"tomorrow", []string{"resolve", "--now", "2026-11-10", "tomorrow"}, "2026-11-11\n"},
		{"short slash date", []string{"resolve", "--now", "2026-11-10", "12/25"}, "2026-12-25\n"},
		{"multi-word", []string{"resolve", "--now", "2026-11-10", "next", "friday"}, "2026-11-13\n"},
		{"rfc3339", []string{"resolve", "--now", "2026-11-10T08:00:00Z", "today"}, "2026-11-10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestResolveCommand_Errors(t *testing.T) {
	_, err := execute(t, "", "resolve", "--now", "2026-11-10", "whenever suits")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no date found")

	_, err = execute(t, "", "resolve", "--now", "yesterday-ish", "today")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --now")
}

func TestParseNow_UsesLocation(t *testing.T) {
	loc, err := aitime.LoadLocation("Asia/Kathmandu")
	require.NoError(t, err)

	// 20:00 UTC is already the next day in Kathmandu.
	now, err := parseNow("2026-11-10T20:00:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, aitime.Date{Year: 2026, Month: time.November, Day: 11}, aitime.DateOf(now))
}

func TestRootCommand_InvalidConfiguration(t *testing.T) {
	_, err := execute(t, "", "--driver", "mongo", "classify", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

// scriptReader replays fixed lines, then reports io.EOF.
type scriptReader struct {
	lines []string
}

func (s *scriptReader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newTestDispatcher(collector agent.ContactCollector, store session.Store) *agent.Dispatcher {
	router := agent.NewConversationRouter(agent.RouterConfig{
		Collector: collector,
		Answerer:  &agent.MockAnswerer{Reply: "The report covers Q3."},
		Clock:     aitime.FixedClock{T: time.Date(2026, 11, 10, 14, 30, 0, 0, time.UTC)},
	})
	return agent.NewDispatcher(router, store)
}

func TestRunREPL(t *testing.T) {
	collector := agent.NewMockCollector(map[contact.Field][]string{
		contact.FieldName:  {"Ana"},
		contact.FieldEmail: {"ana@example.com"},
		contact.FieldPhone: {"+16502530000"},
	})
	store := session.NewMemoryStore()
	d := newTestDispatcher(collector, store)

	in := &scriptReader{lines: []string{
		"what is in the report",
		"",
		"book a call next friday",
		"show scheduled calls",
		"quit",
		"never read",
	}}
	var out bytes.Buffer

	require.NoError(t, runREPL(context.Background(), in, &out, d, "s1"))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Chatbot initialized. Type 'quit' to exit.\n"))
	assert.Contains(t, text, "Bot: The report covers Q3.\n")
	assert.Contains(t, text, "I've scheduled a call for 2026-11-13")
	assert.Contains(t, text, "- Date: 2026-11-13, Name: Ana")
	assert.Contains(t, text, "Goodbye!")
	assert.Equal(t, []string{"never read"}, in.lines)

	// quit ends the session.
	assert.Equal(t, 0, store.Len())
}

func TestRunREPL_EndOfInputKeepsSession(t *testing.T) {
	store := session.NewMemoryStore()
	d := newTestDispatcher(agent.NewMockCollector(nil), store)

	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), &scriptReader{lines: []string{"help"}}, &out, d, "s1"))

	assert.Contains(t, out.String(), "Bot: I can help you with the following:")
	assert.NotContains(t, out.String(), "Goodbye!")
	assert.Equal(t, 1, store.Len())
}

func TestRunREPL_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDispatcher(agent.NewMockCollector(nil), session.NewMemoryStore())
	var out bytes.Buffer
	assert.NoError(t, runREPL(ctx, &scriptReader{lines: []string{"help"}}, &out, d, "s1"))
	assert.NotContains(t, out.String(), "Bot:")
}

func TestChatCommand_Memory(t *testing.T) {
	out, err := execute(t, "help\nshow scheduled calls\nwhat is in the report\n", "chat", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "Chatbot initialized.")
	assert.Contains(t, out, "Bot: I can help you with the following:")
	assert.Contains(t, out, "Bot: No scheduled calls at the moment.")
}

func TestChatCommand_ResumesSQLiteSession(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "sessions.db")
	args := []string{"chat", "--driver", "sqlite", "--dsn", dsn, "--session", "resume-me", "--log-level", "error"}

	out, err := execute(t, "book a call on 03/15/2027\nAna\nnot-an-email\nana@example.com\n+16502530000\n", args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Please enter your name: ")
	assert.Contains(t, out, "Invalid email format. Please try again.")
	assert.Contains(t, out, "I've scheduled a call for 2027-03-15")

	out, err = execute(t, "show scheduled calls\n", args...)
	require.NoError(t, err)
	assert.Contains(t, out, "- Date: 2027-03-15, Name: Ana, Email: ana@example.com")
}

func TestSessionsPurge(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "sessions.db")

	driver, err := db.Open(ctx, &profile.Profile{Driver: profile.DriverSQLite, DSN: dsn})
	require.NoError(t, err)

	now := time.Now()
	stale := session.NewSQLStore(driver, nil).WithClock(func() time.Time { return now.Add(-60 * 24 * time.Hour) })
	fresh := session.NewSQLStore(driver, nil)
	require.NoError(t, stale.Save(ctx, "stale", session.DialogueState{}))
	require.NoError(t, fresh.Save(ctx, "fresh", session.DialogueState{}))
	require.NoError(t, driver.Close())

	out, err := execute(t, "", "--driver", "sqlite", "--dsn", dsn, "sessions", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 1 session(s)")

	out, err = execute(t, "", "--driver", "sqlite", "--dsn", dsn, "sessions", "purge", "--older-than", "24h")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 0 session(s) idle for more than 24h0m0s")
}

func TestSessionsPurge_MemoryDriver(t *testing.T) {
	_, err := execute(t, "", "--driver", "memory", "sessions", "purge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory driver")
}
