package agent

import (
	"context"

	"github.com/hrygo/callparrot/plugin/ai/contact"
	"github.com/hrygo/callparrot/plugin/ai/session"
)

// ContactCollector asks the user for one contact field.
// The router decides whether the returned value is accepted.
type ContactCollector interface {
	// Prompt returns the user's raw answer for field. attempt is zero on the
	// first ask and counts previous rejections of the same field.
	Prompt(ctx context.Context, field contact.Field, attempt int) (string, error)
}

// DocumentAnswerer answers a question over the loaded documents.
// Errors wrapping ErrTransient are worth retrying later.
type DocumentAnswerer interface {
	Answer(ctx context.Context, question string, history []session.Turn) (string, error)
}
