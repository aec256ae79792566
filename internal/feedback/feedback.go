// Package feedback evaluates a finished training call. It renders the
// evaluation prompt for the customer persona, enriches it with statistics
// derived from the transcript and asks the completion model for a written
// assessment.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sirfaxe-ai/aok-training-backend/internal/conversation"
	"github.com/sirfaxe-ai/aok-training-backend/internal/gateway"
	"github.com/sirfaxe-ai/aok-training-backend/internal/observe"
	"github.com/sirfaxe-ai/aok-training-backend/internal/persona"
	"github.com/sirfaxe-ai/aok-training-backend/internal/phonetic"
	"github.com/sirfaxe-ai/aok-training-backend/internal/prompt"
)

// ErrEmptyTranscript is wrapped by the [ValidationError] returned for a blank
// transcript.
var ErrEmptyTranscript = errors.New("transcript is empty")

// ValidationError reports a request the caller must fix.
type ValidationError struct {
	Field string
	Err   error
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("feedback: invalid %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ValidationError) Unwrap() error { return e.Err }

// Completer produces a model reply for an assembled conversation.
// [*gateway.Completion] satisfies it.
type Completer interface {
	Complete(ctx context.Context, turns []conversation.Turn, opts gateway.CompletionOptions) (string, error)
}

// NameFinder locates a name in free text. [*phonetic.Matcher] satisfies it.
type NameFinder interface {
	FindName(text, name string) (phonetic.Hit, bool)
}

// Request is one feedback request.
type Request struct {
	Transcript string
	ProfileID  string
}

// Option configures a [Composer].
type Option func(*Composer)

// WithNameFinder enables the surname check. Without it the prompt carries no
// statement about personal address.
func WithNameFinder(f NameFinder) Option {
	return func(c *Composer) { c.names = f }
}

// WithCompletionOptions sets the model parameters for feedback calls.
func WithCompletionOptions(o gateway.CompletionOptions) Option {
	return func(c *Composer) { c.opts = o }
}

// Composer builds evaluation prompts and obtains feedback text. It holds only
// read-only collaborators and is safe for concurrent use.
type Composer struct {
	completer Completer
	personas  *persona.Registry
	prompts   *prompt.Builder
	names     NameFinder
	opts      gateway.CompletionOptions
}

// NewComposer returns a Composer. A nil registry resolves every profile id to
// the generic customer; a nil builder uses the embedded templates.
func NewComposer(completer Completer, personas *persona.Registry, prompts *prompt.Builder, opts ...Option) *Composer {
	if prompts == nil {
		prompts = prompt.Default()
	}
	c := &Composer{
		completer: completer,
		personas:  personas,
		prompts:   prompts,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BuildFeedbackPrompt renders the evaluation prompt for transcript. A nil
// profile renders the generic customer sentence.
func (c *Composer) BuildFeedbackPrompt(transcript string, profile *persona.Profile) string {
	transcript = strings.TrimSpace(transcript)
	lines := parseTranscript(transcript)

	data := prompt.FeedbackData{
		Transcript: transcript,
		Persona:    profile,
		Talk:       talkRatio(lines),
	}

	if c.names != nil && profile != nil && profile.Surname != "" {
		text := traineeText(lines)
		if text == "" {
			text = transcript
		}
		_, data.NameUsed = c.names.FindName(text, profile.Surname)
		data.NameChecked = true
	}
	return c.prompts.BuildFeedbackPrompt(data)
}

// Compose validates req, renders the evaluation prompt and returns the
// trimmed model answer. A blank transcript yields a [*ValidationError];
// completion failures are returned as produced by the [Completer].
func (c *Composer) Compose(ctx context.Context, req Request) (string, error) {
	transcript := strings.TrimSpace(req.Transcript)
	if transcript == "" {
		return "", &ValidationError{Field: "transcript", Err: ErrEmptyTranscript}
	}

	profile := c.personas.Resolve(req.ProfileID)
	if profile == nil && req.ProfileID != "" {
		observe.Logger(ctx).Debug("feedback: unknown profile, using generic customer",
			slog.String("profile_id", req.ProfileID))
	}

	turns := []conversation.Turn{{
		Role:    conversation.RoleUser,
		Content: c.BuildFeedbackPrompt(transcript, profile),
	}}
	out, err := c.completer.Complete(ctx, turns, c.opts)
	if err != nil {
		return "", fmt.Errorf("feedback: compose: %w", err)
	}
	return strings.TrimSpace(out), nil
}
