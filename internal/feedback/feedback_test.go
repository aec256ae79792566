package feedback_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sirfaxe-ai/aok-training-backend/internal/conversation"
	"github.com/sirfaxe-ai/aok-training-backend/internal/feedback"
	"github.com/sirfaxe-ai/aok-training-backend/internal/gateway"
	"github.com/sirfaxe-ai/aok-training-backend/internal/persona"
	"github.com/sirfaxe-ai/aok-training-backend/internal/phonetic"
	"github.com/sirfaxe-ai/aok-training-backend/internal/prompt"
)

// fakeCompleter records every call and returns a fixed reply.
type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls [][]conversation.Turn
}

func (f *fakeCompleter) Complete(_ context.Context, turns []conversation.Turn, _ gateway.CompletionOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, turns)
	return f.reply, f.err
}

func (f *fakeCompleter) Calls() [][]conversation.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]conversation.Turn(nil), f.calls...)
}

// ── Compose ─────────────────────────────────────────────────────────────────

func TestCompose_SendsSingleUserTurn(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{reply: "  Note 2, gut gemacht.\n"}
	c := feedback.NewComposer(fc, persona.Builtin(), prompt.Default())

	out, err := c.Compose(context.Background(), feedback.Request{
		Transcript: "  Guten Tag, hier ist die AOK.  ",
		ProfileID:  "K1",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if out != "Note 2, gut gemacht." {
		t.Errorf("Compose = %q, want trimmed reply", out)
	}

	calls := fc.Calls()
	if len(calls) != 1 {
		t.Fatalf("completer calls = %d, want 1", len(calls))
	}
	turns := calls[0]
	if len(turns) != 1 || turns[0].Role != conversation.RoleUser {
		t.Fatalf("turns = %+v, want one user turn", turns)
	}
	for _, want := range []string{"Daniel Koch", "Guten Tag, hier ist die AOK."} {
		if !strings.Contains(turns[0].Content, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCompose_BlankTranscript(t *testing.T) {
	t.Parallel()

	for _, transcript := range []string{"", "   ", "\n\t"} {
		fc := &fakeCompleter{reply: "x"}
		c := feedback.NewComposer(fc, persona.Builtin(), nil)

		_, err := c.Compose(context.Background(), feedback.Request{Transcript: transcript})
		var ve *feedback.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Compose(%q) error = %v, want *ValidationError", transcript, err)
		}
		if !errors.Is(err, feedback.ErrEmptyTranscript) {
			t.Errorf("Compose(%q) error does not wrap ErrEmptyTranscript", transcript)
		}
		if n := len(fc.Calls()); n != 0 {
			t.Errorf("completer called %d times for blank transcript", n)
		}
	}
}

func TestCompose_UnknownProfileUsesGenericCustomer(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{reply: "ok"}
	c := feedback.NewComposer(fc, persona.Builtin(), nil)

	if _, err := c.Compose(context.Background(), feedback.Request{Transcript: "Hallo", ProfileID: "K99"}); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	got := fc.Calls()[0][0].Content
	if !strings.Contains(got, persona.FallbackDescription) {
		t.Errorf("prompt does not contain fallback description:\n%s", got)
	}
}

func TestCompose_PropagatesGatewayError(t *testing.T) {
	t.Parallel()

	gwErr := &gateway.GatewayError{Kind: gateway.KindCompletion, Code: gateway.CodeProviderError, Message: "boom"}
	c := feedback.NewComposer(&fakeCompleter{err: gwErr}, nil, nil)

	_, err := c.Compose(context.Background(), feedback.Request{Transcript: "Hallo"})
	var ge *gateway.GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("Compose error = %v, want *GatewayError", err)
	}
	if ge.Code != gateway.CodeProviderError {
		t.Errorf("code = %s, want %s", ge.Code, gateway.CodeProviderError)
	}
}

// ── BuildFeedbackPrompt ─────────────────────────────────────────────────────

func TestBuildFeedbackPrompt_Sections(t *testing.T) {
	t.Parallel()

	c := feedback.NewComposer(&fakeCompleter{}, persona.Builtin(), nil)
	out := c.BuildFeedbackPrompt("Hallo", persona.Builtin().Resolve("K2"))

	for _, want := range []string{"Jasmin Hoffmann", "Hallo", "Schulnote", "Redeanteil", "Verbesserungen"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(out, "PERSÖNLICHE ANSPRACHE") {
		t.Error("prompt contains name check without a name finder")
	}
}

func TestBuildFeedbackPrompt_NameCheck(t *testing.T) {
	t.Parallel()

	k2 := persona.Builtin().Resolve("K2")
	c := feedback.NewComposer(&fakeCompleter{}, persona.Builtin(), nil,
		feedback.WithNameFinder(phonetic.New()))

	tests := []struct {
		name       string
		transcript string
		want       string
	}{
		{
			name:       "trainee misspelled surname",
			transcript: "Kunde: Hoffmann?\nMitarbeiter: Guten Tag Frau Hofmann, hier ist die AOK.",
			want:       "mit seinem Nachnamen angesprochen",
		},
		{
			name:       "only customer says surname",
			transcript: "Kunde: Hoffmann?\nMitarbeiter: Guten Tag, hier ist die AOK.",
			want:       "Nachnamen des Kunden nicht verwendet",
		},
		{
			name:       "unlabelled transcript",
			transcript: "Guten Tag Frau Hoffmann, haben Sie kurz Zeit?",
			want:       "mit seinem Nachnamen angesprochen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := c.BuildFeedbackPrompt(tt.transcript, k2)
			if !strings.Contains(out, tt.want) {
				t.Errorf("prompt missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestBuildFeedbackPrompt_NoNameCheckWithoutPersona(t *testing.T) {
	t.Parallel()

	c := feedback.NewComposer(&fakeCompleter{}, nil, nil, feedback.WithNameFinder(phonetic.New()))
	out := c.BuildFeedbackPrompt("Guten Tag", nil)

	if strings.Contains(out, "PERSÖNLICHE ANSPRACHE") {
		t.Error("generic prompt contains name check")
	}
	if !strings.Contains(out, persona.FallbackDescription) {
		t.Error("generic prompt missing fallback description")
	}
}

func TestBuildFeedbackPrompt_TalkRatio(t *testing.T) {
	t.Parallel()

	c := feedback.NewComposer(&fakeCompleter{}, nil, nil)
	out := c.BuildFeedbackPrompt("Mitarbeiter: eins zwei drei\nKunde: vier", nil)

	for _, want := range []string{"GESPRÄCHSANTEILE", "3 Wörter", "Redeanteil Mitarbeiter: 75 %"} {
		if !strings.Contains(out, want) {
			t.Errorf("prompt missing %q:\n%s", want, out)
		}
	}
}
