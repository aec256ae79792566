// Package prompt renders the instructions sent to the completion model: the
// role-play system prompt for a persona (or the generic customer) and the
// evaluation prompt for trainee feedback.
//
// Templates use text/template. The defaults are embedded in the binary and
// can be replaced per deployment. Rendering is deterministic: the same input
// always produces byte-identical output.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"github.com/sirfaxe-ai/aok-training-backend/internal/persona"
)

//go:embed templates/*.tmpl
var defaultFS embed.FS

// Templates holds template source text. Empty fields use the embedded default.
type Templates struct {
	System   string
	Generic  string
	Feedback string
}

// TalkRatio summarises who spoke how much in a speaker-labelled transcript.
type TalkRatio struct {
	TraineeTurns  int
	CustomerTurns int
	TraineeWords  int
	CustomerWords int

	// TraineeShare is the trainee's share of all words, in percent (0–100).
	TraineeShare int
}

// FeedbackData is the input of the feedback template.
type FeedbackData struct {
	// Transcript is the trimmed conversation text.
	Transcript string

	// Persona is the customer the trainee talked to. Nil renders the generic
	// customer sentence.
	Persona *persona.Profile

	// Talk is set when the transcript could be attributed to speakers.
	Talk *TalkRatio

	// NameChecked reports whether NameUsed carries a result.
	NameChecked bool

	// NameUsed reports whether the trainee addressed the customer by surname.
	NameUsed bool
}

// Builder renders prompts from parsed templates. It is immutable and safe for
// concurrent use.
type Builder struct {
	system   *template.Template
	generic  *template.Template
	feedback *template.Template
}

// New parses t and dry-runs every template against sample data so that
// problems surface at start-up instead of on the first request.
func New(t Templates) (*Builder, error) {
	src, err := withDefaults(t)
	if err != nil {
		return nil, err
	}

	b := &Builder{}
	parsed := []struct {
		name string
		text string
		dst  **template.Template
	}{
		{"system", src.System, &b.system},
		{"generic", src.Generic, &b.generic},
		{"feedback", src.Feedback, &b.feedback},
	}
	for _, p := range parsed {
		tmpl, err := template.New(p.name).Option("missingkey=error").Parse(p.text)
		if err != nil {
			return nil, fmt.Errorf("prompt: parse %s template: %w", p.name, err)
		}
		*p.dst = tmpl
	}

	if err := b.dryRun(); err != nil {
		return nil, err
	}
	return b, nil
}

// Default returns a Builder over the embedded templates.
func Default() *Builder {
	b, err := New(Templates{})
	if err != nil {
		panic("prompt: embedded templates: " + err.Error())
	}
	return b
}

// LoadFiles reads template overrides from disk. Empty paths are skipped and
// leave the corresponding field empty (embedded default).
func LoadFiles(systemPath, genericPath, feedbackPath string) (Templates, error) {
	var t Templates
	files := []struct {
		path string
		dst  *string
	}{
		{systemPath, &t.System},
		{genericPath, &t.Generic},
		{feedbackPath, &t.Feedback},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			return Templates{}, fmt.Errorf("prompt: read template %q: %w", f.path, err)
		}
		*f.dst = string(data)
	}
	return t, nil
}

// BuildSystemPrompt renders the role-play instruction for p. A nil profile
// yields the generic customer instruction.
func (b *Builder) BuildSystemPrompt(p *persona.Profile) string {
	if p == nil {
		return b.render(b.generic, genericData{Fallback: persona.FallbackDescription}, "generic")
	}
	return b.render(b.system, p, "system")
}

// BuildFeedbackPrompt renders the evaluation prompt for d.
func (b *Builder) BuildFeedbackPrompt(d FeedbackData) string {
	return b.render(b.feedback, feedbackData{FeedbackData: d, Fallback: persona.FallbackDescription}, "feedback")
}

type genericData struct {
	Fallback string
}

type feedbackData struct {
	FeedbackData
	Fallback string
}

// render executes tmpl. Execution only fails for data the dry run did not
// cover; in that case the embedded default is used so callers always get a
// usable prompt.
func (b *Builder) render(tmpl *template.Template, data any, name string) string {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		slog.Error("prompt: render failed, using embedded template", "template", name, "err", err)
		buf.Reset()
		if err := Default().lookup(name).Execute(&buf, data); err != nil {
			return ""
		}
	}
	return strings.TrimSpace(buf.String())
}

func (b *Builder) lookup(name string) *template.Template {
	switch name {
	case "system":
		return b.system
	case "generic":
		return b.generic
	default:
		return b.feedback
	}
}

func (b *Builder) dryRun() error {
	sample := &persona.Profile{
		ID: "X", Name: "Erika Beispiel", Surname: "Beispiel", Gender: persona.GenderFemale,
		Age: 40, Description: "Beispielkundin.",
	}
	checks := []struct {
		name string
		tmpl *template.Template
		data any
	}{
		{"system", b.system, sample},
		{"generic", b.generic, genericData{Fallback: persona.FallbackDescription}},
		{"feedback", b.feedback, feedbackData{
			FeedbackData: FeedbackData{Transcript: "x", Persona: sample, Talk: &TalkRatio{}, NameChecked: true},
			Fallback:     persona.FallbackDescription,
		}},
		{"feedback", b.feedback, feedbackData{
			FeedbackData: FeedbackData{Transcript: "x"},
			Fallback:     persona.FallbackDescription,
		}},
	}
	for _, c := range checks {
		if err := c.tmpl.Execute(&bytes.Buffer{}, c.data); err != nil {
			return fmt.Errorf("prompt: %s template: %w", c.name, err)
		}
	}
	return nil
}

func withDefaults(t Templates) (Templates, error) {
	fill := []struct {
		dst  *string
		file string
	}{
		{&t.System, "templates/system.tmpl"},
		{&t.Generic, "templates/generic.tmpl"},
		{&t.Feedback, "templates/feedback.tmpl"},
	}
	for _, f := range fill {
		if strings.TrimSpace(*f.dst) != "" {
			continue
		}
		data, err := defaultFS.ReadFile(f.file)
		if err != nil {
			return Templates{}, fmt.Errorf("prompt: read embedded %s: %w", f.file, err)
		}
		*f.dst = string(data)
	}
	return t, nil
}
