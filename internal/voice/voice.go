// Package voice maps a persona to the synthesis voice, speaking rate and
// delivery style used for its replies.
package voice

import (
	"slices"

	"github.com/sirfaxe-ai/aok-training-backend/internal/persona"
)

// Default voices.
const (
	// Default is used when nothing else resolves to a valid voice.
	Default = "alloy"

	// DefaultMale is used for male personas without an explicit voice.
	DefaultMale = "ash"

	// DefaultFemale is used for female personas without an explicit voice.
	DefaultFemale = "coral"
)

// valid is the fixed set of voices the speech model accepts.
var valid = []string{
	"alloy", "ash", "ballad", "coral", "echo", "fable", "nova",
	"onyx", "sage", "shimmer", "verse", "marin", "cedar",
}

// IsValid reports whether name is an accepted voice. Matching is exact.
func IsValid(name string) bool {
	return slices.Contains(valid, name)
}

// Valid returns a copy of the accepted voice names.
func Valid() []string {
	return slices.Clone(valid)
}

// Selection is the resolved synthesis setup for one reply.
type Selection struct {
	// Voice is always a member of [Valid].
	Voice string

	// Speed is the speaking-rate multiplier. Nil means the synthesis default.
	Speed *float64

	// Style is an optional delivery instruction. Empty means none.
	Style string
}

// Resolve returns the voice selection for p. A nil profile yields the
// unspecified-gender default with no speed or style. The returned Voice is
// always valid.
func Resolve(p *persona.Profile) Selection {
	if p == nil {
		return Selection{Voice: byGender(persona.GenderUnspecified)}
	}

	sel := Selection{Style: p.Style}
	if IsValid(p.Voice) {
		sel.Voice = p.Voice
	} else {
		sel.Voice = byGender(p.Gender)
	}
	if !IsValid(sel.Voice) {
		sel.Voice = Default
	}
	if p.SpeechRate > 0 {
		rate := p.SpeechRate
		sel.Speed = &rate
	}
	return sel
}

func byGender(g persona.Gender) string {
	switch g {
	case persona.GenderMale:
		return DefaultMale
	case persona.GenderFemale:
		return DefaultFemale
	default:
		return Default
	}
}
