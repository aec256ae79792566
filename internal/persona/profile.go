// Package persona holds the simulated customers a trainee can be put on the
// phone with.
//
// A [Registry] is built once at start-up, either from the built-in table
// ([Builtin]) or from a YAML file ([LoadFile]), and is read-only afterwards.
// It is safe for unlimited concurrent readers.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

// FallbackDescription is the persona context used whenever no profile could be
// resolved for a request.
const FallbackDescription = "unbestimmter Privatkunde, neutrale Stimmung"

// GenericID is the label used in logs and metrics for requests served
// without a resolved profile.
const GenericID = "generic"

// MinSpeechRate and MaxSpeechRate bound [Profile.SpeechRate] when set.
const (
	MinSpeechRate = 0.25
	MaxSpeechRate = 4.0
)

// Gender is the grammatical gender used for greetings and voice defaults.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "unspecified"
)

// IsValid reports whether g is one of the defined genders.
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnspecified:
		return true
	}
	return false
}

// Honorific returns the German form of address for g ("Herr", "Frau"), or the
// empty string for [GenderUnspecified].
func (g Gender) Honorific() string {
	switch g {
	case GenderMale:
		return "Herr"
	case GenderFemale:
		return "Frau"
	default:
		return ""
	}
}

// Profile is one simulated customer.
type Profile struct {
	// ID is the key the training UI sends (e.g. "K1").
	ID string `yaml:"id" json:"id"`

	// Name is the full display name (e.g. "Daniel Koch").
	Name string `yaml:"name" json:"name"`

	// Surname is the name the persona answers the phone with.
	Surname string `yaml:"surname" json:"surname"`

	// Gender drives the honorific in greetings and the default voice.
	Gender Gender `yaml:"gender" json:"gender"`

	// Age in years. Zero means unknown.
	Age int `yaml:"age,omitempty" json:"age,omitempty"`

	// Description is the free-text behaviour: temperament, life situation,
	// typical phrases.
	Description string `yaml:"description" json:"-"`

	// SpeechRate is the speaking-rate multiplier for synthesis. Zero means the
	// synthesis default.
	SpeechRate float64 `yaml:"speech_rate,omitempty" json:"-"`

	// Voice is an explicit synthesis voice. Empty means derive from Gender.
	Voice string `yaml:"voice,omitempty" json:"-"`

	// Style is an optional delivery instruction for the speech model.
	Style string `yaml:"style,omitempty" json:"-"`
}

// Greetings returns the acceptable ways this persona picks up the phone, most
// typical first. Only the persona's own surname is ever used.
func (p *Profile) Greetings() []string {
	if p.Surname == "" {
		return []string{"Ja?", "Hallo?"}
	}
	out := []string{
		p.Surname + "?",
		"Ja, " + p.Surname + "?",
	}
	if h := p.Gender.Honorific(); h != "" {
		out = append(out, fmt.Sprintf("Ja, %s %s?", h, p.Surname))
	}
	return append(out, "Ja?", "Hallo?")
}

// normalize trims text fields and defaults an empty gender to unspecified.
func (p *Profile) normalize() {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Surname = strings.TrimSpace(p.Surname)
	p.Description = strings.TrimSpace(p.Description)
	p.Voice = strings.ToLower(strings.TrimSpace(p.Voice))
	p.Style = strings.TrimSpace(p.Style)
	p.Gender = Gender(strings.ToLower(strings.TrimSpace(string(p.Gender))))
	if p.Gender == "" {
		p.Gender = GenderUnspecified
	}
}

// Validate checks a normalized profile for required fields and valid values.
//
// Rules:
//   - ID, Name and Surname must be non-empty.
//   - Gender must be a recognised [Gender].
//   - Age must not be negative.
//   - SpeechRate, when set, must lie within [MinSpeechRate, MaxSpeechRate].
func Validate(p Profile) error {
	var errs []error

	if p.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if p.Surname == "" {
		errs = append(errs, errors.New("surname must not be empty"))
	}
	if !p.Gender.IsValid() {
		errs = append(errs, fmt.Errorf("gender %q is not one of male, female, unspecified", p.Gender))
	}
	if p.Age < 0 {
		errs = append(errs, fmt.Errorf("age %d must not be negative", p.Age))
	}
	if p.SpeechRate != 0 && (p.SpeechRate < MinSpeechRate || p.SpeechRate > MaxSpeechRate) {
		errs = append(errs, fmt.Errorf("speech_rate %.2f must be within [%.2f, %.2f]", p.SpeechRate, MinSpeechRate, MaxSpeechRate))
	}

	return errors.Join(errs...)
}
