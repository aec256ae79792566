// Package phonetic finds names in transcribed speech even when the
// recogniser misspelled them ("Hofmann" for "Hoffmann", "Maier" for "Meier").
//
// Matching works in two stages:
//
//  1. Phonetic filtering: Double Metaphone codes are computed for the input
//     word and each candidate. Overlapping codes make a phonetic candidate,
//     accepted when its Jaro-Winkler similarity reaches the phonetic
//     threshold (default 0.85).
//
//  2. Fuzzy fallback: without a phonetic candidate, pure Jaro-Winkler
//     similarity must reach the stricter fuzzy threshold (default 0.90).
//
// German umlauts and ß are folded to their ASCII spellings first so that
// "Krüger", "Krueger" and "KRÜGER" compare equal.
package phonetic

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.85
	defaultFuzzyThreshold    = 0.90
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a
// phonetically matching candidate. Default: 0.85.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score when no phonetic
// candidate exists. Default: 0.90.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher is read-only after construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Matcher] configured with opts.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Hit is a name occurrence found by [Matcher.FindName].
type Hit struct {
	// Word is the token as it appears in the text.
	Word string

	// Score is the Jaro-Winkler similarity to the name (1 for exact).
	Score float64
}

// FindName reports the token in text that best matches name. Tokens are runs
// of letters; tokens shorter than two letters are ignored.
func (m *Matcher) FindName(text, name string) (Hit, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Hit{}, false
	}
	candidates := []string{name}

	var best Hit
	for _, tok := range tokenize(text) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, score, ok := m.Match(tok, candidates); ok && score > best.Score {
			best = Hit{Word: tok, Score: score}
		}
	}
	return best, best.Word != ""
}

// Match returns the candidate most similar to word. When matched is false,
// corrected equals word and confidence is 0.
func (m *Matcher) Match(word string, candidates []string) (corrected string, confidence float64, matched bool) {
	w := fold(word)
	if w == "" || len(candidates) == 0 {
		return word, 0, false
	}
	wCodes := codes(w)

	type candidate struct {
		name     string
		score    float64
		phonetic bool
	}
	var best candidate

	for _, c := range candidates {
		cf := fold(c)
		if cf == "" {
			continue
		}
		if cf == w {
			return c, 1, true
		}

		score := matchr.JaroWinkler(w, cf, false)
		if overlap(wCodes, codes(cf)) {
			if score >= m.phoneticThreshold && (!best.phonetic || score > best.score) {
				best = candidate{name: c, score: score, phonetic: true}
			}
		} else if !best.phonetic && score >= m.fuzzyThreshold && score > best.score {
			best = candidate{name: c, score: score}
		}
	}

	if best.name != "" {
		return best.name, best.score, true
	}
	return word, 0, false
}

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

// fold lowercases s, trims it and spells out umlauts.
func fold(s string) string {
	return umlauts.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
}

// codes returns the non-empty Double Metaphone codes of s.
func codes(s string) map[string]struct{} {
	out := make(map[string]struct{}, 2)
	p, sec := matchr.DoubleMetaphone(s)
	if p != "" {
		out[p] = struct{}{}
	}
	if sec != "" {
		out[sec] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for c := range a {
		if _, ok := b[c]; ok {
			return true
		}
	}
	return false
}
