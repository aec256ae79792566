package feedback

import (
	"strings"
	"unicode"

	"github.com/sirfaxe-ai/aok-training-backend/internal/prompt"
)

type speaker int

const (
	speakerUnknown speaker = iota
	speakerTrainee
	speakerCustomer
)

// Speaker labels as the front end and trainers write them, lowercased.
var speakerLabels = map[string]speaker{
	"mitarbeiter":   speakerTrainee,
	"mitarbeiterin": speakerTrainee,
	"berater":       speakerTrainee,
	"beraterin":     speakerTrainee,
	"trainee":       speakerTrainee,
	"user":          speakerTrainee,
	"du":            speakerTrainee,
	"kunde":         speakerCustomer,
	"kundin":        speakerCustomer,
	"ki":            speakerCustomer,
	"ai":            speakerCustomer,
	"assistant":     speakerCustomer,
}

// maxLabelLen bounds what counts as a "Label:" prefix so that ordinary
// sentences containing a colon are not mistaken for speaker changes.
const maxLabelLen = 20

type line struct {
	speaker speaker
	text    string
}

// parseTranscript splits a transcript into speaker turns. Lines starting with
// a known label open a new turn; unlabelled lines continue the previous turn.
// Text before the first label is attributed to nobody.
func parseTranscript(transcript string) []line {
	var out []line
	for _, raw := range strings.Split(transcript, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if sp, rest, ok := splitLabel(raw); ok {
			out = append(out, line{speaker: sp, text: rest})
			continue
		}
		if n := len(out); n > 0 {
			out[n-1].text = strings.TrimSpace(out[n-1].text + " " + raw)
			continue
		}
		out = append(out, line{speaker: speakerUnknown, text: raw})
	}
	return out
}

func splitLabel(s string) (speaker, string, bool) {
	i := strings.IndexByte(s, ':')
	if i <= 0 || i > maxLabelLen {
		return speakerUnknown, "", false
	}
	label := strings.ToLower(strings.Trim(s[:i], " *-[]()"))
	sp, ok := speakerLabels[label]
	if !ok {
		return speakerUnknown, "", false
	}
	return sp, strings.TrimSpace(s[i+1:]), true
}

// talkRatio counts turns and words per speaker. It returns nil when the
// transcript carries no speaker labels or no words.
func talkRatio(lines []line) *prompt.TalkRatio {
	var r prompt.TalkRatio
	for _, l := range lines {
		words := countWords(l.text)
		switch l.speaker {
		case speakerTrainee:
			r.TraineeTurns++
			r.TraineeWords += words
		case speakerCustomer:
			r.CustomerTurns++
			r.CustomerWords += words
		}
	}
	total := r.TraineeWords + r.CustomerWords
	if total == 0 {
		return nil
	}
	r.TraineeShare = (r.TraineeWords*100 + total/2) / total
	return &r
}

// traineeText joins everything the trainee said. It is empty when the
// transcript has no trainee turns.
func traineeText(lines []line) string {
	var parts []string
	for _, l := range lines {
		if l.speaker == speakerTrainee {
			parts = append(parts, l.text)
		}
	}
	return strings.Join(parts, "\n")
}

func countWords(s string) int {
	return len(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}))
}
