// Package conversation turns a client-supplied chat history into the ordered
// message sequence sent to the completion model.
package conversation

import "strings"

// Role is the author of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// OpeningInstruction is the synthetic first user turn used when the client
// sends no usable history: the phone rings and the persona picks up.
const OpeningInstruction = "Das Gespräch beginnt jetzt. Das Telefon klingelt und du nimmst ab. " +
	"Melde dich so, wie du es als diese Person tun würdest."

// Turn is one message of the assembled sequence.
type Turn struct {
	Role    Role
	Content string
}

// HistoryItem is one message as sent by the client. Both fields are pointers
// so that absent keys can be told apart from empty strings.
type HistoryItem struct {
	Role    *string `json:"role"`
	Content *string `json:"content"`
}

// Assemble builds the message sequence for one completion call.
//
// The result always starts with exactly one system turn carrying
// systemPrompt. Valid history items follow in their original order; an item
// is valid when its role is "user" or "assistant" (case-insensitive, trimmed)
// and its content is present and not blank. Invalid items are skipped. When no
// valid item remains, a single user turn with [OpeningInstruction] follows the
// system turn instead.
func Assemble(systemPrompt string, history []HistoryItem) []Turn {
	turns := make([]Turn, 0, len(history)+1)
	turns = append(turns, Turn{Role: RoleSystem, Content: systemPrompt})

	for _, item := range history {
		if t, ok := normalize(item); ok {
			turns = append(turns, t)
		}
	}

	if len(turns) == 1 {
		turns = append(turns, Turn{Role: RoleUser, Content: OpeningInstruction})
	}
	return turns
}

// normalize converts item to a Turn, reporting false when it must be skipped.
// Content is forwarded unmodified.
func normalize(item HistoryItem) (Turn, bool) {
	if item.Role == nil || item.Content == nil {
		return Turn{}, false
	}
	if strings.TrimSpace(*item.Content) == "" {
		return Turn{}, false
	}
	switch Role(strings.ToLower(strings.TrimSpace(*item.Role))) {
	case RoleUser:
		return Turn{Role: RoleUser, Content: *item.Content}, true
	case RoleAssistant:
		return Turn{Role: RoleAssistant, Content: *item.Content}, true
	default:
		return Turn{}, false
	}
}
