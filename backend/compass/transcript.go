package compass

import "strings"

// Speaker tells who wrote a chat message.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// ChatMessage is one line of a transcript.
type ChatMessage struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Transcript is an append-only log of one session's conversation.
// Appending never modifies a transcript value that was handed out earlier.
type Transcript struct {
	messages []ChatMessage
}

// Append returns a transcript with msgs added at the end.
func (t Transcript) Append(msgs ...ChatMessage) Transcript {
	next := make([]ChatMessage, len(t.messages), len(t.messages)+len(msgs))
	copy(next, t.messages)
	return Transcript{messages: append(next, msgs...)}
}

// Messages returns a copy of the log in order.
func (t Transcript) Messages() []ChatMessage {
	out := make([]ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t Transcript) Len() int {
	return len(t.messages)
}

// Exchange is the outcome of one accepted chat turn.
type Exchange struct {
	Rule  string
	User  ChatMessage
	Reply ChatMessage
}

// Converse runs one chat turn. Blank text is ignored: the transcript comes
// back unchanged and ok is false. Otherwise the user message and then the
// reply are appended.
func Converse(t Transcript, text string, c ReplyContext) (Transcript, Exchange, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return t, Exchange{}, false
	}
	rule, reply := Dispatch(text, c)
	ex := Exchange{
		Rule:  rule,
		User:  ChatMessage{Speaker: SpeakerUser, Text: text},
		Reply: ChatMessage{Speaker: SpeakerAssistant, Text: reply},
	}
	return t.Append(ex.User, ex.Reply), ex, true
}
