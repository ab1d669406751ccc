package bot

// Incoming is a chat update reduced to what the command handlers need.
type Incoming struct {
	ChatID    int64
	UserID    int64
	MessageID int
	Text      string

	// Set for inline button presses only. MessageID and Text then refer to
	// the message carrying the button.
	CallbackID   string
	CallbackData string
}

func (in Incoming) IsCallback() bool {
	return in.CallbackID != ""
}

type ReplyKind int

const (
	ReplyMessage ReplyKind = iota
	ReplyDocument
	ReplyEdit
	ReplyCallbackAnswer
)

type Button struct {
	Text string
	Data string
}

// Reply is one action the transport performs in the chat of the update.
type Reply struct {
	Kind     ReplyKind
	Text     string
	Markdown bool
	Keyboard [][]Button

	// ReplyDocument
	Document []byte
	FileName string

	// ReplyEdit
	MessageID int

	// ReplyCallbackAnswer
	CallbackID string
	Alert      bool
}

func message(text string) Reply {
	return Reply{Kind: ReplyMessage, Text: text}
}

func markdown(text string) Reply {
	return Reply{Kind: ReplyMessage, Text: text, Markdown: true}
}

func edit(messageID int, text string) Reply {
	return Reply{Kind: ReplyEdit, MessageID: messageID, Text: text}
}

func answer(callbackID, text string, alert bool) Reply {
	return Reply{Kind: ReplyCallbackAnswer, CallbackID: callbackID, Text: text, Alert: alert}
}
