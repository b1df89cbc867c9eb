package services

import "context"

// Format tells the transport how to render a message
type Format int

const (
	FormatPlain Format = iota
	FormatHTML
)

// String returns the parse mode name used by chat transports
func (f Format) String() string {
	if f == FormatHTML {
		return "HTML"
	}
	return ""
}

// Message is a text notification or command reply
type Message struct {
	Text   string
	Format Format
}

// PlainMessage creates a message sent without markup
func PlainMessage(text string) Message {
	return Message{Text: text, Format: FormatPlain}
}

// HTMLMessage creates a message rendered with the chat HTML subset
func HTMLMessage(text string) Message {
	return Message{Text: text, Format: FormatHTML}
}

// Sender delivers a message to one channel
type Sender interface {
	Send(ctx context.Context, channelID string, msg Message) error
}
