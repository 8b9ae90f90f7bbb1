package core

import "time"

// Message is the domain model for a relayed chat message.
// Author and Time are client-supplied presentation fields; SenderID,
// SenderName and SentAt are filled in by the hub.
type Message struct {
	ID         string
	Room       string
	Text       string
	ReplyTo    *Reply
	Author     string
	Time       string
	SenderID   string
	SenderName string
	SentAt     time.Time
}

// Reply references the message being answered.
type Reply struct {
	MessageID string
	Text      string
	Author    string
	AuthorID  string
}
