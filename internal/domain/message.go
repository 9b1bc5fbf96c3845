package domain

import (
	"errors"
	"time"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageID string

// Message is immutable once stored, except for its Reactions.
// It lives only inside its room and dies with the room.
type Message struct {
	ID        MessageID
	User      string
	Content   string
	Timestamp time.Time
	Reactions ReactionSet
}

// NewMessage avoids raw literals in callers and keeps construction obvious.
func NewMessage(id MessageID, user, content string) *Message {
	return &Message{
		ID:        id,
		User:      user,
		Content:   content,
		Timestamp: time.Now(),
		Reactions: ReactionSet{},
	}
}
