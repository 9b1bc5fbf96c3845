package protocol

import (
	"time"

	"github.com/dkeye/Parley/internal/domain"
)

// PresenceEvent announces a join or leave together with the full updated
// online list, so clients never have to reconcile deltas.
type PresenceEvent struct {
	Type   string   `json:"type"`
	User   string   `json:"user"`
	Online []string `json:"online"`
}

type MessageEvent struct {
	Type      string             `json:"type"`
	User      string             `json:"user"`
	Content   string             `json:"content"`
	MessageID string             `json:"message_id"`
	Reactions domain.ReactionSet `json:"reactions"`
	Timestamp time.Time          `json:"timestamp"`
}

// ReactionUpdateEvent carries both the touched emoji's user list and the
// message's full reaction state; the wire shape is the flattened map.
type ReactionUpdateEvent struct {
	Type      string             `json:"type"`
	User      string             `json:"user"`
	MessageID string             `json:"message_id"`
	Emoji     string             `json:"emoji"`
	Users     []string           `json:"users"`
	Reactions domain.ReactionSet `json:"reactions"`
}
