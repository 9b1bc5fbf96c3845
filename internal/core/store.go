package core

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
)

// Message store operations. Each room owns its history; everything here
// mutates under that room's lock and hands out copies only.

// StoreMessage inserts msg into the room's history, keyed by its id. Ids are
// caller-generated and assumed unique; the store does not deduplicate. A
// message for a room that no longer exists is dropped.
func (g *Registry) StoreMessage(roomName domain.RoomName, msg *domain.Message) {
	r, ok := g.lookup(roomName)
	if !ok {
		log.Warn().Str("module", "core.store").Str("room", string(roomName)).Msg("store for absent room")
		return
	}
	r.mu.Lock()
	r.messages[msg.ID] = msg
	r.mu.Unlock()
	metrics.MessagesStored.Inc()
}

// GetMessage returns a copy of the message, reactions included, or
// domain.ErrMessageNotFound.
func (g *Registry) GetMessage(roomName domain.RoomName, id domain.MessageID) (domain.Message, error) {
	r, ok := g.lookup(roomName)
	if !ok {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	cp := *msg
	cp.Reactions = msg.Reactions.Snapshot()
	return cp, nil
}

// AddReaction idempotently records username under emoji on the message and
// returns the emoji's updated user list plus a snapshot of the full
// reaction state. Unknown message id is domain.ErrMessageNotFound.
func (g *Registry) AddReaction(roomName domain.RoomName, id domain.MessageID, emoji, username string) ([]string, domain.ReactionSet, error) {
	r, ok := g.lookup(roomName)
	if !ok {
		return nil, nil, domain.ErrMessageNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, nil, domain.ErrMessageNotFound
	}
	msg.Reactions.Add(emoji, username)
	return msg.Reactions.Users(emoji), msg.Reactions.Snapshot(), nil
}

// RemoveReaction drops username from emoji's user list. changed is false
// when the pair was never there; that is a no-op, not an error.
func (g *Registry) RemoveReaction(roomName domain.RoomName, id domain.MessageID, emoji, username string) (changed bool, users []string, reactions domain.ReactionSet, err error) {
	r, ok := g.lookup(roomName)
	if !ok {
		return false, nil, nil, domain.ErrMessageNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return false, nil, nil, domain.ErrMessageNotFound
	}
	changed = msg.Reactions.Remove(emoji, username)
	return changed, msg.Reactions.Users(emoji), msg.Reactions.Snapshot(), nil
}
