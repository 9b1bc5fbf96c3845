package app

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/protocol"
)

// Orchestrator is the session-facing surface: the transport hands it joins,
// raw frames, and disconnects, and it drives the registry.
type Orchestrator struct {
	Registry *core.Registry
}

func (o *Orchestrator) Join(roomName domain.RoomName, username string, id core.ConnID, conn core.Conn) {
	o.Registry.Join(roomName, username, id, conn)
}

func (o *Orchestrator) OnDisconnect(roomName domain.RoomName, id core.ConnID) {
	o.Registry.Leave(roomName, id)
}

// OnFrame decodes one inbound frame and dispatches by kind. A frame that
// fails decode or validation is skipped; the session keeps running.
func (o *Orchestrator) OnFrame(roomName domain.RoomName, username string, id core.ConnID, data core.Frame) {
	in, err := protocol.DecodeInbound(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "app.orchestrator").Str("id", string(id)).Msg("frame dropped")
		return
	}

	switch p := in.(type) {
	case *protocol.ChatMessage:
		o.handleMessage(roomName, username, p)
	case *protocol.AddReaction:
		o.applyReaction(roomName, username, domain.MessageID(p.MessageID), p.Emoji, protocol.ActionAdd)
	case *protocol.RemoveReaction:
		o.applyReaction(roomName, username, domain.MessageID(p.MessageID), p.Emoji, protocol.ActionRemove)
	case *protocol.Reaction:
		o.applyReaction(roomName, username, domain.MessageID(p.MessageID), p.Emoji, p.Action)
	case *protocol.CallOffer:
		o.Registry.SendToUser(roomName, p.ToUser, p)
	case *protocol.CallAnswer:
		o.Registry.SendToUser(roomName, p.ToUser, p)
	case *protocol.ICECandidate:
		o.Registry.SendToUser(roomName, p.ToUser, p)
	}
}

func (o *Orchestrator) handleMessage(roomName domain.RoomName, username string, p *protocol.ChatMessage) {
	msg := domain.NewMessage(domain.MessageID(uuid.NewString()), username, p.Content)
	o.Registry.StoreMessage(roomName, msg)
	o.Registry.Broadcast(roomName, protocol.MessageEvent{
		Type:      protocol.TypeMessage,
		User:      username,
		Content:   p.Content,
		MessageID: string(msg.ID),
		Reactions: msg.Reactions.Snapshot(),
		Timestamp: msg.Timestamp,
	})
}

// applyReaction gates every reaction path, the legacy combined kind
// included, on live room membership. An add always broadcasts when the
// message exists; a remove broadcasts only when something actually changed.
func (o *Orchestrator) applyReaction(roomName domain.RoomName, username string, msgID domain.MessageID, emoji, action string) {
	if !o.Registry.IsMember(roomName, username) {
		log.Debug().Str("module", "app.orchestrator").Str("room", string(roomName)).
			Str("user", username).Msg("reaction from non-member dropped")
		return
	}

	var (
		users     []string
		reactions domain.ReactionSet
		err       error
	)
	changed := true
	switch action {
	case protocol.ActionAdd:
		users, reactions, err = o.Registry.AddReaction(roomName, msgID, emoji, username)
	case protocol.ActionRemove:
		changed, users, reactions, err = o.Registry.RemoveReaction(roomName, msgID, emoji, username)
	default:
		return
	}
	if err != nil || !changed {
		return
	}

	o.Registry.Broadcast(roomName, protocol.ReactionUpdateEvent{
		Type:      protocol.TypeReactionUpdate,
		User:      username,
		MessageID: string(msgID),
		Emoji:     emoji,
		Users:     users,
		Reactions: reactions,
	})
}
