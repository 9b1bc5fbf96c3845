// Package protocol defines the wire contract: a closed set of inbound and
// outbound payload kinds discriminated by a "type" field.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pion/webrtc/v4"
)

const (
	TypeMessage        = "message"
	TypeJoin           = "join"
	TypeLeave          = "leave"
	TypeReaction       = "reaction"
	TypeAddReaction    = "add_reaction"
	TypeRemoveReaction = "remove_reaction"
	TypeReactionUpdate = "reaction_update"
	TypeCallOffer      = "call_offer"
	TypeCallAnswer     = "call_answer"
	TypeICECandidate   = "ice_candidate"
)

const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

var ErrUnknownType = errors.New("unknown message type")

var validate = validator.New()

// Inbound is the closed union of payloads a client may send.
type Inbound interface{ inbound() }

type ChatMessage struct {
	Type    string `json:"type"`
	Content string `json:"content" validate:"required"`
}

// Reaction is the legacy combined form, kept for wire compatibility with
// clients that predate the split add_reaction/remove_reaction kinds.
type Reaction struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=add remove"`
}

type AddReaction struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
}

type RemoveReaction struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id" validate:"required"`
	Emoji     string `json:"emoji" validate:"required"`
}

// CallOffer through ICECandidate are relayed verbatim to to_user;
// the server never inspects the SDP beyond decoding it.
type CallOffer struct {
	Type     string                     `json:"type"`
	FromUser string                     `json:"from_user" validate:"required"`
	ToUser   string                     `json:"to_user" validate:"required"`
	CallType string                     `json:"call_type" validate:"required,oneof=audio video"`
	SDP      *webrtc.SessionDescription `json:"sdp,omitempty"`
}

type CallAnswer struct {
	Type     string                     `json:"type"`
	FromUser string                     `json:"from_user" validate:"required"`
	ToUser   string                     `json:"to_user" validate:"required"`
	SDP      *webrtc.SessionDescription `json:"sdp,omitempty"`
	Accepted bool                       `json:"accepted"`
}

type ICECandidate struct {
	Type      string                  `json:"type"`
	FromUser  string                  `json:"from_user" validate:"required"`
	ToUser    string                  `json:"to_user" validate:"required"`
	Candidate webrtc.ICECandidateInit `json:"candidate" validate:"required"`
}

func (*ChatMessage) inbound()    {}
func (*Reaction) inbound()       {}
func (*AddReaction) inbound()    {}
func (*RemoveReaction) inbound() {}
func (*CallOffer) inbound()      {}
func (*CallAnswer) inbound()     {}
func (*ICECandidate) inbound()   {}

// DecodeInbound parses one frame into its typed payload. Any frame that is
// not valid JSON, carries an unknown type, or fails field validation comes
// back as an error; the session loop treats that as "skip this frame".
func DecodeInbound(data []byte) (Inbound, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var msg Inbound
	switch env.Type {
	case TypeMessage:
		msg = &ChatMessage{}
	case TypeReaction:
		msg = &Reaction{}
	case TypeAddReaction:
		msg = &AddReaction{}
	case TypeRemoveReaction:
		msg = &RemoveReaction{}
	case TypeCallOffer:
		msg = &CallOffer{}
	case TypeCallAnswer:
		msg = &CallAnswer{}
	case TypeICECandidate:
		msg = &ICECandidate{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	if err := validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("validate %s: %w", env.Type, err)
	}
	return msg, nil
}
