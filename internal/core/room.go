package core

import (
	"sync"

	"github.com/dkeye/Parley/internal/domain"
)

type member struct {
	id       ConnID
	username string
	conn     Conn
	// seq orders members by join time; ResolveConn prefers the highest.
	seq uint64
}

// room bundles everything a single room owns: membership, the conn→username
// mapping, and the message history. One mutex guards all of it.
type room struct {
	name domain.RoomName

	mu       sync.Mutex
	closed   bool
	members  map[ConnID]*member
	messages map[domain.MessageID]*domain.Message
}

func newRoom(name domain.RoomName) *room {
	return &room{
		name:     name,
		members:  make(map[ConnID]*member),
		messages: make(map[domain.MessageID]*domain.Message),
	}
}

// online returns the usernames with at least one live connection, first
// join first, each name once. Callers must hold r.mu.
func (r *room) online() []string {
	ordered := make([]*member, 0, len(r.members))
	for _, m := range r.members {
		ordered = append(ordered, m)
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j-1].seq > ordered[j].seq; j-- {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
		}
	}
	seen := make(map[string]struct{}, len(ordered))
	out := make([]string, 0, len(ordered))
	for _, m := range ordered {
		if _, ok := seen[m.username]; ok {
			continue
		}
		seen[m.username] = struct{}{}
		out = append(out, m.username)
	}
	return out
}

// snapshot copies the current member list so broadcast can send without
// holding the lock. Callers must hold r.mu.
func (r *room) snapshot() []*member {
	out := make([]*member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	return out
}
