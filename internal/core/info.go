package core

import "github.com/dkeye/Parley/internal/domain"

// RoomInfo is a read-only view for the REST API (no transport fields).
type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}

func (g *Registry) List() []RoomInfo {
	g.mu.RLock()
	rooms := make([]*room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		out = append(out, RoomInfo{Name: r.name, MemberCount: len(r.members)})
		r.mu.Unlock()
	}
	return out
}

// MemberCount returns the number of live connections in a room, zero for an
// absent room. Distinct from the online list length when one username holds
// several connections.
func (g *Registry) MemberCount(name domain.RoomName) int {
	r, ok := g.lookup(name)
	if !ok {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Online returns the room's online usernames, nil for an absent room.
func (g *Registry) Online(name domain.RoomName) []string {
	r, ok := g.lookup(name)
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.online()
}
