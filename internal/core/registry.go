package core

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/metrics"
	"github.com/dkeye/Parley/internal/protocol"
)

// Registry owns every room: membership, usernames, message history, and the
// fan-out of state changes. All connections share one Registry, constructed
// once at process start.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]*room
	seq   atomic.Uint64
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomName]*room)}
}

func (g *Registry) getOrCreate(name domain.RoomName) *room {
	g.mu.RLock()
	r, ok := g.rooms[name]
	g.mu.RUnlock()
	if ok {
		return r
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok = g.rooms[name]; ok {
		return r
	}
	r = newRoom(name)
	g.rooms[name] = r
	log.Info().Str("module", "core.registry").Str("room", string(name)).Msg("room created")
	return r
}

func (g *Registry) lookup(name domain.RoomName) (*room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[name]
	return r, ok
}

// Join registers conn under username. It always succeeds; the room is
// created on first join. A join broadcast with the updated online list goes
// to every member, the new one included.
func (g *Registry) Join(roomName domain.RoomName, username string, id ConnID, conn Conn) {
	var online []string
	for {
		r := g.getOrCreate(roomName)
		r.mu.Lock()
		if r.closed {
			// Lost a race with the last leave destroying the room.
			r.mu.Unlock()
			continue
		}
		r.members[id] = &member{id: id, username: username, conn: conn, seq: g.seq.Add(1)}
		online = r.online()
		r.mu.Unlock()
		break
	}
	log.Info().Str("module", "core.registry").Str("room", string(roomName)).
		Str("id", string(id)).Str("user", username).Msg("member joined")
	g.Broadcast(roomName, protocol.PresenceEvent{Type: protocol.TypeJoin, User: username, Online: online})
}

// Leave removes conn from the room and, if it was a member, broadcasts the
// updated online list. The room and its history are destroyed when the last
// member leaves. Idempotent.
func (g *Registry) Leave(roomName domain.RoomName, id ConnID) {
	r, ok := g.lookup(roomName)
	if !ok {
		return
	}
	r.mu.Lock()
	m, ok := r.members[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.members, id)
	online := r.online()
	empty := len(r.members) == 0
	r.mu.Unlock()

	log.Info().Str("module", "core.registry").Str("room", string(roomName)).
		Str("id", string(id)).Str("user", m.username).Msg("member left")
	g.Broadcast(roomName, protocol.PresenceEvent{Type: protocol.TypeLeave, User: m.username, Online: online})

	if empty {
		g.destroyIfEmpty(roomName, r)
	}
}

func (g *Registry) destroyIfEmpty(name domain.RoomName, r *room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.members) != 0 || r.closed || g.rooms[name] != r {
		return
	}
	r.closed = true
	delete(g.rooms, name)
	log.Info().Str("module", "core.registry").Str("room", string(name)).Msg("room destroyed")
}

// IsMember reports whether at least one live connection in the room is
// mapped to username. Gates reaction mutations.
func (g *Registry) IsMember(roomName domain.RoomName, username string) bool {
	r, ok := g.lookup(roomName)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.username == username {
			return true
		}
	}
	return false
}

// ResolveConn returns the connection for username, preferring the most
// recently joined when the same name has several live connections.
func (g *Registry) ResolveConn(roomName domain.RoomName, username string) (Conn, bool) {
	r, ok := g.lookup(roomName)
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *member
	for _, m := range r.members {
		if m.username != username {
			continue
		}
		if best == nil || m.seq > best.seq {
			best = m
		}
	}
	if best == nil {
		return nil, false
	}
	return best.conn, true
}

// Broadcast marshals event once and delivers it to a snapshot of the room's
// members. Failed sends are proof of disconnection: each failed connection
// is evicted via Leave after the pass, which cascades its own leave
// broadcast over a fresh snapshot.
func (g *Registry) Broadcast(roomName domain.RoomName, event any) {
	r, ok := g.lookup(roomName)
	if !ok {
		return
	}
	frame, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "core.registry").Msg("broadcast marshal")
		return
	}

	r.mu.Lock()
	targets := r.snapshot()
	r.mu.Unlock()

	metrics.BroadcastsTotal.Inc()
	var failed []ConnID
	for _, m := range targets {
		if err := m.conn.TrySend(Frame(frame)); err != nil {
			log.Warn().Err(err).Str("module", "core.registry").Str("room", string(roomName)).
				Str("id", string(m.id)).Msg("broadcast send failed, evicting")
			failed = append(failed, m.id)
		}
	}
	for _, id := range failed {
		metrics.DroppedConnections.Inc()
		g.Leave(roomName, id)
	}
}

// SendToUser delivers event to every connection mapped to target in the
// room. No match is a silent no-op; a failed send evicts that one
// connection, same as Broadcast.
func (g *Registry) SendToUser(roomName domain.RoomName, target string, event any) {
	r, ok := g.lookup(roomName)
	if !ok {
		return
	}
	frame, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("module", "core.registry").Msg("relay marshal")
		return
	}

	r.mu.Lock()
	var targets []*member
	for _, m := range r.members {
		if m.username == target {
			targets = append(targets, m)
		}
	}
	r.mu.Unlock()

	for _, m := range targets {
		if err := m.conn.TrySend(Frame(frame)); err != nil {
			log.Warn().Err(err).Str("module", "core.registry").Str("room", string(roomName)).
				Str("id", string(m.id)).Msg("relay send failed, evicting")
			metrics.DroppedConnections.Inc()
			g.Leave(roomName, m.id)
		}
	}
}
