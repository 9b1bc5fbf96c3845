package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("send failed")
	}
	cp := make(core.Frame, len(f))
	copy(cp, f)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) eventsOfType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []map[string]any
	for _, f := range c.frames {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(f, &ev))
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

func newOrchestrator() *Orchestrator {
	return &Orchestrator{Registry: core.NewRegistry()}
}

// Mirrors a full session: two joins, a message, a reaction, a disconnect.
func TestChatScenario(t *testing.T) {
	o := newOrchestrator()
	room := domain.RoomName("r1")
	alice, bob := &fakeConn{}, &fakeConn{}

	o.Join(room, "alice", "conn-a", alice)
	joins := alice.eventsOfType(t, "join")
	require.Len(t, joins, 1)
	assert.Equal(t, "alice", joins[0]["user"])
	assert.Equal(t, []any{"alice"}, joins[0]["online"])

	o.Join(room, "bob", "conn-b", bob)
	joins = alice.eventsOfType(t, "join")
	require.Len(t, joins, 2)
	assert.Equal(t, []any{"alice", "bob"}, joins[1]["online"])

	o.OnFrame(room, "alice", "conn-a", core.Frame(`{"type":"message","content":"hi"}`))
	var messageID string
	for _, c := range []*fakeConn{alice, bob} {
		msgs := c.eventsOfType(t, "message")
		require.Len(t, msgs, 1)
		assert.Equal(t, "alice", msgs[0]["user"])
		assert.Equal(t, "hi", msgs[0]["content"])
		assert.Equal(t, map[string]any{}, msgs[0]["reactions"])
		require.NotEmpty(t, msgs[0]["message_id"])
		messageID = msgs[0]["message_id"].(string)
	}

	o.OnFrame(room, "bob", "conn-b", core.Frame(`{"type":"add_reaction","message_id":"`+messageID+`","emoji":"👍"}`))
	for _, c := range []*fakeConn{alice, bob} {
		ups := c.eventsOfType(t, "reaction_update")
		require.Len(t, ups, 1)
		assert.Equal(t, "bob", ups[0]["user"])
		assert.Equal(t, messageID, ups[0]["message_id"])
		assert.Equal(t, "👍", ups[0]["emoji"])
		assert.Equal(t, []any{"bob"}, ups[0]["users"])
		assert.Equal(t, map[string]any{"👍": []any{"bob"}}, ups[0]["reactions"])
	}

	o.OnDisconnect(room, "conn-a")
	leaves := bob.eventsOfType(t, "leave")
	require.Len(t, leaves, 1)
	assert.Equal(t, "alice", leaves[0]["user"])
	assert.Equal(t, []any{"bob"}, leaves[0]["online"])
}

func TestReactionFromNonMemberDropped(t *testing.T) {
	o := newOrchestrator()
	room := domain.RoomName("r1")
	alice := &fakeConn{}
	o.Join(room, "alice", "conn-a", alice)
	o.OnFrame(room, "alice", "conn-a", core.Frame(`{"type":"message","content":"hi"}`))
	messageID := alice.eventsOfType(t, "message")[0]["message_id"].(string)

	o.OnFrame(room, "mallory", "conn-m", core.Frame(`{"type":"add_reaction","message_id":"`+messageID+`","emoji":"👍"}`))

	assert.Empty(t, alice.eventsOfType(t, "reaction_update"))
	got, err := o.Registry.GetMessage(room, domain.MessageID(messageID))
	require.NoError(t, err)
	assert.Empty(t, got.Reactions)
}

func TestLegacyReactionKind(t *testing.T) {
	o := newOrchestrator()
	room := domain.RoomName("r1")
	alice := &fakeConn{}
	o.Join(room, "alice", "conn-a", alice)
	o.OnFrame(room, "alice", "conn-a", core.Frame(`{"type":"message","content":"hi"}`))
	messageID := alice.eventsOfType(t, "message")[0]["message_id"].(string)

	o.OnFrame(room, "alice", "conn-a", core.Frame(`{"type":"reaction","message_id":"`+messageID+`","emoji":"🎉","action":"add"}`))
	ups := alice.eventsOfType(t, "reaction_update")
	require.Len(t, ups, 1)
	assert.Equal(t, []any{"alice"}, ups[0]["users"])

	o.OnFrame(room, "alice", "conn-a", core.Frame(`{"type":"reaction","message_id":"`+messageID+`","emoji":"🎉","action":"remove"}`))
	ups = alice.eventsOfType(t, "reaction_update")
	require.Len(t, ups, 2)
	assert.Equal(t, []any{}, ups[1]["users"])
	assert.Equal(t, map[string]any{}, ups[1]["reactions"])
}

func TestRemoveNeverAddedBroadcastsNothing(t *testing.T) {
	o := newOrchestrator()
	room := domain.RoomName("r1")
	alice := &fakeConn{}
	o.Join(room, "alice", "conn-a", alice)
	o.OnFrame(room, "alice", "conn-a", core.Frame(`{"type":"message","content":"hi"}`))
	messageID := alice.eventsOfType(t, "message")[0]["message_id"].(string)

	o.OnFrame(room, "alice", "conn-a", core.Frame(`{"type":"remove_reaction","message_id":"`+messageID+`","emoji":"👍"}`))

	assert.Empty(t, alice.eventsOfType(t, "reaction_update"))
}

func TestMalformedFramesSkipped(t *testing.T) {
	o := newOrchestrator()
	room := domain.RoomName("r1")
	alice := &fakeConn{}
	o.Join(room, "alice", "conn-a", alice)

	frames := []string{
		`not json at all`,
		`{"type":"shrug"}`,
		`{"type":"message"}`,
		`{"type":"reaction","message_id":"m1","emoji":"👍","action":"toggle"}`,
	}
	for _, f := range frames {
		o.OnFrame(room, "alice", "conn-a", core.Frame(f))
	}

	// the session stays healthy: a valid frame still goes through
	o.OnFrame(room, "alice", "conn-a", core.Frame(`{"type":"message","content":"still here"}`))
	msgs := alice.eventsOfType(t, "message")
	require.Len(t, msgs, 1)
	assert.Equal(t, "still here", msgs[0]["content"])
}

func TestCallSignalingRelay(t *testing.T) {
	o := newOrchestrator()
	room := domain.RoomName("r1")
	alice, bob, carol := &fakeConn{}, &fakeConn{}, &fakeConn{}
	o.Join(room, "alice", "conn-a", alice)
	o.Join(room, "bob", "conn-b", bob)
	o.Join(room, "carol", "conn-c", carol)

	offer := `{"type":"call_offer","from_user":"alice","to_user":"bob","call_type":"video","sdp":{"type":"offer","sdp":"v=0"}}`
	o.OnFrame(room, "alice", "conn-a", core.Frame(offer))

	offers := bob.eventsOfType(t, "call_offer")
	require.Len(t, offers, 1)
	assert.Equal(t, "alice", offers[0]["from_user"])
	assert.Equal(t, "video", offers[0]["call_type"])
	require.NotNil(t, offers[0]["sdp"])
	assert.Empty(t, alice.eventsOfType(t, "call_offer"))
	assert.Empty(t, carol.eventsOfType(t, "call_offer"))

	answer := `{"type":"call_answer","from_user":"bob","to_user":"alice","accepted":true}`
	o.OnFrame(room, "bob", "conn-b", core.Frame(answer))
	answers := alice.eventsOfType(t, "call_answer")
	require.Len(t, answers, 1)
	assert.Equal(t, true, answers[0]["accepted"])

	ice := `{"type":"ice_candidate","from_user":"alice","to_user":"bob","candidate":{"candidate":"candidate:1 1 UDP 2122 192.0.2.1 54400 typ host"}}`
	o.OnFrame(room, "alice", "conn-a", core.Frame(ice))
	require.Len(t, bob.eventsOfType(t, "ice_candidate"), 1)

	// signaling to an absent user is silently dropped
	o.OnFrame(room, "alice", "conn-a", core.Frame(`{"type":"call_offer","from_user":"alice","to_user":"ghost","call_type":"audio"}`))
	assert.Empty(t, alice.eventsOfType(t, "call_offer"))
}
