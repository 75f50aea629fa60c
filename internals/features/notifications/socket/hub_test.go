package socket

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendToUserOnlyReachesThatUser(t *testing.T) {
	h := NewHub(nil, "test")
	alice, budi := uuid.New(), uuid.New()
	a1 := h.Register(alice, "student", 4)
	a2 := h.Register(alice, "student", 4)
	b := h.Register(budi, "teacher", 4)

	h.SendToUser(alice, "refund_accepted", map[string]string{"id": "x"})

	for _, c := range []*Client{a1, a2} {
		select {
		case frame := <-c.Messages():
			var msg Message
			require.NoError(t, json.Unmarshal(frame, &msg))
			assert.Equal(t, "refund_accepted", msg.Event)
		default:
			t.Fatalf("koneksi %s tidak menerima frame", c.ID)
		}
	}
	assert.Len(t, b.Messages(), 0)

	h.SendToRole("teacher", "ping", nil)
	assert.Len(t, b.Messages(), 1)
	assert.Len(t, a1.Messages(), 0)
}

func TestFullBufferDropsFrame(t *testing.T) {
	h := NewHub(nil, "test")
	u := uuid.New()
	c := h.Register(u, "student", 1)

	h.SendToUser(u, "one", nil)
	h.SendToUser(u, "two", nil)
	assert.Len(t, c.Messages(), 1)
}

func TestUnregisterClosesChannel(t *testing.T) {
	h := NewHub(nil, "test")
	c := h.Register(uuid.New(), "student", 1)
	require.Equal(t, 1, h.Count())

	h.Unregister(c)
	h.Unregister(c) // idempotent
	assert.Equal(t, 0, h.Count())
	_, open := <-c.Messages()
	assert.False(t, open)
}

func TestRemoteEnvelopeFromSelfIgnored(t *testing.T) {
	h := NewHub(nil, "test")
	u := uuid.New()
	c := h.Register(u, "student", 4)

	self, err := json.Marshal(envelope{Origin: h.nodeID, Kind: targetUser, Target: u.String(), Frame: []byte(`{"event":"x"}`)})
	require.NoError(t, err)
	h.handleRemote(self)
	assert.Len(t, c.Messages(), 0)

	remote, err := json.Marshal(envelope{Origin: "node-lain", Kind: targetUser, Target: u.String(), Frame: []byte(`{"event":"x"}`)})
	require.NoError(t, err)
	h.handleRemote(remote)
	assert.Len(t, c.Messages(), 1)
}
