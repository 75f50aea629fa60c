// Package socket: registry koneksi websocket per user/role.
// Antar-proses di-fan-out lewat Redis pub/sub kalau REDIS_ADDR diset.
package socket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Registry: yang dipakai dispatcher untuk kirim event ke client yang sedang online.
type Registry interface {
	SendToUser(userID uuid.UUID, event string, data any)
	SendToRole(role string, event string, data any)
}

// Message: frame yang diterima client.
type Message struct {
	Event  string    `json:"event"`
	Data   any       `json:"data,omitempty"`
	SentAt time.Time `json:"sent_at"`
}

const (
	targetUser = "user"
	targetRole = "role"
)

// envelope: bentuk pesan di channel Redis.
type envelope struct {
	Origin string `json:"origin"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
	Frame  []byte `json:"frame"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Role   string
	send   chan []byte
}

// Messages: frame yang menunggu ditulis ke koneksi.
func (c *Client) Messages() <-chan []byte { return c.send }

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // key: connection id

	rdb     *redis.Client
	channel string
	nodeID  string
}

var _ Registry = (*Hub)(nil)

// NewHub: rdb boleh nil (single instance, tanpa fan-out).
func NewHub(rdb *redis.Client, channel string) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rdb:     rdb,
		channel: channel,
		nodeID:  uuid.NewString(),
	}
}

func (h *Hub) Register(userID uuid.UUID, role string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 32
	}
	c := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		send:   make(chan []byte, buffer),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
}

// Count: jumlah koneksi lokal.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SendToUser(userID uuid.UUID, event string, data any) {
	h.send(targetUser, userID.String(), event, data)
}

func (h *Hub) SendToRole(role string, event string, data any) {
	h.send(targetRole, role, event, data)
}

func (h *Hub) send(kind, target, event string, data any) {
	frame, err := sonic.Marshal(Message{Event: event, Data: data, SentAt: time.Now().UTC()})
	if err != nil {
		log.Printf("[Socket] encode %s: %v", event, err)
		return
	}
	h.deliverLocal(kind, target, frame)

	if h.rdb == nil {
		return
	}
	body, err := sonic.Marshal(envelope{Origin: h.nodeID, Kind: kind, Target: target, Frame: frame})
	if err != nil {
		log.Printf("[Socket] encode envelope: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.rdb.Publish(ctx, h.channel, body).Err(); err != nil {
		log.Printf("[Socket] redis publish: %v", err)
	}
}

func (h *Hub) deliverLocal(kind, target string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		match := (kind == targetUser && c.UserID.String() == target) ||
			(kind == targetRole && c.Role == target)
		if !match {
			continue
		}
		select {
		case c.send <- frame:
		default:
			log.Printf("[Socket] buffer penuh, frame untuk koneksi %s dibuang", c.ID)
		}
	}
}

// Run: subscribe channel Redis sampai ctx selesai. No-op kalau tanpa Redis.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	sub := h.rdb.Subscribe(ctx, h.channel)
	defer sub.Close()

	log.Printf("[Socket] subscribe redis channel %q", h.channel)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleRemote([]byte(msg.Payload))
		}
	}
}

func (h *Hub) handleRemote(payload []byte) {
	var env envelope
	if err := sonic.Unmarshal(payload, &env); err != nil {
		log.Printf("[Socket] decode envelope: %v", err)
		return
	}
	if env.Origin == h.nodeID {
		return
	}
	h.deliverLocal(env.Kind, env.Target, env.Frame)
}
