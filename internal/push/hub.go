// Package push maintains the pool of live per-tenant push channels used to
// deliver configuration updates without polling.
package push

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Inbound and outbound message kinds on a push channel.
const (
	MessageConfigRequest = "config_request"
	MessageHeartbeat     = "heartbeat"
	MessageConfigUpdate  = "config_update"
)

// InboundMessage is the envelope tenants send over a push channel.
type InboundMessage struct {
	Type string `json:"type"`
}

// Channel is one open push connection belonging to a tenant. A tenant may
// hold several channels at once (multiple backend processes).
type Channel struct {
	id       string
	tenantID uuid.UUID
	outbound chan []byte
}

func (c *Channel) ID() string {
	return c.id
}

func (c *Channel) TenantID() uuid.UUID {
	return c.tenantID
}

// Outbound returns the channel the connection writer drains.
func (c *Channel) Outbound() <-chan []byte {
	return c.outbound
}

// Send queues data without blocking. Returns false if the buffer is full
// (slow consumer); the message is dropped rather than stalling fan-out.
func (c *Channel) Send(data []byte) bool {
	select {
	case c.outbound <- data:
		return true
	default:
		log.Printf("WARN: push channel %s for tenant %s is full, dropping message", c.id, c.tenantID)
		return false
	}
}

// Hub owns the tenant-to-channels map. All mutation and iteration happens
// under the hub lock; a channel is never written to after removal.
type Hub struct {
	mu      sync.RWMutex
	tenants map[uuid.UUID]map[*Channel]struct{}
}

func NewHub() *Hub {
	return &Hub{
		tenants: make(map[uuid.UUID]map[*Channel]struct{}),
	}
}

// Register opens a new channel for tenantID and adds it to the tenant's set.
func (h *Hub) Register(tenantID uuid.UUID) *Channel {
	ch := &Channel{
		id:       uuid.NewString(),
		tenantID: tenantID,
		outbound: make(chan []byte, 64),
	}

	h.mu.Lock()
	set, ok := h.tenants[tenantID]
	if !ok {
		set = make(map[*Channel]struct{})
		h.tenants[tenantID] = set
	}
	set[ch] = struct{}{}
	total := len(set)
	h.mu.Unlock()

	log.Printf("Push channel %s registered for tenant %s (%d open)", ch.id, tenantID, total)
	return ch
}

// Unregister removes ch from its tenant's set and closes its outbound
// buffer. When the set becomes empty the tenant entry is dropped entirely.
func (h *Hub) Unregister(ch *Channel) {
	h.mu.Lock()
	set, ok := h.tenants[ch.tenantID]
	if ok {
		if _, present := set[ch]; present {
			delete(set, ch)
			close(ch.outbound)
		}
		if len(set) == 0 {
			delete(h.tenants, ch.tenantID)
		}
	}
	h.mu.Unlock()

	log.Printf("Push channel %s unregistered for tenant %s", ch.id, ch.tenantID)
}

// SendToTenant fans data out to every open channel of tenantID and reports
// how many channels accepted it.
func (h *Hub) SendToTenant(tenantID uuid.UUID, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for ch := range h.tenants[tenantID] {
		if ch.Send(data) {
			sent++
		}
	}
	return sent
}

// Broadcast sends data to every open channel across all tenants.
func (h *Hub) Broadcast(data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for _, set := range h.tenants {
		for ch := range set {
			if ch.Send(data) {
				sent++
			}
		}
	}
	return sent
}

// ChannelCount returns the number of open channels for tenantID.
func (h *Hub) ChannelCount(tenantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tenants[tenantID])
}

// OpenChannels returns the total number of open channels.
func (h *Hub) OpenChannels() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, set := range h.tenants {
		total += len(set)
	}
	return total
}

// ConnectedTenants lists tenants that currently hold at least one channel.
func (h *Hub) ConnectedTenants() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(h.tenants))
	for id := range h.tenants {
		ids = append(ids, id)
	}
	return ids
}
