package realtime

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// BroadcastOptions narrows a broadcast.
type BroadcastOptions struct {
	// ExceptClient skips a single connection.
	ExceptClient *Client
	// ExceptUserID skips every connection of a user; zero disables it.
	ExceptUserID uint
}

// Hub tracks which live connections belong to which channels on this node.
type Hub struct {
	mu          sync.RWMutex
	channels    map[string]map[*Client]struct{}
	memberships map[*Client]map[string]struct{}
	log         zerolog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		channels:    make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]map[string]struct{}),
		log:         logger.With().Str("component", "realtime_hub").Logger(),
	}
}

// Join adds client to channel and reports whether it was newly added.
func (h *Hub) Join(client *Client, channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Client]struct{})
		h.channels[channel] = members
	}
	if _, exists := members[client]; exists {
		return false
	}
	members[client] = struct{}{}

	joined, ok := h.memberships[client]
	if !ok {
		joined = make(map[string]struct{})
		h.memberships[client] = joined
	}
	joined[channel] = struct{}{}

	h.log.Debug().Str("channel", channel).Uint("user_id", client.UserID).Str("client_id", client.ID).Msg("joined channel")
	return true
}

// Leave removes client from channel and reports whether it was a member.
func (h *Hub) Leave(client *Client, channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.removeLocked(client, channel) {
		return false
	}
	h.log.Debug().Str("channel", channel).Uint("user_id", client.UserID).Str("client_id", client.ID).Msg("left channel")
	return true
}

// Disconnect removes client from every channel and returns the channels it
// belonged to, captured before teardown.
func (h *Hub) Disconnect(client *Client) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined := h.memberships[client]
	snapshot := make([]string, 0, len(joined))
	for channel := range joined {
		snapshot = append(snapshot, channel)
	}
	for _, channel := range snapshot {
		h.removeLocked(client, channel)
	}
	delete(h.memberships, client)
	sort.Strings(snapshot)
	return snapshot
}

func (h *Hub) removeLocked(client *Client, channel string) bool {
	members, ok := h.channels[channel]
	if !ok {
		return false
	}
	if _, exists := members[client]; !exists {
		return false
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.channels, channel)
	}
	if joined, ok := h.memberships[client]; ok {
		delete(joined, channel)
		if len(joined) == 0 {
			delete(h.memberships, client)
		}
	}
	return true
}

// RemoveUser drops every connection of userID from channel and returns them.
func (h *Hub) RemoveUser(channel string, userID uint) []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	var removed []*Client
	for client := range h.channels[channel] {
		if client.UserID == userID {
			removed = append(removed, client)
		}
	}
	for _, client := range removed {
		h.removeLocked(client, channel)
	}
	return removed
}

// Broadcast delivers event to the current members of channel and returns how
// many connections accepted it. Full queues drop the event for that client.
func (h *Hub) Broadcast(channel string, event Event, opts BroadcastOptions) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.channels[channel] {
		if opts.ExceptClient != nil && client == opts.ExceptClient {
			continue
		}
		if opts.ExceptUserID != 0 && client.UserID == opts.ExceptUserID {
			continue
		}
		if client.Send(event) {
			delivered++
			continue
		}
		h.log.Warn().Str("channel", channel).Str("event", string(event.Type)).Uint("user_id", client.UserID).Msg("dropping event for slow or closed client")
	}
	return delivered
}

// Members returns a snapshot of the connections in channel.
func (h *Hub) Members(channel string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]*Client, 0, len(h.channels[channel]))
	for client := range h.channels[channel] {
		members = append(members, client)
	}
	return members
}

// IsMember reports whether client currently belongs to channel.
func (h *Hub) IsMember(client *Client, channel string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.channels[channel][client]
	return ok
}

// ChannelsOf returns the sorted channels client belongs to.
func (h *Hub) ChannelsOf(client *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	channels := make([]string, 0, len(h.memberships[client]))
	for channel := range h.memberships[client] {
		channels = append(channels, channel)
	}
	sort.Strings(channels)
	return channels
}
