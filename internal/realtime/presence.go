package realtime

import (
	"sort"
	"sync"
	"time"
)

// Presence keeps a per-user count of live connections. A user is online while
// the count is positive, so closing one of several tabs does not flip them offline.
type Presence struct {
	mu       sync.Mutex
	counts   map[uint]int
	lastSeen map[uint]time.Time
	now      func() time.Time
}

// NewPresence constructs an empty tracker.
func NewPresence() *Presence {
	return &Presence{
		counts:   make(map[uint]int),
		lastSeen: make(map[uint]time.Time),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Connect registers one more connection for userID and reports whether the
// user just came online.
func (p *Presence) Connect(userID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counts[userID]++
	p.lastSeen[userID] = p.now()
	return p.counts[userID] == 1
}

// Disconnect releases one connection for userID and reports whether the user
// just went offline. Unknown users are ignored.
func (p *Presence) Disconnect(userID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	count, ok := p.counts[userID]
	if !ok {
		return false
	}
	p.lastSeen[userID] = p.now()
	if count <= 1 {
		delete(p.counts, userID)
		return true
	}
	p.counts[userID] = count - 1
	return false
}

// IsOnline reports whether userID holds at least one live connection.
func (p *Presence) IsOnline(userID uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[userID] > 0
}

// Connections returns the number of live connections held by userID.
func (p *Presence) Connections(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[userID]
}

// LastSeen returns the last connect or disconnect time observed for userID.
func (p *Presence) LastSeen(userID uint) (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	seen, ok := p.lastSeen[userID]
	return seen, ok
}

// OnlineUsers returns the ids of every online user, sorted.
func (p *Presence) OnlineUsers() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]uint, 0, len(p.counts))
	for id := range p.counts {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}
