package wsgateway

import (
	"sort"
	"sync"
)

// Presence tracks which users count as "online" for broadcast purposes.
// Membership is looser than the registry's: a user joins it by announcing a
// chat context and leaves it by announcing departure or disconnecting.
type Presence struct {
	mu     sync.RWMutex
	online map[string]struct{}
}

// NewPresence creates an empty presence tracker
func NewPresence() *Presence {
	return &Presence{online: make(map[string]struct{})}
}

// MarkOnline adds a user to the online set. Idempotent.
func (p *Presence) MarkOnline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = struct{}{}
}

// MarkOffline removes a user from the online set. Idempotent.
func (p *Presence) MarkOffline(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
}

// Snapshot returns a sorted point-in-time copy of the online set, safe to
// hand to a broadcast while the set keeps mutating.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.online))
	for userID := range p.online {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}
