package wsgateway

import (
	"github.com/mohamedkhairy/chatts-server/internal/models"
)

// Resolver translates a chat's member list into the connection ids that are
// currently reachable. Offline members are simply skipped.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over the given registry
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve returns the live connection ids for the given members, deduplicated
// by user. A nil or empty member list resolves to an empty target set.
func (r *Resolver) Resolve(members []models.ChatMember) []string {
	if len(members) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(members))
	userIDs := make([]string, 0, len(members))
	for _, userID := range models.MemberIDs(members) {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		userIDs = append(userIDs, userID)
	}
	return r.registry.LookupMany(userIDs)
}

// ResolveExcept resolves the members and removes the given connection, so
// that a sender does not receive its own relayed event.
func (r *Resolver) ResolveExcept(members []models.ChatMember, exceptConnID string) []string {
	resolved := r.Resolve(members)
	targets := resolved[:0]
	for _, connID := range resolved {
		if connID != exceptConnID {
			targets = append(targets, connID)
		}
	}
	return targets
}

// ResolveUsers resolves plain user ids, deduplicated, used by server-side
// emits triggered from the HTTP API.
func (r *Resolver) ResolveUsers(userIDs []string) []string {
	if len(userIDs) == 0 {
		return nil
	}
	members := make([]models.ChatMember, 0, len(userIDs))
	for _, id := range userIDs {
		members = append(members, models.ChatMember{User: id})
	}
	return r.Resolve(members)
}
