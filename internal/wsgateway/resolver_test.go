package wsgateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mohamedkhairy/chatts-server/internal/models"
)

func members(userIDs ...string) []models.ChatMember {
	list := make([]models.ChatMember, 0, len(userIDs))
	for _, id := range userIDs {
		list = append(list, models.ChatMember{User: id})
	}
	return list
}

func TestResolver_Resolve(t *testing.T) {
	registry := NewRegistry()
	resolver := NewResolver(registry)

	registry.Register(newTestConn("conn-a", "alice"))
	registry.Register(newTestConn("conn-b", "bob"))

	// carol has no live connection and is skipped
	targets := resolver.Resolve(members("alice", "bob", "carol"))
	assert.Equal(t, []string{"conn-a", "conn-b"}, targets)
}

func TestResolver_ResolveDeduplicates(t *testing.T) {
	registry := NewRegistry()
	resolver := NewResolver(registry)

	registry.Register(newTestConn("conn-a", "alice"))

	targets := resolver.Resolve(members("alice", "alice", "alice"))
	assert.Equal(t, []string{"conn-a"}, targets)
}

func TestResolver_ResolveEmpty(t *testing.T) {
	resolver := NewResolver(NewRegistry())

	assert.Empty(t, resolver.Resolve(nil))
	assert.Empty(t, resolver.Resolve([]models.ChatMember{}))
}

func TestResolver_ResolveExcept(t *testing.T) {
	registry := NewRegistry()
	resolver := NewResolver(registry)

	registry.Register(newTestConn("conn-a", "alice"))
	registry.Register(newTestConn("conn-b", "bob"))
	registry.Register(newTestConn("conn-c", "carol"))

	targets := resolver.ResolveExcept(members("alice", "bob", "carol"), "conn-a")
	assert.Equal(t, []string{"conn-b", "conn-c"}, targets)

	// Excluding a connection that is not a target changes nothing
	targets = resolver.ResolveExcept(members("bob", "carol"), "conn-a")
	assert.Equal(t, []string{"conn-b", "conn-c"}, targets)
}

func TestResolver_ResolveUsers(t *testing.T) {
	registry := NewRegistry()
	resolver := NewResolver(registry)

	registry.Register(newTestConn("conn-a", "alice"))

	assert.Equal(t, []string{"conn-a"}, resolver.ResolveUsers([]string{"alice", "bob"}))
	assert.Empty(t, resolver.ResolveUsers(nil))
}
