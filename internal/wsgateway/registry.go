package wsgateway

import (
	"sync"
)

// Registry maps each user to their current live connection. A user has at
// most one registered connection: the last register wins. Every open socket
// is additionally indexed by connection id so a superseded socket can still
// be addressed (and drained) until its own disconnect arrives.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]string      // user_id -> connection_id
	conns  map[string]*Connection // connection_id -> connection
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]string),
		conns:  make(map[string]*Connection),
	}
}

// Register records a connection as the user's current one, superseding any
// prior entry for that user.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ID] = conn
	r.byUser[conn.UserID] = conn.ID
}

// Unregister drops the connection from the socket index and removes the
// user's registry entry only if that entry still points at connID. The
// boolean reports whether the user entry was removed; a late disconnect for
// an already-superseded connection returns false and leaves the newer entry
// untouched.
func (r *Registry) Unregister(userID string, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connID)

	if current, ok := r.byUser[userID]; ok && current == connID {
		delete(r.byUser, userID)
		return true
	}
	return false
}

// Lookup returns the user's current connection id
func (r *Registry) Lookup(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byUser[userID]
	return connID, ok
}

// LookupMany resolves the given users to connection ids, preserving input
// order and omitting users with no live connection.
func (r *Registry) LookupMany(userIDs []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connIDs := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		if connID, ok := r.byUser[userID]; ok {
			connIDs = append(connIDs, connID)
		}
	}
	return connIDs
}

// Get retrieves an open connection by connection id
func (r *Registry) Get(connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	return conn, ok
}

// AllExcept returns every open connection other than the given one
func (r *Registry) AllExcept(connID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for id, conn := range r.conns {
		if id != connID {
			conns = append(conns, conn)
		}
	}
	return conns
}

// All returns every open connection
func (r *Registry) All() []*Connection {
	return r.AllExcept("")
}

// Count returns the number of open connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
