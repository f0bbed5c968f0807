package wsgateway

import (
	"testing"
)

func TestPresence_MarkOnlineOffline(t *testing.T) {
	presence := NewPresence()

	presence.MarkOnline("user-1")
	presence.MarkOnline("user-2")
	presence.MarkOnline("user-1") // idempotent

	snapshot := presence.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 online users, got %d", len(snapshot))
	}
	if snapshot[0] != "user-1" || snapshot[1] != "user-2" {
		t.Errorf("Expected sorted snapshot, got %v", snapshot)
	}

	presence.MarkOffline("user-1")
	presence.MarkOffline("user-1") // idempotent
	presence.MarkOffline("user-3") // never online

	snapshot = presence.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("Expected 1 online user, got %d", len(snapshot))
	}
	if snapshot[0] != "user-2" {
		t.Errorf("Expected user-2 online, got %v", snapshot)
	}
}

func TestPresence_SnapshotIsolation(t *testing.T) {
	presence := NewPresence()
	presence.MarkOnline("user-1")

	snapshot := presence.Snapshot()
	presence.MarkOnline("user-2")

	if len(snapshot) != 1 {
		t.Errorf("Expected snapshot unaffected by later mutation, got %v", snapshot)
	}
}
