package db

import (
	"testing"
)

func TestAuditLog(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.db.Close()

	testDB.LogAudit("alice", "ban.create", "xuid-1")
	testDB.LogAudit("alice", "ban.revoke", "xuid-1")
	testDB.LogAudit("bob", "command.enqueue", "KICK")
	testDB.LogAudit("", "ban.create", "xuid-2")

	t.Run("Entries come back newest first", func(t *testing.T) {
		err, entries := testDB.ReadAuditLog("", "", 0)
		if err != nil {
			t.Fatalf("Failed to read audit log: %v", err)
		}
		if len(*entries) != 4 {
			t.Fatalf("Expected 4 entries, got %d", len(*entries))
		}
		if (*entries)[0].Actor != "unknown" {
			t.Errorf("Expected blank actor recorded as unknown, got %s", (*entries)[0].Actor)
		}
		if (*entries)[3].ActionKey != "ban.create" {
			t.Errorf("Expected oldest entry last, got %s", (*entries)[3].ActionKey)
		}
	})

	t.Run("Actor filter", func(t *testing.T) {
		err, entries := testDB.ReadAuditLog("alice", "", 0)
		if err != nil {
			t.Fatalf("Failed to read audit log: %v", err)
		}
		if len(*entries) != 2 {
			t.Errorf("Expected 2 entries for alice, got %d", len(*entries))
		}
	})

	t.Run("Action prefix filter", func(t *testing.T) {
		err, entries := testDB.ReadAuditLog("", "ban.", 0)
		if err != nil {
			t.Fatalf("Failed to read audit log: %v", err)
		}
		if len(*entries) != 3 {
			t.Errorf("Expected 3 ban entries, got %d", len(*entries))
		}
	})

	t.Run("Limit caps the result", func(t *testing.T) {
		err, entries := testDB.ReadAuditLog("", "", 1)
		if err != nil {
			t.Fatalf("Failed to read audit log: %v", err)
		}
		if len(*entries) != 1 {
			t.Errorf("Expected 1 entry, got %d", len(*entries))
		}
	})

	t.Run("Blank action key is dropped silently", func(t *testing.T) {
		testDB.LogAudit("alice", "  ", "details")
		err, entries := testDB.ReadAuditLog("", "", 0)
		if err != nil {
			t.Fatalf("Failed to read audit log: %v", err)
		}
		if len(*entries) != 4 {
			t.Errorf("Expected entry count unchanged, got %d", len(*entries))
		}
	})
}
