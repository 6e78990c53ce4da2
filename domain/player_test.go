package domain

import (
	"encoding/json"
	"testing"
)

func TestPresenceReportUnmarshal(t *testing.T) {
	t.Run("Object form", func(t *testing.T) {
		var report PresenceReport
		body := `{"snapshot":true,"players":[{"xuid":"p1","name":"Steve","online":true}]}`
		if err := json.Unmarshal([]byte(body), &report); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}
		if !report.Snapshot {
			t.Error("Expected snapshot mode")
		}
		if len(report.Players) != 1 || report.Players[0].Xuid != "p1" {
			t.Fatalf("Expected 1 player, got %v", report.Players)
		}
		if report.Players[0].Online == nil || !*report.Players[0].Online {
			t.Error("Expected explicit online flag")
		}
	})

	t.Run("Legacy bare array implies event mode", func(t *testing.T) {
		var report PresenceReport
		body := ` [{"xuid":"p1"},{"xuid":"p2","online":false}]`
		if err := json.Unmarshal([]byte(body), &report); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}
		if report.Snapshot {
			t.Error("Expected event mode for legacy form")
		}
		if len(report.Players) != 2 {
			t.Fatalf("Expected 2 players, got %d", len(report.Players))
		}
		if report.Players[0].Online != nil {
			t.Error("Expected missing online flag to stay nil")
		}
	})

	t.Run("Missing players list stays nil", func(t *testing.T) {
		var report PresenceReport
		if err := json.Unmarshal([]byte(`{"snapshot":true}`), &report); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}
		if report.Players != nil {
			t.Error("Expected nil player list when the key is absent")
		}
	})

	t.Run("Explicit empty players list stays non-nil", func(t *testing.T) {
		var report PresenceReport
		if err := json.Unmarshal([]byte(`{"snapshot":true,"players":[]}`), &report); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}
		if report.Players == nil {
			t.Error("Expected non-nil player list for an explicit empty roster")
		}
	})

	t.Run("Garbage is an error", func(t *testing.T) {
		var report PresenceReport
		if err := json.Unmarshal([]byte(`"nope"`), &report); err == nil {
			t.Error("Expected error for non-object body")
		}
	})
}
