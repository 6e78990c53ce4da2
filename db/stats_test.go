package db

import (
	"testing"

	"github.com/deemkeen/banbridge/domain"
)

func TestStatsPersistence(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.db.Close()

	t.Run("Deltas accumulate across batches", func(t *testing.T) {
		batch := []domain.StatsEntry{
			{Xuid: "p1", Name: "Steve", PlaytimeDeltaSeconds: 300, KillsDelta: 2, DeathsDelta: 1},
		}
		if err := testDB.PersistStatsBatch(batch); err != nil {
			t.Fatalf("Failed to persist stats: %v", err)
		}
		if err := testDB.PersistStatsBatch(batch); err != nil {
			t.Fatalf("Failed to persist stats: %v", err)
		}

		err, stats := testDB.ReadPlayerStats("p1")
		if err != nil {
			t.Fatalf("Failed to read stats: %v", err)
		}
		if stats == nil {
			t.Fatal("Expected stats to exist")
		}
		if stats.PlaytimeSeconds != 600 {
			t.Errorf("Expected 600 playtime seconds, got %d", stats.PlaytimeSeconds)
		}
		if stats.Kills != 4 || stats.Deaths != 2 {
			t.Errorf("Expected 4 kills and 2 deaths, got %d / %d", stats.Kills, stats.Deaths)
		}
	})

	t.Run("Negative deltas count as zero", func(t *testing.T) {
		batch := []domain.StatsEntry{
			{Xuid: "p1", PlaytimeDeltaSeconds: -1000, KillsDelta: -5, DeathsDelta: 1},
		}
		if err := testDB.PersistStatsBatch(batch); err != nil {
			t.Fatalf("Failed to persist stats: %v", err)
		}

		err, stats := testDB.ReadPlayerStats("p1")
		if err != nil {
			t.Fatalf("Failed to read stats: %v", err)
		}
		if stats.PlaytimeSeconds != 600 || stats.Kills != 4 {
			t.Error("Expected negative deltas to be ignored")
		}
		if stats.Deaths != 3 {
			t.Errorf("Expected the positive delta to apply, got %d deaths", stats.Deaths)
		}
	})

	t.Run("Batch creates the player row and records the name", func(t *testing.T) {
		batch := []domain.StatsEntry{{Xuid: "p2", Name: "Alex", KillsDelta: 1}}
		if err := testDB.PersistStatsBatch(batch); err != nil {
			t.Fatalf("Failed to persist stats: %v", err)
		}

		err, player := testDB.ReadPlayer("p2")
		if err != nil {
			t.Fatalf("Failed to read player: %v", err)
		}
		if player == nil {
			t.Fatal("Expected player stub to exist")
		}
		if player.Name != "Alex" {
			t.Errorf("Expected name Alex, got %s", player.Name)
		}
	})

	t.Run("Blank xuids are skipped", func(t *testing.T) {
		batch := []domain.StatsEntry{{Xuid: "  ", KillsDelta: 100}}
		if err := testDB.PersistStatsBatch(batch); err != nil {
			t.Fatalf("Failed to persist stats: %v", err)
		}

		var count int
		if err := testDB.db.QueryRow(`SELECT COUNT(*) FROM player_stats`).Scan(&count); err != nil {
			t.Fatalf("Failed to count stats rows: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 stats rows, got %d", count)
		}
	})

	t.Run("Empty batch is a no-op", func(t *testing.T) {
		if err := testDB.PersistStatsBatch(nil); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("Unknown player has no stats", func(t *testing.T) {
		err, stats := testDB.ReadPlayerStats("nobody")
		if err != nil {
			t.Fatalf("Failed to read stats: %v", err)
		}
		if stats != nil {
			t.Error("Expected nil stats")
		}
	})
}
