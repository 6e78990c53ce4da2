package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deemkeen/banbridge/domain"
)

const sqlUpsertStatsDelta = `
	INSERT INTO player_stats (xuid, playtime_seconds, kills, deaths, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(xuid) DO UPDATE SET
		playtime_seconds = player_stats.playtime_seconds + excluded.playtime_seconds,
		kills = player_stats.kills + excluded.kills,
		deaths = player_stats.deaths + excluded.deaths,
		updated_at = excluded.updated_at
`

// PersistStatsBatch folds a batch of per-player deltas into the totals.
// Negative deltas count as zero so a misbehaving reporter cannot shrink
// anyone's record. Entries without a xuid are skipped.
func (database *Database) PersistStatsBatch(entries []domain.StatsEntry) error {
	if len(entries) == 0 {
		return nil
	}

	now := fmtTime(time.Now())

	tx, err := database.db.Begin()
	if err != nil {
		return fmt.Errorf("begin stats tx: %w", err)
	}
	defer tx.Rollback()

	applied := 0
	for _, entry := range entries {
		xuid := strings.TrimSpace(entry.Xuid)
		if xuid == "" {
			continue
		}

		if _, err := tx.Exec(sqlUpsertPlayerStub, xuid, now); err != nil {
			return fmt.Errorf("upsert player stub: %w", err)
		}
		if name := strings.TrimSpace(entry.Name); name != "" {
			if _, err := tx.Exec(`UPDATE players SET last_name = ? WHERE xuid = ?`, name, xuid); err != nil {
				return fmt.Errorf("update player name: %w", err)
			}
		}

		_, err := tx.Exec(sqlUpsertStatsDelta, xuid,
			clampDelta(entry.PlaytimeDeltaSeconds), clampDelta(entry.KillsDelta), clampDelta(entry.DeathsDelta), now)
		if err != nil {
			return fmt.Errorf("upsert stats for %s: %w", xuid, err)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stats tx: %w", err)
	}

	if applied > 0 {
		database.publishInvalidate("players")
	}
	return nil
}

func clampDelta(d int64) int64 {
	if d < 0 {
		return 0
	}
	return d
}

// ReadPlayerStats returns the accumulated totals for one player, or nil
// when nothing was recorded yet.
func (database *Database) ReadPlayerStats(xuid string) (error, *domain.PlayerStats) {
	var stats domain.PlayerStats
	err := database.db.QueryRow(`
		SELECT xuid, playtime_seconds, kills, deaths, updated_at
		FROM player_stats WHERE xuid = ?`, strings.TrimSpace(xuid)).
		Scan(&stats.Xuid, &stats.PlaytimeSeconds, &stats.Kills, &stats.Deaths, &stats.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return fmt.Errorf("read player stats: %w", err), nil
	}
	return nil, &stats
}
