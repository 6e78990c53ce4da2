package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deemkeen/banbridge/domain"
)

const sqlUpsertPresenceOnline = `
	INSERT INTO players (xuid, last_name, online, online_updated_at, first_seen_at, last_seen_at, last_ip, last_hwid)
	VALUES (?, ?, 1, ?, ?, ?, ?, ?)
	ON CONFLICT(xuid) DO UPDATE SET
		last_name = excluded.last_name,
		online = 1,
		online_updated_at = excluded.online_updated_at,
		last_seen_at = excluded.last_seen_at,
		last_ip = COALESCE(excluded.last_ip, players.last_ip),
		last_hwid = COALESCE(excluded.last_hwid, players.last_hwid)
`

// Offline rows never touch last_seen_at and never blank an already known
// name, ip or hwid.
const sqlUpsertPresenceOffline = `
	INSERT INTO players (xuid, last_name, online, online_updated_at, first_seen_at, last_seen_at, last_ip, last_hwid)
	VALUES (?, COALESCE(?, 'Unknown'), 0, ?, ?, NULL, ?, ?)
	ON CONFLICT(xuid) DO UPDATE SET
		last_name = COALESCE(excluded.last_name, players.last_name),
		online = 0,
		online_updated_at = excluded.online_updated_at,
		last_ip = COALESCE(excluded.last_ip, players.last_ip),
		last_hwid = COALESCE(excluded.last_hwid, players.last_hwid)
`

// UpsertPresence applies one presence report inside a single transaction.
// In snapshot mode the entry list is the complete online roster and every
// other player is swept offline, no matter how many rows that touches. A
// report with no player list at all is a no-op: only an explicit empty
// roster means the server is empty.
func (database *Database) UpsertPresence(report *domain.PresenceReport) error {
	if report == nil {
		return errors.New("presence report must not be nil")
	}
	if report.Players == nil {
		return nil
	}

	now := fmtTime(time.Now())

	tx, err := database.db.Begin()
	if err != nil {
		return fmt.Errorf("begin presence tx: %w", err)
	}
	defer tx.Rollback()

	for _, entry := range report.Players {
		xuid := strings.TrimSpace(entry.Xuid)
		if xuid == "" {
			continue
		}

		online := report.Snapshot
		if entry.Online != nil {
			online = *entry.Online
		}

		ip := nullableStr(strings.TrimSpace(entry.IP))
		hwid := nullableStr(strings.TrimSpace(entry.Hwid))
		name := strings.TrimSpace(entry.Name)

		if online {
			if name == "" {
				name = "Unknown"
			}
			_, err = tx.Exec(sqlUpsertPresenceOnline, xuid, name, now, now, now, ip, hwid)
		} else {
			_, err = tx.Exec(sqlUpsertPresenceOffline, xuid, nullableStr(name), now, now, ip, hwid)
		}
		if err != nil {
			return fmt.Errorf("upsert presence for %s: %w", xuid, err)
		}
	}

	if report.Snapshot {
		if err := sweepOffline(tx, report.Players, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit presence tx: %w", err)
	}

	database.publishInvalidate("players")
	return nil
}

// sweepOffline marks every online player absent from the snapshot as
// offline. The xuids go through a temp staging table so the sweep is one
// anti-join regardless of roster size.
func sweepOffline(tx *sql.Tx, entries []domain.PresenceEntry, now string) error {
	seen := false
	for _, entry := range entries {
		if strings.TrimSpace(entry.Xuid) != "" {
			seen = true
			break
		}
	}

	if !seen {
		// Empty snapshot: the server is empty, sweep everyone.
		_, err := tx.Exec(`UPDATE players SET online = 0, online_updated_at = ? WHERE online = 1`, now)
		if err != nil {
			return fmt.Errorf("sweep offline: %w", err)
		}
		return nil
	}

	if _, err := tx.Exec(`CREATE TEMP TABLE IF NOT EXISTS presence_roster (xuid TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create roster table: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM presence_roster`); err != nil {
		return fmt.Errorf("reset roster table: %w", err)
	}
	for _, entry := range entries {
		xuid := strings.TrimSpace(entry.Xuid)
		if xuid == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT OR IGNORE INTO presence_roster (xuid) VALUES (?)`, xuid); err != nil {
			return fmt.Errorf("fill roster table: %w", err)
		}
	}

	_, err := tx.Exec(`
		UPDATE players SET online = 0, online_updated_at = ?
		WHERE online = 1 AND xuid NOT IN (SELECT xuid FROM presence_roster)`, now)
	if err != nil {
		return fmt.Errorf("sweep offline: %w", err)
	}

	if _, err := tx.Exec(`DROP TABLE presence_roster`); err != nil {
		return fmt.Errorf("drop roster table: %w", err)
	}
	return nil
}

// ReadPlayer returns one player row, or nil when unknown.
func (database *Database) ReadPlayer(xuid string) (error, *domain.Player) {
	row := database.db.QueryRow(`
		SELECT xuid, last_name, online, online_updated_at, first_seen_at, last_seen_at, last_ip, last_hwid
		FROM players WHERE xuid = ?`, strings.TrimSpace(xuid))

	player, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return fmt.Errorf("read player: %w", err), nil
	}
	return nil, player
}

// ReadOnlinePlayers returns all currently online players, by name.
func (database *Database) ReadOnlinePlayers() (error, *[]domain.Player) {
	rows, err := database.db.Query(`
		SELECT xuid, last_name, online, online_updated_at, first_seen_at, last_seen_at, last_ip, last_hwid
		FROM players WHERE online = 1 ORDER BY last_name COLLATE NOCASE ASC`)
	if err != nil {
		return fmt.Errorf("query online players: %w", err), nil
	}
	defer rows.Close()

	players := make([]domain.Player, 0)
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return fmt.Errorf("scan player: %w", err), nil
		}
		players = append(players, *player)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan players: %w", err), nil
	}
	return nil, &players
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*domain.Player, error) {
	var player domain.Player
	var online int
	var onlineUpdatedAt, firstSeenAt, lastSeenAt, lastIP, lastHwid sql.NullString

	err := row.Scan(&player.Xuid, &player.Name, &online, &onlineUpdatedAt, &firstSeenAt, &lastSeenAt, &lastIP, &lastHwid)
	if err != nil {
		return nil, err
	}

	player.Online = online != 0
	player.OnlineUpdatedAt = stampPtr(onlineUpdatedAt)
	player.FirstSeenAt = stampPtr(firstSeenAt)
	player.LastSeenAt = stampPtr(lastSeenAt)
	if lastIP.Valid {
		player.LastIP = lastIP.String
	}
	if lastHwid.Valid {
		player.LastHwid = lastHwid.String
	}
	return &player, nil
}
