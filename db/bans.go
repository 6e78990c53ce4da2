package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deemkeen/banbridge/domain"
)

const defaultBanReason = "No reason provided"

// Matches at most one row per xuid; insertion is guarded by the same
// predicate so two rival writers can never both create an active ban.
const sqlActiveBanPredicate = `revoked_at IS NULL AND (expires_at IS NULL OR expires_at > ?)`

const sqlInsertBanIfNoneActive = `
	INSERT INTO bans (xuid, reason, created_at, updated_at, expires_at, actor_type, actor_username, actor_server_key)
	SELECT ?, ?, ?, ?, ?, ?, ?, ?
	WHERE NOT EXISTS (SELECT 1 FROM bans WHERE xuid = ? AND ` + sqlActiveBanPredicate + `)
`

const sqlSelectActiveBanId = `
	SELECT id FROM bans WHERE xuid = ? AND ` + sqlActiveBanPredicate + ` LIMIT 1
`

const sqlUpsertPlayerStub = `
	INSERT INTO players (xuid, last_name, first_seen_at)
	VALUES (?, 'Unknown', ?)
	ON CONFLICT(xuid) DO NOTHING
`

const sqlInsertBanTarget = `
	INSERT OR IGNORE INTO ban_targets (ban_id, target_type, target_value) VALUES (?, ?, ?)
`

const sqlInsertBanEvent = `
	INSERT INTO ban_events (ban_id, event_type, actor_type, actor_username, actor_server_key, created_at, details)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

// BanPlayer creates an active ban for xuid, issued from the admin side.
// durationHours <= 0 means permanent. If the player already carries an
// active ban the call changes nothing.
func (database *Database) BanPlayer(xuid string, reason string, durationHours int, actorUsername string) error {
	xuid = strings.TrimSpace(xuid)
	if xuid == "" {
		return errors.New("xuid must not be blank")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultBanReason
	}

	now := time.Now().UTC()
	var expiresAt any
	if durationHours > 0 {
		expiresAt = fmtTime(now.Add(time.Duration(durationHours) * time.Hour))
	}

	tx, err := database.db.Begin()
	if err != nil {
		return fmt.Errorf("begin ban tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(sqlUpsertPlayerStub, xuid, fmtTime(now)); err != nil {
		return fmt.Errorf("upsert player stub: %w", err)
	}

	res, err := tx.Exec(sqlInsertBanIfNoneActive,
		xuid, reason, fmtTime(now), fmtTime(now), expiresAt,
		domain.ActorWeb, nullableStr(actorUsername), nil,
		xuid, fmtTime(now))
	if err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	if inserted == 0 {
		// Already actively banned, nothing to do.
		return tx.Commit()
	}

	banId, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	if _, err := tx.Exec(sqlInsertBanEvent, banId, domain.BanEventCreated,
		domain.ActorWeb, nullableStr(actorUsername), nil, fmtTime(now), nil); err != nil {
		return fmt.Errorf("insert ban event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ban tx: %w", err)
	}

	database.publishInvalidate("bans", "players")
	return nil
}

// UnbanPlayer revokes the active ban for xuid, if any. The invalidation is
// published either way so stale clients converge.
func (database *Database) UnbanPlayer(xuid string, actorUsername string) error {
	xuid = strings.TrimSpace(xuid)
	if xuid == "" {
		return errors.New("xuid must not be blank")
	}

	now := time.Now().UTC()

	tx, err := database.db.Begin()
	if err != nil {
		return fmt.Errorf("begin unban tx: %w", err)
	}
	defer tx.Rollback()

	var banId int64
	err = tx.QueryRow(sqlSelectActiveBanId, xuid, fmtTime(now)).Scan(&banId)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup active ban: %w", err)
	}

	if err == nil {
		_, err = tx.Exec(`UPDATE bans SET revoked_at = ?, updated_at = ? WHERE id = ?`,
			fmtTime(now), fmtTime(now), banId)
		if err != nil {
			return fmt.Errorf("revoke ban: %w", err)
		}
		if _, err := tx.Exec(sqlInsertBanEvent, banId, domain.BanEventRevoked,
			domain.ActorWeb, nullableStr(actorUsername), nil, fmtTime(now), nil); err != nil {
			return fmt.Errorf("insert ban event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unban tx: %w", err)
	}

	database.publishInvalidate("bans", "players")
	return nil
}

// ReportServerBan records a ban enforced on a game server. The whole report
// lands in one transaction: player stub, ban row (unless one is already
// active), attached targets and the event trail. A report against an already
// banned player only adds targets and an ENFORCED event to the existing ban.
func (database *Database) ReportServerBan(serverKey string, report *domain.BanReport) error {
	if strings.TrimSpace(serverKey) == "" {
		return errors.New("server key must not be blank")
	}
	if report == nil {
		return errors.New("ban report must not be nil")
	}
	xuid := strings.TrimSpace(report.Xuid)
	if xuid == "" {
		return errors.New("xuid must not be blank")
	}
	reason := strings.TrimSpace(report.Reason)
	if reason == "" {
		reason = defaultBanReason
	}

	now := time.Now().UTC()
	var expiresAt any
	if report.DurationSeconds > 0 {
		expiresAt = fmtTime(now.Add(time.Duration(report.DurationSeconds) * time.Second))
	}

	tx, err := database.db.Begin()
	if err != nil {
		return fmt.Errorf("begin report tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(sqlUpsertPlayerStub, xuid, fmtTime(now)); err != nil {
		return fmt.Errorf("upsert player stub: %w", err)
	}

	res, err := tx.Exec(sqlInsertBanIfNoneActive,
		xuid, reason, fmtTime(now), fmtTime(now), expiresAt,
		domain.ActorServer, nil, serverKey,
		xuid, fmtTime(now))
	if err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}

	var banId int64
	if inserted > 0 {
		banId, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert ban: %w", err)
		}
		if _, err := tx.Exec(sqlInsertBanEvent, banId, domain.BanEventCreated,
			domain.ActorServer, nil, serverKey, fmtTime(now), nil); err != nil {
			return fmt.Errorf("insert ban event: %w", err)
		}
	} else {
		if err := tx.QueryRow(sqlSelectActiveBanId, xuid, fmtTime(now)).Scan(&banId); err != nil {
			return fmt.Errorf("lookup active ban: %w", err)
		}
	}

	if _, err := tx.Exec(sqlInsertBanTarget, banId, domain.TargetXuid, xuid); err != nil {
		return fmt.Errorf("insert ban target: %w", err)
	}
	if ip := strings.TrimSpace(report.IP); ip != "" {
		if _, err := tx.Exec(sqlInsertBanTarget, banId, domain.TargetIP, ip); err != nil {
			return fmt.Errorf("insert ban target: %w", err)
		}
	}
	if hwid := strings.TrimSpace(report.Hwid); hwid != "" {
		if _, err := tx.Exec(sqlInsertBanTarget, banId, domain.TargetHwid, hwid); err != nil {
			return fmt.Errorf("insert ban target: %w", err)
		}
	}

	if _, err := tx.Exec(sqlInsertBanEvent, banId, domain.BanEventEnforced,
		domain.ActorServer, nil, serverKey, fmtTime(now), nil); err != nil {
		return fmt.Errorf("insert ban event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report tx: %w", err)
	}

	database.publishInvalidate("bans", "players")
	return nil
}

// FetchBanChangesSince returns the page of ban rows updated strictly after
// the given RFC 3339 timestamp, oldest first. An unparseable or empty cursor
// starts from the beginning of time. Callers page by passing the serverTime
// of the previous batch back in.
func (database *Database) FetchBanChangesSince(since string) (error, *domain.BanChangeBatch) {
	cursor := fmtTime(time.Unix(0, 0))
	if s := strings.TrimSpace(since); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			cursor = fmtTime(t)
		}
	}

	serverTime := nowStamp()

	rows, err := database.db.Query(`
		SELECT id, xuid, reason, created_at, updated_at, expires_at, revoked_at
		FROM bans
		WHERE updated_at > ?
		ORDER BY updated_at ASC, id ASC
		LIMIT ?`, cursor, database.banChangesMaxRows)
	if err != nil {
		return fmt.Errorf("query ban changes: %w", err), nil
	}
	defer rows.Close()

	changes := make([]domain.BanChange, 0)
	for rows.Next() {
		var change domain.BanChange
		var expiresAt, revokedAt sql.NullString
		err := rows.Scan(&change.BanId, &change.Xuid, &change.Reason, &change.CreatedAt, &change.UpdatedAt, &expiresAt, &revokedAt)
		if err != nil {
			return fmt.Errorf("scan ban change: %w", err), nil
		}
		change.Type = domain.BanChangeUpsert
		change.ExpiresAt = stampStrPtr(expiresAt)
		change.RevokedAt = stampStrPtr(revokedAt)
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan ban changes: %w", err), nil
	}

	return nil, &domain.BanChangeBatch{ServerTime: serverTime, Changes: changes}
}

// ReadBanEvents returns the event trail for a ban, newest first.
func (database *Database) ReadBanEvents(banId int64) (error, *[]domain.BanEvent) {
	rows, err := database.db.Query(`
		SELECT id, ban_id, event_type, actor_type, actor_username, actor_server_key, created_at, details
		FROM ban_events WHERE ban_id = ? ORDER BY id DESC`, banId)
	if err != nil {
		return fmt.Errorf("query ban events: %w", err), nil
	}
	defer rows.Close()

	events := make([]domain.BanEvent, 0)
	for rows.Next() {
		var event domain.BanEvent
		var createdAt string
		var actorUsername, actorServerKey, details sql.NullString
		err := rows.Scan(&event.Id, &event.BanId, &event.EventType,
			&event.ActorType, &actorUsername, &actorServerKey, &createdAt, &details)
		if err != nil {
			return fmt.Errorf("scan ban event: %w", err), nil
		}
		if t, err := parseStamp(createdAt); err == nil {
			event.CreatedAt = t
		}
		if actorUsername.Valid {
			event.ActorUsername = &actorUsername.String
		}
		if actorServerKey.Valid {
			event.ActorServerKey = &actorServerKey.String
		}
		if details.Valid {
			event.Details = &details.String
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan ban events: %w", err), nil
	}

	return nil, &events
}

// ReadActiveBan returns the active ban for xuid, or nil when the player is
// not currently banned.
func (database *Database) ReadActiveBan(xuid string) (error, *domain.Ban) {
	now := time.Now().UTC()
	row := database.db.QueryRow(`
		SELECT id, xuid, reason, created_at, updated_at, expires_at, revoked_at, actor_type, actor_username, actor_server_key
		FROM bans WHERE xuid = ? AND `+sqlActiveBanPredicate+` LIMIT 1`,
		strings.TrimSpace(xuid), fmtTime(now))

	var ban domain.Ban
	var createdAt, updatedAt string
	var expiresAt, revokedAt, actorUsername, actorServerKey sql.NullString
	err := row.Scan(&ban.BanId, &ban.Xuid, &ban.Reason, &createdAt, &updatedAt,
		&expiresAt, &revokedAt, &ban.ActorType, &actorUsername, &actorServerKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return fmt.Errorf("read active ban: %w", err), nil
	}

	if t, err := parseStamp(createdAt); err == nil {
		ban.CreatedAt = t
	}
	if t, err := parseStamp(updatedAt); err == nil {
		ban.UpdatedAt = t
	}
	ban.ExpiresAt = stampPtr(expiresAt)
	ban.RevokedAt = stampPtr(revokedAt)
	if actorUsername.Valid {
		ban.ActorUsername = actorUsername.String
	}
	if actorServerKey.Valid {
		ban.ActorServerKey = actorServerKey.String
	}
	return nil, &ban
}
