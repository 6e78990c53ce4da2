package db

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/deemkeen/banbridge/domain"
)

// LogAudit records an admin action. Auditing never blocks the action
// itself: failures are logged and swallowed.
func (database *Database) LogAudit(actor string, actionKey string, details string) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = "unknown"
	}
	actionKey = strings.TrimSpace(actionKey)
	if actionKey == "" {
		return
	}

	_, err := database.db.Exec(`
		INSERT INTO admin_audit_log (actor, action_key, details, created_at)
		VALUES (?, ?, ?, ?)`,
		actor, actionKey, nullableStr(strings.TrimSpace(details)), fmtTime(time.Now()))
	if err != nil {
		log.Printf("Could not write audit log entry %s: %v", actionKey, err)
	}
}

// ReadAuditLog returns the newest audit entries, optionally filtered by
// actor and action key prefix. The limit is clamped to [1, 500].
func (database *Database) ReadAuditLog(actor string, actionPrefix string, limit int) (error, *[]domain.AuditEntry) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	query := `SELECT id, actor, action_key, details, created_at FROM admin_audit_log`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if actor = strings.TrimSpace(actor); actor != "" {
		clauses = append(clauses, "actor = ?")
		args = append(args, actor)
	}
	if actionPrefix = strings.TrimSpace(actionPrefix); actionPrefix != "" {
		clauses = append(clauses, "action_key LIKE ?")
		args = append(args, actionPrefix+"%")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := database.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("query audit log: %w", err), nil
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var entry domain.AuditEntry
		var details sql.NullString
		if err := rows.Scan(&entry.Id, &entry.Actor, &entry.ActionKey, &details, &entry.CreatedAt); err != nil {
			return fmt.Errorf("scan audit entry: %w", err), nil
		}
		if details.Valid {
			entry.Details = details.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan audit log: %w", err), nil
	}

	return nil, &entries
}
