package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deemkeen/banbridge/domain"
)

const (
	commandsDefaultLimit = 50
	commandsMaxLimit     = 200
)

// EnqueueCommand queues an administrative command for a game server and
// returns its id. The type is normalized to uppercase, payloadJson is
// stored verbatim (blank means none).
func (database *Database) EnqueueCommand(serverKey string, commandType string, payloadJson string) (int64, error) {
	serverKey = strings.TrimSpace(serverKey)
	if serverKey == "" {
		return 0, errors.New("server key must not be blank")
	}
	commandType = strings.ToUpper(strings.TrimSpace(commandType))
	if commandType == "" {
		return 0, errors.New("command type must not be blank")
	}

	res, err := database.db.Exec(`
		INSERT INTO server_commands (server_key, type, payload_json, created_at)
		VALUES (?, ?, ?, ?)`,
		serverKey, commandType, nullableStr(strings.TrimSpace(payloadJson)), nowStamp())
	if err != nil {
		return 0, fmt.Errorf("insert command: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert command: %w", err)
	}

	database.publishInvalidate("commands")
	return id, nil
}

// PollOpenCommands returns unacknowledged commands for serverKey with an id
// greater than sinceId, oldest first. The limit is clamped to [1, 200] and
// defaults to 50 when not positive.
func (database *Database) PollOpenCommands(serverKey string, sinceId int64, limit int) (error, *domain.CommandBatch) {
	serverKey = strings.TrimSpace(serverKey)
	if serverKey == "" {
		return errors.New("server key must not be blank"), nil
	}
	if sinceId < 0 {
		sinceId = 0
	}
	if limit <= 0 {
		limit = commandsDefaultLimit
	}
	if limit > commandsMaxLimit {
		limit = commandsMaxLimit
	}

	serverTime := nowStamp()

	rows, err := database.db.Query(`
		SELECT id, type, payload_json, created_at
		FROM server_commands
		WHERE server_key = ? AND acknowledged_at IS NULL AND id > ?
		ORDER BY id ASC
		LIMIT ?`, serverKey, sinceId, limit)
	if err != nil {
		return fmt.Errorf("query commands: %w", err), nil
	}
	defer rows.Close()

	commands := make([]domain.ServerCommand, 0)
	for rows.Next() {
		var command domain.ServerCommand
		var payload sql.NullString
		if err := rows.Scan(&command.Id, &command.Type, &payload, &command.CreatedAt); err != nil {
			return fmt.Errorf("scan command: %w", err), nil
		}
		if payload.Valid {
			command.PayloadJson = &payload.String
		}
		commands = append(commands, command)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan commands: %w", err), nil
	}

	return nil, &domain.CommandBatch{ServerTime: serverTime, Commands: commands}
}

// AckCommand marks a command as delivered. Only the owning server can ack,
// and a second ack of the same id changes nothing.
func (database *Database) AckCommand(serverKey string, id int64) error {
	serverKey = strings.TrimSpace(serverKey)
	if serverKey == "" {
		return errors.New("server key must not be blank")
	}
	if id <= 0 {
		return errors.New("command id must be positive")
	}

	_, err := database.db.Exec(`
		UPDATE server_commands SET acknowledged_at = ?
		WHERE id = ? AND server_key = ? AND acknowledged_at IS NULL`,
		fmtTime(time.Now()), id, serverKey)
	if err != nil {
		return fmt.Errorf("ack command: %w", err)
	}
	return nil
}
