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
	metricsHistoryDefaultLimit = 360
	metricsHistoryMinLimit     = 10
	metricsHistoryMaxLimit     = 2000
)

// sanitizeMetrics rejects values outside their physical range instead of
// persisting garbage. Rejected values become nil, they never fail the
// ingest.
func sanitizeMetrics(sample *domain.MetricsSample) {
	if sample.RamUsedMb != nil && *sample.RamUsedMb < 0 {
		sample.RamUsedMb = nil
	}
	if sample.RamMaxMb != nil && *sample.RamMaxMb <= 0 {
		sample.RamMaxMb = nil
	}
	if sample.RamUsedMb != nil && sample.RamMaxMb != nil && *sample.RamUsedMb > *sample.RamMaxMb {
		clamped := *sample.RamMaxMb
		sample.RamUsedMb = &clamped
	}
	if sample.CpuLoad != nil && (*sample.CpuLoad < 0 || *sample.CpuLoad > 1.5) {
		sample.CpuLoad = nil
	}
	if sample.PlayersOnline != nil && *sample.PlayersOnline < 0 {
		sample.PlayersOnline = nil
	}
	if sample.PlayersMax != nil && *sample.PlayersMax < 0 {
		sample.PlayersMax = nil
	}
	if sample.PlayersOnline != nil && sample.PlayersMax != nil && *sample.PlayersOnline > *sample.PlayersMax {
		clamped := *sample.PlayersMax
		sample.PlayersOnline = &clamped
	}
	if sample.Tps != nil && *sample.Tps < 0 {
		sample.Tps = nil
	}
	if sample.RxKbps != nil && *sample.RxKbps < 0 {
		sample.RxKbps = nil
	}
	if sample.TxKbps != nil && *sample.TxKbps < 0 {
		sample.TxKbps = nil
	}
}

// IngestMetrics sanitizes and persists one telemetry sample: the latest
// snapshot is replaced and a history row is appended, atomically. The
// reporting server is registered as known on first contact.
func (database *Database) IngestMetrics(sample *domain.MetricsSample) error {
	if sample == nil {
		return errors.New("metrics sample must not be nil")
	}
	serverKey := strings.TrimSpace(sample.ServerKey)
	if serverKey == "" {
		return errors.New("server key must not be blank")
	}

	sanitizeMetrics(sample)
	now := fmtTime(time.Now())

	tx, err := database.db.Begin()
	if err != nil {
		return fmt.Errorf("begin metrics tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO servers (server_key, created_at, last_seen_at) VALUES (?, ?, ?)
		ON CONFLICT(server_key) DO UPDATE SET last_seen_at = excluded.last_seen_at`,
		serverKey, now, now)
	if err != nil {
		return fmt.Errorf("upsert server: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO server_metrics_latest
			(server_key, ram_used_mb, ram_max_mb, cpu_load, players_online, players_max, tps, rx_kbps, tx_kbps, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(server_key) DO UPDATE SET
			ram_used_mb = excluded.ram_used_mb,
			ram_max_mb = excluded.ram_max_mb,
			cpu_load = excluded.cpu_load,
			players_online = excluded.players_online,
			players_max = excluded.players_max,
			tps = excluded.tps,
			rx_kbps = excluded.rx_kbps,
			tx_kbps = excluded.tx_kbps,
			updated_at = excluded.updated_at`,
		serverKey, sample.RamUsedMb, sample.RamMaxMb, sample.CpuLoad,
		sample.PlayersOnline, sample.PlayersMax, sample.Tps, sample.RxKbps, sample.TxKbps, now)
	if err != nil {
		return fmt.Errorf("upsert latest metrics: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO server_metrics
			(server_key, at, ram_used_mb, ram_max_mb, cpu_load, players_online, players_max, tps, rx_kbps, tx_kbps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		serverKey, now, sample.RamUsedMb, sample.RamMaxMb, sample.CpuLoad,
		sample.PlayersOnline, sample.PlayersMax, sample.Tps, sample.RxKbps, sample.TxKbps)
	if err != nil {
		return fmt.Errorf("append metrics history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit metrics tx: %w", err)
	}

	database.publishInvalidate("stats")
	return nil
}

// LoadLatestMetrics returns the latest snapshot for serverKey, or nil when
// the server never reported.
func (database *Database) LoadLatestMetrics(serverKey string) (error, *domain.Metrics) {
	row := database.db.QueryRow(`
		SELECT ram_used_mb, ram_max_mb, cpu_load, players_online, players_max, tps, rx_kbps, tx_kbps, updated_at
		FROM server_metrics_latest WHERE server_key = ?`, strings.TrimSpace(serverKey))

	var metrics domain.Metrics
	err := row.Scan(&metrics.RamUsedMb, &metrics.RamMaxMb, &metrics.CpuLoad,
		&metrics.PlayersOnline, &metrics.PlayersMax, &metrics.Tps,
		&metrics.RxKbps, &metrics.TxKbps, &metrics.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return fmt.Errorf("load latest metrics: %w", err), nil
	}
	return nil, &metrics
}

// LoadMetricsHistory returns the most recent history points for serverKey
// in chronological order. The limit is clamped to [10, 2000].
func (database *Database) LoadMetricsHistory(serverKey string, limit int) (error, *[]domain.MetricPoint) {
	if limit <= 0 {
		limit = metricsHistoryDefaultLimit
	}
	if limit < metricsHistoryMinLimit {
		limit = metricsHistoryMinLimit
	}
	if limit > metricsHistoryMaxLimit {
		limit = metricsHistoryMaxLimit
	}

	rows, err := database.db.Query(`
		SELECT at, players_online, tps, cpu_load, ram_used_mb
		FROM server_metrics WHERE server_key = ?
		ORDER BY id DESC LIMIT ?`, strings.TrimSpace(serverKey), limit)
	if err != nil {
		return fmt.Errorf("query metrics history: %w", err), nil
	}
	defer rows.Close()

	points := make([]domain.MetricPoint, 0, limit)
	for rows.Next() {
		var point domain.MetricPoint
		if err := rows.Scan(&point.At, &point.PlayersOnline, &point.Tps, &point.CpuLoad, &point.RamUsedMb); err != nil {
			return fmt.Errorf("scan metrics point: %w", err), nil
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan metrics history: %w", err), nil
	}

	// Newest-first from the query, flipped for charting.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return nil, &points
}

// FirstServerKey returns the first registered server key, used as the
// default selection in the admin stats view. Blank when none reported yet.
func (database *Database) FirstServerKey() (error, string) {
	var key string
	err := database.db.QueryRow(`SELECT server_key FROM servers ORDER BY created_at ASC, server_key ASC LIMIT 1`).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ""
	}
	if err != nil {
		return fmt.Errorf("read first server key: %w", err), ""
	}
	return nil, key
}
