package db

const sqlCreatePlayersTable = `
	CREATE TABLE IF NOT EXISTS players (
		xuid TEXT PRIMARY KEY,
		last_name TEXT NOT NULL DEFAULT 'Unknown',
		online INTEGER NOT NULL DEFAULT 0,
		online_updated_at TEXT,
		first_seen_at TEXT NOT NULL,
		last_seen_at TEXT,
		last_ip TEXT,
		last_hwid TEXT
	);
`

const sqlCreateBansTable = `
	CREATE TABLE IF NOT EXISTS bans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		xuid TEXT NOT NULL,
		reason TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		expires_at TEXT,
		revoked_at TEXT,
		actor_type TEXT NOT NULL,
		actor_username TEXT,
		actor_server_key TEXT
	);
`

const sqlCreateBansIndices = `
	CREATE INDEX IF NOT EXISTS idx_bans_xuid ON bans(xuid);
	CREATE INDEX IF NOT EXISTS idx_bans_updated_at ON bans(updated_at);
`

const sqlCreateBanTargetsTable = `
	CREATE TABLE IF NOT EXISTS ban_targets (
		ban_id INTEGER NOT NULL REFERENCES bans(id) ON DELETE CASCADE,
		target_type TEXT NOT NULL,
		target_value TEXT NOT NULL,
		UNIQUE(ban_id, target_type, target_value)
	);
`

const sqlCreateBanEventsTable = `
	CREATE TABLE IF NOT EXISTS ban_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ban_id INTEGER NOT NULL REFERENCES bans(id) ON DELETE CASCADE,
		event_type TEXT NOT NULL,
		actor_type TEXT NOT NULL,
		actor_username TEXT,
		actor_server_key TEXT,
		created_at TEXT NOT NULL,
		details TEXT
	);
`

const sqlCreateServerCommandsTable = `
	CREATE TABLE IF NOT EXISTS server_commands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server_key TEXT NOT NULL,
		type TEXT NOT NULL,
		payload_json TEXT,
		created_at TEXT NOT NULL,
		acknowledged_at TEXT
	);
`

const sqlCreateServerCommandsIndices = `
	CREATE INDEX IF NOT EXISTS idx_server_commands_open
		ON server_commands(server_key, id) WHERE acknowledged_at IS NULL;
`

const sqlCreateMetricsLatestTable = `
	CREATE TABLE IF NOT EXISTS server_metrics_latest (
		server_key TEXT PRIMARY KEY,
		ram_used_mb INTEGER,
		ram_max_mb INTEGER,
		cpu_load REAL,
		players_online INTEGER,
		players_max INTEGER,
		tps REAL,
		rx_kbps REAL,
		tx_kbps REAL,
		updated_at TEXT NOT NULL
	);
`

const sqlCreateMetricsHistoryTable = `
	CREATE TABLE IF NOT EXISTS server_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server_key TEXT NOT NULL,
		at TEXT NOT NULL,
		ram_used_mb INTEGER,
		ram_max_mb INTEGER,
		cpu_load REAL,
		players_online INTEGER,
		players_max INTEGER,
		tps REAL,
		rx_kbps REAL,
		tx_kbps REAL
	);
`

const sqlCreateMetricsHistoryIndices = `
	CREATE INDEX IF NOT EXISTS idx_server_metrics_key_at ON server_metrics(server_key, at);
`

const sqlCreatePlayerStatsTable = `
	CREATE TABLE IF NOT EXISTS player_stats (
		xuid TEXT PRIMARY KEY,
		playtime_seconds INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);
`

const sqlCreateServersTable = `
	CREATE TABLE IF NOT EXISTS servers (
		server_key TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		last_seen_at TEXT
	);
`

const sqlCreateAuditLogTable = `
	CREATE TABLE IF NOT EXISTS admin_audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor TEXT NOT NULL,
		action_key TEXT NOT NULL,
		details TEXT,
		created_at TEXT NOT NULL
	);
`
