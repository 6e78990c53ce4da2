package domain

// MetricsSample is the raw client-reported telemetry body. All fields are
// optional; pointers distinguish "absent" from zero. Values are sanitized
// before persistence, never trusted as-is.
type MetricsSample struct {
	ServerKey     string   `json:"serverKey"`
	RamUsedMb     *int64   `json:"ramUsedMb,omitempty"`
	RamMaxMb      *int64   `json:"ramMaxMb,omitempty"`
	CpuLoad       *float64 `json:"cpuLoad,omitempty"`
	PlayersOnline *int64   `json:"playersOnline,omitempty"`
	PlayersMax    *int64   `json:"playersMax,omitempty"`
	Tps           *float64 `json:"tps,omitempty"`
	RxKbps        *float64 `json:"rxKbps,omitempty"`
	TxKbps        *float64 `json:"txKbps,omitempty"`
}

// Metrics is the latest sanitized snapshot for one server key. Nil fields
// mean the value was unknown or rejected.
type Metrics struct {
	UpdatedAt     string   `json:"updatedAt"`
	RamUsedMb     *int64   `json:"ramUsedMb"`
	RamMaxMb      *int64   `json:"ramMaxMb"`
	CpuLoad       *float64 `json:"cpuLoad"`
	PlayersOnline *int64   `json:"playersOnline"`
	PlayersMax    *int64   `json:"playersMax"`
	Tps           *float64 `json:"tps"`
	RxKbps        *float64 `json:"rxKbps"`
	TxKbps        *float64 `json:"txKbps"`
}

// MetricPoint is one history row, trimmed to the fields charted by the
// admin UI.
type MetricPoint struct {
	At            string   `json:"at"`
	PlayersOnline *int64   `json:"playersOnline"`
	Tps           *float64 `json:"tps"`
	CpuLoad       *float64 `json:"cpuLoad"`
	RamUsedMb     *int64   `json:"ramUsedMb"`
}
