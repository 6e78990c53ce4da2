package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Player is one known game account, created on first report from any
// source and never deleted.
type Player struct {
	Xuid            string     `json:"xuid"`            // Opaque stable player id
	Name            string     `json:"name"`            // Last known display name
	Online          bool       `json:"online"`          // Derived from presence reports
	OnlineUpdatedAt *time.Time `json:"onlineUpdatedAt"` // When the online flag last changed
	LastSeenAt      *time.Time `json:"lastSeenAt"`      // Last confirmed presence (online=true report)
	FirstSeenAt     *time.Time `json:"firstSeenAt"`
	LastIP          string     `json:"lastIp,omitempty"`   // Sticky: blank reports keep the previous value
	LastHwid        string     `json:"lastHwid,omitempty"` // Sticky, same as LastIP
}

// PresenceReport is the request body of the presence endpoint. Legacy
// clients POST a bare array of entries instead; see UnmarshalJSON.
type PresenceReport struct {
	// Snapshot marks the players list as the complete set of currently
	// online players. Everyone else gets swept offline.
	Snapshot bool            `json:"snapshot"`
	Players  []PresenceEntry `json:"players"`
}

// UnmarshalJSON accepts both the object form and the legacy bare-array
// form (old clients POST just the players list, which implies event mode).
func (r *PresenceReport) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		r.Snapshot = false
		return json.Unmarshal(trimmed, &r.Players)
	}

	type alias PresenceReport
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = PresenceReport(a)
	return nil
}

type PresenceEntry struct {
	Xuid   string `json:"xuid"`
	Name   string `json:"name,omitempty"`
	Online *bool  `json:"online,omitempty"` // nil defaults per mode: snapshot=true, event=false
	IP     string `json:"ip,omitempty"`
	Hwid   string `json:"hwid,omitempty"`
}

// StatsEntry is one player's accumulated deltas since the last batch.
type StatsEntry struct {
	Xuid                 string `json:"xuid"`
	Name                 string `json:"name,omitempty"`
	PlaytimeDeltaSeconds int64  `json:"playtimeDeltaSeconds"`
	KillsDelta           int64  `json:"killsDelta"`
	DeathsDelta          int64  `json:"deathsDelta"`
}

// PlayerStats is the accumulated lifetime record for one player.
type PlayerStats struct {
	Xuid            string `json:"xuid"`
	PlaytimeSeconds int64  `json:"playtimeSeconds"`
	Kills           int64  `json:"kills"`
	Deaths          int64  `json:"deaths"`
	UpdatedAt       string `json:"updatedAt"`
}
