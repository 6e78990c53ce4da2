package domain

import "time"

// Actor classification for bans and ban events
const (
	ActorWeb    = "WEB"    // Issued from the admin UI
	ActorServer = "SERVER" // Enforced by a game server and reported back
)

// Ban target types
const (
	TargetXuid = "XUID"
	TargetIP   = "IP"
	TargetHwid = "HWID"
)

// Ban event types (append-only audit trail)
const (
	BanEventCreated  = "CREATED"
	BanEventEnforced = "ENFORCED"
	BanEventRevoked  = "REVOKED"
)

// The change feed only ever emits full row upserts.
const BanChangeUpsert = "BAN_UPSERT"

// Ban is one ban ledger row. Whether a ban is active is never stored,
// only derived: revoked_at unset and expires_at unset or in the future.
type Ban struct {
	BanId          int64      `json:"banId"`
	Xuid           string     `json:"xuid"`
	Reason         string     `json:"reason"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      *time.Time `json:"expiresAt"` // nil = permanent
	RevokedAt      *time.Time `json:"revokedAt"` // nil = not revoked
	UpdatedAt      time.Time  `json:"updatedAt"`
	ActorType      string     `json:"actorType"`
	ActorUsername  string     `json:"actorUsername,omitempty"`
	ActorServerKey string     `json:"actorServerKey,omitempty"`
}

// IsActive recomputes activeness at the given instant.
func (b *Ban) IsActive(now time.Time) bool {
	if b.RevokedAt != nil {
		return false
	}
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

// BanEvent is one append-only audit row for a ban. Never updated or
// deleted. The actor columns record who caused the event, WEB or SERVER.
type BanEvent struct {
	Id             int64     `json:"id"`
	BanId          int64     `json:"banId"`
	EventType      string    `json:"eventType"`
	ActorType      string    `json:"actorType"`
	ActorUsername  *string   `json:"actorUsername,omitempty"`
	ActorServerKey *string   `json:"actorServerKey,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	Details        *string   `json:"details,omitempty"`
}

// BanReport is the body of a server-side ban report: the game server has
// already enforced the ban locally and informs the backend.
type BanReport struct {
	Xuid            string `json:"xuid"`
	Reason          string `json:"reason,omitempty"`
	IP              string `json:"ip,omitempty"`
	Hwid            string `json:"hwid,omitempty"`
	DurationSeconds int64  `json:"durationSeconds,omitempty"` // 0 = permanent
}

// BanChange is one entry of the incremental change feed consumed by game
// servers. Always a full upsert of the current row state.
type BanChange struct {
	Type      string  `json:"type"` // always "BAN_UPSERT"
	BanId     int64   `json:"banId"`
	Xuid      string  `json:"xuid"`
	Reason    string  `json:"reason"`
	CreatedAt string  `json:"createdAt"`
	ExpiresAt *string `json:"expiresAt"`
	RevokedAt *string `json:"revokedAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// BanChangeBatch is the ban change feed response. A consumer advances its
// cursor to the last UpdatedAt and re-requests until a page comes back
// non-full.
type BanChangeBatch struct {
	ServerTime string      `json:"serverTime"`
	Changes    []BanChange `json:"changes"`
}
