package domain

// AuditEntry is one admin action log row. Writes are best-effort, so the
// log is a trace, not a source of truth.
type AuditEntry struct {
	Id        int64  `json:"id"`
	Actor     string `json:"actor"`
	ActionKey string `json:"actionKey"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"createdAt"`
}
