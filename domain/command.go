package domain

// ServerCommand is one queued administrative instruction for a game
// server. Delivery is pull-based: the server polls and acknowledges.
type ServerCommand struct {
	Id          int64   `json:"id"`
	Type        string  `json:"type"` // Uppercased command type
	CreatedAt   string  `json:"createdAt"`
	PayloadJson *string `json:"payloadJson"` // Raw JSON payload, nil when empty
}

// CommandBatch is the poll response. It deliberately carries no
// serverKey: the caller already knows which server it is.
type CommandBatch struct {
	ServerTime string          `json:"serverTime"`
	Commands   []ServerCommand `json:"commands"`
}

// CommandAck is the acknowledgement request body.
type CommandAck struct {
	ServerKey string `json:"serverKey"`
	Id        int64  `json:"id"`
}
