// Package events contains the contract of the frames pushed to WebSocket
// clients on /ws.
package events

// Message types
const (
	// TypeConnection greets a client right after it registers
	TypeConnection = "connection"
	// TypeDatasetReplaced carries the summary of a newly ingested dataset
	TypeDatasetReplaced = "dataset:replaced"
	// TypeDatasetCleared has no payload
	TypeDatasetCleared = "dataset:cleared"
)

// Message is the envelope of every frame sent to clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"` // RFC 3339, UTC
	TraceID   string      `json:"trace_id,omitempty"`
}

// ConnectionInfo is the payload of a TypeConnection message
type ConnectionInfo struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}
