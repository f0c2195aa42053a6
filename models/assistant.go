package models

// AssistantEvent is the Kafka payload exchanged with the assistant service.
// Outbound messages carry the record under work; inbound responses stream
// back chunks keyed by the same session.
type AssistantEvent struct {
	RecordID   string `json:"record_id"`
	SessionKey string `json:"session_key"`
	Chunk      string `json:"chunk,omitempty"`
	Error      string `json:"error,omitempty"`
	LastChunk  bool   `json:"last_chunk"`
}
