package models

// RecordStatus is the lifecycle state of an async record. Transitions are
// monotonic: pending -> processing -> completed, with failed reachable from
// pending or processing. A record never moves backward.
type RecordStatus string

const (
	RecordStatusPending    RecordStatus = "pending"
	RecordStatusProcessing RecordStatus = "processing"
	RecordStatusCompleted  RecordStatus = "completed"
	RecordStatusFailed     RecordStatus = "failed"
)

// GuestAuthor marks records submitted without an authenticated identity.
const GuestAuthor = "Guest"

// ChatRecord is a durably tracked unit of inbound work. It is written with
// status pending before any processing begins, so a crash mid-pipeline still
// leaves discoverable evidence of the request.
type ChatRecord struct {
	ID         string       `bson:"_id" json:"id"`
	SessionKey string       `bson:"session_key" json:"session_key"`
	Author     string       `bson:"author" json:"author"`
	UserID     string       `bson:"user_id" json:"user_id"`
	Payload    string       `bson:"payload" json:"payload"`
	Status     RecordStatus `bson:"status" json:"status"`
	Error      string       `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt  int64        `bson:"created_at" json:"created_at"`
	UpdatedAt  int64        `bson:"updated_at" json:"updated_at"`
}
