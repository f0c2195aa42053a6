package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloom-planner/api/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidTransition rejects a target status the state machine never
	// enters through Advance (pending, or an unknown status).
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStatusConflict means the record was not in a status the requested
	// transition is allowed from. Stores return it from conditional updates.
	ErrStatusConflict = errors.New("record status conflict")
	// ErrRecordNotFound is returned when no record exists for the id.
	ErrRecordNotFound = errors.New("record not found")
)

// transitions maps each reachable target status to the statuses it may be
// entered from. Status is monotonic: no entry ever points backward.
var transitions = map[models.RecordStatus][]models.RecordStatus{
	models.RecordStatusProcessing: {models.RecordStatusPending},
	models.RecordStatusCompleted:  {models.RecordStatusProcessing},
	models.RecordStatusFailed:     {models.RecordStatusPending, models.RecordStatusProcessing},
}

// RecordStore is the durable store behind the tracker. UpdateRecordStatus is
// conditional: it must apply the write only while the record is in one of
// allowedFrom, returning ErrStatusConflict otherwise, so concurrent owners
// cannot move a record backward.
type RecordStore interface {
	CreateRecord(ctx context.Context, record *models.ChatRecord) error
	GetRecord(ctx context.Context, id string) (*models.ChatRecord, error)
	UpdateRecordStatus(ctx context.Context, id string, to models.RecordStatus, errMsg string, allowedFrom []models.RecordStatus) error
	ListRecordsBySession(ctx context.Context, sessionKey string) ([]models.ChatRecord, error)
	ListUnsettledBefore(ctx context.Context, updatedBefore int64) ([]*models.ChatRecord, error)
}

// AuthorContext identifies the submitter. All fields are optional: anonymous
// submissions degrade to the Guest author rather than failing.
type AuthorContext struct {
	UserID     string
	Name       string
	SessionKey string
}

type Tracker struct {
	store RecordStore
	now   func() time.Time
	log   *zap.Logger
}

func New(store RecordStore, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{store: store, now: time.Now, log: log}
}

// Submit durably records the request with status pending before any
// processing begins. A fresh session key is generated when the caller
// supplies none, so repeated keyless calls stay independent conversations.
func (t *Tracker) Submit(ctx context.Context, payload string, author AuthorContext) (*models.ChatRecord, error) {
	sessionKey := author.SessionKey
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}
	name := author.Name
	if name == "" {
		name = models.GuestAuthor
	}

	now := t.now().Unix()
	record := &models.ChatRecord{
		ID:         uuid.NewString(),
		SessionKey: sessionKey,
		Author:     name,
		UserID:     author.UserID,
		Payload:    payload,
		Status:     models.RecordStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := t.store.CreateRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("creating record: %w", err)
	}

	t.log.Debug("record submitted",
		zap.String("record_id", record.ID),
		zap.String("session_key", sessionKey),
		zap.String("author", name))
	return record, nil
}

// Advance moves the record forward to the given status. The transition table
// allows only forward movement; the store's conditional write enforces it
// against concurrent owners.
func (t *Tracker) Advance(ctx context.Context, recordID string, to models.RecordStatus) error {
	allowedFrom, ok := transitions[to]
	if !ok {
		return fmt.Errorf("%w: to %q", ErrInvalidTransition, to)
	}

	if err := t.store.UpdateRecordStatus(ctx, recordID, to, "", allowedFrom); err != nil {
		return fmt.Errorf("advancing record %s to %s: %w", recordID, to, err)
	}

	t.log.Debug("record advanced",
		zap.String("record_id", recordID),
		zap.String("status", string(to)))
	return nil
}

// Fail marks the record failed and preserves the triggering error for caller
// inspection. Valid from pending or processing.
func (t *Tracker) Fail(ctx context.Context, recordID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	err := t.store.UpdateRecordStatus(ctx, recordID, models.RecordStatusFailed, msg,
		transitions[models.RecordStatusFailed])
	if err != nil {
		return fmt.Errorf("failing record %s: %w", recordID, err)
	}

	t.log.Warn("record failed",
		zap.String("record_id", recordID),
		zap.String("cause", msg))
	return nil
}

// Get reads a single record, in whatever intermediate state it is currently
// in. Status is the caller's progress signal, not a hidden detail.
func (t *Tracker) Get(ctx context.Context, recordID string) (*models.ChatRecord, error) {
	return t.store.GetRecord(ctx, recordID)
}

// ListSession returns every record of a conversation, oldest first.
func (t *Tracker) ListSession(ctx context.Context, sessionKey string) ([]models.ChatRecord, error) {
	return t.store.ListRecordsBySession(ctx, sessionKey)
}
