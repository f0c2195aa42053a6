package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bloom-planner/api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore implements RecordStore with the same conditional-update
// semantics the Mongo store provides.
type memoryStore struct {
	mu      sync.Mutex
	records map[string]*models.ChatRecord
	failOn  string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]*models.ChatRecord)}
}

func (m *memoryStore) CreateRecord(ctx context.Context, record *models.ChatRecord) error {
	if m.failOn == "create" {
		return errors.New("store unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *record
	m.records[record.ID] = &clone
	return nil
}

func (m *memoryStore) GetRecord(ctx context.Context, id string) (*models.ChatRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (m *memoryStore) UpdateRecordStatus(ctx context.Context, id string, to models.RecordStatus, errMsg string, allowedFrom []models.RecordStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	for _, from := range allowedFrom {
		if record.Status == from {
			record.Status = to
			record.Error = errMsg
			record.UpdatedAt = time.Now().Unix()
			return nil
		}
	}
	return ErrStatusConflict
}

func (m *memoryStore) ListRecordsBySession(ctx context.Context, sessionKey string) ([]models.ChatRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatRecord
	for _, record := range m.records {
		if record.SessionKey == sessionKey {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (m *memoryStore) ListUnsettledBefore(ctx context.Context, updatedBefore int64) ([]*models.ChatRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ChatRecord
	for _, record := range m.records {
		settled := record.Status == models.RecordStatusCompleted || record.Status == models.RecordStatusFailed
		if !settled && record.UpdatedAt <= updatedBefore {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func TestSubmit_AnonymousGetsGuestAndFreshKey(t *testing.T) {
	store := newMemoryStore()
	tr := New(store, nil)

	record, err := tr.Submit(context.Background(), "water the ferns", AuthorContext{})
	require.NoError(t, err)

	assert.Equal(t, models.GuestAuthor, record.Author)
	assert.NotEmpty(t, record.SessionKey)
	assert.Equal(t, models.RecordStatusPending, record.Status)

	// No explicit key means a new conversation, not a collapsed one.
	second, err := tr.Submit(context.Background(), "another request", AuthorContext{})
	require.NoError(t, err)
	assert.NotEqual(t, record.SessionKey, second.SessionKey)
}

func TestSubmit_KeepsCallerIdentityAndKey(t *testing.T) {
	store := newMemoryStore()
	tr := New(store, nil)

	record, err := tr.Submit(context.Background(), "plan the week", AuthorContext{
		UserID:     "user123",
		Name:       "user@example.com",
		SessionKey: "session-abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", record.Author)
	assert.Equal(t, "session-abc", record.SessionKey)
	assert.Equal(t, "user123", record.UserID)
}

func TestSubmit_VisibleImmediatelyAsPending(t *testing.T) {
	store := newMemoryStore()
	tr := New(store, nil)

	record, err := tr.Submit(context.Background(), "payload", AuthorContext{})
	require.NoError(t, err)

	stored, err := tr.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusPending, stored.Status)
}

func TestSubmit_StoreErrorPropagates(t *testing.T) {
	store := newMemoryStore()
	store.failOn = "create"
	tr := New(store, nil)

	_, err := tr.Submit(context.Background(), "payload", AuthorContext{})
	assert.ErrorContains(t, err, "store unavailable")
}

func TestAdvance_HappyPathIsMonotonic(t *testing.T) {
	store := newMemoryStore()
	tr := New(store, nil)
	ctx := context.Background()

	record, err := tr.Submit(ctx, "payload", AuthorContext{})
	require.NoError(t, err)

	require.NoError(t, tr.Advance(ctx, record.ID, models.RecordStatusProcessing))
	require.NoError(t, tr.Advance(ctx, record.ID, models.RecordStatusCompleted))

	final, err := tr.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusCompleted, final.Status)

	// Once settled, nothing moves the record again.
	assert.ErrorIs(t, tr.Advance(ctx, record.ID, models.RecordStatusProcessing), ErrStatusConflict)
	assert.ErrorIs(t, tr.Fail(ctx, record.ID, errors.New("late failure")), ErrStatusConflict)
}

func TestAdvance_RejectsBackwardAndUnknownTargets(t *testing.T) {
	store := newMemoryStore()
	tr := New(store, nil)
	ctx := context.Background()

	record, err := tr.Submit(ctx, "payload", AuthorContext{})
	require.NoError(t, err)

	assert.ErrorIs(t, tr.Advance(ctx, record.ID, models.RecordStatusPending), ErrInvalidTransition)
	assert.ErrorIs(t, tr.Advance(ctx, record.ID, models.RecordStatus("archived")), ErrInvalidTransition)

	// Skipping processing is not a legal forward move either.
	assert.ErrorIs(t, tr.Advance(ctx, record.ID, models.RecordStatusCompleted), ErrStatusConflict)
}

func TestFail_PreservesCauseFromEitherActiveState(t *testing.T) {
	store := newMemoryStore()
	tr := New(store, nil)
	ctx := context.Background()

	fromPending, err := tr.Submit(ctx, "payload", AuthorContext{})
	require.NoError(t, err)
	require.NoError(t, tr.Fail(ctx, fromPending.ID, errors.New("broker rejected message")))

	stored, err := tr.Get(ctx, fromPending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusFailed, stored.Status)
	assert.Equal(t, "broker rejected message", stored.Error)

	fromProcessing, err := tr.Submit(ctx, "payload", AuthorContext{})
	require.NoError(t, err)
	require.NoError(t, tr.Advance(ctx, fromProcessing.ID, models.RecordStatusProcessing))
	require.NoError(t, tr.Fail(ctx, fromProcessing.ID, errors.New("assistant timeout")))

	stored, err = tr.Get(ctx, fromProcessing.ID)
	require.NoError(t, err)
	assert.Equal(t, "assistant timeout", stored.Error)
}

func TestSweepStuck(t *testing.T) {
	store := newMemoryStore()
	tr := New(store, nil)
	ctx := context.Background()

	stuck, err := tr.Submit(ctx, "old request", AuthorContext{})
	require.NoError(t, err)
	require.NoError(t, tr.Advance(ctx, stuck.ID, models.RecordStatusProcessing))

	fresh, err := tr.Submit(ctx, "new request", AuthorContext{})
	require.NoError(t, err)

	// Age only the stuck record past the deadline.
	store.mu.Lock()
	store.records[stuck.ID].UpdatedAt = time.Now().Add(-time.Hour).Unix()
	store.mu.Unlock()

	sweeper := NewSweeper(tr, 10*time.Minute, time.Minute, nil)
	swept, err := sweeper.SweepStuck(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	sweptRecord, err := tr.Get(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusFailed, sweptRecord.Status)
	assert.NotEmpty(t, sweptRecord.Error)

	freshRecord, err := tr.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusPending, freshRecord.Status)
}
