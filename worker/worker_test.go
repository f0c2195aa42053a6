package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"bloom-planner/api/models"
	"bloom-planner/api/sse"
	"bloom-planner/api/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	mu      sync.Mutex
	records map[string]*models.ChatRecord
}

func newStubStore() *stubStore {
	return &stubStore{records: make(map[string]*models.ChatRecord)}
}

func (s *stubStore) CreateRecord(ctx context.Context, record *models.ChatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *stubStore) GetRecord(ctx context.Context, id string) (*models.ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, tracker.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *stubStore) UpdateRecordStatus(ctx context.Context, id string, to models.RecordStatus, errMsg string, allowedFrom []models.RecordStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return tracker.ErrRecordNotFound
	}
	for _, from := range allowedFrom {
		if record.Status == from {
			record.Status = to
			record.Error = errMsg
			record.UpdatedAt = time.Now().Unix()
			return nil
		}
	}
	return tracker.ErrStatusConflict
}

func (s *stubStore) ListRecordsBySession(ctx context.Context, sessionKey string) ([]models.ChatRecord, error) {
	return nil, nil
}

func (s *stubStore) ListUnsettledBefore(ctx context.Context, updatedBefore int64) ([]*models.ChatRecord, error) {
	return nil, nil
}

func submitRecord(t *testing.T, tr *tracker.Tracker) *models.ChatRecord {
	t.Helper()
	record, err := tr.Submit(context.Background(), "payload", tracker.AuthorContext{SessionKey: "session-abc"})
	require.NoError(t, err)
	return record
}

func TestHandle_ChunkStreamSettlesRecord(t *testing.T) {
	store := newStubStore()
	tr := tracker.New(store, nil)
	pool := NewPool(1, tr)
	record := submitRecord(t, tr)

	first := models.AssistantEvent{RecordID: record.ID, SessionKey: record.SessionKey, Chunk: "thinking"}
	pool.handle(first, "{}")

	current, err := tr.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusProcessing, current.Status)

	// More mid-stream chunks leave the status alone.
	pool.handle(first, "{}")
	current, _ = tr.Get(context.Background(), record.ID)
	assert.Equal(t, models.RecordStatusProcessing, current.Status)

	last := models.AssistantEvent{RecordID: record.ID, SessionKey: record.SessionKey, LastChunk: true}
	pool.handle(last, "{}")

	current, err = tr.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusCompleted, current.Status)
}

func TestHandle_SingleChunkResponseCompletesFromPending(t *testing.T) {
	store := newStubStore()
	tr := tracker.New(store, nil)
	pool := NewPool(1, tr)
	record := submitRecord(t, tr)

	only := models.AssistantEvent{RecordID: record.ID, SessionKey: record.SessionKey, Chunk: "done", LastChunk: true}
	pool.handle(only, "{}")

	current, err := tr.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusCompleted, current.Status)
}

func TestHandle_RedeliveredFinalEventIsIdempotent(t *testing.T) {
	store := newStubStore()
	tr := tracker.New(store, nil)
	pool := NewPool(1, tr)
	record := submitRecord(t, tr)

	stream := sse.Register(record.SessionKey)
	defer sse.Unregister(record.SessionKey, stream)

	last := models.AssistantEvent{RecordID: record.ID, SessionKey: record.SessionKey, Chunk: "done", LastChunk: true}
	pool.handle(last, "{}")

	// At-least-once delivery can hand the same final event to a worker
	// twice; the second pass must not disturb the settled record or the
	// subscriber.
	assert.NotPanics(t, func() {
		pool.handle(last, "{}")
	})

	current, err := tr.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusCompleted, current.Status)

	select {
	case <-stream.Done:
	default:
		t.Fatal("expected the subscriber stream to be finished")
	}
}

func TestSubmit_DropAfterStopKeepsBufferGaugeAccurate(t *testing.T) {
	store := newStubStore()
	tr := tracker.New(store, nil)
	pool := NewPool(1, tr)

	// Fill the partition buffer without starting workers so the next
	// submit cannot enqueue.
	for i := 0; i < cap(pool.partitions[0]); i++ {
		pool.Submit([]byte("{}"), 0)
	}
	pool.Stop()
	pool.Submit([]byte("{}"), 0)

	pool.mu.RLock()
	defer pool.mu.RUnlock()
	assert.Equal(t, uint64(cap(pool.partitions[0])), pool.bufferFillLevels[0])
	assert.Equal(t, uint64(1), pool.messagesDropped)
}

func TestHandle_AssistantErrorFailsRecord(t *testing.T) {
	store := newStubStore()
	tr := tracker.New(store, nil)
	pool := NewPool(1, tr)
	record := submitRecord(t, tr)

	failure := models.AssistantEvent{RecordID: record.ID, SessionKey: record.SessionKey, Error: "model overloaded"}
	pool.handle(failure, "{}")

	current, err := tr.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusFailed, current.Status)
	assert.Equal(t, "model overloaded", current.Error)
}
