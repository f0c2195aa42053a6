package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"bloom-planner/api/logger"
	"bloom-planner/api/models"
	"bloom-planner/api/sse"
	"bloom-planner/api/tracker"

	"go.uber.org/zap"
)

// Pool advances async records as assistant responses arrive: the first chunk
// moves a record to processing, the last one settles it. Jobs for the same
// partition are handled by the same worker so a session's chunks stay
// ordered.
type Pool struct {
	workers    int
	partitions []chan []byte
	records    *tracker.Tracker
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Metrics
	mu                 sync.RWMutex
	messagesProcessed  uint64
	processingDuration uint64
	bufferFillLevels   []uint64
	messagesDropped    uint64
}

const advanceTimeout = 10 * time.Second

func NewPool(workers int, records *tracker.Tracker) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	partitions := make([]chan []byte, workers)
	bufferLevels := make([]uint64, workers)
	for i := range partitions {
		partitions[i] = make(chan []byte, 100) // Buffer size of 100 per partition
	}
	return &Pool{
		workers:          workers,
		partitions:       partitions,
		records:          records,
		ctx:              ctx,
		cancelFunc:       cancel,
		bufferFillLevels: bufferLevels,
	}
}

func (p *Pool) Start() {
	logger.Get().Info("Starting worker pool", zap.Int("workers", p.workers))
	for i := range p.partitions {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels the pool context and waits for the workers. The partition
// channels are left open so a straggling Submit from the consumer can never
// send on a closed channel; its job is simply dropped with the pool.
func (p *Pool) Stop() {
	logger.Get().Info("Stopping worker pool")
	p.cancelFunc()
	p.wg.Wait()
}

func (p *Pool) Submit(job []byte, partition int32) {
	slot := int(partition) % len(p.partitions)
	if slot < 0 {
		slot += len(p.partitions)
	}

	p.mu.Lock()
	p.bufferFillLevels[slot]++
	p.mu.Unlock()

	select {
	case p.partitions[slot] <- job:
		logger.Get().Debug("Job submitted to worker pool",
			zap.Int("partition", slot))
	case <-p.ctx.Done():
		// The job never entered the buffer, so back out the fill gauge.
		p.mu.Lock()
		p.bufferFillLevels[slot]--
		p.messagesDropped++
		p.mu.Unlock()
		logger.Get().Warn("Worker pool is stopped, job not submitted")
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	logger.Get().Info("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case job := <-p.partitions[id]:
			p.mu.Lock()
			p.bufferFillLevels[id]--
			p.mu.Unlock()

			startTime := time.Now()

			var event models.AssistantEvent
			if err := json.Unmarshal(job, &event); err != nil {
				p.mu.Lock()
				p.messagesDropped++
				p.mu.Unlock()
				logger.Get().Error("Failed to unmarshal assistant event",
					zap.Int("worker_id", id),
					zap.Error(err))
				continue
			}

			p.handle(event, string(job))

			p.mu.Lock()
			p.messagesProcessed++
			p.processingDuration += uint64(time.Since(startTime).Milliseconds())
			p.mu.Unlock()

		case <-p.ctx.Done():
			logger.Get().Info("Worker stopping due to context cancellation",
				zap.Int("worker_id", id))
			return
		}
	}
}

func (p *Pool) handle(event models.AssistantEvent, raw string) {
	ctx, cancel := context.WithTimeout(p.ctx, advanceTimeout)
	defer cancel()

	switch {
	case event.Error != "":
		if err := p.records.Fail(ctx, event.RecordID, errors.New(event.Error)); err != nil {
			logger.Get().Error("failed to mark record failed",
				zap.String("record_id", event.RecordID),
				zap.Error(err))
		}
		sse.Publish(event.SessionKey, raw, true)

	case event.LastChunk:
		// A single-chunk response may still be pending here; step through
		// processing before settling.
		p.advance(ctx, event.RecordID, models.RecordStatusProcessing)
		p.advance(ctx, event.RecordID, models.RecordStatusCompleted)
		sse.Publish(event.SessionKey, raw, true)

	default:
		p.advance(ctx, event.RecordID, models.RecordStatusProcessing)
		sse.Publish(event.SessionKey, raw, false)
	}
}

// advance tolerates ErrStatusConflict: a record already at or past the
// target status is not a problem for a stream of chunks.
func (p *Pool) advance(ctx context.Context, recordID string, to models.RecordStatus) {
	err := p.records.Advance(ctx, recordID, to)
	if err != nil && !errors.Is(err, tracker.ErrStatusConflict) {
		logger.Get().Error("failed to advance record",
			zap.String("record_id", recordID),
			zap.String("status", string(to)),
			zap.Error(err))
	}
}

// MetricsHandler returns the current metrics as JSON
func (p *Pool) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var avgProcessingTime float64
	if p.messagesProcessed > 0 {
		avgProcessingTime = float64(p.processingDuration) / float64(p.messagesProcessed)
	}

	metrics := map[string]any{
		"messages_processed": p.messagesProcessed,
		"messages_dropped":   p.messagesDropped,
		"avg_processing_ms":  avgProcessingTime,
		"buffer_levels":      p.bufferFillLevels,
		"active_workers":     p.workers,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}
