package notify

import (
	"context"
	"time"

	"bloom-planner/api/models"

	"go.uber.org/zap"
)

// Skip reasons reported instead of an empty success, so callers can tell
// "nothing due" apart from "notifications off".
const (
	SkipReasonUnauthenticated = "unauthenticated"
	SkipReasonDisabled        = "notifications disabled"
)

// EntityStore is the slice of the external entity store the scanner needs:
// equality on created_by plus set-membership on the indexed date field.
type EntityStore interface {
	ListTasksDue(ctx context.Context, createdBy string, dates []string) ([]models.Task, error)
	ListEventsDue(ctx context.Context, createdBy string, dates []string) ([]models.SpecialEvent, error)
}

// ScanResult distinguishes a skipped scan from an empty one.
type ScanResult struct {
	Skipped bool                  `json:"skipped"`
	Reason  string                `json:"reason,omitempty"`
	Tasks   []models.Task         `json:"tasks"`
	Events  []models.SpecialEvent `json:"events"`
}

type Scanner struct {
	store EntityStore
	now   func() time.Time
	log   *zap.Logger
}

func NewScanner(store EntityStore, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{store: store, now: time.Now, log: log}
}

// FindDueItems returns the user's items dated today or tomorrow. The
// reference date is computed once per invocation so every item in the
// response shares the same comparison instant. Completed items are filtered
// again at read time, defending against a stale matched record.
func (s *Scanner) FindDueItems(ctx context.Context, user *models.User) (*ScanResult, error) {
	if user == nil {
		return &ScanResult{Skipped: true, Reason: SkipReasonUnauthenticated}, nil
	}
	if !user.NotificationEnabled {
		return &ScanResult{Skipped: true, Reason: SkipReasonDisabled}, nil
	}

	ref := s.referenceTime(user)
	dates := []string{
		ref.Format("2006-01-02"),
		ref.AddDate(0, 0, 1).Format("2006-01-02"),
	}

	tasks, err := s.store.ListTasksDue(ctx, user.Email, dates)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ListEventsDue(ctx, user.Email, dates)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Tasks: []models.Task{}, Events: []models.SpecialEvent{}}
	for _, task := range tasks {
		if !task.Completed {
			result.Tasks = append(result.Tasks, task)
		}
	}
	for _, event := range events {
		if !event.Completed {
			result.Events = append(result.Events, event)
		}
	}

	s.log.Debug("notification scan complete",
		zap.String("user_email", user.Email),
		zap.Int("tasks", len(result.Tasks)),
		zap.Int("events", len(result.Events)))
	return result, nil
}

// referenceTime resolves "today" in the user's timezone, falling back to UTC
// when the zone is absent or unparseable.
func (s *Scanner) referenceTime(user *models.User) time.Time {
	now := s.now()
	if user.Timezone == nil || *user.Timezone == "" {
		return now.UTC()
	}
	loc, err := time.LoadLocation(*user.Timezone)
	if err != nil {
		s.log.Warn("unparseable timezone, using UTC",
			zap.String("timezone", *user.Timezone),
			zap.Error(err))
		return now.UTC()
	}
	return now.In(loc)
}
