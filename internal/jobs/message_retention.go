package jobs

import (
	"context"
	"log"
	"time"
)

// MessagePruner deletes chat messages created before a cutoff
type MessagePruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MessageRetentionJob deletes chat messages older than the retention period.
// A retention of zero days keeps everything.
type MessageRetentionJob struct {
	messages      MessagePruner
	retentionDays int
	now           func() time.Time
}

// NewMessageRetentionJob creates a new message retention job
func NewMessageRetentionJob(messages MessagePruner, retentionDays int) *MessageRetentionJob {
	return &MessageRetentionJob{
		messages:      messages,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Run deletes every message older than the cutoff
func (j *MessageRetentionJob) Run(ctx context.Context) error {
	if j.retentionDays <= 0 {
		return nil
	}

	cutoff := j.now().UTC().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.messages.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	log.Printf("[RETENTION] Deleted %d messages older than %s", deleted, cutoff.Format(time.RFC3339))
	return nil
}
