package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/danmuhq/danmuz/pkg/logger"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Submitter hands a search task to the queue. It is fire-and-forget: the
// caller never awaits execution.
type Submitter interface {
	Submit(ctx context.Context, task SearchTask) error
}

// Queue submits search tasks to redis via asynq. The asynq server that
// executes them runs elsewhere.
type Queue struct {
	client *asynq.Client
	queue  string
}

// QueueOption configures a Queue
type QueueOption func(*Queue)

// WithQueueName routes tasks to a named asynq queue instead of "default"
func WithQueueName(name string) QueueOption {
	return func(q *Queue) {
		q.queue = name
	}
}

// NewQueue connects a task submitter to redis
func NewQueue(redisAddr string, opts ...QueueOption) *Queue {
	q := &Queue{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
		queue:  "default",
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

// isTaskConflict reports whether the error indicates the deterministic task id
// already exists, i.e. a duplicate webhook delivery.
func isTaskConflict(err error) bool {
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "task ID conflicts") || strings.Contains(msg, "duplicate task")
}

// Submit enqueues the task under its deterministic key. A key conflict means
// the same media unit was already submitted and is not an error.
func (q *Queue) Submit(ctx context.Context, task SearchTask) error {
	log := logger.FromCtx(ctx)

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal search task: %w", err)
	}

	t := asynq.NewTask(TypeWebhookSearch, payload, asynq.TaskID(task.Key()), asynq.Queue(q.queue))
	info, err := q.client.EnqueueContext(ctx, t)
	if err != nil {
		if isTaskConflict(err) {
			log.Info("duplicate webhook delivery, task already queued", zap.String("key", task.Key()))
			return nil
		}
		return fmt.Errorf("enqueue search task: %w", err)
	}

	log.Info("dispatched search task",
		zap.String("key", task.Key()),
		zap.String("queue", info.Queue),
		zap.String("title", task.TaskTitle()))
	return nil
}

// Close releases the redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
