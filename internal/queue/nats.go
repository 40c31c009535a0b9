package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"paper-rag/internal/retry"
)

const (
	subjectPrefix      = "tasks."
	defaultMaxAttempts = 5
)

var redelivery = retry.Backoff{Base: time.Second, Max: time.Minute}

// NewNATS constructs a thin NATS-based queue.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return &natsQueue{
		log:       log,
		nc:        nc,
		publish:   nc.Publish,
		flush:     nc.Flush,
		closeConn: nc.Close,
		backoff:   redelivery,
	}
}

type natsQueue struct {
	log     *slog.Logger
	nc      *nats.Conn
	publish   func(subject string, data []byte) error
	flush     func() error
	closeConn func()
	backoff   retry.Backoff
}

func (q *natsQueue) Enqueue(_ context.Context, task Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Type == "" {
		return errors.New("task type required")
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.publish(subjectPrefix+string(task.Type), body)
}

// Close flushes published tasks to the server before closing, since Publish
// only buffers them.
func (q *natsQueue) Close() error {
	defer q.closeConn()
	if err := q.flush(); err != nil {
		return fmt.Errorf("flush tasks: %w", err)
	}
	return nil
}

// Worker consumes tasks of one type until ctx is done. Workers of the same
// type share a queue group, so each task is handled once.
func (q *natsQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	subject := subjectPrefix + string(taskType)
	group := "workers-" + string(taskType)
	sub, err := q.nc.QueueSubscribe(subject, group, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg.Data, handler)
	})
	if err != nil {
		return err
	}
	q.log.Info("worker subscribed", "subject", subject, "group", group)
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (q *natsQueue) handleMessage(ctx context.Context, data []byte, handler Handler) {
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		q.log.Error("failed to decode task", "err", err)
		return
	}

	if wait := time.Until(task.NotBefore); wait > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	if err := handler(ctx, task); err != nil {
		q.retryTask(ctx, task, err)
	}
}

func (q *natsQueue) retryTask(ctx context.Context, task Task, handlerErr error) {
	task.Attempts++
	if task.MaxAttempts == 0 {
		task.MaxAttempts = defaultMaxAttempts
	}

	if task.Attempts < task.MaxAttempts {
		task.NotBefore = time.Now().Add(q.backoff.Delay(task.Attempts))
		q.log.Warn("task failed, retrying", "id", task.ID, "type", task.Type, "attempt", task.Attempts, "err", handlerErr)
		if err := q.Enqueue(ctx, task); err != nil {
			q.log.Error("failed to requeue task", "id", task.ID, "type", task.Type, "err", handlerErr, "publish_err", err)
		}
	} else {
		q.log.Error("task dropped after max attempts", "id", task.ID, "type", task.Type, "attempts", task.Attempts, "err", handlerErr)
	}
}
