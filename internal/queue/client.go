package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	processMaxRetry  = 5
	processTimeout   = 2 * time.Minute
	processRetention = 24 * time.Hour
)

// ErrAlreadyQueued is returned when a memory already has a pending task.
var ErrAlreadyQueued = errors.New("memory already queued")

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(redisOpt asynq.RedisClientOpt, queueName string) *Client {
	return &Client{
		client: asynq.NewClient(redisOpt),
		queue:  queueName,
	}
}

// EnqueueProcessMemory schedules thumbnail rendering. The memory ID doubles
// as the task ID so a retried upload request cannot queue the work twice.
func (c *Client) EnqueueProcessMemory(ctx context.Context, payload ProcessMemoryPayload) (*asynq.TaskInfo, error) {
	task, err := NewProcessMemoryTask(payload)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueContext(ctx, task, processMemoryOptions(c.queue, payload.MemoryID)...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyQueued, payload.MemoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", TypeProcessMemory, err)
	}
	return info, nil
}

func processMemoryOptions(queueName, memoryID string) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(queueName),
		asynq.TaskID(memoryID),
		asynq.MaxRetry(processMaxRetry),
		asynq.Timeout(processTimeout),
		asynq.Retention(processRetention),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}
