package queue

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

func TestProcessMemoryTaskRoundTrip(t *testing.T) {
	payload := ProcessMemoryPayload{
		MemoryID:   "m-123",
		ObjectKey:  "memories/m-123/original.jpg",
		ReceivedAt: time.Now().UTC(),
	}

	task, err := NewProcessMemoryTask(payload)
	if err != nil {
		t.Fatalf("NewProcessMemoryTask returned error: %v", err)
	}
	if task.Type() != TypeProcessMemory {
		t.Fatalf("expected task type %s, got %s", TypeProcessMemory, task.Type())
	}

	parsed, err := ParseProcessMemoryPayload(task)
	if err != nil {
		t.Fatalf("ParseProcessMemoryPayload returned error: %v", err)
	}
	if parsed.MemoryID != payload.MemoryID || parsed.ObjectKey != payload.ObjectKey {
		t.Fatalf("unexpected payload %+v", parsed)
	}
}

func TestParseProcessMemoryPayloadRequiresIDs(t *testing.T) {
	task := asynq.NewTask(TypeProcessMemory, []byte(`{"memory_id":""}`))
	if _, err := ParseProcessMemoryPayload(task); err == nil {
		t.Fatal("expected error for incomplete payload")
	}
}

func TestProcessMemoryOptions(t *testing.T) {
	opts := processMemoryOptions("memories", "m-9")

	seen := make(map[asynq.OptionType]any, len(opts))
	for _, opt := range opts {
		seen[opt.Type()] = opt.Value()
	}
	if seen[asynq.QueueOpt] != "memories" {
		t.Fatalf("expected queue memories, got %v", seen[asynq.QueueOpt])
	}
	if seen[asynq.TaskIDOpt] != "m-9" {
		t.Fatalf("expected task id m-9, got %v", seen[asynq.TaskIDOpt])
	}
	if seen[asynq.MaxRetryOpt] != processMaxRetry {
		t.Fatalf("expected max retry %d, got %v", processMaxRetry, seen[asynq.MaxRetryOpt])
	}
	if _, ok := seen[asynq.RetentionOpt]; !ok {
		t.Fatal("expected a retention option")
	}
}
