package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeProcessMemory = "memory:process"

type ProcessMemoryPayload struct {
	MemoryID   string    `json:"memory_id"`
	ObjectKey  string    `json:"object_key"`
	ReceivedAt time.Time `json:"received_at"`
}

func NewProcessMemoryTask(payload ProcessMemoryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal process payload: %w", err)
	}
	return asynq.NewTask(TypeProcessMemory, body), nil
}

func ParseProcessMemoryPayload(task *asynq.Task) (ProcessMemoryPayload, error) {
	var payload ProcessMemoryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ProcessMemoryPayload{}, fmt.Errorf("unmarshal process payload: %w", err)
	}
	if payload.MemoryID == "" || payload.ObjectKey == "" {
		return ProcessMemoryPayload{}, fmt.Errorf("process payload requires memory_id and object_key")
	}
	return payload, nil
}
