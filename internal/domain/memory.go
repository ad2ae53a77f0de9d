package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	MemoryStatusReceived   = "received"
	MemoryStatusProcessing = "processing"
	MemoryStatusReady      = "ready"
	MemoryStatusFailed     = "failed"
)

type Memory struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Caption      string    `json:"caption"`
	Filename     string    `json:"filename"`
	ObjectKey    string    `json:"object_key"`
	ThumbnailKey string    `json:"thumbnail_key,omitempty"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Bytes        int       `json:"bytes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (m Memory) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(m.ObjectKey) == "" {
		return errors.New("object_key is required")
	}
	switch m.Status {
	case MemoryStatusReceived, MemoryStatusProcessing, MemoryStatusReady, MemoryStatusFailed:
	default:
		return errors.New("unsupported status: " + m.Status)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return errors.New("image dimensions must be positive")
	}
	return nil
}
