package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// TaskRun is the immutable run-level configuration for one deployment of a
// task: what each unit pays, how many may run at once, and which provider
// the units are launched through.
type TaskRun struct {
	ID                 string    `json:"id"`
	TaskType           string    `json:"task_type"`
	Reward             float64   `json:"reward"`
	MaxConcurrentUnits int       `json:"max_concurrent_units"` // 0 means unlimited
	ProviderType       string    `json:"provider_type"`
	Sandbox            bool      `json:"sandbox"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewID generates a new ULID string for use as an entity identifier.
func NewID() string {
	return ulid.Make().String()
}
