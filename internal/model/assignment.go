package model

import (
	"encoding/json"
	"time"
)

// InitializationData is one record pulled from a data source: an opaque
// assignment-level payload plus one payload per unit to create. The length
// of UnitData fixes the assignment's unit count.
type InitializationData struct {
	SharedData json.RawMessage   `json:"shared_data,omitempty"`
	UnitData   []json.RawMessage `json:"unit_data"`
}

// Assignment is a unit-of-work group created from one data source record.
// Its unit count is frozen at creation.
type Assignment struct {
	ID        string          `json:"id"`
	TaskRunID string          `json:"task_run_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Unit is the smallest dispatchable piece of work, offered to exactly one
// worker at a time. AgentID is a weak reference: the execution driver owns
// the agent, the unit only points at it while one is assigned.
type Unit struct {
	ID           string          `json:"id"`
	AssignmentID string          `json:"assignment_id"`
	Index        int             `json:"unit_index"`
	Reward       float64         `json:"reward"`
	ProviderType string          `json:"provider_type"`
	Status       string          `json:"status"`
	AgentID      *string         `json:"agent_id,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
