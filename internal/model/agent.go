package model

import "time"

// Agent is a worker's execution context bound to exactly one unit.
type Agent struct {
	ID        string    `json:"id"`
	UnitID    string    `json:"unit_id"`
	WorkerID  string    `json:"worker_id"`
	TaskType  string    `json:"task_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// OnboardingAgent is a worker's execution context bound to a pre-task
// qualification flow rather than to any unit.
type OnboardingAgent struct {
	ID        string    `json:"id"`
	WorkerID  string    `json:"worker_id"`
	TaskType  string    `json:"task_type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Worker identifies a remote worker as known to a provider.
type Worker struct {
	ID           string    `json:"id"`
	ProviderType string    `json:"provider_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Qualification is an eligibility tag that can be granted to workers, for
// example after passing an onboarding flow.
type Qualification struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
