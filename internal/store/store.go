package store

import (
	"context"
	"errors"

	"github.com/seantiz/hivegrid/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("entity not found")

// ErrInvalidTransition is returned when a status update would move an entity
// out of a terminal status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrUnitNotOpen is returned when an agent bind loses the race for a unit or
// targets a unit that is not open for work.
var ErrUnitNotOpen = errors.New("unit is not open for an agent")

// RunStats holds aggregate unit statistics for one task run.
type RunStats struct {
	Assignments   int            `json:"assignments"`
	Units         int            `json:"units"`
	UnitsByStatus map[string]int `json:"units_by_status"`
}

// Store defines the persistence operations for task runs, assignments,
// units, agents, and qualifications.
type Store interface {
	CreateTaskRun(ctx context.Context, run *model.TaskRun) error
	GetTaskRun(ctx context.Context, id string) (*model.TaskRun, error)

	// CreateAssignmentWithUnits persists an assignment and all of its units
	// in a single transaction: either the whole group is created or none of it.
	CreateAssignmentWithUnits(ctx context.Context, a *model.Assignment, units []*model.Unit) error
	GetAssignment(ctx context.Context, id string) (*model.Assignment, error)
	ListAssignments(ctx context.Context, taskRunID string) ([]*model.Assignment, error)

	GetUnit(ctx context.Context, id string) (*model.Unit, error)
	ListUnitsForAssignment(ctx context.Context, assignmentID string) ([]*model.Unit, error)
	// UpdateUnitStatus rejects transitions out of a terminal status with
	// ErrInvalidTransition. Re-asserting the current status is a no-op.
	UpdateUnitStatus(ctx context.Context, id, status string) error
	// ExpireUnit forces the unit into the expired status regardless of its
	// current status, and expires its bound agent unless the agent is
	// already terminal.
	ExpireUnit(ctx context.Context, id string) error
	// AssignUnitAgent binds an agent to a launched, unbound unit and marks
	// it assigned. A unit that is taken or not open reports ErrUnitNotOpen.
	AssignUnitAgent(ctx context.Context, unitID, agentID string) error
	// ClearUnitAgent unbinds the unit's agent and reopens it as launched so
	// it can be offered to a different worker. Units already in a final
	// status are left untouched and report ErrInvalidTransition.
	ClearUnitAgent(ctx context.Context, unitID string) error

	CreateAgent(ctx context.Context, a *model.Agent) error
	GetAgent(ctx context.Context, id string) (*model.Agent, error)
	UpdateAgentStatus(ctx context.Context, id, status string) error

	CreateOnboardingAgent(ctx context.Context, a *model.OnboardingAgent) error
	GetOnboardingAgent(ctx context.Context, id string) (*model.OnboardingAgent, error)
	UpdateOnboardingAgentStatus(ctx context.Context, id, status string) error

	CreateWorker(ctx context.Context, w *model.Worker) error
	GetWorker(ctx context.Context, id string) (*model.Worker, error)

	// FindOrCreateQualification returns the qualification with the given
	// name, creating it if it does not exist.
	FindOrCreateQualification(ctx context.Context, name string) (*model.Qualification, error)
	GrantQualification(ctx context.Context, workerID, qualificationID string) error
	WorkerHasQualification(ctx context.Context, workerID, qualificationID string) (bool, error)

	GetRunStats(ctx context.Context, taskRunID string) (*RunStats, error)
	Close() error
}
