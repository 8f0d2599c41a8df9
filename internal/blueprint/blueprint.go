package blueprint

import (
	"context"
	"errors"
	"fmt"

	"github.com/seantiz/hivegrid/internal/model"
)

// Mode selects the shape of a task type, fixed at registration: unit-level
// tasks run one worker per unit, assignment-level tasks run all of an
// assignment's workers together.
type Mode int

const (
	ModeUnit Mode = iota
	ModeAssignment
)

func (m Mode) String() string {
	switch m {
	case ModeUnit:
		return "unit"
	case ModeAssignment:
		return "assignment"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// UnitLogic is implemented by unit-level task types.
type UnitLogic interface {
	// RunUnit blocks until the unit's work concludes or a recognized worker
	// fault occurs.
	RunUnit(ctx context.Context, unit *model.Unit, agent *model.Agent) error

	// CleanupUnit releases any resources held for the unit after a fault.
	CleanupUnit(ctx context.Context, unit *model.Unit) error
}

// AssignmentLogic is implemented by assignment-level (multi-worker) task types.
type AssignmentLogic interface {
	RunAssignment(ctx context.Context, assignment *model.Assignment, agents []*model.Agent) error
	CleanupAssignment(ctx context.Context, assignment *model.Assignment) error
}

// OnboardingLogic is implemented by task types with a pre-task onboarding flow.
type OnboardingLogic interface {
	RunOnboarding(ctx context.Context, agent *model.OnboardingAgent) error
	CleanupOnboarding(ctx context.Context, agent *model.OnboardingAgent) error
}

// OnboardingValidator is optionally implemented by onboarding logic to judge
// whether the worker passed the flow. When absent, every completed
// onboarding counts as a pass.
type OnboardingValidator interface {
	ValidateOnboarding(ctx context.Context, agent *model.OnboardingAgent) bool
}

// WorkerFilter restricts which units a given worker may see.
type WorkerFilter interface {
	FilterUnitsForWorker(units []*model.Unit, worker *model.Worker) []*model.Unit
}

// Blueprint wires together everything needed to run one task type: the data
// source constructor and the task logic in its registered shape. Exactly one
// of Units or Assignments is set, matching Mode.
type Blueprint struct {
	Type string
	Mode Mode

	// NewSource returns a fresh data source for a run. Sources are stateful
	// cursors and must not be shared between runs.
	NewSource func(run *model.TaskRun) (DataSource, error)

	Units       UnitLogic
	Assignments AssignmentLogic

	// Onboarding is optional; nil means the task type has no onboarding step.
	Onboarding OnboardingLogic

	// Filter is optional; nil means every worker sees every unit.
	Filter WorkerFilter

	// OnboardingQualification names the qualification granted to workers who
	// pass onboarding. Empty disables qualification bookkeeping.
	OnboardingQualification string
}

// FailedQualificationName returns the counterpart qualification recorded for
// workers who fail an onboarding flow, so providers can hide the task from them.
func FailedQualificationName(name string) string {
	return name + "-failed"
}

// FilterUnitsForWorker applies the blueprint's filter, defaulting to all units.
func (b *Blueprint) FilterUnitsForWorker(units []*model.Unit, worker *model.Worker) []*model.Unit {
	if b.Filter == nil {
		return units
	}
	return b.Filter.FilterUnitsForWorker(units, worker)
}

func (b *Blueprint) validate() error {
	if b.Type == "" {
		return errors.New("blueprint type is required")
	}
	if b.NewSource == nil {
		return fmt.Errorf("blueprint %q has no data source constructor", b.Type)
	}
	switch b.Mode {
	case ModeUnit:
		if b.Units == nil {
			return fmt.Errorf("unit-mode blueprint %q has no unit logic", b.Type)
		}
		if b.Assignments != nil {
			return fmt.Errorf("unit-mode blueprint %q must not carry assignment logic", b.Type)
		}
	case ModeAssignment:
		if b.Assignments == nil {
			return fmt.Errorf("assignment-mode blueprint %q has no assignment logic", b.Type)
		}
		if b.Units != nil {
			return fmt.Errorf("assignment-mode blueprint %q must not carry unit logic", b.Type)
		}
	default:
		return fmt.Errorf("blueprint %q has unknown mode %v", b.Type, b.Mode)
	}
	return nil
}
