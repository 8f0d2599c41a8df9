package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/seantiz/hivegrid/internal/blueprint"
	"github.com/seantiz/hivegrid/internal/model"
	"github.com/seantiz/hivegrid/internal/store"
)

// Driver executes task logic for one task run. It keeps an in-memory
// registry of currently running entities so that re-entrant launches are
// no-ops, and it always deregisters on exit, fault or not.
type Driver struct {
	store  store.Store
	bp     *blueprint.Blueprint
	logger *slog.Logger

	mu                 sync.Mutex
	runningUnits       map[string]*model.Unit
	runningAssignments map[string]*model.Assignment
	runningOnboardings map[string]*model.OnboardingAgent
}

// NewDriver creates an execution driver for the given blueprint.
func NewDriver(s store.Store, bp *blueprint.Blueprint, logger *slog.Logger) *Driver {
	return &Driver{
		store:              s,
		bp:                 bp,
		logger:             logger,
		runningUnits:       make(map[string]*model.Unit),
		runningAssignments: make(map[string]*model.Assignment),
		runningOnboardings: make(map[string]*model.OnboardingAgent),
	}
}

// Running reports the number of currently executing units, assignments, and
// onboarding agents.
func (d *Driver) Running() (units, assignments, onboardings int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.runningUnits), len(d.runningAssignments), len(d.runningOnboardings)
}

// LaunchUnit runs a unit-level task for the given unit and agent, blocking
// until the work concludes or faults. Launching a unit that is already
// running is a no-op.
func (d *Driver) LaunchUnit(ctx context.Context, unit *model.Unit, agent *model.Agent) {
	if d.bp.Units == nil {
		d.logger.Error("blueprint has no unit logic", "task_type", d.bp.Type, "unit_id", unit.ID)
		return
	}

	d.mu.Lock()
	if _, running := d.runningUnits[unit.ID]; running {
		d.mu.Unlock()
		d.logger.Debug("unit is already running", "unit_id", unit.ID)
		return
	}
	d.runningUnits[unit.ID] = unit
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.runningUnits, unit.ID)
		d.mu.Unlock()
	}()

	d.logger.Info("unit launching", "unit_id", unit.ID, "agent_id", agent.ID)
	launchesTotal.WithLabelValues(kindUnit).Inc()

	err := runGuarded(func() error {
		return d.bp.Units.RunUnit(ctx, unit, agent)
	})
	switch {
	case err == nil:
	case blueprint.IsRecoverable(err):
		faultsTotal.WithLabelValues(kindUnit, classRecoverable).Inc()
		// A returned unit can be worked on again by someone else, unless it
		// reached a final status while the task was running.
		if cerr := d.store.ClearUnitAgent(ctx, unit.ID); cerr != nil && !errors.Is(cerr, store.ErrInvalidTransition) {
			d.logger.Error("failed to clear unit agent", "unit_id", unit.ID, "error", cerr)
		}
		d.cleanupUnit(ctx, unit)
	default:
		faultsTotal.WithLabelValues(kindUnit, classUnrecognized).Inc()
		d.logger.Error("unhandled fault in unit", "unit_id", unit.ID, "error", err)
		d.cleanupUnit(ctx, unit)
	}
}

// LaunchAssignment runs an assignment-level task for all of the assignment's
// agents at once. Launching an assignment that is already running is a no-op.
func (d *Driver) LaunchAssignment(ctx context.Context, assignment *model.Assignment, agents []*model.Agent) {
	if d.bp.Assignments == nil {
		d.logger.Error("blueprint has no assignment logic", "task_type", d.bp.Type, "assignment_id", assignment.ID)
		return
	}

	d.mu.Lock()
	if _, running := d.runningAssignments[assignment.ID]; running {
		d.mu.Unlock()
		d.logger.Debug("assignment is already running", "assignment_id", assignment.ID)
		return
	}
	d.runningAssignments[assignment.ID] = assignment
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.runningAssignments, assignment.ID)
		d.mu.Unlock()
	}()

	d.logger.Info("assignment launching", "assignment_id", assignment.ID, "agents", len(agents))
	launchesTotal.WithLabelValues(kindAssignment).Inc()

	err := runGuarded(func() error {
		return d.bp.Assignments.RunAssignment(ctx, assignment, agents)
	})
	switch {
	case err == nil:
	case blueprint.IsRecoverable(err):
		faultsTotal.WithLabelValues(kindAssignment, classRecoverable).Inc()
		d.handlePartnerFault(ctx, assignment, agents, err)
		d.cleanupAssignment(ctx, assignment)
	default:
		faultsTotal.WithLabelValues(kindAssignment, classUnrecognized).Inc()
		d.logger.Error("unhandled fault in assignment", "assignment_id", assignment.ID, "error", err)
		d.cleanupAssignment(ctx, assignment)
	}
}

// handlePartnerFault marks every agent other than the faulting one as
// partner-disconnected and expires the faulting agent's unit so no new
// worker is shown it.
func (d *Driver) handlePartnerFault(ctx context.Context, assignment *model.Assignment, agents []*model.Agent, err error) {
	faultID, ok := blueprint.FaultAgentID(err)
	if !ok {
		d.logger.Warn("recoverable assignment fault without agent attribution",
			"assignment_id", assignment.ID, "error", err)
		return
	}

	for _, agent := range agents {
		if agent.ID != faultID {
			if uerr := d.store.UpdateAgentStatus(ctx, agent.ID, model.StatusPartnerDisconnect); uerr != nil {
				d.logger.Error("failed to mark partner disconnect", "agent_id", agent.ID, "error", uerr)
			}
			continue
		}
		if eerr := d.store.ExpireUnit(ctx, agent.UnitID); eerr != nil {
			d.logger.Error("failed to expire faulted unit", "unit_id", agent.UnitID, "error", eerr)
		}
	}
}

// LaunchOnboarding runs a pre-task onboarding flow for the given agent.
// Launching an onboarding that is already running is a no-op.
func (d *Driver) LaunchOnboarding(ctx context.Context, agent *model.OnboardingAgent) {
	if d.bp.Onboarding == nil {
		d.logger.Error("blueprint has no onboarding logic", "task_type", d.bp.Type, "agent_id", agent.ID)
		return
	}

	d.mu.Lock()
	if _, running := d.runningOnboardings[agent.ID]; running {
		d.mu.Unlock()
		d.logger.Debug("onboarding is already running", "agent_id", agent.ID)
		return
	}
	d.runningOnboardings[agent.ID] = agent
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.runningOnboardings, agent.ID)
		d.mu.Unlock()
	}()

	d.logger.Info("onboarding launching", "agent_id", agent.ID, "worker_id", agent.WorkerID)
	launchesTotal.WithLabelValues(kindOnboarding).Inc()

	err := runGuarded(func() error {
		return d.bp.Onboarding.RunOnboarding(ctx, agent)
	})
	switch {
	case err == nil:
		d.finishOnboarding(ctx, agent)
	case blueprint.IsRecoverable(err):
		faultsTotal.WithLabelValues(kindOnboarding, classRecoverable).Inc()
		d.cleanupOnboarding(ctx, agent)
	default:
		faultsTotal.WithLabelValues(kindOnboarding, classUnrecognized).Inc()
		d.logger.Error("unhandled fault in onboarding", "agent_id", agent.ID, "error", err)
		d.cleanupOnboarding(ctx, agent)
	}
}

// finishOnboarding records the outcome of a completed onboarding flow: pass
// grants the onboarding qualification and parks the agent in waiting; fail
// grants the failed counterpart so providers can hide the task, and rejects
// the agent.
func (d *Driver) finishOnboarding(ctx context.Context, agent *model.OnboardingAgent) {
	passed := true
	if v, ok := d.bp.Onboarding.(blueprint.OnboardingValidator); ok {
		passed = v.ValidateOnboarding(ctx, agent)
	}

	status := model.StatusWaiting
	qualName := d.bp.OnboardingQualification
	if !passed {
		status = model.StatusRejected
		if qualName != "" {
			qualName = blueprint.FailedQualificationName(qualName)
		}
	}

	if err := d.store.UpdateOnboardingAgentStatus(ctx, agent.ID, status); err != nil {
		d.logger.Error("failed to record onboarding outcome", "agent_id", agent.ID, "error", err)
	}
	if qualName == "" {
		return
	}
	qual, err := d.store.FindOrCreateQualification(ctx, qualName)
	if err != nil {
		d.logger.Error("failed to resolve qualification", "name", qualName, "error", err)
		return
	}
	if err := d.store.GrantQualification(ctx, agent.WorkerID, qual.ID); err != nil {
		d.logger.Error("failed to grant qualification", "worker_id", agent.WorkerID, "name", qualName, "error", err)
	}
}

func (d *Driver) cleanupUnit(ctx context.Context, unit *model.Unit) {
	if err := runGuarded(func() error {
		return d.bp.Units.CleanupUnit(ctx, unit)
	}); err != nil {
		d.logger.Error("unit cleanup failed", "unit_id", unit.ID, "error", err)
	}
}

func (d *Driver) cleanupAssignment(ctx context.Context, assignment *model.Assignment) {
	if err := runGuarded(func() error {
		return d.bp.Assignments.CleanupAssignment(ctx, assignment)
	}); err != nil {
		d.logger.Error("assignment cleanup failed", "assignment_id", assignment.ID, "error", err)
	}
}

func (d *Driver) cleanupOnboarding(ctx context.Context, agent *model.OnboardingAgent) {
	if err := runGuarded(func() error {
		return d.bp.Onboarding.CleanupOnboarding(ctx, agent)
	}); err != nil {
		d.logger.Error("onboarding cleanup failed", "agent_id", agent.ID, "error", err)
	}
}

// runGuarded converts a panic inside task logic into an ordinary error so a
// misbehaving task can never take the orchestrator down.
func runGuarded(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task logic panicked: %v", r)
		}
	}()
	return fn()
}
