package runner_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seantiz/hivegrid/internal/blueprint"
	"github.com/seantiz/hivegrid/internal/model"
	"github.com/seantiz/hivegrid/internal/runner"
	"github.com/seantiz/hivegrid/internal/store"
)

// unitLogic is a configurable fake for unit-level task logic.
type unitLogic struct {
	runErr    error
	block     chan struct{} // when set, RunUnit blocks until closed
	started   sync.Once
	startedCh chan struct{}
	runs      atomic.Int32
	cleanups  atomic.Int32
	panics    bool
}

func (l *unitLogic) RunUnit(_ context.Context, _ *model.Unit, _ *model.Agent) error {
	l.runs.Add(1)
	if l.startedCh != nil {
		l.started.Do(func() { close(l.startedCh) })
	}
	if l.block != nil {
		<-l.block
	}
	if l.panics {
		panic("task blew up")
	}
	return l.runErr
}

func (l *unitLogic) CleanupUnit(_ context.Context, _ *model.Unit) error {
	l.cleanups.Add(1)
	return nil
}

// assignmentLogic is a configurable fake for assignment-level task logic.
type assignmentLogic struct {
	runErr   error
	runs     atomic.Int32
	cleanups atomic.Int32
}

func (l *assignmentLogic) RunAssignment(_ context.Context, _ *model.Assignment, _ []*model.Agent) error {
	l.runs.Add(1)
	return l.runErr
}

func (l *assignmentLogic) CleanupAssignment(_ context.Context, _ *model.Assignment) error {
	l.cleanups.Add(1)
	return nil
}

// onboardingLogic is a fake onboarding flow without a validator: every
// completed run passes.
type onboardingLogic struct {
	runErr   error
	cleanups atomic.Int32
}

func (l *onboardingLogic) RunOnboarding(_ context.Context, _ *model.OnboardingAgent) error {
	return l.runErr
}

func (l *onboardingLogic) CleanupOnboarding(_ context.Context, _ *model.OnboardingAgent) error {
	l.cleanups.Add(1)
	return nil
}

// validatedOnboarding adds a fixed-outcome validator.
type validatedOnboarding struct {
	onboardingLogic
	pass bool
}

func (l *validatedOnboarding) ValidateOnboarding(_ context.Context, _ *model.OnboardingAgent) bool {
	return l.pass
}

func emptySource(_ *model.TaskRun) (blueprint.DataSource, error) {
	return blueprint.NewSliceSource(), nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// seedUnit persists a run, assignment, unit, and bound agent, returning the
// unit and agent as stored.
func seedUnit(t *testing.T, s store.Store) (*model.Unit, *model.Agent) {
	t.Helper()
	ctx := context.Background()

	run := &model.TaskRun{
		ID: model.NewID(), TaskType: "static", ProviderType: "mock",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateTaskRun(ctx, run); err != nil {
		t.Fatalf("CreateTaskRun: %v", err)
	}

	a := &model.Assignment{ID: model.NewID(), TaskRunID: run.ID, CreatedAt: time.Now().UTC()}
	u := &model.Unit{
		ID: model.NewID(), AssignmentID: a.ID, Index: 0,
		Status: model.UnitStatusLaunched, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateAssignmentWithUnits(ctx, a, []*model.Unit{u}); err != nil {
		t.Fatalf("CreateAssignmentWithUnits: %v", err)
	}

	agent := &model.Agent{
		ID: model.NewID(), UnitID: u.ID, WorkerID: "w1", TaskType: "static",
		Status: model.StatusInTask, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateAgent(ctx, agent); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if err := s.AssignUnitAgent(ctx, u.ID, agent.ID); err != nil {
		t.Fatalf("AssignUnitAgent: %v", err)
	}

	stored, err := s.GetUnit(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUnit: %v", err)
	}
	return stored, agent
}

func TestLaunchUnitNoDoubleLaunch(t *testing.T) {
	s := newTestStore(t)
	logic := &unitLogic{
		block:     make(chan struct{}),
		startedCh: make(chan struct{}),
	}
	bp := &blueprint.Blueprint{Type: "static", Mode: blueprint.ModeUnit, NewSource: emptySource, Units: logic}
	d := runner.NewDriver(s, bp, testLogger())

	unit, agent := seedUnit(t, s)

	done := make(chan struct{})
	go func() {
		d.LaunchUnit(context.Background(), unit, agent)
		close(done)
	}()

	select {
	case <-logic.startedCh:
	case <-time.After(5 * time.Second):
		t.Fatal("first launch never started")
	}

	// Second launch of the same unit must return immediately without a
	// second run.
	d.LaunchUnit(context.Background(), unit, agent)
	if got := logic.runs.Load(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}

	close(logic.block)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first launch never finished")
	}

	// Registry entry is removed once execution completes.
	units, _, _ := d.Running()
	if units != 0 {
		t.Errorf("running units = %d, want 0", units)
	}
}

func TestLaunchUnitRecoverableFaultReopensUnit(t *testing.T) {
	s := newTestStore(t)
	logic := &unitLogic{runErr: blueprint.ErrAgentReturned}
	bp := &blueprint.Blueprint{Type: "static", Mode: blueprint.ModeUnit, NewSource: emptySource, Units: logic}
	d := runner.NewDriver(s, bp, testLogger())

	unit, agent := seedUnit(t, s)
	d.LaunchUnit(context.Background(), unit, agent)

	if got := logic.cleanups.Load(); got != 1 {
		t.Errorf("cleanups = %d, want 1", got)
	}

	stored, err := s.GetUnit(context.Background(), unit.ID)
	if err != nil {
		t.Fatalf("GetUnit: %v", err)
	}
	if stored.AgentID != nil {
		t.Errorf("AgentID = %v, want nil after recoverable fault", stored.AgentID)
	}
	if stored.Status != model.UnitStatusLaunched {
		t.Errorf("status = %q, want launched so another worker can take the unit", stored.Status)
	}
}

// TestLaunchUnitRecoverableFaultLeavesExpiredUnit verifies that a recoverable
// fault on a unit that was force-expired while its task ran cannot resurrect
// the unit to launched.
func TestLaunchUnitRecoverableFaultLeavesExpiredUnit(t *testing.T) {
	s := newTestStore(t)
	logic := &unitLogic{runErr: blueprint.ErrAgentReturned}
	bp := &blueprint.Blueprint{Type: "static", Mode: blueprint.ModeUnit, NewSource: emptySource, Units: logic}
	d := runner.NewDriver(s, bp, testLogger())

	unit, agent := seedUnit(t, s)
	if err := s.ExpireUnit(context.Background(), unit.ID); err != nil {
		t.Fatalf("ExpireUnit: %v", err)
	}

	d.LaunchUnit(context.Background(), unit, agent)

	if got := logic.cleanups.Load(); got != 1 {
		t.Errorf("cleanups = %d, want 1", got)
	}
	stored, err := s.GetUnit(context.Background(), unit.ID)
	if err != nil {
		t.Fatalf("GetUnit: %v", err)
	}
	if stored.Status != model.UnitStatusExpired {
		t.Errorf("status = %q, want expired", stored.Status)
	}
}

func TestLaunchUnitUnrecognizedFaultStillCleansUp(t *testing.T) {
	s := newTestStore(t)
	logic := &unitLogic{runErr: errors.New("task exploded")}
	bp := &blueprint.Blueprint{Type: "static", Mode: blueprint.ModeUnit, NewSource: emptySource, Units: logic}
	d := runner.NewDriver(s, bp, testLogger())

	unit, agent := seedUnit(t, s)
	d.LaunchUnit(context.Background(), unit, agent)

	if got := logic.cleanups.Load(); got != 1 {
		t.Errorf("cleanups = %d, want 1", got)
	}
	// Unlike a recoverable fault, the agent stays bound.
	stored, _ := s.GetUnit(context.Background(), unit.ID)
	if stored.AgentID == nil {
		t.Error("AgentID cleared on unrecognized fault")
	}

	units, _, _ := d.Running()
	if units != 0 {
		t.Errorf("running units = %d, want 0", units)
	}
}

func TestLaunchUnitPanicIsContained(t *testing.T) {
	s := newTestStore(t)
	logic := &unitLogic{panics: true}
	bp := &blueprint.Blueprint{Type: "static", Mode: blueprint.ModeUnit, NewSource: emptySource, Units: logic}
	d := runner.NewDriver(s, bp, testLogger())

	unit, agent := seedUnit(t, s)
	// Must not panic the caller.
	d.LaunchUnit(context.Background(), unit, agent)

	if got := logic.cleanups.Load(); got != 1 {
		t.Errorf("cleanups = %d, want 1", got)
	}
	units, _, _ := d.Running()
	if units != 0 {
		t.Errorf("running units = %d, want 0", units)
	}
}

func TestLaunchAssignmentPartnerDisconnect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &model.TaskRun{ID: model.NewID(), TaskType: "chat", ProviderType: "mock", CreatedAt: time.Now().UTC()}
	if err := s.CreateTaskRun(ctx, run); err != nil {
		t.Fatalf("CreateTaskRun: %v", err)
	}

	a := &model.Assignment{ID: model.NewID(), TaskRunID: run.ID, CreatedAt: time.Now().UTC()}
	u1 := &model.Unit{ID: model.NewID(), AssignmentID: a.ID, Index: 0, Status: model.UnitStatusLaunched, CreatedAt: time.Now().UTC()}
	u2 := &model.Unit{ID: model.NewID(), AssignmentID: a.ID, Index: 1, Status: model.UnitStatusLaunched, CreatedAt: time.Now().UTC()}
	if err := s.CreateAssignmentWithUnits(ctx, a, []*model.Unit{u1, u2}); err != nil {
		t.Fatalf("CreateAssignmentWithUnits: %v", err)
	}

	agents := make([]*model.Agent, 0, 2)
	for i, u := range []*model.Unit{u1, u2} {
		agent := &model.Agent{
			ID: model.NewID(), UnitID: u.ID, WorkerID: "w" + u.ID[:4], TaskType: "chat",
			Status: model.StatusInTask, CreatedAt: time.Now().UTC(),
		}
		if err := s.CreateAgent(ctx, agent); err != nil {
			t.Fatalf("CreateAgent[%d]: %v", i, err)
		}
		if err := s.AssignUnitAgent(ctx, u.ID, agent.ID); err != nil {
			t.Fatalf("AssignUnitAgent[%d]: %v", i, err)
		}
		agents = append(agents, agent)
	}

	// Agent 2 disconnects mid-task.
	logic := &assignmentLogic{
		runErr: &blueprint.AgentFault{AgentID: agents[1].ID, Err: blueprint.ErrAgentDisconnected},
	}
	bp := &blueprint.Blueprint{Type: "chat", Mode: blueprint.ModeAssignment, NewSource: emptySource, Assignments: logic}
	d := runner.NewDriver(s, bp, testLogger())

	d.LaunchAssignment(ctx, a, agents)

	if got := logic.cleanups.Load(); got != 1 {
		t.Errorf("cleanups = %d, want 1", got)
	}

	// The surviving partner is marked partner-disconnected.
	partner, _ := s.GetAgent(ctx, agents[0].ID)
	if partner.Status != model.StatusPartnerDisconnect {
		t.Errorf("partner status = %q, want partner disconnect", partner.Status)
	}

	// The faulting agent's unit is expired so it is never re-offered.
	faultedUnit, _ := s.GetUnit(ctx, u2.ID)
	if faultedUnit.Status != model.UnitStatusExpired {
		t.Errorf("faulted unit status = %q, want expired", faultedUnit.Status)
	}
	faulter, _ := s.GetAgent(ctx, agents[1].ID)
	if faulter.Status != model.StatusExpired {
		t.Errorf("faulting agent status = %q, want expired", faulter.Status)
	}

	_, assignments, _ := d.Running()
	if assignments != 0 {
		t.Errorf("running assignments = %d, want 0", assignments)
	}
}

func seedOnboardingAgent(t *testing.T, s store.Store) *model.OnboardingAgent {
	t.Helper()
	oa := &model.OnboardingAgent{
		ID: model.NewID(), WorkerID: "w1", TaskType: "static",
		Status: model.StatusOnboarding, CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateOnboardingAgent(context.Background(), oa); err != nil {
		t.Fatalf("CreateOnboardingAgent: %v", err)
	}
	return oa
}

func TestLaunchOnboardingPassGrantsQualification(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	logic := &unitLogic{}
	onboarding := &validatedOnboarding{pass: true}
	bp := &blueprint.Blueprint{
		Type: "static", Mode: blueprint.ModeUnit, NewSource: emptySource,
		Units: logic, Onboarding: onboarding,
		OnboardingQualification: "static-qual",
	}
	d := runner.NewDriver(s, bp, testLogger())

	oa := seedOnboardingAgent(t, s)
	d.LaunchOnboarding(ctx, oa)

	got, _ := s.GetOnboardingAgent(ctx, oa.ID)
	if got.Status != model.StatusWaiting {
		t.Errorf("status = %q, want waiting", got.Status)
	}

	qual, err := s.FindOrCreateQualification(ctx, "static-qual")
	if err != nil {
		t.Fatalf("FindOrCreateQualification: %v", err)
	}
	has, err := s.WorkerHasQualification(ctx, oa.WorkerID, qual.ID)
	if err != nil {
		t.Fatalf("WorkerHasQualification: %v", err)
	}
	if !has {
		t.Error("worker missing onboarding qualification after pass")
	}
}

func TestLaunchOnboardingFailGrantsFailedQualification(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	logic := &unitLogic{}
	onboarding := &validatedOnboarding{pass: false}
	bp := &blueprint.Blueprint{
		Type: "static", Mode: blueprint.ModeUnit, NewSource: emptySource,
		Units: logic, Onboarding: onboarding,
		OnboardingQualification: "static-qual",
	}
	d := runner.NewDriver(s, bp, testLogger())

	oa := seedOnboardingAgent(t, s)
	d.LaunchOnboarding(ctx, oa)

	got, _ := s.GetOnboardingAgent(ctx, oa.ID)
	if got.Status != model.StatusRejected {
		t.Errorf("status = %q, want rejected", got.Status)
	}

	qual, err := s.FindOrCreateQualification(ctx, "static-qual-failed")
	if err != nil {
		t.Fatalf("FindOrCreateQualification: %v", err)
	}
	has, err := s.WorkerHasQualification(ctx, oa.WorkerID, qual.ID)
	if err != nil {
		t.Fatalf("WorkerHasQualification: %v", err)
	}
	if !has {
		t.Error("worker missing failed-onboarding qualification")
	}
}

func TestLaunchOnboardingRecoverableFaultCleansUp(t *testing.T) {
	s := newTestStore(t)
	logic := &unitLogic{}
	onboarding := &onboardingLogic{runErr: blueprint.ErrAgentDisconnected}
	bp := &blueprint.Blueprint{
		Type: "static", Mode: blueprint.ModeUnit, NewSource: emptySource,
		Units: logic, Onboarding: onboarding,
	}
	d := runner.NewDriver(s, bp, testLogger())

	oa := seedOnboardingAgent(t, s)
	d.LaunchOnboarding(context.Background(), oa)

	if got := onboarding.cleanups.Load(); got != 1 {
		t.Errorf("cleanups = %d, want 1", got)
	}
	got, _ := s.GetOnboardingAgent(context.Background(), oa.ID)
	if got.Status != model.StatusOnboarding {
		t.Errorf("status = %q, want onboarding left untouched", got.Status)
	}

	_, _, onboardings := d.Running()
	if onboardings != 0 {
		t.Errorf("running onboardings = %d, want 0", onboardings)
	}
}
