package launcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/hivegrid/internal/blueprint"
	"github.com/seantiz/hivegrid/internal/model"
	"github.com/seantiz/hivegrid/internal/store"
)

const (
	defaultAdmissionInterval = 10 * time.Second
	defaultSourceInterval    = 500 * time.Millisecond
)

// Options tune the launcher's poll intervals. Zero values take the defaults.
type Options struct {
	// AdmissionInterval is the sleep between admission cycles.
	AdmissionInterval time.Duration

	// SourceInterval is the poll interval of the streaming registration loop.
	SourceInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.AdmissionInterval <= 0 {
		o.AdmissionInterval = defaultAdmissionInterval
	}
	if o.SourceInterval <= 0 {
		o.SourceInterval = defaultSourceInterval
	}
	return o
}

// Stats is a point-in-time snapshot of the launcher's bookkeeping.
type Stats struct {
	Pending         int    `json:"pending"`
	Active          int    `json:"active"`
	UnitsCreated    int    `json:"units_created"`
	SourceExhausted bool   `json:"source_exhausted"`
	Launching       bool   `json:"launching"`
	Destination     string `json:"destination,omitempty"`
}

// Launcher registers assignments for one task run and admits their units for
// launch under the run's concurrency cap. The pending and active sets are
// disjoint and jointly cover every non-terminal unit of the run; a unit moves
// pending to active exactly once and never back.
type Launcher struct {
	store  store.Store
	run    *model.TaskRun
	source blueprint.DataSource
	logger *slog.Logger
	opts   Options

	mu              sync.Mutex
	pending         []*model.Unit
	active          map[string]*model.Unit
	created         []string // every unit ID ever registered, for ExpireAll
	registering     bool
	sourceExhausted bool
	launching       bool
	stopped         bool
	destination     string

	stopCh     chan struct{}
	regDone    chan struct{}
	launchDone chan struct{}
}

// New builds a launcher for the given run, constructing a fresh data source
// from the blueprint. In streaming mode the background registration loop
// starts immediately but stays idle until RegisterAssignments enables it.
func New(s store.Store, run *model.TaskRun, bp *blueprint.Blueprint, logger *slog.Logger, opts Options) (*Launcher, error) {
	source, err := bp.NewSource(run)
	if err != nil {
		return nil, err
	}

	l := &Launcher{
		store:      s,
		run:        run,
		source:     source,
		logger:     logger,
		opts:       opts.withDefaults(),
		active:     make(map[string]*model.Unit),
		stopCh:     make(chan struct{}),
		regDone:    make(chan struct{}),
		launchDone: make(chan struct{}),
	}
	if source.Streaming() {
		go l.registrationLoop()
	} else {
		close(l.regDone)
	}
	return l, nil
}

// Stats returns a snapshot of the launcher's current state.
func (l *Launcher) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Pending:         len(l.pending),
		Active:          len(l.active),
		UnitsCreated:    len(l.created),
		SourceExhausted: l.sourceExhausted,
		Launching:       l.launching,
		Destination:     l.destination,
	}
}

// RegisterAssignments begins pulling records from the data source. Bounded
// sources are drained synchronously in one pass; streaming sources are
// handed to the background registration loop and the call returns at once.
func (l *Launcher) RegisterAssignments(ctx context.Context) error {
	if l.source.Streaming() {
		l.mu.Lock()
		l.registering = true
		l.mu.Unlock()
		return nil
	}

	for {
		rec, err := l.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			l.mu.Lock()
			l.sourceExhausted = true
			l.mu.Unlock()
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := l.registerAssignment(ctx, rec); err != nil {
			return err
		}
	}
}

// registerAssignment persists one assignment with one unit per payload entry,
// in payload order, atomically, and adds the new units to the pending set.
func (l *Launcher) registerAssignment(ctx context.Context, rec *model.InitializationData) (*model.Assignment, error) {
	now := time.Now().UTC()
	a := &model.Assignment{
		ID:        model.NewID(),
		TaskRunID: l.run.ID,
		Data:      rec.SharedData,
		CreatedAt: now,
	}
	units := make([]*model.Unit, 0, len(rec.UnitData))
	for i, payload := range rec.UnitData {
		units = append(units, &model.Unit{
			ID:           model.NewID(),
			AssignmentID: a.ID,
			Index:        i,
			Reward:       l.run.Reward,
			ProviderType: l.run.ProviderType,
			Status:       model.UnitStatusCreated,
			Data:         payload,
			CreatedAt:    now,
		})
	}
	if err := l.store.CreateAssignmentWithUnits(ctx, a, units); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.pending = append(l.pending, units...)
	for _, u := range units {
		l.created = append(l.created, u.ID)
	}
	pendingUnits.Set(float64(len(l.pending)))
	l.mu.Unlock()

	assignmentsRegistered.Inc()
	l.logger.Info("assignment registered",
		"assignment_id", a.ID, "task_run_id", l.run.ID, "units", len(units))
	return a, nil
}

// registrationLoop polls a streaming source for new records until exhaustion.
// It never restarts once the source reports io.EOF.
func (l *Launcher) registrationLoop() {
	defer close(l.regDone)
	ctx := context.Background()
	ticker := time.NewTicker(l.opts.SourceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
		}

		l.mu.Lock()
		enabled := l.registering
		l.mu.Unlock()
		if !enabled {
			continue
		}

		rec, err := l.source.Next(ctx)
		switch {
		case err == nil:
			if _, rerr := l.registerAssignment(ctx, rec); rerr != nil {
				l.logger.Error("failed to register assignment", "error", rerr)
			}
		case errors.Is(err, io.EOF):
			l.mu.Lock()
			l.sourceExhausted = true
			l.mu.Unlock()
			l.logger.Info("data source exhausted", "task_run_id", l.run.ID)
			return
		case errors.Is(err, blueprint.ErrNotReady):
			// Nothing available yet.
		default:
			l.logger.Error("data source read failed", "error", err)
		}
	}
}

// StartLaunching begins the launch driver loop against the given worker-facing
// destination. It returns immediately and is safe to call more than once;
// only the first call starts the loop.
func (l *Launcher) StartLaunching(destination string) {
	l.mu.Lock()
	if l.launching || l.stopped {
		l.mu.Unlock()
		return
	}
	l.launching = true
	l.destination = destination
	l.mu.Unlock()

	l.logger.Info("launching started", "task_run_id", l.run.ID, "destination", destination)
	go l.launchLoop()
}

// launchLoop drives admission: bounded mode performs one full drain and
// stops; streaming mode keeps draining until the source is exhausted and the
// pending set is empty.
func (l *Launcher) launchLoop() {
	defer close(l.launchDone)
	ctx := context.Background()

	for {
		l.drainAndLaunch(ctx)

		if !l.source.Streaming() {
			return
		}

		l.mu.Lock()
		done := l.sourceExhausted && len(l.pending) == 0
		stopped := l.stopped
		l.mu.Unlock()
		if done || stopped {
			return
		}

		select {
		case <-l.stopCh:
			return
		case <-time.After(l.opts.AdmissionInterval):
		}
	}
}

// drainAndLaunch runs admission cycles until the pending set is empty and a
// cycle admits nothing. Each cycle re-reads the shared sets, so the sequence
// is restartable at any time.
func (l *Launcher) drainAndLaunch(ctx context.Context) {
	for {
		admitted := l.admitEligible(ctx)
		for _, unit := range admitted {
			l.launchUnit(ctx, unit)
		}

		l.mu.Lock()
		done := len(l.pending) == 0 && len(admitted) == 0
		stopped := l.stopped
		l.mu.Unlock()
		if done || stopped {
			return
		}

		select {
		case <-l.stopCh:
			return
		case <-time.After(l.opts.AdmissionInterval):
		}
	}
}

// admitEligible performs one admission cycle: reconcile the active set
// against stored statuses, compute free slots under the cap, and promote
// pending units FIFO. Pending units that already reached a terminal status
// are dropped without consuming a slot.
func (l *Launcher) admitEligible(ctx context.Context) []*model.Unit {
	l.mu.Lock()
	ids := make([]string, 0, len(l.active)+len(l.pending))
	for id := range l.active {
		ids = append(ids, id)
	}
	for _, u := range l.pending {
		ids = append(ids, u.ID)
	}
	l.mu.Unlock()

	statuses := make(map[string]string, len(ids))
	for _, id := range ids {
		u, err := l.store.GetUnit(ctx, id)
		if err != nil {
			// Keep the unit where it is; the next cycle retries.
			l.logger.Error("failed to read unit status", "unit_id", id, "error", err)
			continue
		}
		statuses[id] = u.Status
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for id := range l.active {
		status, ok := statuses[id]
		if !ok {
			continue
		}
		if !model.UnitHoldsSlot(status) {
			delete(l.active, id)
		}
	}

	slots := len(l.pending)
	if limit := l.run.MaxConcurrentUnits; limit > 0 {
		slots = limit - len(l.active)
	}

	var admitted []*model.Unit
	for slots > 0 && len(l.pending) > 0 {
		unit := l.pending[0]
		l.pending = l.pending[1:]

		// Forced expiration can terminate a unit while it still waits.
		if status, ok := statuses[unit.ID]; ok && model.IsFinalUnitStatus(status) {
			l.logger.Debug("dropping terminal pending unit", "unit_id", unit.ID, "status", status)
			continue
		}

		l.active[unit.ID] = unit
		admitted = append(admitted, unit)
		unitsAdmitted.Inc()
		slots--
	}

	pendingUnits.Set(float64(len(l.pending)))
	activeUnits.Set(float64(len(l.active)))
	return admitted
}

// launchUnit moves an admitted unit from created to launched so the provider
// can offer it at the run's destination. A unit whose transition is refused
// because it already reached a final status leaves the active set; any other
// failure sends the unit back to pending so a later cycle retries it.
func (l *Launcher) launchUnit(ctx context.Context, unit *model.Unit) {
	if err := l.store.UpdateUnitStatus(ctx, unit.ID, model.UnitStatusLaunched); err != nil {
		l.mu.Lock()
		delete(l.active, unit.ID)
		if !errors.Is(err, store.ErrInvalidTransition) {
			l.pending = append(l.pending, unit)
		}
		pendingUnits.Set(float64(len(l.pending)))
		activeUnits.Set(float64(len(l.active)))
		l.mu.Unlock()
		l.logger.Error("failed to launch unit", "unit_id", unit.ID, "error", err)
		return
	}
	unit.Status = model.UnitStatusLaunched

	l.mu.Lock()
	destination := l.destination
	l.mu.Unlock()
	l.logger.Info("unit launched",
		"unit_id", unit.ID, "assignment_id", unit.AssignmentID, "destination", destination)
}

// ExpireAll halts both background loops, then synchronously force-expires
// every unit ever created by this launcher. Individual expiration failures
// are logged and skipped. Safe to call at any time, including before launch.
func (l *Launcher) ExpireAll(ctx context.Context) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		<-l.regDone
		return
	}
	l.stopped = true
	launching := l.launching
	close(l.stopCh)
	l.mu.Unlock()

	<-l.regDone
	if launching {
		<-l.launchDone
	}

	l.mu.Lock()
	roster := make([]string, len(l.created))
	copy(roster, l.created)
	l.mu.Unlock()

	failed := 0
	for _, id := range roster {
		if err := l.store.ExpireUnit(ctx, id); err != nil {
			failed++
			l.logger.Error("failed to expire unit", "unit_id", id, "error", err)
		}
	}

	l.mu.Lock()
	l.pending = nil
	l.active = make(map[string]*model.Unit)
	pendingUnits.Set(0)
	activeUnits.Set(0)
	l.mu.Unlock()

	l.logger.Info("run expired",
		"task_run_id", l.run.ID, "units", len(roster), "failed", failed)
}
