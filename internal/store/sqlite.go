package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/seantiz/hivegrid/internal/model"

	_ "modernc.org/sqlite"
)

const createTaskRunsTable = `
CREATE TABLE IF NOT EXISTS task_runs (
    id                   TEXT PRIMARY KEY,
    task_type            TEXT NOT NULL,
    reward               REAL NOT NULL,
    max_concurrent_units INTEGER NOT NULL,
    provider_type        TEXT NOT NULL,
    sandbox              INTEGER NOT NULL,
    created_at           DATETIME NOT NULL
)`

const createAssignmentsTable = `
CREATE TABLE IF NOT EXISTS assignments (
    id          TEXT PRIMARY KEY,
    task_run_id TEXT NOT NULL REFERENCES task_runs(id),
    data        BLOB,
    created_at  DATETIME NOT NULL
)`

const createUnitsTable = `
CREATE TABLE IF NOT EXISTS units (
    id            TEXT PRIMARY KEY,
    assignment_id TEXT NOT NULL REFERENCES assignments(id),
    unit_index    INTEGER NOT NULL,
    reward        REAL NOT NULL,
    provider_type TEXT NOT NULL,
    status        TEXT NOT NULL,
    agent_id      TEXT,
    data          BLOB,
    created_at    DATETIME NOT NULL,
    UNIQUE (assignment_id, unit_index)
)`

const createAgentsTable = `
CREATE TABLE IF NOT EXISTS agents (
    id         TEXT PRIMARY KEY,
    unit_id    TEXT NOT NULL,
    worker_id  TEXT NOT NULL,
    task_type  TEXT NOT NULL,
    status     TEXT NOT NULL,
    created_at DATETIME NOT NULL
)`

const createOnboardingAgentsTable = `
CREATE TABLE IF NOT EXISTS onboarding_agents (
    id         TEXT PRIMARY KEY,
    worker_id  TEXT NOT NULL,
    task_type  TEXT NOT NULL,
    status     TEXT NOT NULL,
    created_at DATETIME NOT NULL
)`

const createWorkersTable = `
CREATE TABLE IF NOT EXISTS workers (
    id            TEXT PRIMARY KEY,
    provider_type TEXT NOT NULL,
    created_at    DATETIME NOT NULL
)`

const createQualificationsTable = `
CREATE TABLE IF NOT EXISTS qualifications (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL
)`

const createGrantedQualificationsTable = `
CREATE TABLE IF NOT EXISTS granted_qualifications (
    worker_id        TEXT NOT NULL,
    qualification_id TEXT NOT NULL,
    created_at       DATETIME NOT NULL,
    PRIMARY KEY (worker_id, qualification_id)
)`

// Compile-time interface satisfaction check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the SQLite database at dbPath and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	tables := []string{
		createTaskRunsTable,
		createAssignmentsTable,
		createUnitsTable,
		createAgentsTable,
		createOnboardingAgentsTable,
		createWorkersTable,
		createQualificationsTable,
		createGrantedQualificationsTable,
	}
	for _, stmt := range tables {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTaskRun inserts a new task run record.
func (s *SQLiteStore) CreateTaskRun(ctx context.Context, run *model.TaskRun) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_runs (
			id, task_type, reward, max_concurrent_units, provider_type, sandbox, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.TaskType, run.Reward, run.MaxConcurrentUnits,
		run.ProviderType, run.Sandbox, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert task run: %w", err)
	}
	return nil
}

// GetTaskRun retrieves a task run by ID.
func (s *SQLiteStore) GetTaskRun(ctx context.Context, id string) (*model.TaskRun, error) {
	run := &model.TaskRun{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, task_type, reward, max_concurrent_units, provider_type, sandbox, created_at
		FROM task_runs WHERE id = ?`, id,
	).Scan(
		&run.ID, &run.TaskType, &run.Reward, &run.MaxConcurrentUnits,
		&run.ProviderType, &run.Sandbox, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task run: %w", err)
	}
	return run, nil
}

// CreateAssignmentWithUnits inserts an assignment and all of its units in one
// transaction. A failure on any unit rolls back the whole group.
func (s *SQLiteStore) CreateAssignmentWithUnits(ctx context.Context, a *model.Assignment, units []*model.Unit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO assignments (id, task_run_id, data, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.TaskRunID, []byte(a.Data), a.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}

	for _, u := range units {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO units (
				id, assignment_id, unit_index, reward, provider_type, status, agent_id, data, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.AssignmentID, u.Index, u.Reward, u.ProviderType,
			u.Status, u.AgentID, []byte(u.Data), u.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert unit %d: %w", u.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment: %w", err)
	}
	return nil
}

// GetAssignment retrieves an assignment by ID.
func (s *SQLiteStore) GetAssignment(ctx context.Context, id string) (*model.Assignment, error) {
	a := &model.Assignment{}
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, task_run_id, data, created_at FROM assignments WHERE id = ?`, id,
	).Scan(&a.ID, &a.TaskRunID, &data, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	a.Data = data
	return a, nil
}

// ListAssignments returns all assignments for a task run, oldest first.
func (s *SQLiteStore) ListAssignments(ctx context.Context, taskRunID string) ([]*model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_run_id, data, created_at FROM assignments
		WHERE task_run_id = ? ORDER BY created_at ASC, id ASC`, taskRunID,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*model.Assignment
	for rows.Next() {
		a := &model.Assignment{}
		var data []byte
		if err := rows.Scan(&a.ID, &a.TaskRunID, &data, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Data = data
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return assignments, nil
}

func scanUnit(scan func(dest ...any) error) (*model.Unit, error) {
	u := &model.Unit{}
	var agentID sql.NullString
	var data []byte
	if err := scan(
		&u.ID, &u.AssignmentID, &u.Index, &u.Reward, &u.ProviderType,
		&u.Status, &agentID, &data, &u.CreatedAt,
	); err != nil {
		return nil, err
	}
	if agentID.Valid {
		u.AgentID = &agentID.String
	}
	u.Data = data
	return u, nil
}

const unitColumns = `id, assignment_id, unit_index, reward, provider_type, status, agent_id, data, created_at`

// GetUnit retrieves a unit by ID.
func (s *SQLiteStore) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE id = ?`, id)
	u, err := scanUnit(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return u, nil
}

// ListUnitsForAssignment returns an assignment's units in index order.
func (s *SQLiteStore) ListUnitsForAssignment(ctx context.Context, assignmentID string) ([]*model.Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+unitColumns+` FROM units WHERE assignment_id = ? ORDER BY unit_index ASC`,
		assignmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var units []*model.Unit
	for rows.Next() {
		u, err := scanUnit(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return units, nil
}

// UpdateUnitStatus updates a unit's status. Transitions out of a terminal
// status are rejected; re-asserting the current status is a no-op.
func (s *SQLiteStore) UpdateUnitStatus(ctx context.Context, id, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM units WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read unit status: %w", err)
	}

	if current == status {
		return nil
	}
	if model.IsFinalUnitStatus(current) {
		return ErrInvalidTransition
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE units SET status = ? WHERE id = ?`, status, id,
	); err != nil {
		return fmt.Errorf("update unit status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unit status: %w", err)
	}
	return nil
}

// ExpireUnit forces a unit into the expired status no matter what status it
// currently holds, and expires its bound agent unless already terminal.
func (s *SQLiteStore) ExpireUnit(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var agentID sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT agent_id FROM units WHERE id = ?`, id).Scan(&agentID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read unit: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE units SET status = ? WHERE id = ?`, model.UnitStatusExpired, id,
	); err != nil {
		return fmt.Errorf("expire unit: %w", err)
	}

	if agentID.Valid {
		var agentStatus string
		err = tx.QueryRowContext(ctx,
			`SELECT status FROM agents WHERE id = ?`, agentID.String).Scan(&agentStatus)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read agent status: %w", err)
		}
		if err == nil && !model.IsFinalAgentStatus(agentStatus) {
			if _, err := tx.ExecContext(ctx,
				`UPDATE agents SET status = ? WHERE id = ?`, model.StatusExpired, agentID.String,
			); err != nil {
				return fmt.Errorf("expire agent: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expire: %w", err)
	}
	return nil
}

// AssignUnitAgent binds an agent to a launched, unbound unit and marks it
// assigned. The update is conditional so two racing binds cannot both win;
// the loser gets ErrUnitNotOpen.
func (s *SQLiteStore) AssignUnitAgent(ctx context.Context, unitID, agentID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE units SET agent_id = ?, status = ?
		WHERE id = ? AND status = ? AND agent_id IS NULL`,
		agentID, model.UnitStatusAssigned, unitID, model.UnitStatusLaunched,
	)
	if err != nil {
		return fmt.Errorf("assign unit agent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var one int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM units WHERE id = ?`, unitID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read unit: %w", err)
		}
		return ErrUnitNotOpen
	}
	return nil
}

// ClearUnitAgent unbinds a unit's agent and reopens the unit as launched so
// that a different worker can pick it up. Units already in a final status
// are left untouched and report ErrInvalidTransition.
func (s *SQLiteStore) ClearUnitAgent(ctx context.Context, unitID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM units WHERE id = ?`, unitID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read unit status: %w", err)
	}
	if model.IsFinalUnitStatus(current) {
		return ErrInvalidTransition
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE units SET agent_id = NULL, status = ? WHERE id = ?`,
		model.UnitStatusLaunched, unitID,
	); err != nil {
		return fmt.Errorf("clear unit agent: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

// CreateAgent inserts a new agent record.
func (s *SQLiteStore) CreateAgent(ctx context.Context, a *model.Agent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (id, unit_id, worker_id, task_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.UnitID, a.WorkerID, a.TaskType, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// GetAgent retrieves an agent by ID.
func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	a := &model.Agent{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, unit_id, worker_id, task_type, status, created_at
		FROM agents WHERE id = ?`, id,
	).Scan(&a.ID, &a.UnitID, &a.WorkerID, &a.TaskType, &a.Status, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

// UpdateAgentStatus updates an agent's status with the terminal-status guard.
func (s *SQLiteStore) UpdateAgentStatus(ctx context.Context, id, status string) error {
	return s.guardedAgentUpdate(ctx, "agents", id, status)
}

// CreateOnboardingAgent inserts a new onboarding agent record.
func (s *SQLiteStore) CreateOnboardingAgent(ctx context.Context, a *model.OnboardingAgent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO onboarding_agents (id, worker_id, task_type, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.WorkerID, a.TaskType, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert onboarding agent: %w", err)
	}
	return nil
}

// GetOnboardingAgent retrieves an onboarding agent by ID.
func (s *SQLiteStore) GetOnboardingAgent(ctx context.Context, id string) (*model.OnboardingAgent, error) {
	a := &model.OnboardingAgent{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, worker_id, task_type, status, created_at
		FROM onboarding_agents WHERE id = ?`, id,
	).Scan(&a.ID, &a.WorkerID, &a.TaskType, &a.Status, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get onboarding agent: %w", err)
	}
	return a, nil
}

// UpdateOnboardingAgentStatus updates an onboarding agent's status with the
// terminal-status guard.
func (s *SQLiteStore) UpdateOnboardingAgentStatus(ctx context.Context, id, status string) error {
	return s.guardedAgentUpdate(ctx, "onboarding_agents", id, status)
}

// guardedAgentUpdate applies the terminal-status guard for agent tables.
func (s *SQLiteStore) guardedAgentUpdate(ctx context.Context, table, id, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM `+table+` WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read agent status: %w", err)
	}

	if current == status {
		return nil
	}
	if model.IsFinalAgentStatus(current) {
		return ErrInvalidTransition
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET status = ? WHERE id = ?`, status, id,
	); err != nil {
		return fmt.Errorf("update agent status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit agent status: %w", err)
	}
	return nil
}

// CreateWorker inserts a new worker record.
func (s *SQLiteStore) CreateWorker(ctx context.Context, w *model.Worker) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workers (id, provider_type, created_at) VALUES (?, ?, ?)`,
		w.ID, w.ProviderType, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert worker: %w", err)
	}
	return nil
}

// GetWorker retrieves a worker by ID.
func (s *SQLiteStore) GetWorker(ctx context.Context, id string) (*model.Worker, error) {
	w := &model.Worker{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, provider_type, created_at FROM workers WHERE id = ?`, id,
	).Scan(&w.ID, &w.ProviderType, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get worker: %w", err)
	}
	return w, nil
}

// FindOrCreateQualification returns the qualification with the given name,
// creating it if absent. Safe to call repeatedly with the same name.
func (s *SQLiteStore) FindOrCreateQualification(ctx context.Context, name string) (*model.Qualification, error) {
	q := &model.Qualification{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM qualifications WHERE name = ?`, name,
	).Scan(&q.ID, &q.Name, &q.CreatedAt)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find qualification: %w", err)
	}

	q = &model.Qualification{
		ID:        model.NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO qualifications (id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING`,
		q.ID, q.Name, q.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("create qualification: %w", err)
	}

	// Re-read to cover the case where a concurrent insert won the conflict.
	err = s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM qualifications WHERE name = ?`, name,
	).Scan(&q.ID, &q.Name, &q.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reread qualification: %w", err)
	}
	return q, nil
}

// GrantQualification grants a qualification to a worker. Granting twice is a
// no-op.
func (s *SQLiteStore) GrantQualification(ctx context.Context, workerID, qualificationID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO granted_qualifications (worker_id, qualification_id, created_at)
		VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		workerID, qualificationID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("grant qualification: %w", err)
	}
	return nil
}

// WorkerHasQualification reports whether a worker holds a qualification.
func (s *SQLiteStore) WorkerHasQualification(ctx context.Context, workerID, qualificationID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM granted_qualifications WHERE worker_id = ? AND qualification_id = ?`,
		workerID, qualificationID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check qualification: %w", err)
	}
	return count > 0, nil
}

// GetRunStats returns aggregate unit counts for one task run.
func (s *SQLiteStore) GetRunStats(ctx context.Context, taskRunID string) (*RunStats, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback()

	stats := &RunStats{UnitsByStatus: make(map[string]int)}

	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assignments WHERE task_run_id = ?`, taskRunID,
	).Scan(&stats.Assignments); err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT u.status, COUNT(*) FROM units u
		JOIN assignments a ON a.id = u.assignment_id
		WHERE a.task_run_id = ? GROUP BY u.status`, taskRunID,
	)
	if err != nil {
		return nil, fmt.Errorf("count units: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan unit count: %w", err)
		}
		stats.UnitsByStatus[status] = count
		stats.Units += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unit counts: %w", err)
	}

	return stats, nil
}

// checkAffected converts a zero-row update into ErrNotFound.
func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
