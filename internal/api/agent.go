package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/hivegrid/internal/blueprint"
	"github.com/seantiz/hivegrid/internal/model"
	"github.com/seantiz/hivegrid/internal/store"
)

const maxBodySize = 1 << 20 // 1 MB

// createWorkerRequest is the JSON body for POST /v1/workers.
type createWorkerRequest struct {
	ProviderType string `json:"provider_type"`
}

func (s *Server) handleCreateWorker(w http.ResponseWriter, r *http.Request) {
	var req createWorkerRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	providerType := req.ProviderType
	if providerType == "" {
		providerType = s.run.ProviderType
	}

	worker := &model.Worker{
		ID:           model.NewID(),
		ProviderType: providerType,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateWorker(r.Context(), worker); err != nil {
		s.logger.Error("create worker", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create worker")
		return
	}

	s.writeJSON(w, http.StatusCreated, worker)
}

// createAgentRequest is the JSON body for POST /v1/agents.
type createAgentRequest struct {
	WorkerID string `json:"worker_id"`
	UnitID   string `json:"unit_id"`
}

// handleCreateAgent binds a worker to an open unit and starts its task logic.
// Workers that still owe the blueprint's onboarding flow get an onboarding
// agent instead; workers that already failed it are turned away.
func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.WorkerID == "" || req.UnitID == "" {
		s.writeError(w, http.StatusBadRequest, "worker_id and unit_id are required")
		return
	}

	worker, err := s.store.GetWorker(r.Context(), req.WorkerID)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "worker not found")
		return
	}
	if err != nil {
		s.logger.Error("get worker", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get worker")
		return
	}

	if s.blueprint.Onboarding != nil && s.blueprint.OnboardingQualification != "" {
		verdict, err := s.onboardingVerdict(r.Context(), worker.ID)
		if err != nil {
			s.logger.Error("check onboarding qualification", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to check qualifications")
			return
		}
		switch verdict {
		case onboardingFailed:
			s.writeError(w, http.StatusForbidden, "worker failed onboarding for this task")
			return
		case onboardingOwed:
			oa := &model.OnboardingAgent{
				ID:        model.NewID(),
				WorkerID:  worker.ID,
				TaskType:  s.run.TaskType,
				Status:    model.StatusOnboarding,
				CreatedAt: time.Now().UTC(),
			}
			if err := s.store.CreateOnboardingAgent(r.Context(), oa); err != nil {
				s.logger.Error("create onboarding agent", "error", err)
				s.writeError(w, http.StatusInternalServerError, "failed to create onboarding agent")
				return
			}
			go s.driver.LaunchOnboarding(context.Background(), oa)
			s.writeJSON(w, http.StatusAccepted, oa)
			return
		}
	}

	unit, err := s.store.GetUnit(r.Context(), req.UnitID)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "unit not found")
		return
	}
	if err != nil {
		s.logger.Error("get unit", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get unit")
		return
	}
	if unit.Status != model.UnitStatusLaunched || unit.AgentID != nil {
		s.writeError(w, http.StatusConflict, "unit is not open for work")
		return
	}

	agent := &model.Agent{
		ID:        model.NewID(),
		UnitID:    unit.ID,
		WorkerID:  worker.ID,
		TaskType:  s.run.TaskType,
		Status:    model.StatusAccepted,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateAgent(r.Context(), agent); err != nil {
		s.logger.Error("create agent", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create agent")
		return
	}
	if err := s.store.AssignUnitAgent(r.Context(), unit.ID, agent.ID); err != nil {
		if errors.Is(err, store.ErrUnitNotOpen) || errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusConflict, "unit is not open for work")
			return
		}
		s.logger.Error("assign unit agent", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to bind agent")
		return
	}

	unit.AgentID = &agent.ID
	unit.Status = model.UnitStatusAssigned
	go s.driver.LaunchUnit(context.Background(), unit, agent)

	s.writeJSON(w, http.StatusCreated, agent)
}

// updateAgentStatusRequest is the JSON body for POST /v1/agents/{id}/status.
type updateAgentStatusRequest struct {
	Status string `json:"status"`
}

// handleUpdateAgentStatus records a status reported by the worker transport,
// such as "in task", "completed", or "returned". Task logic watching the
// agent picks the change up from the store.
func (s *Server) handleUpdateAgentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateAgentStatusRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !model.IsValidAgentStatus(req.Status) {
		s.writeError(w, http.StatusBadRequest, "unknown agent status")
		return
	}

	err := s.store.UpdateAgentStatus(r.Context(), id, req.Status)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	if errors.Is(err, store.ErrInvalidTransition) {
		s.writeError(w, http.StatusConflict, "agent status is final")
		return
	}
	if err != nil {
		s.logger.Error("update agent status", "agent_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to update agent status")
		return
	}

	agent, err := s.store.GetAgent(r.Context(), id)
	if err != nil {
		s.logger.Error("get agent", "agent_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get agent")
		return
	}
	s.writeJSON(w, http.StatusOK, agent)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	agent, err := s.store.GetAgent(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	if err != nil {
		s.logger.Error("get agent", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get agent")
		return
	}

	s.writeJSON(w, http.StatusOK, agent)
}

type onboardingState int

const (
	onboardingPassed onboardingState = iota
	onboardingFailed
	onboardingOwed
)

// onboardingVerdict checks the worker's standing against the blueprint's
// onboarding qualification and its failed counterpart.
func (s *Server) onboardingVerdict(ctx context.Context, workerID string) (onboardingState, error) {
	failedName := blueprint.FailedQualificationName(s.blueprint.OnboardingQualification)
	failed, err := s.store.FindOrCreateQualification(ctx, failedName)
	if err != nil {
		return onboardingOwed, err
	}
	hasFailed, err := s.store.WorkerHasQualification(ctx, workerID, failed.ID)
	if err != nil {
		return onboardingOwed, err
	}
	if hasFailed {
		return onboardingFailed, nil
	}

	qual, err := s.store.FindOrCreateQualification(ctx, s.blueprint.OnboardingQualification)
	if err != nil {
		return onboardingOwed, err
	}
	hasPassed, err := s.store.WorkerHasQualification(ctx, workerID, qual.ID)
	if err != nil {
		return onboardingOwed, err
	}
	if hasPassed {
		return onboardingPassed, nil
	}
	return onboardingOwed, nil
}
