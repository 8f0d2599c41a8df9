// Package static provides the built-in static task blueprint: a unit-mode
// task whose assignments come from a JSON file and whose unit logic watches
// the assigned agent in the store until it reaches a terminal status.
package static

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/seantiz/hivegrid/internal/blueprint"
	"github.com/seantiz/hivegrid/internal/model"
	"github.com/seantiz/hivegrid/internal/store"
)

// Type is the task type key the static blueprint registers under.
const Type = "static"

const defaultWatchInterval = time.Second

// New builds the static blueprint. dataPath names a JSON file holding an
// array of initialization records; an empty path yields an empty source.
// watchInterval throttles agent status polling and defaults to one second.
func New(s store.Store, dataPath string, watchInterval time.Duration) *blueprint.Blueprint {
	if watchInterval <= 0 {
		watchInterval = defaultWatchInterval
	}
	return &blueprint.Blueprint{
		Type: Type,
		Mode: blueprint.ModeUnit,
		NewSource: func(_ *model.TaskRun) (blueprint.DataSource, error) {
			return loadSource(dataPath)
		},
		Units: &taskLogic{store: s, watchInterval: watchInterval},
	}
}

// loadSource reads the whole data file up front into a bounded source.
func loadSource(path string) (blueprint.DataSource, error) {
	if path == "" {
		return blueprint.NewSliceSource(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task data %s: %w", path, err)
	}
	var records []*model.InitializationData
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse task data %s: %w", path, err)
	}
	return blueprint.NewSliceSource(records...), nil
}

// taskLogic runs one unit by watching its agent's stored status. The worker
// side updates the agent through the provider; this side only reacts.
type taskLogic struct {
	store         store.Store
	watchInterval time.Duration
}

func (l *taskLogic) RunUnit(ctx context.Context, unit *model.Unit, agent *model.Agent) error {
	ticker := time.NewTicker(l.watchInterval)
	defer ticker.Stop()

	for {
		current, err := l.store.GetAgent(ctx, agent.ID)
		if err != nil {
			return fmt.Errorf("watch agent %s: %w", agent.ID, err)
		}
		if model.IsFinalAgentStatus(current.Status) {
			switch current.Status {
			case model.StatusReturned:
				return blueprint.ErrAgentReturned
			case model.StatusDisconnect:
				return blueprint.ErrAgentDisconnected
			case model.StatusTimeout:
				return blueprint.ErrAgentTimeout
			case model.StatusCompleted:
				return l.store.UpdateUnitStatus(ctx, unit.ID, model.UnitStatusCompleted)
			default:
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *taskLogic) CleanupUnit(_ context.Context, _ *model.Unit) error {
	// Nothing is held outside the store.
	return nil
}
