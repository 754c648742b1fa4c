package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/courseware"
)

type coursewareRepository struct {
	db       *coursewareTable
	scenario *scenarioTable
}

var _ courseware.Repository = (*coursewareRepository)(nil) // interface compliance check

func NewCoursewareRepository(db *DB) *coursewareRepository {
	return &coursewareRepository{db: db.courseware, scenario: db.scenario}
}

func (repo *coursewareRepository) GetPathway(ctx context.Context, pathwayID, changeID uuid.UUID) (courseware.Pathway, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if pw, ok := repo.db.pathways[pathwayKey{pathwayID: pathwayID, changeID: changeID}]; ok {
		return pw, nil
	}
	return courseware.Pathway{}, courseware.ErrNotFound
}

func (repo *coursewareRepository) GetWalkable(ctx context.Context, id uuid.UUID) (courseware.Walkable, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if w, ok := repo.db.walkables[id]; ok {
		return w, nil
	}
	return courseware.Walkable{}, courseware.ErrNotFound
}

func (repo *coursewareRepository) CreateScenario(ctx context.Context, sc courseware.Scenario) (courseware.Scenario, error) {
	repo.scenario.mutex.Lock()
	defer repo.scenario.mutex.Unlock()

	key := orderKey{parentID: sc.ParentID, lifecycle: sc.Lifecycle}
	repo.scenario.table[sc.ID] = sc
	repo.scenario.order[key] = append(repo.scenario.order[key], sc.ID)
	return sc, nil
}

func (repo *coursewareRepository) GetScenario(ctx context.Context, id uuid.UUID) (courseware.Scenario, error) {
	repo.scenario.mutex.RLock()
	defer repo.scenario.mutex.RUnlock()

	if sc, ok := repo.scenario.table[id]; ok {
		return sc, nil
	}
	return courseware.Scenario{}, courseware.ErrScenarioNotFound
}

func (repo *coursewareRepository) QueryScenarios(ctx context.Context, parentID uuid.UUID, lifecycle courseware.Lifecycle) ([]courseware.Scenario, error) {
	repo.scenario.mutex.RLock()
	defer repo.scenario.mutex.RUnlock()

	ids := repo.scenario.order[orderKey{parentID: parentID, lifecycle: lifecycle}]
	scenarios := make([]courseware.Scenario, 0, len(ids))
	for _, id := range ids {
		if sc, ok := repo.scenario.table[id]; ok {
			scenarios = append(scenarios, sc)
		}
	}
	return scenarios, nil
}

func (repo *coursewareRepository) UpdateScenario(ctx context.Context, sc courseware.Scenario) (courseware.Scenario, error) {
	repo.scenario.mutex.Lock()
	defer repo.scenario.mutex.Unlock()

	if _, ok := repo.scenario.table[sc.ID]; !ok {
		return courseware.Scenario{}, courseware.ErrScenarioNotFound
	}
	repo.scenario.table[sc.ID] = sc
	return sc, nil
}

func (repo *coursewareRepository) DeleteScenario(ctx context.Context, id uuid.UUID) error {
	repo.scenario.mutex.Lock()
	defer repo.scenario.mutex.Unlock()

	sc, ok := repo.scenario.table[id]
	if !ok {
		return courseware.ErrScenarioNotFound
	}
	delete(repo.scenario.table, id)

	key := orderKey{parentID: sc.ParentID, lifecycle: sc.Lifecycle}
	order := repo.scenario.order[key]
	for i, scID := range order {
		if scID == id {
			repo.scenario.order[key] = append(order[:i], order[i+1:]...)
			break
		}
	}
	return nil
}

func (repo *coursewareRepository) ReorderScenarios(ctx context.Context, parentID uuid.UUID, lifecycle courseware.Lifecycle, ids []uuid.UUID) error {
	repo.scenario.mutex.Lock()
	defer repo.scenario.mutex.Unlock()

	for _, id := range ids {
		if _, ok := repo.scenario.table[id]; !ok {
			return courseware.ErrScenarioNotFound
		}
	}
	repo.scenario.order[orderKey{parentID: parentID, lifecycle: lifecycle}] = append([]uuid.UUID(nil), ids...)
	return nil
}
