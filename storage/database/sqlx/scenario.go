package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/courseware"
)

type scenarioRepository struct {
	db *sqlx.DB
}

func NewScenarioRepository(db *sql.DB) *scenarioRepository {
	return &scenarioRepository{db: sqlx.NewDb(db, "postgres")}
}

type scenarioRow struct {
	ID          uuid.UUID       `db:"id"`
	ParentID    uuid.UUID       `db:"parent_id"`
	ParentType  string          `db:"parent_type"`
	Lifecycle   string          `db:"lifecycle"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Condition   json.RawMessage `db:"condition"`
	Actions     json.RawMessage `db:"actions"`
	Correctness string          `db:"correctness"`
	Position    int             `db:"position"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (repo scenarioRepository) row(sc courseware.Scenario, position int) (scenarioRow, error) {
	condition, err := json.Marshal(sc.Condition)
	if err != nil {
		return scenarioRow{}, errors.Wrap(err, "encoding scenario condition")
	}
	actions, err := json.Marshal(sc.Actions)
	if err != nil {
		return scenarioRow{}, errors.Wrap(err, "encoding scenario actions")
	}
	return scenarioRow{
		ID:          sc.ID,
		ParentID:    sc.ParentID,
		ParentType:  string(sc.ParentType),
		Lifecycle:   string(sc.Lifecycle),
		Name:        sc.Name,
		Description: sc.Description,
		Condition:   condition,
		Actions:     actions,
		Correctness: string(sc.Correctness),
		Position:    position,
		CreatedAt:   sc.CreatedAt.UTC(),
		UpdatedAt:   sc.UpdatedAt.UTC(),
	}, nil
}

func (repo scenarioRepository) unrow(row scenarioRow) (courseware.Scenario, error) {
	sc := courseware.Scenario{
		ID:          row.ID,
		ParentID:    row.ParentID,
		ParentType:  courseware.ElementType(row.ParentType),
		Lifecycle:   courseware.Lifecycle(row.Lifecycle),
		Name:        row.Name,
		Description: row.Description,
		Correctness: courseware.Correctness(row.Correctness),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Condition, &sc.Condition); err != nil {
		return courseware.Scenario{}, errors.Wrapf(err, "decoding condition of scenario %s", row.ID)
	}
	if err := json.Unmarshal(row.Actions, &sc.Actions); err != nil {
		return courseware.Scenario{}, errors.Wrapf(err, "decoding actions of scenario %s", row.ID)
	}
	return sc, nil
}

func (repo scenarioRepository) CreateScenario(ctx context.Context, sc courseware.Scenario) (courseware.Scenario, error) {
	// new scenarios append at the end of the parent+lifecycle ordering
	var position int
	err := repo.db.GetContext(ctx, &position,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM scenario WHERE parent_id = $1 AND lifecycle = $2`,
		sc.ParentID, string(sc.Lifecycle),
	)
	if err != nil {
		return courseware.Scenario{}, errors.Wrap(err, "computing scenario position")
	}

	row, err := repo.row(sc, position)
	if err != nil {
		return courseware.Scenario{}, err
	}
	_, err = repo.db.NamedExecContext(ctx,
		`INSERT INTO scenario (id, parent_id, parent_type, lifecycle, name, description, condition, actions, correctness, position, created_at, updated_at)
		 VALUES (:id, :parent_id, :parent_type, :lifecycle, :name, :description, :condition, :actions, :correctness, :position, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return courseware.Scenario{}, errors.Wrap(err, "inserting scenario")
	}
	return sc, nil
}

func (repo scenarioRepository) GetScenario(ctx context.Context, id uuid.UUID) (courseware.Scenario, error) {
	var row scenarioRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM scenario WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return courseware.Scenario{}, courseware.ErrScenarioNotFound
		}
		return courseware.Scenario{}, errors.Wrap(err, "getting scenario")
	}
	return repo.unrow(row)
}

func (repo scenarioRepository) QueryScenarios(ctx context.Context, parentID uuid.UUID, lifecycle courseware.Lifecycle) ([]courseware.Scenario, error) {
	var rows []scenarioRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM scenario WHERE parent_id = $1 AND lifecycle = $2 ORDER BY position ASC`,
		parentID, string(lifecycle),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying scenarios")
	}
	scenarios := make([]courseware.Scenario, 0, len(rows))
	for _, row := range rows {
		sc, err := repo.unrow(row)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func (repo scenarioRepository) UpdateScenario(ctx context.Context, sc courseware.Scenario) (courseware.Scenario, error) {
	condition, err := json.Marshal(sc.Condition)
	if err != nil {
		return courseware.Scenario{}, errors.Wrap(err, "encoding scenario condition")
	}
	actions, err := json.Marshal(sc.Actions)
	if err != nil {
		return courseware.Scenario{}, errors.Wrap(err, "encoding scenario actions")
	}

	res, err := repo.db.ExecContext(ctx,
		`UPDATE scenario
		 SET name = $2, description = $3, condition = $4, actions = $5, correctness = $6, updated_at = $7
		 WHERE id = $1`,
		sc.ID, sc.Name, sc.Description, condition, actions, string(sc.Correctness), sc.UpdatedAt.UTC(),
	)
	if err != nil {
		return courseware.Scenario{}, errors.Wrap(err, "updating scenario")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return courseware.Scenario{}, courseware.ErrScenarioNotFound
	}
	return sc, nil
}

func (repo scenarioRepository) DeleteScenario(ctx context.Context, id uuid.UUID) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM scenario WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting scenario")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return courseware.ErrScenarioNotFound
	}
	return nil
}

func (repo scenarioRepository) ReorderScenarios(ctx context.Context, parentID uuid.UUID, lifecycle courseware.Lifecycle, ids []uuid.UUID) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning reorder transaction")
	}
	defer tx.Rollback()

	for position, id := range ids {
		res, err := tx.ExecContext(ctx,
			`UPDATE scenario SET position = $3 WHERE id = $1 AND parent_id = $2`,
			id, parentID, position,
		)
		if err != nil {
			return errors.Wrap(err, "reordering scenarios")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return courseware.ErrScenarioNotFound
		}
	}
	return errors.Wrap(tx.Commit(), "committing reorder")
}
