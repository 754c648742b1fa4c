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

// coursewareRepository serves the authored side: pathways and walkables are
// read-only at runtime, scenarios are authorable.
type coursewareRepository struct {
	*scenarioRepository

	db *sqlx.DB
}

var _ courseware.Repository = (*coursewareRepository)(nil) // interface compliance check

func NewCoursewareRepository(db *sql.DB) *coursewareRepository {
	return &coursewareRepository{
		scenarioRepository: NewScenarioRepository(db),
		db:                 sqlx.NewDb(db, "postgres"),
	}
}

type pathwayRow struct {
	ID           uuid.UUID       `db:"id"`
	DeploymentID uuid.UUID       `db:"deployment_id"`
	ChangeID     uuid.UUID       `db:"change_id"`
	Kind         string          `db:"kind"`
	Structure    json.RawMessage `db:"structure"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// pathwayStructure is the shape of the structure jsonb column.
type pathwayStructure struct {
	Children []courseware.WalkableRef `json:"children"`
	Edges    []courseware.Edge        `json:"edges,omitempty"`
	BKT      *courseware.BKTConfig    `json:"bkt,omitempty"`
}

type walkableRow struct {
	ID           uuid.UUID `db:"id"`
	DeploymentID uuid.UUID `db:"deployment_id"`
	Type         string    `db:"type"`
	Title        string    `db:"title"`
	PathwayID    uuid.UUID `db:"pathway_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (repo coursewareRepository) GetPathway(ctx context.Context, pathwayID, changeID uuid.UUID) (courseware.Pathway, error) {
	var row pathwayRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM pathway WHERE id = $1 AND change_id = $2`,
		pathwayID, changeID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return courseware.Pathway{}, courseware.ErrNotFound
		}
		return courseware.Pathway{}, errors.Wrap(err, "getting pathway")
	}

	var structure pathwayStructure
	if err := json.Unmarshal(row.Structure, &structure); err != nil {
		return courseware.Pathway{}, errors.Wrapf(err, "decoding structure of pathway %s", row.ID)
	}
	return courseware.Pathway{
		ID:           row.ID,
		DeploymentID: row.DeploymentID,
		ChangeID:     row.ChangeID,
		Kind:         courseware.PathwayKind(row.Kind),
		Children:     structure.Children,
		Edges:        structure.Edges,
		BKT:          structure.BKT,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (repo coursewareRepository) GetWalkable(ctx context.Context, id uuid.UUID) (courseware.Walkable, error) {
	var row walkableRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM walkable WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return courseware.Walkable{}, courseware.ErrNotFound
		}
		return courseware.Walkable{}, errors.Wrap(err, "getting walkable")
	}
	return courseware.Walkable{
		ID:           row.ID,
		DeploymentID: row.DeploymentID,
		Type:         courseware.ElementType(row.Type),
		Title:        row.Title,
		PathwayID:    row.PathwayID,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
