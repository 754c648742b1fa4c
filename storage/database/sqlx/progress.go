package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/progress"
)

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sql.DB) *progressRepository {
	return &progressRepository{db: sqlx.NewDb(db, "postgres")}
}

// progressRow mirrors the progress table. The record column holds the tagged
// variant payload; the other columns are denormalized key fields for lookup.
type progressRow struct {
	ID                    uuid.UUID       `db:"id"`
	DeploymentID          uuid.UUID       `db:"deployment_id"`
	ChangeID              uuid.UUID       `db:"change_id"`
	CoursewareElementID   uuid.UUID       `db:"courseware_element_id"`
	CoursewareElementType string          `db:"courseware_element_type"`
	StudentID             uuid.UUID       `db:"student_id"`
	AttemptID             uuid.UUID       `db:"attempt_id"`
	EvaluationID          uuid.UUID       `db:"evaluation_id"`
	Kind                  string          `db:"kind"`
	Record                json.RawMessage `db:"record"`
	CreatedAt             time.Time       `db:"created_at"`
}

func (repo progressRepository) unmarshal(row progressRow) (progress.Progress, error) {
	p, err := progress.Unmarshal(row.Record)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding progress record %s", row.ID)
	}
	return p, nil
}

func (repo progressRepository) GetLatestProgress(ctx context.Context, studentID, elementID, attemptID uuid.UUID) (progress.Progress, error) {
	var row progressRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM progress
		 WHERE student_id = $1 AND courseware_element_id = $2 AND attempt_id = $3
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		studentID, elementID, attemptID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, progress.ErrNotFound
		}
		return nil, errors.Wrap(err, "getting latest progress")
	}
	return repo.unmarshal(row)
}

func (repo progressRepository) CreateProgress(ctx context.Context, p progress.Progress) error {
	record, err := progress.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encoding progress record")
	}
	base := p.Base()
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO progress (id, deployment_id, change_id, courseware_element_id, courseware_element_type,
		                       student_id, attempt_id, evaluation_id, kind, record)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		base.ID, base.DeploymentID, base.ChangeID, base.CoursewareElementID, base.CoursewareElementType,
		base.StudentID, base.AttemptID, base.EvaluationID, p.Kind(), record,
	)
	return errors.Wrap(err, "inserting progress")
}

func (repo progressRepository) QueryProgressHistory(ctx context.Context, studentID, elementID, attemptID uuid.UUID) ([]progress.Progress, error) {
	var rows []progressRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM progress
		 WHERE student_id = $1 AND courseware_element_id = $2 AND attempt_id = $3
		 ORDER BY created_at ASC, id ASC`,
		studentID, elementID, attemptID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress history")
	}
	history := make([]progress.Progress, 0, len(rows))
	for _, row := range rows {
		p, err := repo.unmarshal(row)
		if err != nil {
			return nil, err
		}
		history = append(history, p)
	}
	return history, nil
}
