package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/eval"
)

type scoreRepository struct {
	db *sqlx.DB
}

var _ eval.ScoreRepository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *sql.DB) *scoreRepository {
	return &scoreRepository{db: sqlx.NewDb(db, "postgres")}
}

type scoreRow struct {
	StudentID   uuid.UUID `db:"student_id"`
	ElementID   uuid.UUID `db:"element_id"`
	ElementType string    `db:"element_type"`
	AttemptID   uuid.UUID `db:"attempt_id"`
	Value       float64   `db:"value"`
}

func (repo scoreRepository) GetScore(ctx context.Context, studentID, elementID, attemptID uuid.UUID) (eval.Score, error) {
	var row scoreRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM score WHERE student_id = $1 AND element_id = $2 AND attempt_id = $3`,
		studentID, elementID, attemptID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return eval.Score{}, eval.ErrScoreNotFound
		}
		return eval.Score{}, errors.Wrap(err, "getting score")
	}
	return eval.Score{
		StudentID:   row.StudentID,
		ElementID:   row.ElementID,
		ElementType: courseware.ElementType(row.ElementType),
		AttemptID:   row.AttemptID,
		Value:       row.Value,
	}, nil
}

func (repo scoreRepository) UpsertScore(ctx context.Context, score eval.Score) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO score (student_id, element_id, element_type, attempt_id, value)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (student_id, element_id, attempt_id)
		 DO UPDATE SET element_type = EXCLUDED.element_type, value = EXCLUDED.value`,
		score.StudentID, score.ElementID, string(score.ElementType), score.AttemptID, score.Value,
	)
	return errors.Wrap(err, "upserting score")
}
