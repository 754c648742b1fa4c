package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/eval"
)

type competencyRepository struct {
	db *sqlx.DB
}

var _ eval.CompetencyRepository = (*competencyRepository)(nil) // interface compliance check

func NewCompetencyRepository(db *sql.DB) *competencyRepository {
	return &competencyRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo competencyRepository) UpsertCompetency(ctx context.Context, c eval.Competency) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO competency (student_id, document_id, document_item_id, value)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (student_id, document_id, document_item_id)
		 DO UPDATE SET value = EXCLUDED.value`,
		c.StudentID, c.DocumentID, c.DocumentItemID, c.Value,
	)
	return errors.Wrap(err, "upserting competency")
}
