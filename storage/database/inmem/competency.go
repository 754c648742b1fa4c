package inmemdb

import (
	"context"

	"github.com/darasahq/darasa/core/eval"
)

type competencyRepository struct {
	db *competencyTable
}

var _ eval.CompetencyRepository = (*competencyRepository)(nil) // interface compliance check

func NewCompetencyRepository(db *DB) *competencyRepository {
	return &competencyRepository{db: db.competency}
}

func (repo *competencyRepository) UpsertCompetency(ctx context.Context, c eval.Competency) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[competencyKey{studentID: c.StudentID, documentID: c.DocumentID, documentItemID: c.DocumentItemID}] = c
	return nil
}
