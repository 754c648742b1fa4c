package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/eval"
)

type scoreRepository struct {
	db *scoreTable
}

var _ eval.ScoreRepository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *DB) *scoreRepository {
	return &scoreRepository{db: db.score}
}

func (repo *scoreRepository) GetScore(ctx context.Context, studentID, elementID, attemptID uuid.UUID) (eval.Score, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if score, ok := repo.db.table[scoreKey{studentID: studentID, elementID: elementID, attemptID: attemptID}]; ok {
		return score, nil
	}
	return eval.Score{}, eval.ErrScoreNotFound
}

func (repo *scoreRepository) UpsertScore(ctx context.Context, score eval.Score) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[scoreKey{studentID: score.StudentID, elementID: score.ElementID, attemptID: score.AttemptID}] = score
	return nil
}
