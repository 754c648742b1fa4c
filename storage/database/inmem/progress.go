package inmemdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/progress"
)

// storedProgress keeps the encoded envelope so readers always get a private
// copy, like a real database round-trip would give them.
type storedProgress []byte

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db.progress}
}

func (repo *progressRepository) GetLatestProgress(ctx context.Context, studentID, elementID, attemptID uuid.UUID) (progress.Progress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := repo.db.table[progressKey{studentID: studentID, elementID: elementID, attemptID: attemptID}]
	if len(records) == 0 {
		return nil, progress.ErrNotFound
	}
	p, err := progress.Unmarshal(records[len(records)-1])
	if err != nil {
		return nil, errors.Wrap(err, "decoding progress record")
	}
	return p, nil
}

func (repo *progressRepository) CreateProgress(ctx context.Context, p progress.Progress) error {
	data, err := progress.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encoding progress record")
	}
	base := p.Base()
	key := progressKey{studentID: base.StudentID, elementID: base.CoursewareElementID, attemptID: base.AttemptID}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[key] = append(repo.db.table[key], data)
	return nil
}

func (repo *progressRepository) QueryProgressHistory(ctx context.Context, studentID, elementID, attemptID uuid.UUID) ([]progress.Progress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := repo.db.table[progressKey{studentID: studentID, elementID: elementID, attemptID: attemptID}]
	history := make([]progress.Progress, 0, len(records))
	for _, data := range records {
		p, err := progress.Unmarshal(data)
		if err != nil {
			return nil, errors.Wrap(err, "decoding progress record")
		}
		history = append(history, p)
	}
	return history, nil
}
