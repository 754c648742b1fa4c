package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/scope"
)

type scopeRepository struct {
	db *scopeTable
}

var _ scope.Repository = (*scopeRepository)(nil) // interface compliance check

func NewScopeRepository(db *DB) *scopeRepository {
	return &scopeRepository{db: db.scope}
}

func (repo *scopeRepository) GetEntry(ctx context.Context, studentID uuid.UUID, scopeURN string, sourceID uuid.UUID) (scope.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if entry, ok := repo.db.table[scopeKey{studentID: studentID, scopeURN: scopeURN, sourceID: sourceID}]; ok {
		return entry, nil
	}
	return scope.Entry{}, scope.ErrNotFound
}

func (repo *scopeRepository) UpsertEntry(ctx context.Context, entry scope.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[scopeKey{studentID: entry.StudentID, scopeURN: entry.StudentScopeURN, sourceID: entry.SourceID}] = entry
	return nil
}
