package scope

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/courseware"
)

var (
	// errors
	ErrNotFound = errors.New("scope entry not found")
)

// Entry is one student-scope value: per-learner key/value state carried
// between an evaluation and later conditions/actions.
type Entry struct {
	StudentID       uuid.UUID           `json:"studentId"`
	StudentScopeURN string              `json:"studentScopeURN"`
	SourceID        uuid.UUID           `json:"sourceId"`
	SchemaProperty  string              `json:"schemaProperty"`
	DataType        courseware.DataType `json:"dataType"`
	Value           json.RawMessage     `json:"value"`
	UpdatedAt       time.Time           `json:"updatedAt"` // UTC
}

// Repository is the persistence collaborator for student-scope entries.
type Repository interface {
	GetEntry(ctx context.Context, studentID uuid.UUID, scopeURN string, sourceID uuid.UUID) (Entry, error)
	UpsertEntry(ctx context.Context, entry Entry) error
}
