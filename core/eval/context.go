package eval

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/scope"
)

// Trigger is the learner interaction that starts an evaluation: a student
// submitting a response on a walkable within a deployment change.
type Trigger struct {
	StudentID    uuid.UUID `json:"studentId" validate:"required"`
	DeploymentID uuid.UUID `json:"deploymentId" validate:"required"`
	ChangeID     uuid.UUID `json:"changeId" validate:"required"`
	AttemptID    uuid.UUID `json:"attemptId" validate:"required"`

	ElementID   uuid.UUID              `json:"elementId" validate:"required"`
	ElementType courseware.ElementType `json:"elementType" validate:"required"`
	// ParentPathwayID is the pathway owning the triggering walkable.
	ParentPathwayID uuid.UUID `json:"parentPathwayId" validate:"required"`

	Lifecycle courseware.Lifecycle `json:"lifecycle" validate:"required,lifecycle"`
	// Correct is the graded correctness of the response (drives BKT).
	Correct  bool            `json:"correct"`
	Response json.RawMessage `json:"response,omitempty"`
}

// Key identifies the serialization unit of the engine: at most one
// evaluation may be in flight per Key at a time.
type Key struct {
	StudentID uuid.UUID
	ElementID uuid.UUID
	AttemptID uuid.UUID
}

func (t Trigger) Key() Key {
	return Key{StudentID: t.StudentID, ElementID: t.ElementID, AttemptID: t.AttemptID}
}

// ScopeReader reads student-scope values during condition/operand resolution.
type ScopeReader interface {
	Get(ctx context.Context, studentID uuid.UUID, scopeURN string, sourceID uuid.UUID) (scope.Entry, error)
}

// Context is the working set of one evaluation. It is read-only input to
// condition evaluation and action dispatch; all outputs are new records.
type Context struct {
	ID uuid.UUID // evaluation id, stamped on every record this run creates
	Trigger

	Scopes ScopeReader
	Rand   *rand.Rand
	Now    func() time.Time
}

var (
	NowFunc = time.Now // mockable
	NewRand = func() *rand.Rand { return rand.New(rand.NewSource(NowFunc().UnixNano())) } // mockable
)

func NewContext(trigger Trigger, scopes ScopeReader) *Context {
	return &Context{
		ID:      uuid.New(),
		Trigger: trigger,
		Scopes:  scopes,
		Rand:    NewRand(),
		Now:     NowFunc,
	}
}
