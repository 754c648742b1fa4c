package progress

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/courseware"
)

var (
	// errors
	ErrNotFound = errors.New("progress not found")
)

// Kind discriminates the Progress variants.
type Kind string

const (
	KindGeneral  Kind = "GENERAL"
	KindWalkable Kind = "WALKABLE"
	KindActivity Kind = "ACTIVITY"
	KindLinear   Kind = "LINEAR_PATHWAY"
	KindFree     Kind = "FREE_PATHWAY"
	KindRandom   Kind = "RANDOM_PATHWAY"
	KindGraph    Kind = "GRAPH_PATHWAY"
	KindBKT      Kind = "BKT_PATHWAY"
)

// Common holds the attributes shared by every Progress variant. ID is a v1
// UUID: time-ordered, and it encodes the record's creation time.
type Common struct {
	ID                    uuid.UUID              `json:"id"`
	DeploymentID          uuid.UUID              `json:"deploymentId"`
	ChangeID              uuid.UUID              `json:"changeId"`
	CoursewareElementID   uuid.UUID              `json:"coursewareElementId"`
	CoursewareElementType courseware.ElementType `json:"coursewareElementType"`
	StudentID             uuid.UUID              `json:"studentId"`
	AttemptID             uuid.UUID              `json:"attemptId"`
	EvaluationID          uuid.UUID              `json:"evaluationId"`
	Completion            Completion             `json:"completion"`
}

func (c Common) Base() Common { return c }

// Progress is a read-only snapshot of one courseware element's state for one
// student and attempt. Policies construct a brand-new record per evaluation;
// prior records are retained for replay/audit (append-only versioning).
type Progress interface {
	Base() Common
	Kind() Kind
}

// NewID returns a fresh time-ordered record id.
func NewID() uuid.UUID {
	id, err := uuid.NewUUID()
	if err != nil {
		// v1 generation only fails when no source of time/hardware id is
		// available; fall back to random rather than aborting an evaluation.
		return uuid.New()
	}
	return id
}

// ChildCompletions tracks the last-known completion of each child walkable,
// keyed by walkable id. Aggregating variants embed it.
type ChildCompletions struct {
	ChildValues      map[uuid.UUID]float64 `json:"childCompletionValues,omitempty"`
	ChildConfidences map[uuid.UUID]float64 `json:"childCompletionConfidences,omitempty"`
}

// Record returns a copy of cc with the child's completion recorded.
func (cc ChildCompletions) Record(childID uuid.UUID, completion Completion) ChildCompletions {
	next := ChildCompletions{
		ChildValues:      make(map[uuid.UUID]float64, len(cc.ChildValues)+1),
		ChildConfidences: make(map[uuid.UUID]float64, len(cc.ChildConfidences)+1),
	}
	for k, v := range cc.ChildValues {
		next.ChildValues[k] = v
	}
	for k, v := range cc.ChildConfidences {
		next.ChildConfidences[k] = v
	}
	if completion.Value.Valid {
		next.ChildValues[childID] = completion.Value.Float64
	}
	if completion.Confidence.Valid {
		next.ChildConfidences[childID] = completion.Confidence.Float64
	}
	return next
}

// Variants. Each carries only its own traversal state on top of Common.

type General struct {
	Common
}

func (General) Kind() Kind { return KindGeneral }

type Walkable struct {
	Common
}

func (Walkable) Kind() Kind { return KindWalkable }

type Activity struct {
	Common
	ChildCompletions
}

func (Activity) Kind() Kind { return KindActivity }

type Linear struct {
	Common
	ChildCompletions
	CompletedWalkables []uuid.UUID `json:"completedWalkables,omitempty"`
}

func (Linear) Kind() Kind { return KindLinear }

type Free struct {
	Common
	ChildCompletions
	CompletedWalkables []uuid.UUID `json:"completedWalkables,omitempty"`
}

func (Free) Kind() Kind { return KindFree }

type Random struct {
	Common
	CompletedWalkables    []uuid.UUID            `json:"completedWalkables,omitempty"`
	InProgressElementID   uuid.NullUUID          `json:"inProgressElementId,omitempty"`
	InProgressElementType courseware.ElementType `json:"inProgressElementType,omitempty"`
}

func (Random) Kind() Kind { return KindRandom }

type Graph struct {
	Common
	CompletedWalkables  []uuid.UUID            `json:"completedWalkables,omitempty"`
	CurrentWalkableID   uuid.NullUUID          `json:"currentWalkableId,omitempty"`
	CurrentWalkableType courseware.ElementType `json:"currentWalkableType,omitempty"`
}

func (Graph) Kind() Kind { return KindGraph }

type BKT struct {
	Common
	CompletedWalkables    []uuid.UUID            `json:"completedWalkables,omitempty"`
	InProgressElementID   uuid.NullUUID          `json:"inProgressElementId,omitempty"`
	InProgressElementType courseware.ElementType `json:"inProgressElementType,omitempty"`

	// Bayesian Knowledge Tracing state
	PLn                 float64 `json:"pLn"`                 // current mastery probability
	PLnMinusGivenActual float64 `json:"pLnMinusGivenActual"` // mastery conditioned on the latest response
	PCorrect            float64 `json:"pCorrect"`            // predicted correctness of the next response
	MasteryStreak       int     `json:"masteryStreak,omitempty"`
}

func (BKT) Kind() Kind { return KindBKT }

// HasCompleted reports whether id is in the completed set.
func HasCompleted(completed []uuid.UUID, id uuid.UUID) bool {
	for _, c := range completed {
		if c == id {
			return true
		}
	}
	return false
}

// Repository is the persistence collaborator for Progress records.
type Repository interface {
	// GetLatestProgress returns the newest record for the key, or ErrNotFound.
	GetLatestProgress(ctx context.Context, studentID, elementID, attemptID uuid.UUID) (Progress, error)
	// CreateProgress appends a new record; it never overwrites.
	CreateProgress(ctx context.Context, p Progress) error
	// QueryProgressHistory returns every record for the key, oldest first.
	QueryProgressHistory(ctx context.Context, studentID, elementID, attemptID uuid.UUID) ([]Progress, error)
}
