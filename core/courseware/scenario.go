package courseware

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle names the point at which a scenario is eligible to run.
type Lifecycle string

const (
	LifecycleOnEvaluate Lifecycle = "ON_EVALUATE"
	LifecycleOnEnter    Lifecycle = "ON_ENTER"
	LifecycleOnComplete Lifecycle = "ON_COMPLETE"
)

var AllLifecycles = []Lifecycle{LifecycleOnEvaluate, LifecycleOnEnter, LifecycleOnComplete}

// Correctness optionally tags a scenario as the correct/incorrect branch of
// its parent (authoring aid; the engine treats it as opaque).
type Correctness string

const (
	CorrectnessCorrect   Correctness = "CORRECT"
	CorrectnessIncorrect Correctness = "INCORRECT"
	CorrectnessNone      Correctness = "NONE"
)

// NewScenario holds authoring input for creating a scenario.
type NewScenario struct {
	ParentID    uuid.UUID   `json:"parentId" validate:"required"`
	ParentType  ElementType `json:"parentType" validate:"required"`
	Lifecycle   Lifecycle   `json:"lifecycle" validate:"required"`
	Name        string      `json:"name" validate:"required,alphanum_"`
	Description string      `json:"description,omitempty"`
	Condition   *Condition  `json:"condition,omitempty"` // nil = always fire
	Actions     []Action    `json:"actions" validate:"required,min=1"`
	Correctness Correctness `json:"correctness,omitempty"`
}

// UpdateScenario holds partial authoring input for updating a scenario.
// Zero-valued fields are left unchanged.
type UpdateScenario struct {
	Name        string      `json:"name,omitempty" validate:"omitempty,alphanum_"`
	Description string      `json:"description,omitempty"`
	Condition   *Condition  `json:"condition,omitempty"`
	Actions     []Action    `json:"actions,omitempty" validate:"omitempty,min=1"`
	Correctness Correctness `json:"correctness,omitempty"`
}

// Scenario is an authored condition→actions rule attached to a courseware
// element. Actions is an ordered sequence; the order is first-class and must
// survive storage round-trips exactly.
type Scenario struct {
	ID          uuid.UUID   `json:"id"`
	ParentID    uuid.UUID   `json:"parentId"`
	ParentType  ElementType `json:"parentType"`
	Lifecycle   Lifecycle   `json:"lifecycle"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Condition   Condition   `json:"condition"`
	Actions     []Action    `json:"actions"`
	Correctness Correctness `json:"correctness,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"` // UTC
	UpdatedAt   time.Time   `json:"updatedAt"` // UTC
}
