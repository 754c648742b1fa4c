package courseware

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ActionType discriminates the typed actions a scenario can run.
// Unrecognized values survive decoding (forward compatibility with newer
// authoring tools) but are rejected at dispatch time.
type ActionType string

const (
	ActionChangeProgress ActionType = "CHANGE_PROGRESS"
	ActionChangeScore    ActionType = "CHANGE_SCORE"
	ActionChangeScope    ActionType = "CHANGE_SCOPE"
	ActionSendFeedback   ActionType = "SEND_FEEDBACK"
	ActionSetCompetency  ActionType = "SET_COMPETENCY"
	ActionGradePassback  ActionType = "GRADE_PASSBACK"
)

// Supported reports whether this dispatcher build knows the action type.
func (t ActionType) Supported() bool {
	switch t {
	case ActionChangeProgress, ActionChangeScore, ActionChangeScope,
		ActionSendFeedback, ActionSetCompetency, ActionGradePassback:
		return true
	}
	return false
}

// ResolverType selects how an action/predicate operand value is obtained.
type ResolverType string

const (
	ResolverLiteral ResolverType = "LITERAL"
	ResolverScope   ResolverType = "SCOPE"
)

// Resolver describes where an operand value comes from. LITERAL embeds the
// value; SCOPE is a lookup against student-scope storage at evaluation time.
// Default is the schema-declared fallback returned on a SCOPE miss.
type Resolver struct {
	Type  ResolverType    `json:"type"`
	Value json.RawMessage `json:"value,omitempty"` // LITERAL only

	Category        string          `json:"category,omitempty"`
	Context         []string        `json:"context,omitempty"` // path within the scope document
	SchemaProperty  string          `json:"schemaProperty,omitempty"`
	SourceID        uuid.UUID       `json:"sourceId,omitempty"`
	StudentScopeURN string          `json:"studentScopeURN,omitempty"`
	DataType        DataType        `json:"dataType,omitempty"`
	Default         json.RawMessage `json:"default,omitempty"`
}

// MutationOperator combines a resolved value with any existing stored value.
type MutationOperator string

const (
	MutationSet      MutationOperator = "SET"
	MutationAdd      MutationOperator = "ADD"
	MutationSubtract MutationOperator = "SUBTRACT"
	MutationAppend   MutationOperator = "APPEND"
)

// ProgressionType names the progress transition a CHANGE_PROGRESS action asks for.
type ProgressionType string

const (
	// ProgressionAdvance completes the triggering walkable and asks the owning
	// pathway's policy for the next one.
	ProgressionAdvance ProgressionType = "ADVANCE"
	// ProgressionGraduate force-completes the owning pathway.
	ProgressionGraduate ProgressionType = "GRADUATE"
	// ProgressionRestart re-presents the triggering walkable without
	// completing it.
	ProgressionRestart ProgressionType = "RESTART"
)

// Action is one typed, ordered step of a scenario. Context's shape depends on
// Type; it stays raw here and is decoded by the dispatcher.
type Action struct {
	Type     ActionType      `json:"action"`
	Resolver Resolver        `json:"resolver"`
	Context  json.RawMessage `json:"context,omitempty"`
}

// Typed action contexts, decoded per Action.Type.

type ProgressActionContext struct {
	ProgressionType ProgressionType `json:"progressionType"`
	ElementID       uuid.UUID       `json:"elementId,omitempty"` // optional explicit target
	ElementType     ElementType     `json:"elementType,omitempty"`
}

type ScoreActionContext struct {
	ElementID   uuid.UUID        `json:"elementId"`
	ElementType ElementType      `json:"elementType"`
	Operator    MutationOperator `json:"operator"`
}

type ScopeActionContext struct {
	StudentScopeURN string           `json:"studentScopeURN"`
	SourceID        uuid.UUID        `json:"sourceId"`
	SchemaProperty  string           `json:"schemaProperty"`
	DataType        DataType         `json:"dataType"`
	Operator        MutationOperator `json:"operator"`
}

type CompetencyActionContext struct {
	DocumentID     uuid.UUID `json:"documentId"`
	DocumentItemID uuid.UUID `json:"documentItemId"`
}

type PassbackActionContext struct {
	ElementID   uuid.UUID        `json:"elementId"`
	ElementType ElementType      `json:"elementType"`
	Operator    MutationOperator `json:"operator"`
}

func (a Action) ProgressContext() (ProgressActionContext, error) {
	var c ProgressActionContext
	err := a.decodeContext(ActionChangeProgress, &c)
	return c, err
}

func (a Action) ScoreContext() (ScoreActionContext, error) {
	var c ScoreActionContext
	err := a.decodeContext(ActionChangeScore, &c)
	return c, err
}

func (a Action) ScopeContext() (ScopeActionContext, error) {
	var c ScopeActionContext
	err := a.decodeContext(ActionChangeScope, &c)
	return c, err
}

func (a Action) CompetencyContext() (CompetencyActionContext, error) {
	var c CompetencyActionContext
	err := a.decodeContext(ActionSetCompetency, &c)
	return c, err
}

func (a Action) PassbackContext() (PassbackActionContext, error) {
	var c PassbackActionContext
	err := a.decodeContext(ActionGradePassback, &c)
	return c, err
}

func (a Action) decodeContext(want ActionType, dst interface{}) error {
	if a.Type != want {
		return errors.Errorf("action is %s, not %s", a.Type, want)
	}
	if len(a.Context) == 0 {
		return errors.Errorf("%s action has no context", a.Type)
	}
	if err := json.Unmarshal(a.Context, dst); err != nil {
		return errors.Wrapf(err, "decoding %s context", a.Type)
	}
	return nil
}
