package eval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/progress"
	"github.com/darasahq/darasa/core/scope"
)

var (
	// errors
	ErrScoreNotFound = errors.New("score not found")
)

// UnsupportedActionError is the hard rejection of an action type this build
// does not implement. It must never be swallowed: authoring tools rely on it
// to surface forward-compatibility bugs.
type UnsupportedActionError struct {
	Type courseware.ActionType
}

func (err UnsupportedActionError) Error() string {
	return fmt.Sprintf("unsupported action type %q", err.Type)
}

func IsUnsupportedAction(err error) bool {
	_, ok := errors.Cause(err).(*UnsupportedActionError)
	return ok
}

type (
	// Score is a learner's score for one courseware element and attempt.
	Score struct {
		StudentID   uuid.UUID              `json:"studentId"`
		ElementID   uuid.UUID              `json:"elementId"`
		ElementType courseware.ElementType `json:"elementType"`
		AttemptID   uuid.UUID              `json:"attemptId"`
		Value       float64                `json:"value"`
	}

	ScoreRepository interface {
		GetScore(ctx context.Context, studentID, elementID, attemptID uuid.UUID) (Score, error)
		UpsertScore(ctx context.Context, score Score) error
	}

	// Competency records a learner's level against a competency document item.
	Competency struct {
		StudentID      uuid.UUID `json:"studentId"`
		DocumentID     uuid.UUID `json:"documentId"`
		DocumentItemID uuid.UUID `json:"documentItemId"`
		Value          int       `json:"value"`
	}

	CompetencyRepository interface {
		UpsertCompetency(ctx context.Context, c Competency) error
	}

	// FeedbackEmitter delivers learner-visible feedback (realtime channel
	// or email fallback, the dispatcher does not care which).
	FeedbackEmitter interface {
		EmitFeedback(ctx context.Context, studentID, elementID uuid.UUID, value json.RawMessage) error
	}

	// GradePassback forwards a score to the external gradebook collaborator.
	GradePassback interface {
		PostScore(ctx context.Context, studentID, elementID uuid.UUID, elementType courseware.ElementType, value float64, operator courseware.MutationOperator) error
	}

	// PathwayReader loads pathway structures for a deployment change.
	PathwayReader interface {
		GetPathway(ctx context.Context, pathwayID, changeID uuid.UUID) (courseware.Pathway, error)
	}
)

// Mutation is the effect of one applied action. Only the fields relevant to
// the action type are set.
type Mutation struct {
	Action       courseware.ActionType     `json:"action"`
	Progress     []progress.Progress       `json:"progress,omitempty"`
	NextWalkable *courseware.WalkableRef   `json:"nextWalkable,omitempty"`
	Scope        *scope.Entry              `json:"scope,omitempty"`
	Score        *Score                    `json:"score,omitempty"`
	Competency   *Competency               `json:"competency,omitempty"`
	Feedback     json.RawMessage           `json:"feedback,omitempty"`
	Passback     *Score                    `json:"passback,omitempty"`
	NoOp         bool                      `json:"noOp,omitempty"` // resolution miss, nothing applied
}

// Dispatcher executes a scenario's actions in order against the evaluation
// context, resolving each action's operand through its Resolver.
type Dispatcher struct {
	progressRepo progress.Repository
	pathways     PathwayReader
	scopes       *scope.Service
	scores       ScoreRepository
	competencies CompetencyRepository
	feedback     FeedbackEmitter
	passback     GradePassback
	policies     PolicyRegistry
	logger       core.Logger
}

func NewDispatcher(
	progressRepo progress.Repository,
	pathways PathwayReader,
	scopes *scope.Service,
	scores ScoreRepository,
	competencies CompetencyRepository,
	feedback FeedbackEmitter,
	passback GradePassback,
	policies PolicyRegistry,
	logger core.Logger,
) *Dispatcher {
	return &Dispatcher{
		progressRepo: progressRepo,
		pathways:     pathways,
		scopes:       scopes,
		scores:       scores,
		competencies: competencies,
		feedback:     feedback,
		passback:     passback,
		policies:     policies,
		logger:       logger,
	}
}

// Apply executes one action. Resolution misses degrade to a no-op mutation;
// unknown action types are a hard error.
func (d *Dispatcher) Apply(ctx context.Context, ec *Context, action courseware.Action) (Mutation, error) {
	switch action.Type {
	case courseware.ActionChangeProgress:
		return d.applyProgress(ctx, ec, action)
	case courseware.ActionChangeScore:
		return d.applyScore(ctx, ec, action)
	case courseware.ActionChangeScope:
		return d.applyScope(ctx, ec, action)
	case courseware.ActionSendFeedback:
		return d.applyFeedback(ctx, ec, action)
	case courseware.ActionSetCompetency:
		return d.applyCompetency(ctx, ec, action)
	case courseware.ActionGradePassback:
		return d.applyPassback(ctx, ec, action)
	}
	return Mutation{}, &UnsupportedActionError{Type: action.Type}
}

func (d *Dispatcher) applyProgress(ctx context.Context, ec *Context, action courseware.Action) (Mutation, error) {
	pc, err := action.ProgressContext()
	if err != nil {
		return Mutation{}, err
	}
	if pc.ProgressionType == "" {
		// older authoring payloads carry the progression type as the
		// resolver operand
		val, rErr := Resolve(ctx, ec, action.Resolver)
		if rErr != nil {
			return Mutation{}, rErr
		}
		s, sErr := val.String()
		if sErr != nil {
			return Mutation{}, errors.Wrap(sErr, "resolving progression type")
		}
		pc.ProgressionType = courseware.ProgressionType(s)
	}

	walkable := courseware.WalkableRef{ElementID: ec.ElementID, ElementType: ec.ElementType}
	if pc.ElementID != uuid.Nil {
		walkable = courseware.WalkableRef{ElementID: pc.ElementID, ElementType: pc.ElementType}
	}

	var completion progress.Completion
	switch pc.ProgressionType {
	case courseware.ProgressionAdvance, courseware.ProgressionGraduate:
		completion = progress.NewCompletion(1, 1)
	case courseware.ProgressionRestart:
		completion = progress.NewCompletion(0, 0)
	default:
		return Mutation{}, errors.Errorf("unknown progression type %q", pc.ProgressionType)
	}

	records := make([]progress.Progress, 0, 2)

	wp, err := d.walkableProgress(ctx, ec, walkable, completion)
	if err != nil {
		return Mutation{}, err
	}
	if err = d.progressRepo.CreateProgress(ctx, wp); err != nil {
		return Mutation{}, errors.Wrap(err, "persisting walkable progress")
	}
	records = append(records, wp)

	pathway, err := d.pathways.GetPathway(ctx, ec.ParentPathwayID, ec.ChangeID)
	if err != nil {
		if errors.Cause(err) == courseware.ErrNotFound {
			return Mutation{}, core.NewStructuralError(
				ec.ParentPathwayID.String(), string(courseware.ElementPathway),
				"owning pathway does not exist in this change")
		}
		return Mutation{}, errors.Wrap(err, "loading pathway structure")
	}

	prior, err := d.progressRepo.GetLatestProgress(ctx, ec.StudentID, pathway.ID, ec.AttemptID)
	if err != nil {
		if errors.Cause(err) != progress.ErrNotFound {
			return Mutation{}, errors.Wrap(err, "loading prior pathway progress")
		}
		prior = nil
	}

	var next *courseware.WalkableRef
	var updated progress.Progress
	if pc.ProgressionType == courseware.ProgressionGraduate {
		updated, err = graduateProgress(ec, pathway, prior)
	} else {
		policy, ok := d.policies[pathway.Kind]
		if !ok {
			return Mutation{}, errors.Errorf("no traversal policy for pathway kind %q", pathway.Kind)
		}
		next, updated, err = policy.Next(ctx, ec, PolicyInput{
			Pathway:    pathway,
			Prior:      prior,
			Walkable:   walkable,
			Completion: completion,
		})
	}
	if err != nil {
		return Mutation{}, err
	}

	if err = d.progressRepo.CreateProgress(ctx, updated); err != nil {
		return Mutation{}, errors.Wrap(err, "persisting pathway progress")
	}
	records = append(records, updated)

	return Mutation{Action: action.Type, Progress: records, NextWalkable: next}, nil
}

// walkableProgress builds the target walkable's own new record. Activity
// records carry their prior per-child completion maps forward, and when the
// trigger sits inside the target activity its completion is rolled up into
// them, the same bookkeeping the pathway policies do with their children.
func (d *Dispatcher) walkableProgress(ctx context.Context, ec *Context, ref courseware.WalkableRef, completion progress.Completion) (progress.Progress, error) {
	common := progress.Common{
		ID:                    progress.NewID(),
		DeploymentID:          ec.DeploymentID,
		ChangeID:              ec.ChangeID,
		CoursewareElementID:   ref.ElementID,
		CoursewareElementType: ref.ElementType,
		StudentID:             ec.StudentID,
		AttemptID:             ec.AttemptID,
		EvaluationID:          ec.ID,
		Completion:            completion,
	}
	if ref.ElementType != courseware.ElementActivity {
		return progress.Walkable{Common: common}, nil
	}

	var cc progress.ChildCompletions
	prior, err := d.progressRepo.GetLatestProgress(ctx, ec.StudentID, ref.ElementID, ec.AttemptID)
	if err != nil && errors.Cause(err) != progress.ErrNotFound {
		return nil, errors.Wrap(err, "loading prior activity progress")
	}
	if act, ok := prior.(progress.Activity); ok {
		cc = act.ChildCompletions
	}
	if ref.ElementID != ec.ElementID {
		cc = cc.Record(ec.ElementID, completion)
	}
	return progress.Activity{Common: common, ChildCompletions: cc}, nil
}

func (d *Dispatcher) applyScore(ctx context.Context, ec *Context, action courseware.Action) (Mutation, error) {
	sc, err := action.ScoreContext()
	if err != nil {
		return Mutation{}, err
	}
	val, err := Resolve(ctx, ec, action.Resolver)
	if err != nil {
		return Mutation{}, err
	}
	if val.Missing {
		return Mutation{Action: action.Type, NoOp: true}, nil
	}
	delta, err := val.Float64()
	if err != nil {
		return Mutation{}, errors.Wrap(err, "resolving score value")
	}

	score := Score{
		StudentID:   ec.StudentID,
		ElementID:   sc.ElementID,
		ElementType: sc.ElementType,
		AttemptID:   ec.AttemptID,
		Value:       delta,
	}
	if sc.Operator != courseware.MutationSet {
		prev, gErr := d.scores.GetScore(ctx, ec.StudentID, sc.ElementID, ec.AttemptID)
		if gErr != nil && errors.Cause(gErr) != ErrScoreNotFound {
			return Mutation{}, errors.Wrap(gErr, "loading score")
		}
		switch sc.Operator {
		case courseware.MutationAdd:
			score.Value = prev.Value + delta
		case courseware.MutationSubtract:
			score.Value = prev.Value - delta
		default:
			return Mutation{}, errors.Errorf("unknown score operator %q", sc.Operator)
		}
	}
	if err = d.scores.UpsertScore(ctx, score); err != nil {
		return Mutation{}, errors.Wrap(err, "persisting score")
	}
	return Mutation{Action: action.Type, Score: &score}, nil
}

func (d *Dispatcher) applyScope(ctx context.Context, ec *Context, action courseware.Action) (Mutation, error) {
	scx, err := action.ScopeContext()
	if err != nil {
		return Mutation{}, err
	}
	val, err := Resolve(ctx, ec, action.Resolver)
	if err != nil {
		return Mutation{}, err
	}
	if val.Missing {
		return Mutation{Action: action.Type, NoOp: true}, nil
	}

	entry, err := d.scopes.Mutate(ctx, scope.Entry{
		StudentID:       ec.StudentID,
		StudentScopeURN: scx.StudentScopeURN,
		SourceID:        scx.SourceID,
		SchemaProperty:  scx.SchemaProperty,
		DataType:        scx.DataType,
		Value:           val.Raw,
	}, scx.Operator)
	if err != nil {
		return Mutation{}, errors.Wrap(err, "mutating student scope")
	}
	return Mutation{Action: action.Type, Scope: &entry}, nil
}

func (d *Dispatcher) applyFeedback(ctx context.Context, ec *Context, action courseware.Action) (Mutation, error) {
	val, err := Resolve(ctx, ec, action.Resolver)
	if err != nil {
		return Mutation{}, err
	}
	if val.Missing {
		return Mutation{Action: action.Type, NoOp: true}, nil
	}
	if err = d.feedback.EmitFeedback(ctx, ec.StudentID, ec.ElementID, val.Raw); err != nil {
		// feedback delivery is best-effort: log, do not fail the evaluation
		d.logger.Warn(fmt.Sprintf("feedback delivery failed: %v", err), err)
	}
	return Mutation{Action: action.Type, Feedback: val.Raw}, nil
}

func (d *Dispatcher) applyCompetency(ctx context.Context, ec *Context, action courseware.Action) (Mutation, error) {
	cc, err := action.CompetencyContext()
	if err != nil {
		return Mutation{}, err
	}
	val, err := Resolve(ctx, ec, action.Resolver)
	if err != nil {
		return Mutation{}, err
	}
	if val.Missing {
		return Mutation{Action: action.Type, NoOp: true}, nil
	}
	level, err := val.Int()
	if err != nil {
		return Mutation{}, errors.Wrap(err, "resolving competency value")
	}

	competency := Competency{
		StudentID:      ec.StudentID,
		DocumentID:     cc.DocumentID,
		DocumentItemID: cc.DocumentItemID,
		Value:          level,
	}
	if err = d.competencies.UpsertCompetency(ctx, competency); err != nil {
		return Mutation{}, errors.Wrap(err, "persisting competency")
	}
	return Mutation{Action: action.Type, Competency: &competency}, nil
}

func (d *Dispatcher) applyPassback(ctx context.Context, ec *Context, action courseware.Action) (Mutation, error) {
	pc, err := action.PassbackContext()
	if err != nil {
		return Mutation{}, err
	}
	val, err := Resolve(ctx, ec, action.Resolver)
	if err != nil {
		return Mutation{}, err
	}
	if val.Missing {
		return Mutation{Action: action.Type, NoOp: true}, nil
	}
	value, err := val.Float64()
	if err != nil {
		return Mutation{}, errors.Wrap(err, "resolving passback score")
	}

	if err = d.passback.PostScore(ctx, ec.StudentID, pc.ElementID, pc.ElementType, value, pc.Operator); err != nil {
		return Mutation{}, errors.Wrap(err, "posting grade passback")
	}
	posted := Score{StudentID: ec.StudentID, ElementID: pc.ElementID, ElementType: pc.ElementType, AttemptID: ec.AttemptID, Value: value}
	return Mutation{Action: action.Type, Passback: &posted}, nil
}

// graduateProgress force-completes the owning pathway, preserving the prior
// variant's traversal state where the variant matches.
func graduateProgress(ec *Context, pw courseware.Pathway, prior progress.Progress) (progress.Progress, error) {
	done := progress.NewCompletion(1, 1)
	common := newPathwayCommon(ec, pw, done)

	switch pw.Kind {
	case courseware.PathwayLinear:
		p, err := linearPrior(prior)
		if err != nil {
			return nil, err
		}
		return progress.Linear{Common: common, ChildCompletions: p.ChildCompletions, CompletedWalkables: p.CompletedWalkables}, nil
	case courseware.PathwayFree:
		p, err := freePrior(prior)
		if err != nil {
			return nil, err
		}
		return progress.Free{Common: common, ChildCompletions: p.ChildCompletions, CompletedWalkables: p.CompletedWalkables}, nil
	case courseware.PathwayRandom:
		p, err := randomPrior(prior)
		if err != nil {
			return nil, err
		}
		return progress.Random{Common: common, CompletedWalkables: p.CompletedWalkables}, nil
	case courseware.PathwayGraph:
		p, err := graphPrior(prior)
		if err != nil {
			return nil, err
		}
		return progress.Graph{Common: common, CompletedWalkables: p.CompletedWalkables}, nil
	case courseware.PathwayBKT:
		p, err := bktPrior(prior)
		if err != nil {
			return nil, err
		}
		return progress.BKT{
			Common:              common,
			CompletedWalkables:  p.CompletedWalkables,
			PLn:                 1,
			PLnMinusGivenActual: p.PLnMinusGivenActual,
			PCorrect:            p.PCorrect,
		}, nil
	}
	return nil, errors.Errorf("unknown pathway kind %q", pw.Kind)
}
