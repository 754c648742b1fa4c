package courseware

import (
	"time"

	"github.com/google/uuid"
)

// ElementType identifies the kind of a courseware element.
type ElementType string

const (
	ElementActivity    ElementType = "ACTIVITY"
	ElementInteractive ElementType = "INTERACTIVE"
	ElementPathway     ElementType = "PATHWAY"
	ElementComponent   ElementType = "COMPONENT"
)

// IsWalkable reports whether a learner can directly interact with this element.
func (t ElementType) IsWalkable() bool {
	return t == ElementActivity || t == ElementInteractive
}

// PathwayKind selects the traversal policy for a pathway's children.
type PathwayKind string

const (
	PathwayLinear PathwayKind = "LINEAR"
	PathwayFree   PathwayKind = "FREE"
	PathwayRandom PathwayKind = "RANDOM"
	PathwayGraph  PathwayKind = "GRAPH"
	PathwayBKT    PathwayKind = "BKT"
)

var AllPathwayKinds = []PathwayKind{PathwayLinear, PathwayFree, PathwayRandom, PathwayGraph, PathwayBKT}

// WalkableRef points at a child walkable within a pathway.
type WalkableRef struct {
	ElementID   uuid.UUID   `json:"elementId"`
	ElementType ElementType `json:"elementType"`
}

// Edge is a directed, predicate-guarded transition between two children of a
// GRAPH pathway. Edges out of the same node are evaluated in authored order.
type Edge struct {
	From      uuid.UUID  `json:"from"`
	To        uuid.UUID  `json:"to"`
	Condition *Condition `json:"condition,omitempty"` // nil = always
}

// BKTConfig carries the authored Bayesian Knowledge Tracing constants for a
// BKT pathway. All values are probabilities in [0,1].
type BKTConfig struct {
	PL0              float64 `json:"pL0"` // prior mastery
	PT               float64 `json:"pT"`  // learning per opportunity
	PS               float64 `json:"pS"`  // slip
	PG               float64 `json:"pG"`  // guess
	MasteryThreshold float64 `json:"masteryThreshold"`

	// MaintainFor is how many consecutive responses the estimate must hold
	// at or above the threshold before the pathway completes. Values below
	// one mean a single crossing suffices.
	MaintainFor int `json:"maintainFor,omitempty"`
}

// Pathway is the authored structure the traversal engine consumes read-only.
type Pathway struct {
	ID           uuid.UUID     `json:"id"`
	DeploymentID uuid.UUID     `json:"deploymentId"`
	ChangeID     uuid.UUID     `json:"changeId"`
	Kind         PathwayKind   `json:"kind"`
	Children     []WalkableRef `json:"children"` // authored order
	Edges        []Edge        `json:"edges,omitempty"`
	BKT          *BKTConfig    `json:"bkt,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Child looks a child walkable up by id.
func (p Pathway) Child(id uuid.UUID) (WalkableRef, bool) {
	for _, ref := range p.Children {
		if ref.ElementID == id {
			return ref, true
		}
	}
	return WalkableRef{}, false
}

// OutgoingEdges returns the edges leaving `from` in authored order.
func (p Pathway) OutgoingEdges(from uuid.UUID) []Edge {
	var out []Edge
	for _, e := range p.Edges {
		if e.From == from {
			out = append(out, e)
		}
	}
	return out
}

// Walkable is a leaf courseware unit (activity or interactive).
type Walkable struct {
	ID           uuid.UUID   `json:"id"`
	DeploymentID uuid.UUID   `json:"deploymentId"`
	Type         ElementType `json:"type"`
	Title        string      `json:"title"`
	PathwayID    uuid.UUID   `json:"pathwayId"` // owning pathway
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
