package main

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/courseware"
)

// seed loads a small demo deployment: one linear pathway of three
// activities, wired with an advance-on-evaluate scenario on each child.
func (cli *commandLine) seed() error {
	deploymentID := uuid.New()
	changeID := uuid.New()
	pathwayID := uuid.New()

	titles := []string{"Warm-up", "Core drill", "Challenge"}
	children := make([]courseware.WalkableRef, 0, len(titles))
	for i, title := range titles {
		id := uuid.New()
		children = append(children, courseware.WalkableRef{ElementID: id, ElementType: courseware.ElementActivity})

		_, err := cli.db.Exec(
			`INSERT INTO walkable (id, deployment_id, type, title, pathway_id) VALUES ($1, $2, $3, $4, $5)`,
			id, deploymentID, string(courseware.ElementActivity), title, pathwayID,
		)
		if err != nil {
			return errors.Wrapf(err, "seeding walkable %d", i)
		}
	}

	structure, err := json.Marshal(struct {
		Children []courseware.WalkableRef `json:"children"`
	}{children})
	if err != nil {
		return errors.Wrap(err, "encoding pathway structure")
	}
	_, err = cli.db.Exec(
		`INSERT INTO pathway (id, deployment_id, change_id, kind, structure) VALUES ($1, $2, $3, $4, $5)`,
		pathwayID, deploymentID, changeID, string(courseware.PathwayLinear), structure,
	)
	if err != nil {
		return errors.Wrap(err, "seeding pathway")
	}

	advance, err := json.Marshal(courseware.ProgressActionContext{ProgressionType: courseware.ProgressionAdvance})
	if err != nil {
		return errors.Wrap(err, "encoding action context")
	}
	actions, err := json.Marshal([]courseware.Action{{
		Type:    courseware.ActionChangeProgress,
		Context: advance,
	}})
	if err != nil {
		return errors.Wrap(err, "encoding actions")
	}
	condition, err := json.Marshal(courseware.AlwaysTrue())
	if err != nil {
		return errors.Wrap(err, "encoding condition")
	}

	for i, child := range children {
		_, err = cli.db.Exec(
			`INSERT INTO scenario (id, parent_id, parent_type, lifecycle, name, condition, actions, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), child.ElementID, string(child.ElementType), string(courseware.LifecycleOnEvaluate),
			"advance on completion", condition, actions, 0,
		)
		if err != nil {
			return errors.Wrapf(err, "seeding scenario %d", i)
		}
	}

	logger.Printf("seeded deployment %s (change %s, pathway %s)", deploymentID, changeID, pathwayID)
	return nil
}
