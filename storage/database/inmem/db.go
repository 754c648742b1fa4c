package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/eval"
	"github.com/darasahq/darasa/core/scope"
)

// DB is a process-local store for tests and local development. Each table
// guards itself with its own mutex.
type DB struct {
	progress   *progressTable
	scenario   *scenarioTable
	courseware *coursewareTable
	score      *scoreTable
	competency *competencyTable
	scope      *scopeTable
}

func NewDB() *DB {
	return &DB{
		progress: &progressTable{table: make(map[progressKey][]storedProgress)},
		scenario: &scenarioTable{
			table: make(map[uuid.UUID]courseware.Scenario),
			order: make(map[orderKey][]uuid.UUID),
		},
		courseware: &coursewareTable{
			pathways:  make(map[pathwayKey]courseware.Pathway),
			walkables: make(map[uuid.UUID]courseware.Walkable),
		},
		score:      &scoreTable{table: make(map[scoreKey]eval.Score)},
		competency: &competencyTable{table: make(map[competencyKey]eval.Competency)},
		scope:      &scopeTable{table: make(map[scopeKey]scope.Entry)},
	}
}

type (
	progressKey struct {
		studentID uuid.UUID
		elementID uuid.UUID
		attemptID uuid.UUID
	}

	progressTable struct {
		mutex sync.RWMutex
		table map[progressKey][]storedProgress
	}

	orderKey struct {
		parentID  uuid.UUID
		lifecycle courseware.Lifecycle
	}

	scenarioTable struct {
		mutex sync.RWMutex
		table map[uuid.UUID]courseware.Scenario
		order map[orderKey][]uuid.UUID
	}

	pathwayKey struct {
		pathwayID uuid.UUID
		changeID  uuid.UUID
	}

	coursewareTable struct {
		mutex     sync.RWMutex
		pathways  map[pathwayKey]courseware.Pathway
		walkables map[uuid.UUID]courseware.Walkable
	}

	scoreKey struct {
		studentID uuid.UUID
		elementID uuid.UUID
		attemptID uuid.UUID
	}

	scoreTable struct {
		mutex sync.RWMutex
		table map[scoreKey]eval.Score
	}

	competencyKey struct {
		studentID      uuid.UUID
		documentID     uuid.UUID
		documentItemID uuid.UUID
	}

	competencyTable struct {
		mutex sync.RWMutex
		table map[competencyKey]eval.Competency
	}

	scopeKey struct {
		studentID uuid.UUID
		scopeURN  string
		sourceID  uuid.UUID
	}

	scopeTable struct {
		mutex sync.RWMutex
		table map[scopeKey]scope.Entry
	}
)

// SeedPathway registers an authored pathway. Intended for tests and the
// local seed command.
func (db *DB) SeedPathway(pw courseware.Pathway) {
	db.courseware.mutex.Lock()
	defer db.courseware.mutex.Unlock()
	db.courseware.pathways[pathwayKey{pathwayID: pw.ID, changeID: pw.ChangeID}] = pw
}

// SeedWalkable registers an authored walkable.
func (db *DB) SeedWalkable(w courseware.Walkable) {
	db.courseware.mutex.Lock()
	defer db.courseware.mutex.Unlock()
	db.courseware.walkables[w.ID] = w
}
