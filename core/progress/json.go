package progress

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// envelope is the storage representation of a Progress record: a kind tag
// plus the variant payload.
type envelope struct {
	Kind   Kind            `json:"kind"`
	Record json.RawMessage `json:"record"`
}

// Marshal encodes a Progress record with its kind tag for storage.
func Marshal(p Progress) ([]byte, error) {
	record, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, "encoding progress record")
	}
	return json.Marshal(envelope{Kind: p.Kind(), Record: record})
}

// Unmarshal decodes a tagged Progress record back into its variant.
func Unmarshal(data []byte) (Progress, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "decoding progress envelope")
	}

	var p Progress
	switch env.Kind {
	case KindGeneral:
		p = &General{}
	case KindWalkable:
		p = &Walkable{}
	case KindActivity:
		p = &Activity{}
	case KindLinear:
		p = &Linear{}
	case KindFree:
		p = &Free{}
	case KindRandom:
		p = &Random{}
	case KindGraph:
		p = &Graph{}
	case KindBKT:
		p = &BKT{}
	default:
		return nil, errors.Errorf("unknown progress kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Record, p); err != nil {
		return nil, errors.Wrapf(err, "decoding %s progress record", env.Kind)
	}
	return deref(p), nil
}

// deref returns the value variant so callers get the same concrete types
// they stored.
func deref(p Progress) Progress {
	switch v := p.(type) {
	case *General:
		return *v
	case *Walkable:
		return *v
	case *Activity:
		return *v
	case *Linear:
		return *v
	case *Free:
		return *v
	case *Random:
		return *v
	case *Graph:
		return *v
	case *BKT:
		return *v
	}
	return p
}
