package eval

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/scope"
)

// Value is a resolved operand. Missing marks a SCOPE lookup that found
// neither a stored value nor a schema default; predicates treat it as a
// soft false and actions fall back to their no-op behavior.
type Value struct {
	Raw     json.RawMessage
	Missing bool
}

func literalValue(raw json.RawMessage) Value {
	if len(raw) == 0 {
		return Value{Missing: true}
	}
	return Value{Raw: raw}
}

func (v Value) Float64() (float64, error) {
	var f float64
	if v.Missing {
		return 0, errors.New("value is missing")
	}
	if err := json.Unmarshal(v.Raw, &f); err != nil {
		return 0, errors.Wrap(err, "value is not a number")
	}
	return f, nil
}

func (v Value) Int() (int, error) {
	f, err := v.Float64()
	return int(f), err
}

func (v Value) Bool() (bool, error) {
	var b bool
	if v.Missing {
		return false, errors.New("value is missing")
	}
	if err := json.Unmarshal(v.Raw, &b); err != nil {
		return false, errors.Wrap(err, "value is not a boolean")
	}
	return b, nil
}

func (v Value) String() (string, error) {
	var s string
	if v.Missing {
		return "", errors.New("value is missing")
	}
	if err := json.Unmarshal(v.Raw, &s); err != nil {
		return "", errors.Wrap(err, "value is not a string")
	}
	return s, nil
}

func (v Value) List() ([]json.RawMessage, error) {
	var l []json.RawMessage
	if v.Missing {
		return nil, errors.New("value is missing")
	}
	if err := json.Unmarshal(v.Raw, &l); err != nil {
		return nil, errors.Wrap(err, "value is not a list")
	}
	return l, nil
}

// Resolve obtains a resolver's value. LITERAL returns the embedded value
// verbatim. SCOPE looks the value up in student-scope storage; a miss
// returns the schema-declared default when one exists, and a Missing value
// otherwise, never an error (resolution misses are soft by contract).
func Resolve(ctx context.Context, ec *Context, r courseware.Resolver) (Value, error) {
	switch r.Type {
	case courseware.ResolverLiteral:
		return literalValue(r.Value), nil

	case courseware.ResolverScope:
		entry, err := ec.Scopes.Get(ctx, ec.StudentID, r.StudentScopeURN, r.SourceID)
		if err != nil {
			if errors.Cause(err) == scope.ErrNotFound {
				return literalValue(r.Default), nil
			}
			return Value{}, errors.Wrap(err, "reading student scope")
		}
		val := extractProperty(entry.Value, r)
		if val.Missing {
			return literalValue(r.Default), nil
		}
		return val, nil
	}
	return Value{}, errors.Errorf("unknown resolver type %q", r.Type)
}

// extractProperty digs the schema property (and any nested context path)
// out of a stored scope document. A scalar document is returned whole.
func extractProperty(raw json.RawMessage, r courseware.Resolver) Value {
	if len(raw) == 0 {
		return Value{Missing: true}
	}
	path := r.Context
	if len(path) == 0 && r.SchemaProperty != "" {
		path = []string{r.SchemaProperty}
	}
	current := raw
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(current, &obj); err != nil {
			// scalar document: the stored value IS the property
			return Value{Raw: current}
		}
		next, ok := obj[key]
		if !ok {
			return Value{Missing: true}
		}
		current = next
	}
	return Value{Raw: current}
}
