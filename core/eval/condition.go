package eval

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/courseware"
)

// EvaluateCondition walks a condition tree against the evaluation context.
// It is pure and deterministic for a fixed context and stored scope values.
// Chained identities: AND of nothing is true, OR of nothing is false; the
// "no conditions" scenario authoring tools create must always fire.
// A SCOPE resolution miss makes the leaf false; it is never an error.
func EvaluateCondition(ctx context.Context, ec *Context, cond courseware.Condition) (bool, error) {
	switch cond.Type {
	case courseware.ConditionChained:
		return evaluateChained(ctx, ec, cond)
	case courseware.ConditionEvaluator:
		return evaluateLeaf(ctx, ec, cond)
	}
	return false, errors.Errorf("unknown condition type %q", cond.Type)
}

func evaluateChained(ctx context.Context, ec *Context, cond courseware.Condition) (bool, error) {
	switch cond.Operator {
	case courseware.OperatorAnd:
		for _, child := range cond.Conditions {
			ok, err := EvaluateCondition(ctx, ec, child)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case courseware.OperatorOr:
		for _, child := range cond.Conditions {
			ok, err := EvaluateCondition(ctx, ec, child)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return false, errors.Errorf("unknown chained operator %q", cond.Operator)
}

func evaluateLeaf(ctx context.Context, ec *Context, cond courseware.Condition) (bool, error) {
	if cond.LHS == nil {
		return false, errors.New("evaluator condition has no lhs resolver")
	}
	lhs, err := Resolve(ctx, ec, *cond.LHS)
	if err != nil {
		return false, err
	}
	if lhs.Missing {
		return false, nil // soft miss
	}
	rhs := literalValue(cond.RHS)

	switch cond.OperandType {
	case courseware.DataTypeNumber:
		return compareNumbers(lhs, rhs, cond.Comparator)
	case courseware.DataTypeBoolean:
		return compareBools(lhs, rhs, cond.Comparator)
	case courseware.DataTypeString, "":
		return compareStrings(lhs, rhs, cond.Comparator)
	case courseware.DataTypeList:
		return compareLists(lhs, rhs, cond.Comparator)
	}
	return false, errors.Errorf("unknown operand type %q", cond.OperandType)
}

func compareNumbers(lhs, rhs Value, cmp courseware.Comparator) (bool, error) {
	a, err := lhs.Float64()
	if err != nil {
		return false, nil // stored value of the wrong type: soft false
	}
	b, err := rhs.Float64()
	if err != nil {
		return false, errors.Wrap(err, "numeric rhs literal")
	}
	switch cmp {
	case courseware.ComparatorEquals:
		return a == b, nil
	case courseware.ComparatorNotEquals:
		return a != b, nil
	case courseware.ComparatorGT:
		return a > b, nil
	case courseware.ComparatorGE:
		return a >= b, nil
	case courseware.ComparatorLT:
		return a < b, nil
	case courseware.ComparatorLE:
		return a <= b, nil
	case courseware.ComparatorAnyOf:
		return rawListContains(rhs, lhs)
	}
	return false, errors.Errorf("comparator %s does not apply to numbers", cmp)
}

func compareBools(lhs, rhs Value, cmp courseware.Comparator) (bool, error) {
	a, err := lhs.Bool()
	if err != nil {
		return false, nil
	}
	b, err := rhs.Bool()
	if err != nil {
		return false, errors.Wrap(err, "boolean rhs literal")
	}
	switch cmp {
	case courseware.ComparatorEquals:
		return a == b, nil
	case courseware.ComparatorNotEquals:
		return a != b, nil
	}
	return false, errors.Errorf("comparator %s does not apply to booleans", cmp)
}

func compareStrings(lhs, rhs Value, cmp courseware.Comparator) (bool, error) {
	a, err := lhs.String()
	if err != nil {
		return false, nil
	}
	switch cmp {
	case courseware.ComparatorEquals, courseware.ComparatorNotEquals,
		courseware.ComparatorContains:
		b, err := rhs.String()
		if err != nil {
			return false, errors.Wrap(err, "string rhs literal")
		}
		switch cmp {
		case courseware.ComparatorEquals:
			return a == b, nil
		case courseware.ComparatorNotEquals:
			return a != b, nil
		default:
			return strings.Contains(a, b), nil
		}
	case courseware.ComparatorAnyOf:
		return rawListContains(rhs, lhs)
	}
	return false, errors.Errorf("comparator %s does not apply to strings", cmp)
}

func compareLists(lhs, rhs Value, cmp courseware.Comparator) (bool, error) {
	switch cmp {
	case courseware.ComparatorContains:
		return rawListContains(lhs, rhs)
	case courseware.ComparatorEquals, courseware.ComparatorNotEquals:
		a, err := lhs.List()
		if err != nil {
			return false, nil
		}
		b, err := rhs.List()
		if err != nil {
			return false, errors.Wrap(err, "list rhs literal")
		}
		eq := len(a) == len(b)
		if eq {
			for i := range a {
				if !jsonEqual(a[i], b[i]) {
					eq = false
					break
				}
			}
		}
		if cmp == courseware.ComparatorNotEquals {
			return !eq, nil
		}
		return eq, nil
	}
	return false, errors.Errorf("comparator %s does not apply to lists", cmp)
}

// rawListContains reports whether the JSON list in `list` contains `item`.
func rawListContains(list, item Value) (bool, error) {
	items, err := list.List()
	if err != nil {
		return false, nil
	}
	for _, el := range items {
		if jsonEqual(el, item.Raw) {
			return true, nil
		}
	}
	return false, nil
}

// jsonEqual compares two raw JSON values structurally.
func jsonEqual(a, b json.RawMessage) bool {
	var av, bv interface{}
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return jsonValueEqual(av, bv)
}

func jsonValueEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !jsonValueEqual(v, bvv) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonValueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
