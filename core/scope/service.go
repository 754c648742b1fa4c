package scope

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/courseware"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Get(ctx context.Context, studentID uuid.UUID, scopeURN string, sourceID uuid.UUID) (Entry, error) {
	return svc.repo.GetEntry(ctx, studentID, scopeURN, sourceID)
}

// Mutate writes value into the student's scope, combining it with any
// existing value per the mutation operator. SET overwrites; ADD/SUBTRACT
// require numeric operands; APPEND extends a list (or concatenates strings).
func (svc *Service) Mutate(
	ctx context.Context,
	entry Entry,
	operator courseware.MutationOperator,
) (Entry, error) {
	if err := validateValue(entry.Value, entry.DataType); err != nil {
		return Entry{}, err
	}

	if operator != courseware.MutationSet {
		prev, err := svc.repo.GetEntry(ctx, entry.StudentID, entry.StudentScopeURN, entry.SourceID)
		if err != nil && errors.Cause(err) != ErrNotFound {
			return Entry{}, err
		}
		if err == nil {
			merged, mErr := combine(prev.Value, entry.Value, entry.DataType, operator)
			if mErr != nil {
				return Entry{}, mErr
			}
			entry.Value = merged
		}
	}

	entry.UpdatedAt = time.Now().UTC()
	if err := svc.repo.UpsertEntry(ctx, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// validateValue checks that raw parses as the declared data type.
func validateValue(raw json.RawMessage, dt courseware.DataType) error {
	if len(raw) == 0 {
		return errors.New("scope value is empty")
	}
	switch dt {
	case courseware.DataTypeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return errors.Wrap(err, "scope value is not a string")
		}
	case courseware.DataTypeNumber:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return errors.Wrap(err, "scope value is not a number")
		}
	case courseware.DataTypeBoolean:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return errors.Wrap(err, "scope value is not a boolean")
		}
	case courseware.DataTypeList:
		var l []json.RawMessage
		if err := json.Unmarshal(raw, &l); err != nil {
			return errors.Wrap(err, "scope value is not a list")
		}
	default:
		// unknown data types pass through untyped
	}
	return nil
}

func combine(prev, next json.RawMessage, dt courseware.DataType, op courseware.MutationOperator) (json.RawMessage, error) {
	switch op {
	case courseware.MutationAdd, courseware.MutationSubtract:
		if dt != courseware.DataTypeNumber {
			return nil, errors.Errorf("%s mutation requires a NUMBER scope value", op)
		}
		var a, b float64
		if err := json.Unmarshal(prev, &a); err != nil {
			return nil, errors.Wrap(err, "stored scope value is not a number")
		}
		if err := json.Unmarshal(next, &b); err != nil {
			return nil, errors.Wrap(err, "scope operand is not a number")
		}
		if op == courseware.MutationSubtract {
			b = -b
		}
		return json.RawMessage(strconv.FormatFloat(a+b, 'f', -1, 64)), nil

	case courseware.MutationAppend:
		switch dt {
		case courseware.DataTypeList:
			var list []json.RawMessage
			if err := json.Unmarshal(prev, &list); err != nil {
				return nil, errors.Wrap(err, "stored scope value is not a list")
			}
			list = append(list, next)
			return json.Marshal(list)
		case courseware.DataTypeString:
			var a, b string
			if err := json.Unmarshal(prev, &a); err != nil {
				return nil, errors.Wrap(err, "stored scope value is not a string")
			}
			if err := json.Unmarshal(next, &b); err != nil {
				return nil, errors.Wrap(err, "scope operand is not a string")
			}
			return json.Marshal(a + b)
		}
		return nil, errors.Errorf("APPEND mutation does not apply to %s scope values", dt)
	}
	return nil, errors.Errorf("unknown mutation operator %q", op)
}
