package scope

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core/courseware"
)

type memRepo map[string]Entry

func (r memRepo) key(studentID uuid.UUID, scopeURN string, sourceID uuid.UUID) string {
	return fmt.Sprintf("%s|%s|%s", studentID, scopeURN, sourceID)
}

func (r memRepo) GetEntry(_ context.Context, studentID uuid.UUID, scopeURN string, sourceID uuid.UUID) (Entry, error) {
	entry, ok := r[r.key(studentID, scopeURN, sourceID)]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

func (r memRepo) UpsertEntry(_ context.Context, entry Entry) error {
	r[r.key(entry.StudentID, entry.StudentScopeURN, entry.SourceID)] = entry
	return nil
}

func testEntry(dt courseware.DataType, raw string) Entry {
	return Entry{
		StudentID:       uuid.New(),
		StudentScopeURN: "urn:scope:progress",
		SourceID:        uuid.New(),
		SchemaProperty:  "value",
		DataType:        dt,
		Value:           json.RawMessage(raw),
	}
}

func TestService_MutateSetOverwrites(t *testing.T) {
	repo := memRepo{}
	svc := NewService(repo)
	entry := testEntry(courseware.DataTypeNumber, "10")

	_, err := svc.Mutate(context.Background(), entry, courseware.MutationSet)
	require.NoError(t, err)

	entry.Value = json.RawMessage("3")
	got, err := svc.Mutate(context.Background(), entry, courseware.MutationSet)
	require.NoError(t, err)
	assert.JSONEq(t, "3", string(got.Value))
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestService_MutateAddAndSubtract(t *testing.T) {
	repo := memRepo{}
	svc := NewService(repo)
	entry := testEntry(courseware.DataTypeNumber, "10")

	_, err := svc.Mutate(context.Background(), entry, courseware.MutationSet)
	require.NoError(t, err)

	entry.Value = json.RawMessage("4")
	got, err := svc.Mutate(context.Background(), entry, courseware.MutationAdd)
	require.NoError(t, err)
	assert.JSONEq(t, "14", string(got.Value))

	entry.Value = json.RawMessage("6")
	got, err = svc.Mutate(context.Background(), entry, courseware.MutationSubtract)
	require.NoError(t, err)
	assert.JSONEq(t, "8", string(got.Value))
}

func TestService_MutateAddWithoutPriorActsAsSet(t *testing.T) {
	svc := NewService(memRepo{})
	entry := testEntry(courseware.DataTypeNumber, "7")

	got, err := svc.Mutate(context.Background(), entry, courseware.MutationAdd)
	require.NoError(t, err)
	assert.JSONEq(t, "7", string(got.Value))
}

func TestService_MutateAppendList(t *testing.T) {
	svc := NewService(memRepo{})
	entry := testEntry(courseware.DataTypeList, `["a"]`)

	_, err := svc.Mutate(context.Background(), entry, courseware.MutationSet)
	require.NoError(t, err)

	entry.Value = json.RawMessage(`["b","c"]`)
	got, err := svc.Mutate(context.Background(), entry, courseware.MutationAppend)
	require.NoError(t, err)
	assert.JSONEq(t, `["a",["b","c"]]`, string(got.Value))
}

func TestService_MutateAppendString(t *testing.T) {
	svc := NewService(memRepo{})
	entry := testEntry(courseware.DataTypeString, `"foo"`)

	_, err := svc.Mutate(context.Background(), entry, courseware.MutationSet)
	require.NoError(t, err)

	entry.Value = json.RawMessage(`"bar"`)
	got, err := svc.Mutate(context.Background(), entry, courseware.MutationAppend)
	require.NoError(t, err)
	assert.JSONEq(t, `"foobar"`, string(got.Value))
}

func TestService_MutateRejectsMistypedValues(t *testing.T) {
	svc := NewService(memRepo{})

	tests := []struct {
		name  string
		dt    courseware.DataType
		raw   string
	}{
		{name: "string typed as number", dt: courseware.DataTypeNumber, raw: `"five"`},
		{name: "number typed as boolean", dt: courseware.DataTypeBoolean, raw: "1"},
		{name: "scalar typed as list", dt: courseware.DataTypeList, raw: "1"},
		{name: "empty value", dt: courseware.DataTypeString, raw: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Mutate(context.Background(), testEntry(tt.dt, tt.raw), courseware.MutationSet)
			assert.Error(t, err)
		})
	}
}

func TestService_MutateArithmeticRequiresNumbers(t *testing.T) {
	svc := NewService(memRepo{})
	entry := testEntry(courseware.DataTypeString, `"a"`)

	_, err := svc.Mutate(context.Background(), entry, courseware.MutationSet)
	require.NoError(t, err)

	entry.Value = json.RawMessage(`"b"`)
	_, err = svc.Mutate(context.Background(), entry, courseware.MutationAdd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NUMBER")
}

func TestService_Get(t *testing.T) {
	repo := memRepo{}
	svc := NewService(repo)
	entry := testEntry(courseware.DataTypeNumber, "1")
	require.NoError(t, repo.UpsertEntry(context.Background(), entry))

	got, err := svc.Get(context.Background(), entry.StudentID, entry.StudentScopeURN, entry.SourceID)
	require.NoError(t, err)
	assert.Equal(t, entry.Value, got.Value)

	_, err = svc.Get(context.Background(), uuid.New(), entry.StudentScopeURN, entry.SourceID)
	assert.ErrorIs(t, err, ErrNotFound)
}
