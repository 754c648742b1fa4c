package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/scope"
)

type scopeRepository struct {
	db *sqlx.DB
}

var _ scope.Repository = (*scopeRepository)(nil) // interface compliance check

func NewScopeRepository(db *sql.DB) *scopeRepository {
	return &scopeRepository{db: sqlx.NewDb(db, "postgres")}
}

type scopeRow struct {
	StudentID      uuid.UUID       `db:"student_id"`
	ScopeURN       string          `db:"scope_urn"`
	SourceID       uuid.UUID       `db:"source_id"`
	SchemaProperty string          `db:"schema_property"`
	DataType       string          `db:"data_type"`
	Value          json.RawMessage `db:"value"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

func (repo scopeRepository) GetEntry(ctx context.Context, studentID uuid.UUID, scopeURN string, sourceID uuid.UUID) (scope.Entry, error) {
	var row scopeRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM student_scope WHERE student_id = $1 AND scope_urn = $2 AND source_id = $3`,
		studentID, scopeURN, sourceID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return scope.Entry{}, scope.ErrNotFound
		}
		return scope.Entry{}, errors.Wrap(err, "getting scope entry")
	}
	return scope.Entry{
		StudentID:       row.StudentID,
		StudentScopeURN: row.ScopeURN,
		SourceID:        row.SourceID,
		SchemaProperty:  row.SchemaProperty,
		DataType:        courseware.DataType(row.DataType),
		Value:           row.Value,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func (repo scopeRepository) UpsertEntry(ctx context.Context, entry scope.Entry) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO student_scope (student_id, scope_urn, source_id, schema_property, data_type, value, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (student_id, scope_urn, source_id)
		 DO UPDATE SET schema_property = EXCLUDED.schema_property, data_type = EXCLUDED.data_type,
		               value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		entry.StudentID, entry.StudentScopeURN, entry.SourceID, entry.SchemaProperty,
		string(entry.DataType), entry.Value, entry.UpdatedAt.UTC(),
	)
	return errors.Wrap(err, "upserting scope entry")
}
