package redisdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/scope"
)

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// scopeRepository keeps student-scope entries in Redis. Entries are shared
// with external sources, so a fast mutable store fits better than the
// append-only progress tables.
type scopeRepository struct {
	client *redis.Client
}

var _ scope.Repository = (*scopeRepository)(nil) // interface compliance check

func NewScopeRepository(client *redis.Client) *scopeRepository {
	return &scopeRepository{client: client}
}

func scopeEntryKey(studentID uuid.UUID, scopeURN string, sourceID uuid.UUID) string {
	return fmt.Sprintf("scope:%s:%s:%s", studentID, scopeURN, sourceID)
}

func (repo *scopeRepository) GetEntry(ctx context.Context, studentID uuid.UUID, scopeURN string, sourceID uuid.UUID) (scope.Entry, error) {
	data, err := repo.client.Get(ctx, scopeEntryKey(studentID, scopeURN, sourceID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return scope.Entry{}, scope.ErrNotFound
		}
		return scope.Entry{}, errors.Wrap(err, "getting scope entry")
	}
	var entry scope.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return scope.Entry{}, errors.Wrap(err, "decoding scope entry")
	}
	return entry, nil
}

func (repo *scopeRepository) UpsertEntry(ctx context.Context, entry scope.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "encoding scope entry")
	}
	key := scopeEntryKey(entry.StudentID, entry.StudentScopeURN, entry.SourceID)
	return errors.Wrap(repo.client.Set(ctx, key, data, 0).Err(), "setting scope entry")
}
