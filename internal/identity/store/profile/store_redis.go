package profile

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"accountd/internal/identity/models"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/platform/sentinel"
)

// Redis key prefix for profile hashes.
const profileKeyPrefix = "profile:"

// Hash field names. They match the JSON tags on models.ProfileRecord so the
// stored shape is the same regardless of backend.
const (
	fieldUsername      = "username"
	fieldGivenName     = "given_name"
	fieldFamilyName    = "family_name"
	fieldPhoneNumber   = "phone_number"
	fieldExternalID    = "id"
	fieldCorrelationID = "_id"
)

// updatableFields guards Update against writing arbitrary hash fields.
var updatableFields = map[string]struct{}{
	fieldGivenName:   {},
	fieldFamilyName:  {},
	fieldPhoneNumber: {},
}

// RedisStore keeps one hash per username. This is the production-recommended
// implementation for deployments where several instances serve profile reads.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, rec models.ProfileRecord) error {
	key := profileKeyPrefix + rec.Username
	err := s.client.HSet(ctx, key,
		fieldUsername, rec.Username,
		fieldGivenName, rec.GivenName,
		fieldFamilyName, rec.FamilyName,
		fieldPhoneNumber, rec.PhoneNumber,
		fieldExternalID, rec.ExternalID,
		fieldCorrelationID, rec.CorrelationID,
	).Err()
	if err != nil {
		return fmt.Errorf("put profile record: %w", err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, username, field, value string) (*models.ProfileRecord, error) {
	if _, ok := updatableFields[field]; !ok {
		return nil, derrors.New(derrors.CodeBadRequest, "unknown profile field: "+field)
	}

	key := profileKeyPrefix + username
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("check profile record: %w", err)
	}
	if exists == 0 {
		return nil, sentinel.ErrNotFound
	}

	if err := s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return nil, fmt.Errorf("update profile record: %w", err)
	}
	return s.Find(ctx, username)
}

func (s *RedisStore) Find(ctx context.Context, username string) (*models.ProfileRecord, error) {
	key := profileKeyPrefix + username
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("find profile record: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return &models.ProfileRecord{
		Username:      fields[fieldUsername],
		GivenName:     fields[fieldGivenName],
		FamilyName:    fields[fieldFamilyName],
		PhoneNumber:   fields[fieldPhoneNumber],
		ExternalID:    fields[fieldExternalID],
		CorrelationID: fields[fieldCorrelationID],
	}, nil
}
