// Package profile defines the port to the query-side profile store: the
// denormalized mirror of user attributes keyed by username.
package profile

import (
	"context"

	"accountd/internal/identity/models"
)

// Store is the set of profile-store operations the identity service consumes.
// Implementations return pkg/platform/sentinel errors for infrastructure facts.
type Store interface {
	// Put writes the full record, replacing any previous one for the username.
	Put(ctx context.Context, rec models.ProfileRecord) error

	// Update sets a single named field and returns the post-update record.
	Update(ctx context.Context, username, field, value string) (*models.ProfileRecord, error)

	// Find returns the record for a username.
	Find(ctx context.Context, username string) (*models.ProfileRecord, error)
}
