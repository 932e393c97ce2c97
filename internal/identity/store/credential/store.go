// Package credential defines the port to the external credential provider:
// the system of record for login secrets, confirmation state and
// provider-managed attributes.
package credential

import (
	"context"
	"errors"

	"accountd/internal/identity/models"
)

// ErrSecretMismatch is returned by VerifySecret when the record exists but the
// supplied secret does not match the stored hash.
var ErrSecretMismatch = errors.New("secret mismatch")

// Store is the set of credential-provider operations the identity service
// consumes. Implementations return pkg/platform/sentinel errors for
// infrastructure facts (ErrNotFound, ErrConflict).
type Store interface {
	// Create inserts a new, unconfirmed credential record. The secret is
	// hashed by the implementation; it never leaves this call in plain form.
	// A record with the same username yields sentinel.ErrConflict.
	Create(ctx context.Context, rec models.CredentialRecord, secret string) error

	// Confirm transitions the record to confirmed state.
	Confirm(ctx context.Context, username string) error

	// UpdateAttributes sets the named provider-side attributes. Setting the
	// same value twice is safe; callers rely on this for retries.
	UpdateAttributes(ctx context.Context, username string, attrs map[string]string) error

	// Delete removes the record. Used by saga compensation.
	Delete(ctx context.Context, username string) error

	// Get returns the record for a username.
	Get(ctx context.Context, username string) (*models.CredentialRecord, error)

	// VerifySecret checks a login secret against the stored hash and returns
	// the record on success. ErrSecretMismatch on a wrong secret.
	VerifySecret(ctx context.Context, username, secret string) (*models.CredentialRecord, error)
}
