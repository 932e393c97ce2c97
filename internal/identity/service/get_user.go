package service

import (
	"context"
	"errors"

	"accountd/internal/identity/guard"
	"accountd/internal/identity/models"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/platform/audit"
	"accountd/pkg/platform/sentinel"
)

// GetUser returns the profile record for requestedUsername, provided the
// bearer token claims that same identity. A mismatch is an explicit
// forbidden outcome, not a generic failure.
func (s *Service) GetUser(ctx context.Context, bearerToken, requestedUsername string) (*models.ProfileRecord, error) {
	ctx, span := s.tracer.Start(ctx, "identity.get_user")
	defer span.End()

	claim, err := s.authorizeOwner(ctx, bearerToken, requestedUsername)
	if err != nil {
		return nil, err
	}

	rec, err := s.profiles.Find(ctx, claim.Username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "user not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to fetch profile record")
	}
	return rec, nil
}

// UpdateUser syncs a named attribute for the identity the bearer token
// claims. When requestedUsername is empty the token's own identity is the
// target; when set, it must pass the ownership guard first.
func (s *Service) UpdateUser(ctx context.Context, bearerToken, requestedUsername, field, value string) (*models.ProfileRecord, error) {
	ctx, span := s.tracer.Start(ctx, "identity.update_user")
	defer span.End()

	claim, err := s.tokens.Read(bearerToken)
	if err != nil {
		return nil, err
	}
	if requestedUsername == "" {
		requestedUsername = claim.Username
	}
	if guard.Authorize(claim, requestedUsername) == guard.Deny {
		return nil, s.deny(ctx, claim, requestedUsername)
	}

	return s.SyncAttribute(ctx, requestedUsername, field, value)
}

// authorizeOwner decodes the bearer token and checks it owns the requested
// identity.
func (s *Service) authorizeOwner(ctx context.Context, bearerToken, requestedUsername string) (models.AccessClaim, error) {
	claim, err := s.tokens.Read(bearerToken)
	if err != nil {
		return models.AccessClaim{}, err
	}
	if guard.Authorize(claim, requestedUsername) == guard.Deny {
		return models.AccessClaim{}, s.deny(ctx, claim, requestedUsername)
	}
	return claim, nil
}

func (s *Service) deny(ctx context.Context, claim models.AccessClaim, requestedUsername string) error {
	s.metrics.IncrementOwnershipDenial()
	s.logAudit(ctx, audit.EventOwnershipDenied, audit.Event{
		Username: claim.Username,
		Reason:   "requested " + models.NormalizeUsername(requestedUsername),
	})
	return derrors.New(derrors.CodeForbidden, "you can only access your own user")
}
