package service

import (
	"context"
	"errors"

	"accountd/internal/identity/models"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/platform/audit"
	"accountd/pkg/platform/sentinel"
)

// SyncAttribute updates one named attribute on the credential record and then
// mirrors it onto the profile record, returning the post-update profile.
//
// There is no compensation here: the credential update is idempotent, so on a
// profile-side failure the caller retries the whole operation. Until that
// retry succeeds the two stores are transiently inconsistent, which is
// recorded in the audit trail.
func (s *Service) SyncAttribute(ctx context.Context, username, field, value string) (*models.ProfileRecord, error) {
	ctx, span := s.tracer.Start(ctx, "identity.sync_attribute")
	defer span.End()

	username = models.NormalizeUsername(username)
	if username == "" {
		return nil, derrors.New(derrors.CodeBadRequest, "username is required")
	}
	// Reject unknown fields before touching either store.
	var probe models.ProfileRecord
	if err := probe.ApplyField(field, value); err != nil {
		return nil, err
	}

	err := s.step(ctx, "credential.update_attributes", func(ctx context.Context) error {
		return s.credentials.UpdateAttributes(ctx, username, map[string]string{field: value})
	})
	if err != nil {
		s.metrics.IncrementSyncOutcome("credential_failed")
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "user not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update credential attribute")
	}

	var updated *models.ProfileRecord
	err = s.step(ctx, "profile.update", func(ctx context.Context) error {
		rec, updateErr := s.profiles.Update(ctx, username, field, value)
		updated = rec
		return updateErr
	})
	if err != nil {
		s.metrics.IncrementSyncOutcome("profile_failed")
		// The credential store already holds the new value; the profile does
		// not. Flag the divergence so operators can spot a caller that never
		// retried.
		s.logger.WarnContext(ctx, "profile update failed after credential update",
			"username", username,
			"field", field,
			"error", err,
		)
		s.logAudit(ctx, audit.EventAttributeSyncInconsistent, audit.Event{
			Username: username,
			Reason:   "profile update failed after credential update: " + field,
		})
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotFound, "profile record not found")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to update profile record")
	}

	s.metrics.IncrementSyncOutcome("success")
	s.logAudit(ctx, audit.EventAttributeSynced, audit.Event{
		Username: username,
		Reason:   field,
	})
	return updated, nil
}
