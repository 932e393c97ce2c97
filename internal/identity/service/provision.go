package service

import (
	"context"
	"errors"
	"time"

	"accountd/internal/identity/models"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/platform/audit"
	"accountd/pkg/platform/sentinel"
)

// SagaState tracks how far a provisioning attempt progressed. Every attempt
// ends in exactly one of the terminal states; the terminal state is what the
// metrics report.
type SagaState string

const (
	// StateCreated: the credential record exists, unconfirmed.
	StateCreated SagaState = "created"
	// StateConfirmed: the credential record is confirmed, profile not yet written.
	StateConfirmed SagaState = "confirmed"
	// StateMirrored: both stores written.
	StateMirrored SagaState = "mirrored"

	// StateSuccess: terminal, all steps completed.
	StateSuccess SagaState = "success"
	// StateTerminalFailure: terminal, failed before anything was created
	// (validation or the create step itself). Nothing to compensate.
	StateTerminalFailure SagaState = "terminal_failure"
	// StateCompensatedFailure: terminal, a later step failed and the
	// compensating delete was attempted.
	StateCompensatedFailure SagaState = "compensated_failure"
)

// Provision runs the account creation saga: create the credential record,
// confirm it, mirror its attributes into the profile store. A failure after
// the create step triggers a single best-effort compensating delete of the
// credential record; the residual inconsistency when that delete also fails
// is surfaced through the audit trail, not retried.
//
// On success the caller-supplied external reference ID is returned, signaling
// that both stores reached a consistent state.
func (s *Service) Provision(ctx context.Context, req models.ProvisioningRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "identity.provision")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObserveProvisionLatency(time.Since(start))
	}()

	// Fail fast: a validation error means zero remote calls were made.
	if err := req.Validate(); err != nil {
		s.metrics.IncrementProvisionOutcome(string(StateTerminalFailure))
		return "", err
	}

	// Step 1: create the credential record. Failure is terminal with no
	// compensation; nothing was created, including the duplicate case.
	err := s.step(ctx, "credential.create", func(ctx context.Context) error {
		return s.credentials.Create(ctx, models.CredentialRecord{
			Username:      req.Username,
			Attributes:    req.Attributes(),
			ExternalID:    req.ExternalID,
			CorrelationID: req.CorrelationID,
		}, req.Secret)
	})
	if err != nil {
		s.metrics.IncrementProvisionOutcome(string(StateTerminalFailure))
		s.logAudit(ctx, audit.EventProvisioningFailed, audit.Event{
			Username:      req.Username,
			Reason:        "credential create failed",
			CorrelationID: req.CorrelationID,
		})
		if errors.Is(err, sentinel.ErrConflict) {
			return "", derrors.New(derrors.CodeConflict, "username already registered")
		}
		return "", derrors.Wrap(err, derrors.CodeInternal, "failed to create credential record")
	}
	state := StateCreated

	// Step 2: confirm. From here on, any failure must undo the create.
	err = s.step(ctx, "credential.confirm", func(ctx context.Context) error {
		return s.credentials.Confirm(ctx, req.Username)
	})
	if err != nil {
		return "", s.compensate(ctx, req, state, err)
	}
	state = StateConfirmed

	// Step 3: mirror attributes into the profile store.
	err = s.step(ctx, "profile.put", func(ctx context.Context) error {
		return s.profiles.Put(ctx, models.NewProfileRecord(req))
	})
	if err != nil {
		return "", s.compensate(ctx, req, state, err)
	}

	s.metrics.IncrementProvisionOutcome(string(StateSuccess))
	s.logAudit(ctx, audit.EventUserProvisioned, audit.Event{
		Username:      req.Username,
		CorrelationID: req.CorrelationID,
	})
	s.logger.InfoContext(ctx, "user provisioned",
		"username", req.Username,
		"correlation_id", req.CorrelationID,
	)
	return req.ExternalID, nil
}

// compensate rolls back the credential record after a step failed with the
// saga in the given state. The delete is attempted exactly once; if it fails
// too, the orphaned record is reported for operator attention and the
// original failure is still what the caller sees.
//
// The returned error is the same for confirm-step and mirror-step failures:
// either way no consistent end state was reached and compensation was
// attempted.
func (s *Service) compensate(ctx context.Context, req models.ProvisioningRequest, state SagaState, cause error) error {
	s.logger.WarnContext(ctx, "provisioning failed, compensating",
		"username", req.Username,
		"state", string(state),
		"error", cause,
	)

	deleteErr := s.step(ctx, "credential.delete", func(ctx context.Context) error {
		return s.credentials.Delete(ctx, req.Username)
	})
	if deleteErr != nil {
		s.metrics.IncrementCompensation("failed")
		s.metrics.IncrementProvisionOutcome(string(StateCompensatedFailure))
		// The credential record is now orphaned in the provider. The caller
		// still gets the original failure; operators find the orphan through
		// this event and log line.
		s.logger.ErrorContext(ctx, "compensating delete failed, credential record orphaned",
			"username", req.Username,
			"state", string(state),
			"error", deleteErr,
		)
		s.logAudit(ctx, audit.EventCompensationFailed, audit.Event{
			Username:      req.Username,
			Reason:        deleteErr.Error(),
			CorrelationID: req.CorrelationID,
		})
		return derrors.Wrap(cause, derrors.CodeInternal, "provisioning failed")
	}

	s.metrics.IncrementCompensation("ok")
	s.metrics.IncrementProvisionOutcome(string(StateCompensatedFailure))
	s.logAudit(ctx, audit.EventProvisioningCompensated, audit.Event{
		Username:      req.Username,
		Reason:        cause.Error(),
		CorrelationID: req.CorrelationID,
	})
	return derrors.Wrap(cause, derrors.CodeInternal, "provisioning failed")
}
