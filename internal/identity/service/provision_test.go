package service

import (
	"context"
	"errors"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"accountd/internal/identity/models"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/platform/audit"
	"accountd/pkg/platform/sentinel"
)

func (s *ServiceSuite) newRequest() models.ProvisioningRequest {
	req, err := models.NewProvisioningRequest("Bob", "hunter2!", "+1 555 0100", "Bob", "Jones", "ext-1")
	s.Require().NoError(err)
	return req
}

func (s *ServiceSuite) TestProvision_HappyPath() {
	ctx := context.Background()
	req := s.newRequest()

	s.mockCredentialStore.EXPECT().
		Create(gomock.Any(), gomock.Any(), req.Secret).
		DoAndReturn(func(_ context.Context, rec models.CredentialRecord, _ string) error {
			s.Equal("bob", rec.Username)
			s.Equal("+15550100", rec.Attributes[models.AttrPhoneNumber])
			s.Equal("ext-1", rec.ExternalID)
			s.Equal(req.CorrelationID, rec.CorrelationID)
			return nil
		})
	s.mockCredentialStore.EXPECT().Confirm(gomock.Any(), "bob").Return(nil)
	s.mockProfileStore.EXPECT().
		Put(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec models.ProfileRecord) error {
			s.Equal("bob", rec.Username)
			s.Equal("Bob", rec.GivenName)
			s.Equal("ext-1", rec.ExternalID)
			return nil
		})

	externalID, err := s.service.Provision(ctx, req)
	s.Require().NoError(err)
	s.Equal("ext-1", externalID)
	s.Contains(s.auditActions(), string(audit.EventUserProvisioned))
}

func (s *ServiceSuite) TestProvision_ConfirmFailureCompensates() {
	ctx := context.Background()
	req := s.newRequest()

	s.mockCredentialStore.EXPECT().Create(gomock.Any(), gomock.Any(), req.Secret).Return(nil)
	s.mockCredentialStore.EXPECT().Confirm(gomock.Any(), "bob").Return(assert.AnError)
	s.mockCredentialStore.EXPECT().Delete(gomock.Any(), "bob").Return(nil)

	_, err := s.service.Provision(ctx, req)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeInternal))
	s.Contains(s.auditActions(), string(audit.EventProvisioningCompensated))
}

func (s *ServiceSuite) TestProvision_MirrorFailureCompensates() {
	ctx := context.Background()
	req := s.newRequest()

	s.mockCredentialStore.EXPECT().Create(gomock.Any(), gomock.Any(), req.Secret).Return(nil)
	s.mockCredentialStore.EXPECT().Confirm(gomock.Any(), "bob").Return(nil)
	s.mockProfileStore.EXPECT().Put(gomock.Any(), gomock.Any()).Return(errors.New("profile store down"))
	s.mockCredentialStore.EXPECT().Delete(gomock.Any(), "bob").Return(nil)

	_, err := s.service.Provision(ctx, req)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeInternal))
	s.Contains(s.auditActions(), string(audit.EventProvisioningCompensated))
}

func (s *ServiceSuite) TestProvision_CompensationFailureLeavesOrphan() {
	ctx := context.Background()
	req := s.newRequest()

	s.mockCredentialStore.EXPECT().Create(gomock.Any(), gomock.Any(), req.Secret).Return(nil)
	s.mockCredentialStore.EXPECT().Confirm(gomock.Any(), "bob").Return(assert.AnError)
	s.mockCredentialStore.EXPECT().Delete(gomock.Any(), "bob").Return(errors.New("provider unreachable"))

	_, err := s.service.Provision(ctx, req)
	s.Require().Error(err)
	// The caller still sees the original failure wrapped as internal; the
	// orphaned record is only visible through the audit trail.
	s.True(derrors.HasCode(err, derrors.CodeInternal))
	s.Contains(s.auditActions(), string(audit.EventCompensationFailed))
	s.NotContains(s.auditActions(), string(audit.EventProvisioningCompensated))
}

func (s *ServiceSuite) TestProvision_DuplicateUsernameIsConflict() {
	ctx := context.Background()
	req := s.newRequest()

	// No Delete expectation: a failed create has nothing to compensate.
	s.mockCredentialStore.EXPECT().Create(gomock.Any(), gomock.Any(), req.Secret).Return(sentinel.ErrConflict)

	_, err := s.service.Provision(ctx, req)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeConflict))
	s.Contains(s.auditActions(), string(audit.EventProvisioningFailed))
}

func (s *ServiceSuite) TestProvision_ValidationFailuresTouchNoStore() {
	ctx := context.Background()

	// No store expectations at all: any call would fail the test.
	s.Run("missing fields", func() {
		_, err := s.service.Provision(ctx, models.ProvisioningRequest{Username: "bob"})
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeBadRequest))
	})

	s.Run("16 digit phone number rejected", func() {
		_, err := s.service.Provision(ctx, models.ProvisioningRequest{
			Username:    "bob",
			Secret:      "hunter2!",
			PhoneNumber: "+1234567890123456",
			GivenName:   "Bob",
			FamilyName:  "Jones",
			ExternalID:  "ext-1",
		})
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeBadRequest))
	})

	s.Run("given name over 20 characters rejected", func() {
		_, err := s.service.Provision(ctx, models.ProvisioningRequest{
			Username:    "bob",
			Secret:      "hunter2!",
			PhoneNumber: "+15550100",
			GivenName:   "Bartholomew-Robertson III",
			FamilyName:  "Jones",
			ExternalID:  "ext-1",
		})
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestProvision_ElevenDigitPhoneAccepted() {
	ctx := context.Background()
	req, err := models.NewProvisioningRequest("carol", "hunter2!", "+44 123 456 789", "Carol", "Smith", "ext-2")
	s.Require().NoError(err)
	s.Equal("+44123456789", req.PhoneNumber)

	s.mockCredentialStore.EXPECT().Create(gomock.Any(), gomock.Any(), req.Secret).Return(nil)
	s.mockCredentialStore.EXPECT().Confirm(gomock.Any(), "carol").Return(nil)
	s.mockProfileStore.EXPECT().Put(gomock.Any(), gomock.Any()).Return(nil)

	externalID, err := s.service.Provision(ctx, req)
	s.Require().NoError(err)
	s.Equal("ext-2", externalID)
}
