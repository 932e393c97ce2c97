package service

import (
	"context"
	"errors"

	"go.uber.org/mock/gomock"

	"accountd/internal/identity/models"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/platform/audit"
	"accountd/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestSyncAttribute_UpdatesBothStores() {
	ctx := context.Background()
	updated := &models.ProfileRecord{
		Username:  "bob",
		GivenName: "Robert",
	}

	s.mockCredentialStore.EXPECT().
		UpdateAttributes(gomock.Any(), "bob", map[string]string{models.AttrGivenName: "Robert"}).
		Return(nil)
	s.mockProfileStore.EXPECT().
		Update(gomock.Any(), "bob", models.AttrGivenName, "Robert").
		Return(updated, nil)

	rec, err := s.service.SyncAttribute(ctx, "Bob", models.AttrGivenName, "Robert")
	s.Require().NoError(err)
	s.Equal("Robert", rec.GivenName)
	s.Contains(s.auditActions(), string(audit.EventAttributeSynced))
}

func (s *ServiceSuite) TestSyncAttribute_CredentialFailureSkipsProfile() {
	ctx := context.Background()

	s.Run("unknown user", func() {
		s.mockCredentialStore.EXPECT().
			UpdateAttributes(gomock.Any(), "ghost", gomock.Any()).
			Return(sentinel.ErrNotFound)

		_, err := s.service.SyncAttribute(ctx, "ghost", models.AttrGivenName, "Robert")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})

	s.Run("provider error", func() {
		s.mockCredentialStore.EXPECT().
			UpdateAttributes(gomock.Any(), "bob", gomock.Any()).
			Return(errors.New("provider down"))

		_, err := s.service.SyncAttribute(ctx, "bob", models.AttrGivenName, "Robert")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestSyncAttribute_ProfileFailureIsReported() {
	ctx := context.Background()

	s.mockCredentialStore.EXPECT().
		UpdateAttributes(gomock.Any(), "bob", map[string]string{models.AttrPhoneNumber: "+15550199"}).
		Return(nil)
	s.mockProfileStore.EXPECT().
		Update(gomock.Any(), "bob", models.AttrPhoneNumber, "+15550199").
		Return(nil, errors.New("profile store down"))

	_, err := s.service.SyncAttribute(ctx, "bob", models.AttrPhoneNumber, "+15550199")
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeInternal))
	// The stores now disagree until the caller retries; that divergence is
	// what the audit event records.
	s.Contains(s.auditActions(), string(audit.EventAttributeSyncInconsistent))
}

func (s *ServiceSuite) TestSyncAttribute_RejectsInvalidInputBeforeStores() {
	ctx := context.Background()

	s.Run("unknown field", func() {
		_, err := s.service.SyncAttribute(ctx, "bob", "shoe_size", "44")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeBadRequest))
	})

	s.Run("empty username", func() {
		_, err := s.service.SyncAttribute(ctx, "  ", models.AttrGivenName, "Robert")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeBadRequest))
	})
}
