package service

import (
	"context"

	"go.uber.org/mock/gomock"

	"accountd/internal/identity/models"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/platform/audit"
	"accountd/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestGetUser_OwnerCanRead() {
	ctx := context.Background()
	rec := &models.ProfileRecord{Username: "bob", GivenName: "Bob"}

	s.Run("exact match", func() {
		s.mockProfileStore.EXPECT().Find(gomock.Any(), "bob").Return(rec, nil)

		got, err := s.service.GetUser(ctx, s.mintToken("bob"), "bob")
		s.Require().NoError(err)
		s.Equal("bob", got.Username)
	})

	s.Run("identity comparison ignores case", func() {
		s.mockProfileStore.EXPECT().Find(gomock.Any(), "bob").Return(rec, nil)

		got, err := s.service.GetUser(ctx, s.mintToken("Bob"), "BOB")
		s.Require().NoError(err)
		s.Equal("bob", got.Username)
	})
}

func (s *ServiceSuite) TestGetUser_Failures() {
	ctx := context.Background()

	s.Run("different user is forbidden", func() {
		_, err := s.service.GetUser(ctx, s.mintToken("alice"), "bob")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeForbidden))
		s.Contains(s.auditActions(), string(audit.EventOwnershipDenied))
	})

	s.Run("malformed token is unauthorized", func() {
		_, err := s.service.GetUser(ctx, "not-a-jwt", "bob")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("token without username claim is unauthorized", func() {
		_, err := s.service.GetUser(ctx, s.mintToken(""), "bob")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("missing profile is not found", func() {
		s.mockProfileStore.EXPECT().Find(gomock.Any(), "bob").Return(nil, sentinel.ErrNotFound)

		_, err := s.service.GetUser(ctx, s.mintToken("bob"), "bob")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestUpdateUser_GuardsThenSyncs() {
	ctx := context.Background()
	updated := &models.ProfileRecord{Username: "bob", GivenName: "Robert"}

	s.Run("explicit target must match token identity", func() {
		s.mockCredentialStore.EXPECT().
			UpdateAttributes(gomock.Any(), "bob", map[string]string{models.AttrGivenName: "Robert"}).
			Return(nil)
		s.mockProfileStore.EXPECT().
			Update(gomock.Any(), "bob", models.AttrGivenName, "Robert").
			Return(updated, nil)

		rec, err := s.service.UpdateUser(ctx, s.mintToken("Bob"), "bob", models.AttrGivenName, "Robert")
		s.Require().NoError(err)
		s.Equal("Robert", rec.GivenName)
	})

	s.Run("empty target defaults to token identity", func() {
		s.mockCredentialStore.EXPECT().
			UpdateAttributes(gomock.Any(), "bob", gomock.Any()).
			Return(nil)
		s.mockProfileStore.EXPECT().
			Update(gomock.Any(), "bob", models.AttrGivenName, "Robert").
			Return(updated, nil)

		rec, err := s.service.UpdateUser(ctx, s.mintToken("bob"), "", models.AttrGivenName, "Robert")
		s.Require().NoError(err)
		s.Equal("Robert", rec.GivenName)
	})

	s.Run("different target is forbidden before any store call", func() {
		_, err := s.service.UpdateUser(ctx, s.mintToken("alice"), "bob", models.AttrGivenName, "Robert")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeForbidden))
	})
}
