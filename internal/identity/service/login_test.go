package service

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/mock/gomock"

	"accountd/internal/identity/models"
	"accountd/internal/identity/store/credential"
	"accountd/internal/identity/token"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/platform/audit"
	"accountd/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestLogin_IssuesAccessToken() {
	ctx := context.Background()
	rec := &models.CredentialRecord{Username: "bob", Confirmed: true}

	s.mockCredentialStore.EXPECT().VerifySecret(gomock.Any(), "bob", "hunter2!").Return(rec, nil)

	accessToken, err := s.service.Login(ctx, "Bob", "hunter2!")
	s.Require().NoError(err)

	claims := &token.Claims{}
	_, _, parseErr := jwt.NewParser().ParseUnverified(accessToken, claims)
	s.Require().NoError(parseErr)
	s.Equal("bob", claims.Username)
	s.Equal("accountd-test", claims.Issuer)
	s.NotEmpty(claims.ID)
	s.Contains(s.auditActions(), string(audit.EventUserLogin))
}

func (s *ServiceSuite) TestLogin_Failures() {
	ctx := context.Background()

	s.Run("unknown user", func() {
		s.mockCredentialStore.EXPECT().VerifySecret(gomock.Any(), "ghost", "pw").Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Login(ctx, "ghost", "pw")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("wrong password gets the same answer", func() {
		s.mockCredentialStore.EXPECT().VerifySecret(gomock.Any(), "bob", "wrong").Return(nil, credential.ErrSecretMismatch)

		_, err := s.service.Login(ctx, "bob", "wrong")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
		s.Contains(err.Error(), "invalid username or password")
	})

	s.Run("unconfirmed account", func() {
		rec := &models.CredentialRecord{Username: "bob", Confirmed: false}
		s.mockCredentialStore.EXPECT().VerifySecret(gomock.Any(), "bob", "hunter2!").Return(rec, nil)

		_, err := s.service.Login(ctx, "bob", "hunter2!")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("store error", func() {
		s.mockCredentialStore.EXPECT().VerifySecret(gomock.Any(), "bob", "pw").Return(nil, errors.New("db down"))

		_, err := s.service.Login(ctx, "bob", "pw")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInternal))
	})

	s.Run("missing credentials", func() {
		_, err := s.service.Login(ctx, "", "")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeBadRequest))
	})
}
