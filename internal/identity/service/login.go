package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"accountd/internal/identity/device"
	"accountd/internal/identity/models"
	"accountd/internal/identity/store/credential"
	"accountd/internal/identity/token"
	derrors "accountd/pkg/domain-errors"
	"accountd/pkg/platform/audit"
	"accountd/pkg/platform/sentinel"
	"accountd/pkg/requestcontext"
)

// Login is the plain authentication exchange: a username/password pair in, an
// access token out. It is a single pass-through call against the credential
// store with no cross-store coordination.
func (s *Service) Login(ctx context.Context, username, secret string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "identity.login")
	defer span.End()

	username = models.NormalizeUsername(username)
	if username == "" || secret == "" {
		return "", derrors.New(derrors.CodeBadRequest, "username and password are required")
	}

	rec, err := s.credentials.VerifySecret(ctx, username, secret)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, credential.ErrSecretMismatch) {
			// Same answer for unknown user and wrong password.
			return "", derrors.New(derrors.CodeUnauthorized, "invalid username or password")
		}
		return "", derrors.Wrap(err, derrors.CodeInternal, "failed to verify credentials")
	}
	if !rec.Confirmed {
		return "", derrors.New(derrors.CodeUnauthorized, "account is not confirmed")
	}

	accessToken, err := s.mintAccessToken(username)
	if err != nil {
		return "", derrors.Wrap(err, derrors.CodeInternal, "failed to issue access token")
	}

	s.logAudit(ctx, audit.EventUserLogin, audit.Event{
		Username: username,
		Device:   device.ParseUserAgent(requestcontext.UserAgent(ctx)),
	})
	return accessToken, nil
}

// mintAccessToken issues the HS256 token the rest of the system consumes
// opaquely through the token reader.
func (s *Service) mintAccessToken(username string) (string, error) {
	now := time.Now()
	claims := token.Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.tokenCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenCfg.TTL)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokenCfg.SigningKey)
}
