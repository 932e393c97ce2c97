package service

import (
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"accountd/internal/identity/service/mocks"
	"accountd/pkg/platform/audit"
	auditmemory "accountd/pkg/platform/audit/store/memory"
)

type ServiceSuite struct {
	suite.Suite
	ctrl                *gomock.Controller
	mockCredentialStore *mocks.MockCredentialStore
	mockProfileStore    *mocks.MockProfileStore
	auditStore          *auditmemory.Store
	service             *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockCredentialStore = mocks.NewMockCredentialStore(s.ctrl)
	s.mockProfileStore = mocks.NewMockProfileStore(s.ctrl)
	s.auditStore = auditmemory.New()

	s.service = New(
		s.mockCredentialStore,
		s.mockProfileStore,
		TokenConfig{
			SigningKey: []byte("test-signing-key"),
			Issuer:     "accountd-test",
			TTL:        time.Hour,
		},
		WithLogger(slog.New(slog.DiscardHandler)),
		WithAuditPublisher(audit.NewPublisher(s.auditStore)),
	)
}

// mintToken issues a token the way the login pass-through would, for exercising
// the ownership-guarded operations.
func (s *ServiceSuite) mintToken(username string) string {
	claims := jwt.MapClaims{
		"username": username,
		"iss":      "accountd-test",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	s.Require().NoError(err)
	return signed
}

// auditActions returns the actions of all recorded audit events, in order.
func (s *ServiceSuite) auditActions() []string {
	var actions []string
	for _, e := range s.auditStore.All() {
		actions = append(actions, e.Action)
	}
	return actions
}
