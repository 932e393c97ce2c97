package credential

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"accountd/internal/identity/models"
	"accountd/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) newRecord() models.CredentialRecord {
	return models.CredentialRecord{
		Username: "bob",
		Attributes: map[string]string{
			models.AttrGivenName:   "Bob",
			models.AttrFamilyName:  "Jones",
			models.AttrPhoneNumber: "+15550100",
		},
		ExternalID:    "ext-1",
		CorrelationID: "corr-1",
	}
}

func (s *InMemoryStoreSuite) TestCreate() {
	ctx := context.Background()

	s.Run("stores the record unconfirmed with a hashed secret", func() {
		s.Require().NoError(s.store.Create(ctx, s.newRecord(), "hunter2!"))

		rec, err := s.store.Get(ctx, "bob")
		s.Require().NoError(err)
		s.False(rec.Confirmed)
		s.NotEmpty(rec.SecretHash)
		s.NotEqual("hunter2!", rec.SecretHash)
		s.False(rec.CreatedAt.IsZero())
	})

	s.Run("duplicate username returns ErrConflict", func() {
		err := s.store.Create(ctx, s.newRecord(), "hunter2!")
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *InMemoryStoreSuite) TestConfirm() {
	ctx := context.Background()

	s.Run("flips the confirmation flag", func() {
		s.Require().NoError(s.store.Create(ctx, s.newRecord(), "hunter2!"))
		s.Require().NoError(s.store.Confirm(ctx, "bob"))

		rec, err := s.store.Get(ctx, "bob")
		s.Require().NoError(err)
		s.True(rec.Confirmed)
	})

	s.Run("unknown username returns ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Confirm(ctx, "ghost"), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestUpdateAttributes() {
	ctx := context.Background()

	s.Run("merges new values over existing ones", func() {
		s.Require().NoError(s.store.Create(ctx, s.newRecord(), "hunter2!"))
		s.Require().NoError(s.store.UpdateAttributes(ctx, "bob", map[string]string{
			models.AttrGivenName: "Robert",
		}))

		rec, err := s.store.Get(ctx, "bob")
		s.Require().NoError(err)
		s.Equal("Robert", rec.Attributes[models.AttrGivenName])
		s.Equal("Jones", rec.Attributes[models.AttrFamilyName])
	})

	s.Run("unknown username returns ErrNotFound", func() {
		err := s.store.UpdateAttributes(ctx, "ghost", map[string]string{models.AttrGivenName: "X"})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestDelete() {
	ctx := context.Background()

	s.Run("removes the record", func() {
		s.Require().NoError(s.store.Create(ctx, s.newRecord(), "hunter2!"))
		s.Require().NoError(s.store.Delete(ctx, "bob"))

		_, err := s.store.Get(ctx, "bob")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown username returns ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Delete(ctx, "ghost"), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestVerifySecret() {
	ctx := context.Background()

	s.Run("correct secret returns the record", func() {
		s.Require().NoError(s.store.Create(ctx, s.newRecord(), "hunter2!"))

		rec, err := s.store.VerifySecret(ctx, "bob", "hunter2!")
		s.Require().NoError(err)
		s.Equal("bob", rec.Username)
	})

	s.Run("wrong secret returns ErrSecretMismatch", func() {
		store := NewInMemoryStore()
		s.Require().NoError(store.Create(ctx, s.newRecord(), "hunter2!"))

		_, err := store.VerifySecret(ctx, "bob", "wrong")
		s.Require().ErrorIs(err, ErrSecretMismatch)
	})

	s.Run("unknown username returns ErrNotFound", func() {
		_, err := s.store.VerifySecret(ctx, "ghost", "hunter2!")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestGetReturnsACopy() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newRecord(), "hunter2!"))

	rec, err := s.store.Get(ctx, "bob")
	s.Require().NoError(err)
	rec.Attributes[models.AttrGivenName] = "Mallory"

	fresh, err := s.store.Get(ctx, "bob")
	s.Require().NoError(err)
	s.Equal("Bob", fresh.Attributes[models.AttrGivenName])
}
