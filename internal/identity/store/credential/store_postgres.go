package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"accountd/internal/identity/models"
	"accountd/pkg/platform/sentinel"
)

// uniqueViolation is the Postgres error code for a unique constraint failure.
const uniqueViolation = "23505"

// attributeColumns maps logical attribute names to their columns. Attribute
// updates outside this set are rejected rather than silently dropped.
var attributeColumns = map[string]string{
	models.AttrGivenName:   "given_name",
	models.AttrFamilyName:  "family_name",
	models.AttrPhoneNumber: "phone_number",
}

// PostgresStore persists credential records in PostgreSQL. This store is pure
// I/O; provisioning ordering and compensation belong in the service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the credential table when it does not exist yet.
// Deployments with managed migrations can skip this.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS credential_records (
			username       TEXT PRIMARY KEY,
			secret_hash    TEXT NOT NULL,
			given_name     TEXT NOT NULL,
			family_name    TEXT NOT NULL,
			phone_number   TEXT NOT NULL,
			external_id    TEXT NOT NULL,
			correlation_id TEXT NOT NULL,
			confirmed      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure credential schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec models.CredentialRecord, secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO credential_records
			(username, secret_hash, given_name, family_name, phone_number, external_id, correlation_id, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.Username,
		string(hash),
		rec.Attributes[models.AttrGivenName],
		rec.Attributes[models.AttrFamilyName],
		rec.Attributes[models.AttrPhoneNumber],
		rec.ExternalID,
		rec.CorrelationID,
		createdAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create credential record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Confirm(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE credential_records SET confirmed = TRUE WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("confirm credential record: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) UpdateAttributes(ctx context.Context, username string, attrs map[string]string) error {
	if len(attrs) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(attrs))
	args := []any{username}
	for name, value := range attrs {
		column, ok := attributeColumns[name]
		if !ok {
			return fmt.Errorf("unknown credential attribute %q", name)
		}
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	query := fmt.Sprintf(
		`UPDATE credential_records SET %s WHERE username = $1`,
		strings.Join(setClauses, ", "),
	)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update credential attributes: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Delete(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM credential_records WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete credential record: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Get(ctx context.Context, username string) (*models.CredentialRecord, error) {
	return s.scanOne(ctx, username)
}

func (s *PostgresStore) VerifySecret(ctx context.Context, username, secret string) (*models.CredentialRecord, error) {
	rec, err := s.scanOne(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.SecretHash), []byte(secret)); err != nil {
		return nil, ErrSecretMismatch
	}
	return rec, nil
}

func (s *PostgresStore) scanOne(ctx context.Context, username string) (*models.CredentialRecord, error) {
	query := `
		SELECT username, secret_hash, given_name, family_name, phone_number, external_id, correlation_id, confirmed, created_at
		FROM credential_records
		WHERE username = $1
	`
	var (
		rec                             models.CredentialRecord
		givenName, familyName, phoneNum string
	)
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&rec.Username,
		&rec.SecretHash,
		&givenName,
		&familyName,
		&phoneNum,
		&rec.ExternalID,
		&rec.CorrelationID,
		&rec.Confirmed,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get credential record: %w", err)
	}
	rec.Attributes = map[string]string{
		models.AttrGivenName:   givenName,
		models.AttrFamilyName:  familyName,
		models.AttrPhoneNumber: phoneNum,
	}
	return &rec, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
