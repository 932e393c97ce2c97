// Package models holds the identity domain types shared by stores, services
// and transport.
package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	derrors "accountd/pkg/domain-errors"
)

// Attribute names shared between the credential store and the profile store.
// The same logical field must use the same name in both, or a sync update
// would diverge the two records.
const (
	AttrGivenName   = "given_name"
	AttrFamilyName  = "family_name"
	AttrPhoneNumber = "phone_number"
)

// phonePattern is the E.164 shape: 1 to 15 digits. The leading "+" is added
// during normalization, so only digits are matched here.
const phonePattern = `^[0-9]{1,15}$`

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeUsername lowercases a username so that the same logical user keys
// both stores regardless of the casing the caller supplied.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ProvisioningRequest is the immutable input aggregate for one registration
// attempt. Build it with NewProvisioningRequest so normalization and the
// correlation ID are never skipped.
type ProvisioningRequest struct {
	Username      string
	Secret        string
	PhoneNumber   string
	GivenName     string
	FamilyName    string
	ExternalID    string
	CorrelationID string
}

// NewProvisioningRequest validates raw registration input and returns a
// normalized request: username lowercased, phone whitespace-stripped and
// "+"-prefixed, correlation ID freshly generated.
func NewProvisioningRequest(username, secret, phone, givenName, familyName, externalID string) (ProvisioningRequest, error) {
	req := ProvisioningRequest{
		Username:      NormalizeUsername(username),
		Secret:        secret,
		PhoneNumber:   NormalizePhoneNumber(phone),
		GivenName:     givenName,
		FamilyName:    familyName,
		ExternalID:    externalID,
		CorrelationID: uuid.NewString(),
	}
	if err := req.Validate(); err != nil {
		return ProvisioningRequest{}, err
	}
	return req, nil
}

// NormalizePhoneNumber strips whitespace and ensures a single leading "+".
func NormalizePhoneNumber(phone string) string {
	phone = whitespace.ReplaceAllString(phone, "")
	return "+" + strings.TrimPrefix(phone, "+")
}

// Validate enforces the registration preconditions. It must pass before any
// store is touched; a violation means the attempt had no external side effects.
func (r ProvisioningRequest) Validate() error {
	if r.Username == "" || r.Secret == "" || r.PhoneNumber == "" || r.GivenName == "" || r.FamilyName == "" || r.ExternalID == "" {
		return derrors.New(derrors.CodeBadRequest, "all registration fields are required")
	}
	if !govalidator.StringLength(r.GivenName, "1", "20") {
		return derrors.New(derrors.CodeBadRequest, "given name must be at most 20 characters")
	}
	if !govalidator.StringLength(r.FamilyName, "1", "20") {
		return derrors.New(derrors.CodeBadRequest, "family name must be at most 20 characters")
	}
	digits := strings.TrimPrefix(r.PhoneNumber, "+")
	if !govalidator.Matches(digits, phonePattern) {
		return derrors.New(derrors.CodeBadRequest, "phone number must be E.164: + followed by 1-15 digits")
	}
	return nil
}

// Attributes returns the provider-side attribute set mirrored into the
// profile store on success.
func (r ProvisioningRequest) Attributes() map[string]string {
	return map[string]string{
		AttrGivenName:   r.GivenName,
		AttrFamilyName:  r.FamilyName,
		AttrPhoneNumber: r.PhoneNumber,
	}
}

// CredentialRecord is the credential store's view of a user. The store owns it
// exclusively once created; the saga only transitions its confirmation state
// or deletes it during compensation.
type CredentialRecord struct {
	Username      string
	SecretHash    string
	Attributes    map[string]string
	ExternalID    string
	CorrelationID string
	Confirmed     bool
	CreatedAt     time.Time
}

// ProfileRecord is the denormalized, query-side mirror of a confirmed
// credential record, keyed by username.
type ProfileRecord struct {
	Username      string `json:"username"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	PhoneNumber   string `json:"phone_number"`
	ExternalID    string `json:"id"`
	CorrelationID string `json:"_id"`
}

// NewProfileRecord builds the profile mirror for a validated request.
func NewProfileRecord(req ProvisioningRequest) ProfileRecord {
	return ProfileRecord{
		Username:      req.Username,
		GivenName:     req.GivenName,
		FamilyName:    req.FamilyName,
		PhoneNumber:   req.PhoneNumber,
		ExternalID:    req.ExternalID,
		CorrelationID: req.CorrelationID,
	}
}

// ApplyField sets a named profile field in place. Unknown fields are rejected
// so a credential attribute can never be "synced" into nothing.
func (p *ProfileRecord) ApplyField(field, value string) error {
	switch field {
	case AttrGivenName:
		p.GivenName = value
	case AttrFamilyName:
		p.FamilyName = value
	case AttrPhoneNumber:
		p.PhoneNumber = value
	default:
		return derrors.New(derrors.CodeBadRequest, "unknown profile field: "+field)
	}
	return nil
}

// AccessClaim is the identity extracted from a decoded bearer token for the
// duration of a single request. Never persisted.
type AccessClaim struct {
	Username string
}
