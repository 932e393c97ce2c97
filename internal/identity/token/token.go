// Package token decodes bearer access tokens into the identity they claim.
package token

import (
	"github.com/golang-jwt/jwt/v5"

	"accountd/internal/identity/models"
	derrors "accountd/pkg/domain-errors"
)

// Claims is the payload shape we expect inside an access token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Verifier checks a token's signature. The edge layer normally does this
// before the request reaches us, so the default Reader runs without one; wire
// a Verifier when the deployment has no trusted edge authorizer.
type Verifier interface {
	Keyfunc(token *jwt.Token) (any, error)
}

// HMACVerifier verifies HS256 signatures with a shared key.
type HMACVerifier struct {
	key []byte
}

func NewHMACVerifier(key []byte) HMACVerifier {
	return HMACVerifier{key: key}
}

func (v HMACVerifier) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, derrors.New(derrors.CodeUnauthorized, "unexpected signing method")
	}
	return v.key, nil
}

// Reader parses the structure of an already-issued bearer token and extracts
// the claimed identity. Without a Verifier it performs no signature
// verification: the issuing provider is trusted.
type Reader struct {
	parser   *jwt.Parser
	verifier Verifier
}

// Option configures a Reader.
type Option func(*Reader)

// WithVerifier makes the Reader verify signatures before trusting claims.
func WithVerifier(v Verifier) Option {
	return func(r *Reader) {
		r.verifier = v
	}
}

func NewReader(opts ...Option) *Reader {
	r := &Reader{
		parser: jwt.NewParser(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Read extracts the claimed identity from a bearer token string.
// The username is normalized so downstream comparisons are case-insensitive.
func (r *Reader) Read(tokenString string) (models.AccessClaim, error) {
	claims := &Claims{}

	if r.verifier != nil {
		parsed, err := jwt.ParseWithClaims(tokenString, claims, r.verifier.Keyfunc)
		if err != nil || !parsed.Valid {
			return models.AccessClaim{}, derrors.New(derrors.CodeUnauthorized, "malformed token")
		}
	} else {
		if _, _, err := r.parser.ParseUnverified(tokenString, claims); err != nil {
			return models.AccessClaim{}, derrors.New(derrors.CodeUnauthorized, "malformed token")
		}
	}

	if claims.Username == "" {
		return models.AccessClaim{}, derrors.New(derrors.CodeUnauthorized, "token missing username claim")
	}

	return models.AccessClaim{Username: models.NormalizeUsername(claims.Username)}, nil
}
