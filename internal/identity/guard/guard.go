// Package guard authorizes access to identity-keyed resources by comparing the
// identity a token claims against the identity a request targets.
package guard

import "accountd/internal/identity/models"

// Decision is the outcome of an ownership check. Deny is a normal, expected
// outcome (the caller asked for another party's data), not an error.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize compares the token-derived identity with the requested one.
// Both sides are lowercased first, so casing differences never deny access.
func Authorize(claimed models.AccessClaim, requestedUsername string) Decision {
	claimedName := models.NormalizeUsername(claimed.Username)
	requestedName := models.NormalizeUsername(requestedUsername)
	if claimedName == "" || claimedName != requestedName {
		return Deny
	}
	return Allow
}
