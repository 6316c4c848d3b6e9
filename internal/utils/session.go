package utils // package utils provides helpers for admin session token creation

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminToken represents a signed admin session token along with its
// expiry. The Token field contains the JWT string; Exp stores the UTC
// expiration time. Sessions are scoped to a single performance via
// the "perf" claim.
type AdminToken struct {
	Token string
	Exp   time.Time
}

// NewAdminToken builds and signs an HS256 JWT scoped to one
// performance. The claims are: perf (performance id), exp and iat.
func NewAdminToken(secret, performanceID string, ttlMin int) (AdminToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"perf": performanceID,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AdminToken{}, err
	}
	return AdminToken{Token: signed, Exp: exp}, nil
}
