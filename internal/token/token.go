// Package token implements the keyed-hash scheme that authorizes
// confirmation and cancellation links without server-side session
// state. A confirmation token binds the reservation id and the
// requester's email to the stage secret; a cancellation token binds
// the id alone, so a forwarded confirmation mail cannot be replayed
// to cancel someone else's booking.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// SecretProvider returns the current HMAC signing secret. The secret
// is slow-changing; implementations may cache it for the lifetime of
// one invocation but should re-read across invocations.
type SecretProvider interface {
	LinkSecret() string
}

// StaticSecret is a SecretProvider over a value captured at process
// start, typically from the environment for the deployment stage.
type StaticSecret string

// LinkSecret returns the captured secret.
func (s StaticSecret) LinkSecret() string { return string(s) }

// Signer computes and verifies link tokens.
type Signer struct {
	secrets SecretProvider
}

// NewSigner returns a Signer using the given secret provider.
func NewSigner(secrets SecretProvider) *Signer {
	return &Signer{secrets: secrets}
}

// ConfirmToken returns the hex HMAC-SHA256 over reservationID ∥ email
// ∥ secret. Embedded in the confirmation link mailed at admission.
func (s *Signer) ConfirmToken(reservationID, email string) string {
	return s.sign(reservationID + email)
}

// CancelToken returns the hex HMAC-SHA256 over reservationID ∥
// secret. Embedded in the cancellation link mailed at confirmation.
func (s *Signer) CancelToken(reservationID string) string {
	return s.sign(reservationID)
}

// VerifyConfirm reports whether the presented token matches the
// recomputed confirmation token.
func (s *Signer) VerifyConfirm(reservationID, email, presented string) bool {
	return hmac.Equal([]byte(s.ConfirmToken(reservationID, email)), []byte(presented))
}

// VerifyCancel reports whether the presented token matches the
// recomputed cancellation token.
func (s *Signer) VerifyCancel(reservationID, presented string) bool {
	return hmac.Equal([]byte(s.CancelToken(reservationID)), []byte(presented))
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(s.secrets.LinkSecret()))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// ConfirmLink builds the full confirmation URL:
// <base>?id=<reservationId>&token=<hex HMAC>.
func (s *Signer) ConfirmLink(base, reservationID, email string) string {
	return buildLink(base, reservationID, s.ConfirmToken(reservationID, email))
}

// CancelLink builds the full cancellation URL with the email-less
// token scheme.
func (s *Signer) CancelLink(base, reservationID string) string {
	return buildLink(base, reservationID, s.CancelToken(reservationID))
}

func buildLink(base, id, tok string) string {
	v := url.Values{}
	v.Set("id", id)
	v.Set("token", tok)
	return base + "?" + v.Encode()
}
