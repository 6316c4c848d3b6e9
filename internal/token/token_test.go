package token

import (
	"net/url"
	"strings"
	"testing"
)

func TestConfirmTokenRoundTrip(t *testing.T) {
	t.Parallel()
	s := NewSigner(StaticSecret("secret-a"))

	tok := s.ConfirmToken("res-1", "ada@example.com")
	if len(tok) != 64 {
		t.Fatalf("want 64 hex chars, got %d", len(tok))
	}
	if !s.VerifyConfirm("res-1", "ada@example.com", tok) {
		t.Fatal("token should verify against its own inputs")
	}

	// Any change to the bound inputs invalidates the token.
	if s.VerifyConfirm("res-2", "ada@example.com", tok) {
		t.Fatal("token valid for a different reservation")
	}
	if s.VerifyConfirm("res-1", "eve@example.com", tok) {
		t.Fatal("token valid for a different email")
	}
	flip := byte('0')
	if tok[63] == '0' {
		flip = '1'
	}
	if s.VerifyConfirm("res-1", "ada@example.com", tok[:63]+string(flip)) {
		t.Fatal("tampered token accepted")
	}
}

func TestCancelTokenIsNotConfirmToken(t *testing.T) {
	t.Parallel()
	s := NewSigner(StaticSecret("secret-a"))

	cancel := s.CancelToken("res-1")
	if !s.VerifyCancel("res-1", cancel) {
		t.Fatal("cancel token should verify")
	}
	if s.VerifyConfirm("res-1", "ada@example.com", cancel) {
		t.Fatal("cancel token accepted as confirm token")
	}
	if s.VerifyCancel("res-1", s.ConfirmToken("res-1", "ada@example.com")) {
		t.Fatal("confirm token accepted as cancel token")
	}
}

func TestTokensDifferPerSecret(t *testing.T) {
	t.Parallel()
	a := NewSigner(StaticSecret("secret-a"))
	b := NewSigner(StaticSecret("secret-b"))

	tok := a.ConfirmToken("res-1", "ada@example.com")
	if b.VerifyConfirm("res-1", "ada@example.com", tok) {
		t.Fatal("token from one stage verified on another")
	}
}

func TestLinksCarryIDAndToken(t *testing.T) {
	t.Parallel()
	s := NewSigner(StaticSecret("secret-a"))

	link := s.ConfirmLink("https://tickets.example/v1/reservations/confirm", "res 1", "ada@example.com")
	if !strings.HasPrefix(link, "https://tickets.example/v1/reservations/confirm?") {
		t.Fatalf("unexpected link shape: %s", link)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	q := u.Query()
	if q.Get("id") != "res 1" {
		t.Fatalf("id not query-encoded: %s", link)
	}
	if !s.VerifyConfirm("res 1", "ada@example.com", q.Get("token")) {
		t.Fatal("embedded token does not verify")
	}

	cu, err := url.Parse(s.CancelLink("https://tickets.example/v1/reservations/cancel", "res-1"))
	if err != nil {
		t.Fatalf("cancel link does not parse: %v", err)
	}
	if !s.VerifyCancel("res-1", cu.Query().Get("token")) {
		t.Fatal("embedded cancel token does not verify")
	}
}
