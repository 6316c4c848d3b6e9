package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAdminSecretRoundTrip(t *testing.T) {
	t.Parallel()
	hash, err := HashAdminSecret("open-sesame", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashAdminSecret: %v", err)
	}
	if hash == "open-sesame" {
		t.Fatal("secret stored in the clear")
	}
	if !VerifyAdminSecret(hash, "open-sesame") {
		t.Fatal("correct secret rejected")
	}
	if VerifyAdminSecret(hash, "open-says-me") {
		t.Fatal("wrong secret accepted")
	}
	if VerifyAdminSecret("not-a-hash", "open-sesame") {
		t.Fatal("garbage hash accepted")
	}
}
