package utils

import "golang.org/x/crypto/bcrypt"

// HashAdminSecret returns the bcrypt hash of a performance's shared
// administrative secret. Only the hash is stored.
func HashAdminSecret(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyAdminSecret safely compares the stored hash with a presented
// secret.
func VerifyAdminSecret(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
