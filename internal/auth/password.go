package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// Digest is the unsalted SHA-256 hex digest the account sheet has always
// stored. Existing rows can only be verified against it.
func Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func HashPassword(scheme, secret string) (string, error) {
	if scheme == SchemeBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		return string(hash), nil
	}
	return Digest(secret), nil
}

// CheckPassword verifies secret against either stored format.
func CheckPassword(hash, secret string) bool {
	if hash == "" {
		return false
	}
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(hash)), []byte(Digest(secret))) == 1
}
