package credentials

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	HashVersionBcrypt = "bcrypt"
)

var errPasswordTooShort = errors.New("password too short")

// HashPassword hashes a plaintext password using bcrypt. Accounts are
// provisioned outside this service; the function exists for seeding and tests.
func HashPassword(password string) (hash string, version string, err error) {
	if len(password) < 8 {
		return "", "", errPasswordTooShort
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	return string(bytes), HashVersionBcrypt, nil
}

// VerifyPassword compares plaintext password with stored hash.
func VerifyPassword(c *Credential, password string) error {
	if c.HashVersion != HashVersionBcrypt {
		return ErrInvalidCredentials
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
}
