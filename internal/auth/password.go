// Package auth provides password hashing and the stateless bearer tokens
// that authorize every transaction operation.
package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost matches the cost factor the rest of the system assumes.
const DefaultBcryptCost = 10

// HashPassword hashes a plaintext password with bcrypt. The plaintext is
// never stored or logged.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
