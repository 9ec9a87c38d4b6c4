package auth

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1", DefaultBcryptCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "secret1" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("hash does not look like bcrypt output: %q", hash)
	}

	if !CheckPassword("secret1", hash) {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashPassword_DefaultCost(t *testing.T) {
	// Zero cost falls back to the documented default instead of bcrypt's.
	hash, err := HashPassword("secret1", 0)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.Contains(hash, "$10$") {
		t.Fatalf("expected cost 10 in hash, got %q", hash)
	}
}
