package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestParse_ValidHS256(t *testing.T) {
	secret := []byte("test-secret")
	token, err := Issue(secret, Claims{
		UserID:   1,
		Username: "admin",
		Role:     "admin",
	}, 8*time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := Parse(secret, token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "admin" || !claims.IsAdmin() {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParse_RejectsExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := Issue(secret, Claims{
		UserID:   2,
		Username: "tech1",
		Role:     "tech",
	}, -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := Parse(secret, token); err == nil {
		t.Fatal("expected parse to reject expired token")
	}
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	token, err := Issue([]byte("secret-a"), Claims{
		UserID:   3,
		Username: "tech2",
		Role:     "tech",
	}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := Parse([]byte("secret-b"), token); err == nil {
		t.Fatal("expected parse to reject token signed with another secret")
	}
}

func TestParse_RejectsUnexpectedAlgorithm(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()
	claims := Claims{
		UserID:   1,
		Username: "admin",
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   "admin",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS384, claims)
	tokenStr, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	if _, err := Parse(secret, tokenStr); err == nil {
		t.Fatal("expected parse to reject non-HS256 token")
	}
}
