package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/carehub/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"
	id := Identity{UserID: 7, Username: "anna", Role: model.RoleVolunteer, VolunteerID: 3}

	token, err := GenerateToken(secret, id, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if got := claims.Identity(); got != id {
		t.Errorf("expected identity %+v, got %+v", id, got)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestTokenIDsUnique(t *testing.T) {
	id := Identity{UserID: 1, Username: "admin", Role: model.RoleAdmin}
	a, _ := GenerateToken("s", id, time.Hour)
	b, _ := GenerateToken("s", id, time.Hour)

	ca, _ := ValidateToken("s", a)
	cb, _ := ValidateToken("s", b)
	if ca.ID == cb.ID {
		t.Errorf("expected distinct token ids, got %q twice", ca.ID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", Identity{UserID: 1, Role: model.RoleAdmin}, time.Hour)

	if _, err := ValidateToken("secret2", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	claims := Claims{
		UserID: 1,
		Role:   model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "old",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))

	if _, err := ValidateToken("s", token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidateTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s"))

	if _, err := ValidateToken("s", token); err == nil {
		t.Error("expected error for HS512 token")
	}
}

func TestTokenExpiry(t *testing.T) {
	token, _ := GenerateToken("s", Identity{UserID: 1}, 0)
	claims, _ := ValidateToken("s", token)

	diff := time.Now().Add(DefaultTokenExpiry).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
