package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("U1", "admin", "s3cret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ValidateToken(token, "s3cret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "U1" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	good, _ := GenerateToken("U1", "", "s3cret", time.Hour)
	expired, _ := GenerateToken("U1", "", "s3cret", -time.Minute)
	noSubject, _ := GenerateToken("", "", "s3cret", time.Hour)

	tests := map[string]struct {
		token  string
		secret string
	}{
		"wrong secret": {good, "other"},
		"expired":      {expired, "s3cret"},
		"no subject":   {noSubject, "s3cret"},
		"garbage":      {"not.a.token", "s3cret"},
		"empty secret": {good, ""},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ValidateToken(tt.token, tt.secret); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEmptySecretIsRejected(t *testing.T) {
	if _, err := GenerateToken("U1", "admin", "", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("GenerateToken error = %v, want ErrMissingSecret", err)
	}

	// A token signed with an empty HMAC key must not validate either.
	claims := jwt.MapClaims{"sub": "U1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(""))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	if _, err := ValidateToken(forged, ""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("ValidateToken error = %v, want ErrMissingSecret", err)
	}
}
