package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenRoundTrip(t *testing.T) {
    secret := "test-secret"
    at, err := NewAccessToken(secret, 42, "STAFF", 15)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if at.Token == "" {
        t.Fatal("empty token")
    }
    if !at.Exp.After(time.Now()) {
        t.Error("expiry is not in the future")
    }

    tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        t.Fatalf("parse failed: %v", err)
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        t.Fatal("claims are not MapClaims")
    }
    if claims["role"] != "STAFF" {
        t.Errorf("role = %v, want STAFF", claims["role"])
    }
    if sub, ok := claims["sub"].(float64); !ok || uint64(sub) != 42 {
        t.Errorf("sub = %v, want 42", claims["sub"])
    }
}

func TestNewAccessTokenWrongSecret(t *testing.T) {
    at, err := NewAccessToken("right", 1, "CUSTOMER", 15)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
        return []byte("wrong"), nil
    })
    if err == nil && tok.Valid {
        t.Error("token validated with the wrong secret")
    }
}

func TestNewRefreshToken(t *testing.T) {
    a, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    b, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if len(a.Raw) != 96 {
        t.Errorf("raw length = %d, want 96", len(a.Raw))
    }
    if a.Raw == b.Raw {
        t.Error("two refresh tokens are identical")
    }
    if !a.Exp.After(time.Now().Add(6 * 24 * time.Hour)) {
        t.Error("expiry is sooner than expected")
    }
}

func TestPasswordHashAndVerify(t *testing.T) {
    hash, err := HashPassword("s3cret", 4)
    if err != nil {
        t.Fatalf("HashPassword: %v", err)
    }
    if !VerifyPassword(hash, "s3cret") {
        t.Error("correct password rejected")
    }
    if VerifyPassword(hash, "wrong") {
        t.Error("wrong password accepted")
    }
}
