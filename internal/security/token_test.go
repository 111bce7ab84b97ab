package security

import (
	"bytes"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("test-secret", "user-1", "session-1", "admin", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseAccessToken(token, "test-secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("user id = %q, want user-1", claims.UserID)
	}
	if claims.SessionID != "session-1" {
		t.Errorf("session id = %q, want session-1", claims.SessionID)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %q, want admin", claims.Role)
	}
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("test-secret", "user-1", "session-1", "user", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseAccessToken(token, "other-secret"); err == nil {
		t.Fatal("token accepted with wrong secret")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken("test-secret", "user-1", "session-1", "user", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseAccessToken(token, "test-secret"); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	token, hash, err := GenerateRefreshToken(64)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if !bytes.Equal(hash, HashRefreshToken(token)) {
		t.Fatal("returned hash does not match token")
	}

	other, _, err := GenerateRefreshToken(64)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == other {
		t.Fatal("two refresh tokens are identical")
	}
}
