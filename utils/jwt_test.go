package utils

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "trader@example.com", "moderator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	userID, role, err := ExtractIdentityFromToken(token)
	if err != nil {
		t.Fatalf("ExtractIdentityFromToken: %v", err)
	}
	if userID != "user-1" || role != "moderator" {
		t.Fatalf("identity = (%s, %s), want (user-1, moderator)", userID, role)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("user-1", "trader@example.com", "user", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, _, err := ExtractIdentityFromToken(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := GenerateToken("user-1", "trader@example.com", "user", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// Corrupt the signature segment.
	tampered := token + "x"
	if _, _, err := ExtractIdentityFromToken(tampered); err == nil {
		t.Fatal("tampered token must be rejected")
	}

	if _, _, err := ExtractIdentityFromToken("not-a-token"); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}
