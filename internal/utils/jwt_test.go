package utils

import (
	"errors"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	signed, err := NewAccessToken("access-secret", "user-1", 15)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if signed.Token == "" {
		t.Fatal("empty token")
	}
	if remaining := time.Until(signed.Exp); remaining < 14*time.Minute || remaining > 15*time.Minute {
		t.Errorf("unexpected expiry %v", signed.Exp)
	}

	sub, err := VerifyToken("access-secret", signed.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "user-1" {
		t.Errorf("subject = %q, want user-1", sub)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	signed, err := NewAccessToken("access-secret", "user-1", 15)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	// An access token must not verify under the refresh secret.
	if _, err := VerifyToken("refresh-secret", signed.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	signed, err := newToken("s", "user-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyToken("s", signed.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	if _, err := VerifyToken("s", "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestHashTokenIsStableAndOpaque(t *testing.T) {
	a := HashToken("some-refresh-token")
	b := HashToken("some-refresh-token")
	if a != b {
		t.Error("hash not deterministic")
	}
	if a == "some-refresh-token" || len(a) != 64 {
		t.Errorf("unexpected hash %q", a)
	}
	if HashToken("other") == a {
		t.Error("distinct tokens collide")
	}
}
