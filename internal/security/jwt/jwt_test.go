package jwtutil

import (
	"testing"
	"time"
)

func TestSignParseRoundTrip(t *testing.T) {
	Configure(Config{Secret: []byte("0123456789abcdef0123456789abcdef"), AccessTTL: time.Minute})

	tok, jti, err := SignAccess("u-1", "admin", 4)
	if err != nil {
		t.Fatal(err)
	}
	c, err := ParseAccess(tok)
	if err != nil {
		t.Fatal(err)
	}
	if c.Subject != "u-1" || c.Role != "admin" || c.TokenVersion != 4 || c.ID != jti {
		t.Fatalf("claims = %+v", c)
	}
}

func TestParseRejectsOtherSecret(t *testing.T) {
	Configure(Config{Secret: []byte("first-secret-first-secret-first-s")})
	tok, _, err := SignAccess("u-1", "user", 1)
	if err != nil {
		t.Fatal(err)
	}
	Configure(Config{Secret: []byte("second-secret-second-secret-secon")})
	if _, err := ParseAccess(tok); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	Configure(Config{Secret: []byte("0123456789abcdef0123456789abcdef"), AccessTTL: time.Millisecond, ClockSkew: time.Nanosecond})
	tok, _, err := SignAccess("u-1", "user", 1)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := ParseAccess(tok); err == nil {
		t.Fatal("expected expiry failure")
	}
}
