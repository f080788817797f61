package jwtutil

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	TokenVersion int    `json:"tv"`
	Role         string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret    []byte
	ClockSkew time.Duration
	AccessTTL time.Duration
}

var (
	mu  sync.RWMutex
	cfg = Config{ClockSkew: time.Minute, AccessTTL: 15 * time.Minute}
)

// Configure installs the signing secret and TTLs. Call once at startup.
func Configure(c Config) {
	if c.ClockSkew <= 0 {
		c.ClockSkew = time.Minute
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = 15 * time.Minute
	}
	mu.Lock()
	cfg = c
	mu.Unlock()
}

func current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

func AccessTTL() time.Duration { return current().AccessTTL }

// SignAccess returns (tokenString, jti).
func SignAccess(userID, role string, tokenVersion int) (string, string, error) {
	c := current()
	if len(c.Secret) == 0 {
		return "", "", errors.New("jwt secret not configured")
	}
	jti, err := randJTI()
	if err != nil {
		return "", "", err
	}
	now := time.Now()
	claims := AccessClaims{
		TokenVersion: tokenVersion,
		Role:         role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.AccessTTL)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
	return s, jti, err
}

// ParseAccess verifies the HS256 signature and expiry with leeway.
func ParseAccess(tokenStr string) (*AccessClaims, error) {
	c := current()
	parser := jwt.NewParser(jwt.WithLeeway(c.ClockSkew), jwt.WithValidMethods([]string{"HS256"}))
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(*jwt.Token) (any, error) {
		return c.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func randJTI() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
