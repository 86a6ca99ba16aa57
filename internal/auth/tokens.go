// Package auth issues and verifies the bearer tokens that identify the owner
// of every bookmark request.
package auth

import (
	"encoding/hex"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

const (
	tokenIssuer   = "marks-server"
	tokenAudience = "marks-client"

	keyBytesSize = 32
	keyHexSize   = 64
)

// TokenService handles PASETO v4.local tokens. The subject is the owner.
type TokenService struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
	now func() time.Time
}

// NewTokenService parses a 64 hex character symmetric key.
func NewTokenService(keyHex string, ttl time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("token key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for token key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &TokenService{key: key, ttl: ttl, now: time.Now}, nil
}

// GenerateKey returns a fresh random key in the format NewTokenService expects.
func GenerateKey() string {
	return paseto.NewV4SymmetricKey().ExportHex()
}

// Issue creates a token for owner.
func (s *TokenService) Issue(owner string) (string, error) {
	if owner == "" {
		return "", domain.Auth(domain.MsgUnauthorized)
	}

	now := s.now()
	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(owner)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.ttl))

	return token.V4Encrypt(s.key, nil), nil
}

// Verify returns the owner carried by token. Any failure is an auth error.
func (s *TokenService) Verify(token string) (string, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	parsed, err := parser.ParseV4Local(s.key, token, nil)
	if err != nil {
		return "", domain.Auth(domain.MsgUnauthorized)
	}

	owner, err := parsed.GetSubject()
	if err != nil || owner == "" {
		return "", domain.Auth(domain.MsgUnauthorized)
	}
	return owner, nil
}
