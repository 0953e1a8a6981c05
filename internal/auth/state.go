package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultStateTTL はOAuth stateの有効期間。
const DefaultStateTTL = 10 * time.Minute

// ErrInvalidState はstateの署名・有効期限・形式が不正な場合のエラー。
var ErrInvalidState = errors.New("invalid oauth state")

// StateIssuer はCSRF対策用のOAuth stateを署名付きJWTとして発行・検証する。
type StateIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateIssuer はStateIssuerを生成する。ttlが0以下の場合はDefaultStateTTL。
func NewStateIssuer(secret string, ttl time.Duration) *StateIssuer {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue は新しいstateを発行する。
func (s *StateIssuer) Issue() (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        hex.EncodeToString(nonce),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// Verify はstateの署名と有効期限を検証する。
func (s *StateIssuer) Verify(state string) error {
	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{},
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}
