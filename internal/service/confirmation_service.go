package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stencilmail/stencil-api/pkg/config"
	appErrors "github.com/stencilmail/stencil-api/pkg/errors"
)

const wipeTokenPurpose = "audit_clear_all"

type wipeClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// ConfirmationService issues and verifies the short-lived tokens that
// gate a full audit trail wipe. A token is bound to the requesting tenant
// and cannot authorise a wipe for any other.
type ConfirmationService struct {
	secret []byte
	ttl    time.Duration
}

// NewConfirmationService constructs a ConfirmationService.
func NewConfirmationService(cfg config.WipeConfig) *ConfirmationService {
	return &ConfirmationService{secret: []byte(cfg.TokenSecret), ttl: cfg.TokenTTL}
}

// TTL returns the configured token lifetime.
func (s *ConfirmationService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed confirmation token for the tenant.
func (s *ConfirmationService) Issue(tenantKey string) (string, error) {
	now := time.Now().UTC()
	claims := wipeClaims{
		Purpose: wipeTokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenantKey,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign confirmation token: %w", err)
	}
	return token, nil
}

// Verify checks the token's signature, expiry, purpose and tenant binding.
func (s *ConfirmationService) Verify(tokenString, tenantKey string) error {
	var claims wipeClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return appErrors.Clone(appErrors.ErrConfirmation, "")
	}
	if claims.Purpose != wipeTokenPurpose || claims.Subject != tenantKey {
		return appErrors.Clone(appErrors.ErrConfirmation, "")
	}
	return nil
}
