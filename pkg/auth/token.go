package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/thriftdrop-backend/pkg/config"
)

// TokenAudience is stamped on every back-office access token.
const TokenAudience = "thriftdrop-admin"

const clockSkew = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

var (
	ErrTokenConfig  = errors.New("jwt config incomplete")
	ErrTokenPayload = errors.New("invalid token payload")
)

// MintAccessToken signs an HS256 token for payload that expires after the
// configured TTL. An empty JTI gets a fresh UUID; the JTI doubles as the
// session id checked by the auth middleware.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg); err != nil {
		return "", err
	}
	ttl := cfg.Expiration()
	if ttl <= 0 {
		return "", fmt.Errorf("%w: expiration must be positive", ErrTokenConfig)
	}
	if payload.AdminID == uuid.Nil {
		return "", fmt.Errorf("%w: admin id is required", ErrTokenPayload)
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("%w: role %q", ErrTokenPayload, payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := AccessTokenClaims{
		AdminID: payload.AdminID,
		Email:   payload.Email,
		Role:    payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.AdminID.String(),
			Audience:  jwt.ClaimStrings{TokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer, audience and expiry, allowing
// a small clock skew.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	claims := &AccessTokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	secret := []byte(cfg.Secret)
	if _, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return nil, err
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: role %q", ErrTokenPayload, claims.Role)
	}
	if claims.AdminID == uuid.Nil {
		return nil, fmt.Errorf("%w: admin id is required", ErrTokenPayload)
	}
	return claims, nil
}

func checkConfig(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return fmt.Errorf("%w: secret is required", ErrTokenConfig)
	case cfg.Issuer == "":
		return fmt.Errorf("%w: issuer is required", ErrTokenConfig)
	}
	return nil
}
