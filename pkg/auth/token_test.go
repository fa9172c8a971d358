package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/thriftdrop-backend/pkg/config"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "thriftdrop",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	adminID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{
		AdminID: adminID,
		Email:   "ops@thriftdrop.test",
		Role:    enums.AdminRoleAdmin,
		JTI:     "session-1",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, adminID, claims.AdminID)
	assert.Equal(t, enums.AdminRoleAdmin, claims.Role)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
	assert.Equal(t, "session-1", claims.ID)
	assert.Equal(t, jwt.ClaimStrings{TokenAudience}, claims.Audience)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{AdminID: uuid.New(), Role: enums.AdminRoleStaff})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestMintAccessTokenValidatesInput(t *testing.T) {
	cfg := testJWTConfig()

	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{AdminID: uuid.New(), Role: "superuser"})
	assert.ErrorIs(t, err, ErrTokenPayload)

	_, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.AdminRoleAdmin})
	assert.ErrorIs(t, err, ErrTokenPayload)

	cfg.ExpirationMinutes = 0
	_, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{AdminID: uuid.New(), Role: enums.AdminRoleAdmin})
	assert.ErrorIs(t, err, ErrTokenConfig)

	_, err = MintAccessToken(config.JWTConfig{Issuer: "x", ExpirationMinutes: 5}, time.Now(), AccessTokenPayload{AdminID: uuid.New(), Role: enums.AdminRoleAdmin})
	assert.ErrorIs(t, err, ErrTokenConfig)
}

func TestParseAccessTokenRejectsExpiredAndForeign(t *testing.T) {
	cfg := testJWTConfig()
	admin := AccessTokenPayload{AdminID: uuid.New(), Role: enums.AdminRoleAdmin}

	expired, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), admin)
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	fresh, err := MintAccessToken(cfg, time.Now(), admin)
	require.NoError(t, err)

	otherIssuer := cfg
	otherIssuer.Issuer = "someone-else"
	_, err = ParseAccessToken(otherIssuer, fresh)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)

	otherSecret := cfg
	otherSecret.Secret = "different"
	_, err = ParseAccessToken(otherSecret, fresh)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestParseAccessTokenRequiresAudience(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now()
	claims := AccessTokenClaims{
		AdminID: uuid.New(),
		Role:    enums.AdminRoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
}
