package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/thriftdrop-backend/internal/testutil"
	pkgAuth "github.com/angelmondragon/thriftdrop-backend/pkg/auth"
	"github.com/angelmondragon/thriftdrop-backend/pkg/config"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
	"github.com/angelmondragon/thriftdrop-backend/pkg/security"
)

type stubSessions struct {
	open    map[string]uuid.UUID
	revoked []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{open: map[string]uuid.UUID{}}
}

func (s *stubSessions) Open(_ context.Context, accessID string, adminID uuid.UUID) error {
	s.open[accessID] = adminID
	return nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	delete(s.open, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "thriftdrop",
	ExpirationMinutes: 60,
}

type harness struct {
	svc      Service
	repo     *Repository
	sessions *stubSessions
	now      time.Time
}

func newHarness(t *testing.T, hasher security.Hasher) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)
	sessions := newStubSessions()
	now := time.Now().UTC().Truncate(time.Second)

	svc, err := NewService(ServiceParams{
		Admins:         repo,
		SessionManager: sessions,
		Hasher:         hasher,
		JWTConfig:      testJWTConfig,
		Now:            func() time.Time { return now },
	})
	require.NoError(t, err)
	return &harness{svc: svc, repo: repo, sessions: sessions, now: now}
}

func (h *harness) createAdmin(t *testing.T, email, password string) *AdminDTO {
	t.Helper()
	admin, err := h.svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email:    email,
		Name:     "Back Office",
		Password: password,
		Role:     enums.AdminRoleAdmin,
	})
	require.NoError(t, err)
	return admin
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestLoginIssuesTokenAndOpensSession(t *testing.T) {
	h := newHarness(t, security.NewHasher(testPasswordConfig))
	admin := h.createAdmin(t, "Ops@ThriftDrop.test", "correct horse battery")

	resp, err := h.svc.Login(context.Background(), LoginRequest{
		Email:    "  ops@thriftdrop.test ",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, resp.Admin.ID)
	assert.Equal(t, "ops@thriftdrop.test", resp.Admin.Email)
	require.NotNil(t, resp.Admin.LastLoginAt)
	assert.Equal(t, h.now.Add(time.Hour), resp.ExpiresAt)

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.AdminID)
	assert.Equal(t, enums.AdminRoleAdmin, claims.Role)
	assert.Equal(t, admin.ID, h.sessions.open[claims.ID])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t, security.NewHasher(testPasswordConfig))
	h.createAdmin(t, "ops@thriftdrop.test", "correct horse battery")

	cases := []LoginRequest{
		{Email: "ops@thriftdrop.test", Password: "wrong password"},
		{Email: "nobody@thriftdrop.test", Password: "correct horse battery"},
		{Email: "", Password: "correct horse battery"},
	}
	for _, req := range cases {
		_, err := h.svc.Login(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	}
	assert.Empty(t, h.sessions.open)
}

func TestLoginRejectsInactiveAdmin(t *testing.T) {
	h := newHarness(t, security.NewHasher(testPasswordConfig))
	admin := h.createAdmin(t, "ops@thriftdrop.test", "correct horse battery")

	db := h.repo.db
	require.NoError(t, db.Exec("UPDATE admin_users SET is_active = ? WHERE id = ?", false, admin.ID).Error)

	_, err := h.svc.Login(context.Background(), LoginRequest{Email: admin.Email, Password: "correct horse battery"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLoginUpgradesOutdatedHash(t *testing.T) {
	h := newHarness(t, security.NewHasher(testPasswordConfig))
	admin := h.createAdmin(t, "ops@thriftdrop.test", "correct horse battery")

	stronger := testPasswordConfig
	stronger.ArgonTime = 2
	upgraded := security.NewHasher(stronger)
	svc, err := NewService(ServiceParams{
		Admins:         h.repo,
		SessionManager: h.sessions,
		Hasher:         upgraded,
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: admin.Email, Password: "correct horse battery"})
	require.NoError(t, err)

	stored, err := h.repo.FindByEmail(context.Background(), admin.Email)
	require.NoError(t, err)
	assert.False(t, upgraded.NeedsRehash(stored.PasswordHash))
}

func TestLogoutRevokesSession(t *testing.T) {
	h := newHarness(t, security.NewHasher(testPasswordConfig))
	h.sessions.open["access-1"] = uuid.New()

	require.NoError(t, h.svc.Logout(context.Background(), "access-1"))
	assert.Equal(t, []string{"access-1"}, h.sessions.revoked)

	err := h.svc.Logout(context.Background(), " ")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestCreateAdminValidation(t *testing.T) {
	h := newHarness(t, security.NewHasher(testPasswordConfig))
	h.createAdmin(t, "ops@thriftdrop.test", "correct horse battery")

	_, err := h.svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email: "OPS@thriftdrop.test", Name: "Dup", Password: "correct horse battery", Role: enums.AdminRoleStaff,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	_, err = h.svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email: "new@thriftdrop.test", Name: "Short", Password: "short", Role: enums.AdminRoleStaff,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = h.svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email: "new@thriftdrop.test", Name: "Role", Password: "correct horse battery", Role: enums.AdminRole("janitor"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
