package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/thriftdrop-backend/internal/auth"
	"github.com/angelmondragon/thriftdrop-backend/pkg/config"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
	"github.com/angelmondragon/thriftdrop-backend/pkg/security"
)

const passwordEnv = "THRIFTDROP_ADMIN_PASSWORD"

var errSessionsUnavailable = errors.New("sessions are not available in create-admin")

// offlineSessions satisfies the auth service without Redis; this command
// never logs anyone in.
type offlineSessions struct{}

func (offlineSessions) Open(context.Context, string, uuid.UUID) error { return errSessionsUnavailable }
func (offlineSessions) Revoke(context.Context, string) error          { return errSessionsUnavailable }

func main() {
	logg := logger.New(logger.Options{ServiceName: "create-admin"})
	_ = godotenv.Load()

	email := flag.String("email", "", "admin email")
	name := flag.String("name", "", "display name")
	role := flag.String("role", string(enums.AdminRoleStaff), "owner|admin|staff")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "create-admin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	parsedRole, err := enums.ParseAdminRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	password, err := readPassword()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "role": parsedRole})
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := auth.NewService(auth.ServiceParams{
		Admins:         auth.NewRepository(dbClient.DB()),
		SessionManager: offlineSessions{},
		Hasher:         security.NewHasher(cfg.Password),
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	admin, err := svc.CreateAdmin(ctx, auth.CreateAdminInput{
		Email:    *email,
		Name:     *name,
		Password: password,
		Role:     parsedRole,
	})
	if err != nil {
		logg.Error(ctx, "failed to create admin", err)
		os.Exit(1)
	}
	fmt.Printf("created admin %s (%s)\n", admin.Email, admin.ID)
}

// readPassword reads THRIFTDROP_ADMIN_PASSWORD, falling back to one line of stdin.
func readPassword() (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", fmt.Errorf("password required (set %s or type it on stdin)", passwordEnv)
	}
	return pw, nil
}
