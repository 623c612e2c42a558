package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkscam/checkscam-backend/internal/app"
	"github.com/checkscam/checkscam-backend/internal/auth"
	"github.com/checkscam/checkscam-backend/internal/config"
	"github.com/checkscam/checkscam-backend/internal/domain"
)

const testSecret = "lookupctl-test-secret-at-least-32-chars"

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DATABASE_DSN", "postgres://unused@localhost:1/unused")
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("AUTH_JWT_ISSUER", "checkscam")
}

func noCore(context.Context, *config.Config, *slog.Logger) (*app.Core, error) {
	return nil, errors.New("storage not available in this test")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, noCore)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestToken_IssuesValidAdminToken(t *testing.T) {
	setTestEnv(t)

	userID := uuid.New()
	out, err := execute(t, "token", "--user", userID.String(), "--role", "admin")
	require.NoError(t, err)

	var resp map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, userID.String(), resp["userId"])

	gotID, role, err := auth.NewJWTManager(testSecret, "checkscam", 0).ValidateAccessToken(resp["accessToken"])
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestToken_RejectsBadInput(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "token", "--role", "root")
	assert.ErrorContains(t, err, "--role")

	_, err = execute(t, "token", "--user", "not-a-uuid")
	assert.ErrorContains(t, err, "--user")
}

func TestArgumentValidation(t *testing.T) {
	setTestEnv(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"invalidate unknown type", []string{"invalidate", "EMAIL", "x"}, domain.ErrValidation},
		{"audit unknown type", []string{"audit", "EMAIL", "x"}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := execute(t, "explain", "PHONE", "0912345678", "--actor", "nope")
	assert.ErrorContains(t, err, "--actor")

	_, err = execute(t, "lookup", "PHONE")
	assert.Error(t, err)
}

func TestStorageCommandsSurfaceOpenError(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "stats")
	assert.ErrorContains(t, err, "storage not available")
}

func TestConfigFlag_MissingFile(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "--config", "/nonexistent/lookupctl.yaml", "token")
	assert.ErrorContains(t, err, "/nonexistent/lookupctl.yaml")
}
