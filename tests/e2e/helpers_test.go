//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/checkscam/checkscam-backend/internal/adapter/postgres/testhelper"
	"github.com/checkscam/checkscam-backend/internal/app"
	"github.com/checkscam/checkscam-backend/internal/auth"
	"github.com/checkscam/checkscam-backend/internal/config"
	"github.com/checkscam/checkscam-backend/internal/domain"
	"github.com/checkscam/checkscam-backend/internal/transport/middleware"
)

const (
	jwtSecret = "e2e-secret-at-least-32-characters-long"
	jwtIssuer = "checkscam-e2e"
)

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	jwt    *auth.JWTManager
}

// testLogWriter routes slog output through t.Log.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer runs the full HTTP stack against the shared PostgreSQL
// container. The LRU tier is on so requests exercise the same store chain
// as production.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)

	cfg := &config.Config{
		Database: config.DatabaseConfig{DSN: testhelper.DSN(), MaxConns: 10},
		Auth: config.AuthConfig{
			JWTSecret:      jwtSecret,
			JWTIssuer:      jwtIssuer,
			AccessTokenTTL: 15 * time.Minute,
		},
		Lookup: config.LookupConfig{
			CacheBackend:    config.CacheBackendPostgres,
			MemoryCacheSize: 128,
			MemoryCacheTTL:  time.Minute,
		},
		RateLimit: config.RateLimitConfig{LookupPerMinute: 0},
		CORS:      config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST,DELETE", AllowedHeaders: "Authorization"},
	}

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	core, err := app.NewCore(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(core.Close)

	limiter := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(limiter.Stop)

	srv := httptest.NewServer(app.NewHandler(core, limiter))
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		jwt:    auth.NewJWTManager(jwtSecret, jwtIssuer, 15*time.Minute),
	}
}

func (ts *testServer) token(t *testing.T, role domain.Role) string {
	t.Helper()
	token, err := ts.jwt.GenerateAccessToken(uuid.New(), role)
	require.NoError(t, err)
	return token
}

// do sends a request and decodes a JSON object response into out when out
// is non-nil. It returns the status code.
func (ts *testServer) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func countCacheRows(t *testing.T, pool *pgxpool.Pool, et domain.EntityType, value string) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(),
		"SELECT count(*) FROM lookup_cache WHERE entity_type = $1 AND value = $2", string(et), value,
	).Scan(&n)
	require.NoError(t, err)
	return n
}
