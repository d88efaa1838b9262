package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/birbparty/birb-academy/internal/auth"
	"github.com/birbparty/birb-academy/internal/cache"
	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/queue"
	"github.com/birbparty/birb-academy/sdk"
)

const testPassword = "password123"

var (
	hashOnce sync.Once
	seedHash string
)

func testSeedHash(t testing.TB) string {
	t.Helper()
	hashOnce.Do(func() {
		var err error
		seedHash, err = auth.HashPassword(testPassword)
		require.NoError(t, err)
	})
	return seedHash
}

type testEnv struct {
	app         *fiber.App
	handler     *Handler
	tokens      *auth.TokenManager
	revocations *cache.MemoryRevocationList
	events      *queue.RecordingPublisher
	activity    *database.MemoryActivityLog
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()

	fixtures := sdk.EmbeddedFixtures()
	seed, err := database.LoadSeed(context.Background(), fixtures)
	require.NoError(t, err)

	catalog, err := LoadCatalog(context.Background(), fixtures)
	require.NoError(t, err)

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		tokens:      tokens,
		revocations: cache.NewMemoryRevocationList(),
		events:      queue.NewRecordingPublisher(),
		activity:    database.NewMemoryActivityLog(),
	}

	env.handler, err = NewHandler(Deps{
		Store:       database.NewMemoryStore(seed, testSeedHash(t)),
		Tokens:      tokens,
		Revocations: env.revocations,
		Events:      env.events,
		Fixtures:    fixtures,
		Catalog:     catalog,
		Activity:    env.activity,
	})
	require.NoError(t, err)

	env.app = NewApp(&Config{RequestTimeout: 5, AllowOrigins: "*", LogFormat: "json"}, env.handler)
	return env
}

// do sends a request and returns the status and body. body is JSON encoded
// unless it is already a string.
func (e *testEnv) do(t testing.TB, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// login returns a bearer token for a seeded user.
func (e *testEnv) login(t testing.TB, username string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: username, Password: testPassword})
	require.Equal(t, http.StatusOK, status, string(body))

	var resp sdk.LoginResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Token
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}
