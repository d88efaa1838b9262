package sdk

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSessionStore runs the behaviour every SessionStore must share.
func testSessionStore(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token, "absent token is empty, not an error")

	user, err := store.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user, "absent user is nil, not an error")

	require.NoError(t, store.SetToken(ctx, "tok-1"))
	require.NoError(t, store.SetUser(ctx, json.RawMessage(`{"id":1,"username":"johndoe"}`)))

	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	user, err = store.User(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"username":"johndoe"}`, string(user))

	decoded, err := sessionUser(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "johndoe", decoded.Username)

	require.NoError(t, store.SetToken(ctx, "tok-2"))
	token, _ = store.Token(ctx)
	assert.Equal(t, "tok-2", token, "last write wins")

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clear is idempotent")

	token, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	user, err = store.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	decoded, err = sessionUser(ctx, store)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestMemorySessionStore(t *testing.T) {
	testSessionStore(t, NewMemorySessionStore())
}

func TestMemorySessionStore_UserIsCopied(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	raw := json.RawMessage(`{"id":1}`)
	require.NoError(t, store.SetUser(ctx, raw))
	raw[1] = 'X'

	got, err := store.User(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(got))
}

func TestMemorySessionStore_Concurrent(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.SetToken(ctx, "tok")
			_, _ = store.Token(ctx)
		}()
		go func() {
			defer wg.Done()
			_ = store.Clear(ctx)
		}()
	}
	wg.Wait()
}

func TestFileSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	testSessionStore(t, NewFileSessionStore(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cleared session removes the file")
}

func TestFileSessionStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	first := NewFileSessionStore(path)
	require.NoError(t, first.SetToken(ctx, "tok"))
	require.NoError(t, first.SetUser(ctx, json.RawMessage(`{"id":2}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"tok","user":{"id":2}}`, string(data))

	second := NewFileSessionStore(path)
	token, err := second.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestFileSessionStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := NewFileSessionStore(path)
	_, err := store.Token(context.Background())
	assert.Error(t, err)

	require.NoError(t, store.Clear(context.Background()), "clear recovers a corrupt file")
	token, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}
