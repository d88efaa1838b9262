package database

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birbparty/birb-academy/sdk"
)

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore(loadTestSeed(t), testHash))
}

func TestLoadSeed(t *testing.T) {
	seed := loadTestSeed(t)
	assert.Len(t, seed.Users, 3)
	assert.Len(t, seed.Enrollments, 3)
	assert.Len(t, seed.Conversations, 2)
	assert.Len(t, seed.Subscriptions, 2)
	for _, e := range seed.Enrollments {
		assert.NotNil(t, e.CompletedLessons)
	}
}

func TestLoadSeed_MissingFixture(t *testing.T) {
	loader := sdk.FixtureLoaderFunc(func(_ context.Context, name string) ([]byte, error) {
		if name == "conversations" {
			return nil, fmt.Errorf("gone")
		}
		return []byte(`[]`), nil
	})

	_, err := LoadSeed(context.Background(), loader)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversations")
}

func TestMemoryStore_Empty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil, "")

	u, err := store.CreateUser(ctx, &UserRecord{User: sdk.User{Username: "a", Email: "a@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = store.SubscriptionForUser(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(loadTestSeed(t), testHash)

	c, err := store.GetConversation(ctx, 1)
	require.NoError(t, err)
	c.Messages[0].Content = "changed"
	c.Messages = append(c.Messages, sdk.Message{ID: 99})

	again, err := store.GetConversation(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, again.Messages, 2)
	assert.NotEqual(t, "changed", again.Messages[0].Content)

	e, err := store.GetEnrollment(ctx, 1)
	require.NoError(t, err)
	e.CompletedLessons[0] = "changed"

	e, err = store.GetEnrollment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "l1", e.CompletedLessons[0])
}

func TestMemoryStore_ConcurrentEnrollments(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(loadTestSeed(t), testHash)

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.CreateEnrollment(ctx, 2, 4)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var created, conflicts int
	for err := range results {
		switch err {
		case nil:
			created++
		case ErrConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 19, conflicts)
}
