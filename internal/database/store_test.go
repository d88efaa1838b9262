package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birbparty/birb-academy/sdk"
)

const testHash = "$2a$10$not-a-real-hash"

func loadTestSeed(t *testing.T) *Seed {
	t.Helper()
	seed, err := LoadSeed(context.Background(), sdk.EmbeddedFixtures())
	require.NoError(t, err)
	return seed
}

func strPtr(s string) *string { return &s }

// testStore runs the behaviour every Store must share against a store seeded
// with the bundled fixtures. Steps build on each other and run in order.
func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		rec, err := store.UserByUsername(ctx, "JohnDoe")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rec.ID)
		assert.Equal(t, testHash, rec.PasswordHash)

		rec, err = store.UserByEmail(ctx, "JANE@example.com")
		require.NoError(t, err)
		assert.Equal(t, "janesmith", rec.Username)

		u, err := store.UserByID(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, "instructor", u.Role)

		_, err = store.UserByID(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.UserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create user", func(t *testing.T) {
		_, err := store.CreateUser(ctx, &UserRecord{
			User:         sdk.User{Username: "johndoe", Email: "other@example.com", Role: "student"},
			PasswordHash: testHash,
		})
		assert.ErrorIs(t, err, ErrConflict)

		_, err = store.CreateUser(ctx, &UserRecord{
			User:         sdk.User{Username: "someone", Email: "john@example.com", Role: "student"},
			PasswordHash: testHash,
		})
		assert.ErrorIs(t, err, ErrConflict)

		u, err := store.CreateUser(ctx, &UserRecord{
			User:         sdk.User{Username: "newbie", Email: "newbie@example.com", FirstName: "New", Role: "student"},
			PasswordHash: testHash,
		})
		require.NoError(t, err)
		assert.Greater(t, u.ID, int64(101))

		rec, err := store.UserByUsername(ctx, "newbie")
		require.NoError(t, err)
		assert.Equal(t, u.ID, rec.ID)
		assert.Equal(t, testHash, rec.PasswordHash)
	})

	t.Run("update user", func(t *testing.T) {
		u, err := store.UpdateUser(ctx, 1, sdk.ProfileUpdate{FirstName: strPtr("Johnny"), Bio: strPtr("")})
		require.NoError(t, err)
		assert.Equal(t, "Johnny", u.FirstName)
		assert.Equal(t, "Doe", u.LastName)
		assert.Equal(t, "john@example.com", u.Email)
		assert.Empty(t, u.Bio)

		_, err = store.UpdateUser(ctx, 1, sdk.ProfileUpdate{Email: strPtr("jane@example.com")})
		assert.ErrorIs(t, err, ErrConflict)

		_, err = store.UpdateUser(ctx, 999, sdk.ProfileUpdate{FirstName: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("enrollments", func(t *testing.T) {
		list, err := store.ListEnrollments(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, int64(1), list[0].ID)
		assert.Equal(t, int64(2), list[1].ID)

		empty, err := store.ListEnrollments(ctx, 999)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		_, err = store.CreateEnrollment(ctx, 1, 1)
		assert.ErrorIs(t, err, ErrConflict)

		e, err := store.CreateEnrollment(ctx, 1, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(4), e.CourseID)
		assert.Zero(t, e.Progress)
		assert.NotNil(t, e.CompletedLessons)

		got, err := store.GetEnrollment(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.UserID)

		_, err = store.GetEnrollment(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("progress", func(t *testing.T) {
		e, err := store.UpdateProgress(ctx, 1, sdk.ProgressUpdate{Progress: 60, ModuleID: "m2", LessonID: "l4"})
		require.NoError(t, err)
		assert.Equal(t, 60, e.Progress)
		assert.Equal(t, "m2", e.CurrentModuleID)
		assert.Equal(t, "l4", e.CurrentLessonID)
		assert.ElementsMatch(t, []string{"l1", "l2", "l3"}, e.CompletedLessons)

		again, err := store.UpdateProgress(ctx, 1, sdk.ProgressUpdate{Progress: 65, ModuleID: "m2", LessonID: "l4"})
		require.NoError(t, err)
		assert.Len(t, again.CompletedLessons, 3, "staying on a lesson does not complete it")

		stored, err := store.GetEnrollment(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 65, stored.Progress)

		_, err = store.UpdateProgress(ctx, 999, sdk.ProgressUpdate{Progress: 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("conversations", func(t *testing.T) {
		list, err := store.ListConversations(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Len(t, list[0].Messages, 2)
		assert.Len(t, list[1].Messages, 1)

		c, err := store.GetConversation(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "closed", c.Status)

		_, err = store.GetConversation(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)

		created, err := store.CreateConversation(ctx, &sdk.Conversation{
			UserID:         2,
			InstructorID:   102,
			InstructorName: "Marcus Webb",
			CourseID:       2,
			Subject:        "Color palettes",
		}, "Which palette tool do you recommend?")
		require.NoError(t, err)
		assert.Equal(t, ConversationOpen, created.Status)
		require.Len(t, created.Messages, 1)
		assert.Equal(t, SenderStudent, created.Messages[0].SenderType)
		assert.Equal(t, int64(2), created.Messages[0].SenderID)
		assert.Equal(t, created.ID, created.Messages[0].ConversationID)

		mine, err := store.ListConversations(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})

	t.Run("messages", func(t *testing.T) {
		m, err := store.AddMessage(ctx, &sdk.Message{
			ConversationID: 1,
			SenderID:       1,
			SenderType:     SenderStudent,
			Content:        "Thanks, that fixed it.",
		})
		require.NoError(t, err)
		assert.Greater(t, m.ID, int64(3))
		assert.False(t, m.CreatedAt.IsZero())

		c, err := store.GetConversation(ctx, 1)
		require.NoError(t, err)
		require.Len(t, c.Messages, 3)
		assert.Equal(t, "Thanks, that fixed it.", c.Messages[2].Content)

		_, err = store.AddMessage(ctx, &sdk.Message{ConversationID: 999, Content: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("subscriptions", func(t *testing.T) {
		sub, err := store.SubscriptionForUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), sub.ID)
		assert.Equal(t, "monthly", sub.PlanType)
		assert.NotNil(t, sub.CurrentPeriodEnd)

		_, err = store.SubscriptionForUser(ctx, 101)
		assert.ErrorIs(t, err, ErrNotFound)

		created, err := store.CreateSubscription(ctx, &sdk.Subscription{
			UserID:     1,
			CourseID:   4,
			PlanType:   "annual",
			Status:     SubscriptionIncomplete,
			CustomerID: "cus_1",
		})
		require.NoError(t, err)
		assert.Greater(t, created.ID, int64(2))

		latest, err := store.SubscriptionForUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, created.ID, latest.ID)

		canceled, err := store.SetSubscriptionStatus(ctx, created.ID, SubscriptionCanceled)
		require.NoError(t, err)
		assert.Equal(t, SubscriptionCanceled, canceled.Status)

		got, err := store.GetSubscription(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, SubscriptionCanceled, got.Status)

		_, err = store.SetSubscriptionStatus(ctx, 999, SubscriptionCanceled)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetSubscription(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, store.Health(ctx))
	})
}
