package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birbparty/birb-academy/sdk"
)

// serve runs the app on a loopback port and returns its base URL.
func (e *testEnv) serve(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = e.app.Listener(ln) }()
	t.Cleanup(func() { _ = e.app.ShutdownWithTimeout(5 * time.Second) })

	return "http://" + ln.Addr().String()
}

func TestSDK_RealMode(t *testing.T) {
	env := newTestEnv(t)
	baseURL := env.serve(t)
	ctx := context.Background()

	nav := &sdk.RecordingNavigator{}
	client, err := sdk.NewClient(sdk.DefaultConfig().
		WithBaseURL(baseURL).
		WithTimeout(10 * time.Second).
		WithSessionStore(sdk.NewMemorySessionStore()).
		WithNavigator(nav))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Users.Login(ctx, sdk.Credentials{Username: "johndoe", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, sdk.IsUnauthorized(err))
	assert.False(t, client.LoggedIn(ctx))

	login, err := client.Users.Login(ctx, sdk.Credentials{Username: "johndoe", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "johndoe", login.User.Username)
	assert.True(t, client.LoggedIn(ctx))

	profile, err := client.Users.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.ID)

	courses, err := client.Courses.GetAllCourses(ctx, &sdk.CourseFilters{Category: "development"})
	require.NoError(t, err)
	assert.Len(t, courses, 2)

	_, err = client.Courses.GetCourse(ctx, 99)
	assert.True(t, sdk.IsNotFound(err))

	enrolled, err := client.Courses.Enroll(ctx, sdk.EnrollRequest{CourseID: 2})
	require.NoError(t, err)
	assert.True(t, enrolled.Success)

	enrollments, err := client.Courses.GetEnrollments(ctx)
	require.NoError(t, err)
	assert.Len(t, enrollments, 3)

	updated, err := client.Courses.UpdateProgress(ctx, enrolled.EnrollmentID, 20, "m1", "l2")
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Progress)

	conv, err := client.Conversations.CreateConversation(ctx, sdk.CreateConversationRequest{
		InstructorID: 103,
		CourseID:     3,
		Subject:      "Pandas versions",
		Message:      "Which pandas version does the course use?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Priya Raman", conv.InstructorName)

	msg, err := client.Conversations.SendMessage(ctx, conv.ID, sdk.SendMessageRequest{Content: "Never mind, found it."})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, msg.ConversationID)

	_, err = client.Conversations.SendMessage(ctx, 2, sdk.SendMessageRequest{Content: "Hello?"})
	var apiErr *sdk.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	_, err = client.Subscriptions.CreateSubscription(ctx, sdk.CreateSubscriptionRequest{
		PlanType:        "monthly",
		PaymentMethodID: "pm_card_declined",
	})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, "Your card was declined.", apiErr.Message)
	assert.Equal(t, "card_declined", apiErr.Details)
	assert.True(t, client.LoggedIn(ctx), "a decline keeps the session")

	intent, err := client.Subscriptions.CreatePaymentIntent(ctx, sdk.PaymentIntentRequest{Amount: 89.99, PlanType: "annual", CourseID: 4})
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ClientSecret)

	require.NoError(t, client.Users.Logout(ctx))
	assert.False(t, client.LoggedIn(ctx))
	// Only the rejected first login forced a redirect.
	assert.Equal(t, []string{"/login"}, nav.Paths())
}

func TestSDK_UnauthorizedClearsSession(t *testing.T) {
	env := newTestEnv(t)
	baseURL := env.serve(t)
	ctx := context.Background()

	session := sdk.NewMemorySessionStore()
	nav := &sdk.RecordingNavigator{}
	client, err := sdk.NewClient(sdk.DefaultConfig().
		WithBaseURL(baseURL).
		WithSessionStore(session).
		WithNavigator(nav))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Users.Login(ctx, sdk.Credentials{Username: "janesmith", Password: testPassword})
	require.NoError(t, err)

	// Revoke the token behind the client's back.
	token, err := session.Token(ctx)
	require.NoError(t, err)
	status, _ := env.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	_, err = client.Subscriptions.GetUserSubscription(ctx)
	require.Error(t, err)
	assert.True(t, sdk.IsUnauthorized(err))
	assert.False(t, client.LoggedIn(ctx))
	assert.Equal(t, "/login", nav.Last())
}

func TestSDK_MockModeOverHTTPFixtures(t *testing.T) {
	env := newTestEnv(t)
	baseURL := env.serve(t)
	ctx := context.Background()

	client, err := sdk.NewClient(sdk.DefaultConfig().
		WithMock(true).
		WithFixtureLoader(sdk.NewHTTPFixtureLoader(baseURL, "/mock-data", nil)))
	require.NoError(t, err)
	defer client.Close()

	courses, err := client.Courses.GetAllCourses(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, courses, 4)
}
