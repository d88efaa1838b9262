package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birbparty/birb-academy/internal/queue"
	"github.com/birbparty/birb-academy/sdk"
)

func TestAuth_Login(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "johndoe", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, ErrCodeUnauthorized, decode[ErrorResponse](t, body).Code)

	status, _ = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "nobody", Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "johndoe", Password: testPassword})
	require.Equal(t, http.StatusOK, status)
	resp := decode[sdk.LoginResponse](t, body)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(1), resp.User.ID)
	assert.Equal(t, "john@example.com", resp.User.Email)
	assert.NotContains(t, string(body), "password")

	claims, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID())

	status, body = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "jane@example.com", Password: testPassword})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "janesmith", decode[sdk.LoginResponse](t, body).User.Username)

	status, body = env.do(t, http.MethodPost, "/auth/login", "", `{"username":" ","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ErrCodeInvalidRequest, decode[ErrorResponse](t, body).Code)

	status, _ = env.do(t, http.MethodPost, "/auth/login", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuth_RequireToken(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing", "", "Missing bearer token"},
		{"garbage", "Bearer not-a-token", "Invalid token"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "Missing bearer token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := env.app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			var errResp ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.Equal(t, tt.message, errResp.Error)
			assert.Equal(t, ErrCodeUnauthorized, errResp.Code)
		})
	}
}

func TestAuth_Logout(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "johndoe")

	status, _ := env.do(t, http.MethodGet, "/users/profile", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[sdk.StatusResponse](t, body).Success)
	assert.Equal(t, 1, env.revocations.Len())

	status, body = env.do(t, http.MethodGet, "/users/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked", decode[ErrorResponse](t, body).Error)

	// A fresh login is unaffected.
	status, _ = env.do(t, http.MethodGet, "/users/profile", env.login(t, "johndoe"), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuth_Signup(t *testing.T) {
	env := newTestEnv(t)

	req := SignupRequest{
		Username:  "newbird",
		Email:     "newbird@example.com",
		Password:  "longenough",
		FirstName: "New",
		LastName:  "Bird",
	}
	status, body := env.do(t, http.MethodPost, "/auth/signup", "", req)
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, sdk.StatusResponse{Success: true, Message: "User registered successfully"}, decode[sdk.StatusResponse](t, body))

	status, body = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "newbird", Password: "longenough"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "student", decode[sdk.LoginResponse](t, body).User.Role)

	status, body = env.do(t, http.MethodPost, "/auth/signup", "", req)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, ErrCodeConflict, decode[ErrorResponse](t, body).Code)

	status, body = env.do(t, http.MethodPost, "/auth/signup", "", SignupRequest{Username: "x", Email: "bad", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	errResp := decode[ErrorResponse](t, body)
	assert.Equal(t, "Validation failed", errResp.Error)
	assert.Contains(t, errResp.Details, "username")
	assert.Contains(t, errResp.Details, "email")
	assert.Contains(t, errResp.Details, "password")
}

func TestAuth_ForgotPassword(t *testing.T) {
	env := newTestEnv(t)

	for _, email := range []string{"john@example.com", "unknown@example.com"} {
		status, body := env.do(t, http.MethodPost, "/auth/forgot-password", "", ForgotPasswordRequest{Email: email})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Password reset email sent", decode[sdk.StatusResponse](t, body).Message)
	}

	status, _ := env.do(t, http.MethodPost, "/auth/forgot-password", "", ForgotPasswordRequest{Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "johndoe")

	status, body := env.do(t, http.MethodGet, "/users/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "johndoe", decode[sdk.User](t, body).Username)

	status, body = env.do(t, http.MethodPut, "/users/profile", token, map[string]string{"firstName": "Johnny", "bio": "Learning Go"})
	require.Equal(t, http.StatusOK, status)
	user := decode[sdk.User](t, body)
	assert.Equal(t, "Johnny", user.FirstName)
	assert.Equal(t, "Doe", user.LastName)
	assert.Equal(t, "Learning Go", user.Bio)

	status, _ = env.do(t, http.MethodPut, "/users/profile", token, map[string]string{"email": "jane@example.com"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodPut, "/users/profile", token, map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCourses(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query string
		ids   []int64
	}{
		{"", []int64{1, 2, 3, 4}},
		{"?category=development", []int64{1, 4}},
		{"?level=Beginner", []int64{1, 2}},
		{"?search=python", []int64{3}},
		{"?search=sarah%20chen", []int64{1, 4}},
		{"?category=development&level=advanced", []int64{4}},
		{"?category=cooking", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, body := env.do(t, http.MethodGet, "/courses"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, status)

			courses := decode[[]sdk.Course](t, body)
			ids := make([]int64, 0, len(courses))
			for _, c := range courses {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}

	status, body := env.do(t, http.MethodGet, "/courses/2", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "UI Design Fundamentals", decode[sdk.Course](t, body).Title)

	status, _ = env.do(t, http.MethodGet, "/courses/99", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodGet, "/courses/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEnrollments(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "johndoe")

	status, body := env.do(t, http.MethodGet, "/enrollments", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]sdk.Enrollment](t, body), 2)

	status, body = env.do(t, http.MethodPost, "/enrollments", token, EnrollRequest{CourseID: 4})
	require.Equal(t, http.StatusCreated, status)
	enrolled := decode[sdk.EnrollResponse](t, body)
	assert.True(t, enrolled.Success)
	assert.Greater(t, enrolled.EnrollmentID, int64(3))

	status, _ = env.do(t, http.MethodPost, "/enrollments", token, EnrollRequest{CourseID: 4})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.do(t, http.MethodPost, "/enrollments", token, EnrollRequest{CourseID: 99})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/enrollments", token, EnrollRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestEnrollments_Progress(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "johndoe")

	status, body := env.do(t, http.MethodPut, "/enrollments/1/progress", token, ProgressRequest{Progress: 55, ModuleID: "m2", LessonID: "l4"})
	require.Equal(t, http.StatusOK, status, string(body))
	enrollment := decode[sdk.Enrollment](t, body)
	assert.Equal(t, 55, enrollment.Progress)
	assert.Equal(t, "l4", enrollment.CurrentLessonID)
	assert.Contains(t, enrollment.CompletedLessons, "l3")

	events := env.events.Events()
	require.Len(t, events, 1)
	ev, ok := events[0].(*queue.ProgressEvent)
	require.True(t, ok)
	assert.Equal(t, int64(1), ev.EnrollmentID)
	assert.Equal(t, 55, ev.Progress)

	status, body = env.do(t, http.MethodPut, "/enrollments/3/progress", token, ProgressRequest{Progress: 10})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, ErrCodeForbidden, decode[ErrorResponse](t, body).Code)

	status, _ = env.do(t, http.MethodPut, "/enrollments/999/progress", token, ProgressRequest{Progress: 10})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPut, "/enrollments/1/progress", token, ProgressRequest{Progress: 150})
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Len(t, env.events.Events(), 1)
}

func TestConversations(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "johndoe")

	status, body := env.do(t, http.MethodGet, "/conversations", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]sdk.Conversation](t, body), 2)

	status, body = env.do(t, http.MethodGet, "/conversations/1", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[sdk.Conversation](t, body).Messages, 2)

	status, _ = env.do(t, http.MethodGet, "/conversations/1", env.login(t, "janesmith"), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodGet, "/conversations/999", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestConversations_Create(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "johndoe")

	status, body := env.do(t, http.MethodPost, "/conversations", token, CreateConversationRequest{
		InstructorID: 102,
		CourseID:     2,
		Subject:      "Grid systems",
		Message:      "How many columns should I start with?",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	conv := decode[sdk.Conversation](t, body)
	assert.Equal(t, "Marcus Webb", conv.InstructorName)
	assert.Equal(t, int64(1), conv.UserID)
	assert.Equal(t, "open", conv.Status)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "student", conv.Messages[0].SenderType)

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, queue.SubjectMessages, events[0].Subject())

	status, body = env.do(t, http.MethodPost, "/conversations", token, CreateConversationRequest{
		InstructorID: 999,
		Subject:      "Hello",
		Message:      "Anyone there?",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Unknown instructor", decode[ErrorResponse](t, body).Error)

	status, _ = env.do(t, http.MethodPost, "/conversations", token, CreateConversationRequest{InstructorID: 101, Subject: "  ", Message: "x"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestConversations_SendMessage(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "johndoe")

	status, body := env.do(t, http.MethodPost, "/conversations/1/messages", token, SendMessageRequest{Content: "Thanks!"})
	require.Equal(t, http.StatusCreated, status, string(body))
	msg := decode[sdk.Message](t, body)
	assert.Equal(t, int64(1), msg.ConversationID)
	assert.Equal(t, int64(1), msg.SenderID)
	assert.Equal(t, "Thanks!", msg.Content)

	events := env.events.Events()
	require.Len(t, events, 1)
	ev, ok := events[0].(*queue.MessageEvent)
	require.True(t, ok)
	assert.Equal(t, msg.ID, ev.MessageID)

	status, body = env.do(t, http.MethodPost, "/conversations/2/messages", token, SendMessageRequest{Content: "Reopen?"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Conversation is closed", decode[ErrorResponse](t, body).Error)

	status, _ = env.do(t, http.MethodPost, "/conversations/1/messages", token, SendMessageRequest{Content: ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/conversations/1/messages", env.login(t, "janesmith"), SendMessageRequest{Content: "hi"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "johndoe")

	status, body := env.do(t, http.MethodGet, "/subscriptions/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	sub := decode[sdk.Subscription](t, body)
	assert.Equal(t, int64(1), sub.ID)
	assert.Equal(t, "monthly", sub.PlanType)

	status, _ = env.do(t, http.MethodPost, "/subscriptions/2/cancel", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodPost, "/subscriptions/1/cancel", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[sdk.StatusResponse](t, body).Success)
	require.Len(t, env.events.Events(), 1)

	status, body = env.do(t, http.MethodGet, "/subscriptions/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "canceled", decode[sdk.Subscription](t, body).Status)

	// Cancelling twice is a no-op.
	status, _ = env.do(t, http.MethodPost, "/subscriptions/1/cancel", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, env.events.Events(), 1)

	status, _ = env.do(t, http.MethodGet, "/subscriptions/me", env.login(t, "sarahchen"), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPayments(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "johndoe")

	status, body := env.do(t, http.MethodPost, "/payments/create-intent", token, PaymentIntentRequest{CourseID: 1, Amount: 49.99, PlanType: "monthly"})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.True(t, strings.HasPrefix(decode[sdk.PaymentIntent](t, body).ClientSecret, "pi_"))

	status, body = env.do(t, http.MethodPost, "/payments/create-intent", token, PaymentIntentRequest{Amount: 0, PlanType: "monthly"})
	assert.Equal(t, http.StatusPaymentRequired, status)
	errResp := decode[ErrorResponse](t, body)
	assert.Equal(t, "Amount must be greater than zero.", errResp.Error)
	assert.Equal(t, ErrCodePaymentFailed, errResp.Code)

	status, body = env.do(t, http.MethodPost, "/payments/create-subscription", token, CreateSubscriptionRequest{
		PlanType:        "annual",
		PaymentMethodID: "pm_card_declined",
	})
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "Your card was declined.", decode[ErrorResponse](t, body).Error)
	assert.Empty(t, env.events.Events())

	status, body = env.do(t, http.MethodPost, "/payments/create-subscription", token, CreateSubscriptionRequest{
		CourseID:        4,
		PlanType:        "annual",
		PaymentMethodID: "pm_card_visa",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	sub := decode[sdk.Subscription](t, body)
	assert.Greater(t, sub.ID, int64(2))
	assert.Equal(t, "active", sub.Status)
	assert.NotEmpty(t, sub.ClientSecret)
	assert.NotEmpty(t, sub.CustomerID)
	require.NotNil(t, sub.CurrentPeriodEnd)

	events := env.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, queue.SubjectSubscription, events[0].Subject())

	status, body = env.do(t, http.MethodGet, "/subscriptions/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, sub.ID, decode[sdk.Subscription](t, body).ID)

	status, _ = env.do(t, http.MethodPost, "/payments/create-subscription", token, CreateSubscriptionRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMockData(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/mock-data/courses.json", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]sdk.Course](t, body), 4)

	status, body = env.do(t, http.MethodGet, "/mock-data/error.json", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, sdk.IsErrorFixture(body))

	for _, path := range []string{"/mock-data/missing.json", "/mock-data/courses"} {
		status, _ = env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, status, path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	health := decode[HealthResponse](t, body)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Checks["store"])

	status, body = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "academy_http_requests_total")
}

func TestHealth_Unhealthy(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.revocations.Close())

	status, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	health := decode[HealthResponse](t, body)
	assert.Equal(t, "unhealthy", health.Status)
	assert.Contains(t, health.Checks["revocations"], "unhealthy")
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, ErrCodeNotFound, decode[ErrorResponse](t, body).Code)
}
