package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/birbparty/birb-academy/sdk"
)

// Real-mode walkthrough. Start the backend (cmd/api) first, or set
// ACADEMY_MOCK=true to run against fixtures.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.DebugLevel)

	config, err := sdk.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Bad environment: %v", err)
	}

	metrics := sdk.NewMetricsCollector()
	sessionPath := filepath.Join(os.TempDir(), "academy-session.json")

	config.
		WithLogger(logger).
		WithSessionStore(sdk.NewFileSessionStore(sessionPath)).
		WithNavigator(sdk.NavigatorFunc(func(_ context.Context, path string) {
			fmt.Printf("→ session expired, navigating to %s\n", path)
		})).
		WithObserver(sdk.NewCompositeObserver(metrics, &sdk.LogObserver{Logger: logger}))

	client, err := sdk.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	username := envOr("ACADEMY_USERNAME", "johndoe")
	password := envOr("ACADEMY_PASSWORD", "password123")

	if !client.LoggedIn(ctx) {
		if _, err := client.Users.Login(ctx, sdk.Credentials{Username: username, Password: password}); err != nil {
			var apiErr *sdk.APIError
			if errors.As(err, &apiErr) {
				log.Fatalf("Login rejected (%d): %s", apiErr.StatusCode, apiErr.Message)
			}
			log.Fatalf("Login failed: %v", err)
		}
		fmt.Printf("✓ Logged in, session stored at %s\n", sessionPath)
	} else {
		fmt.Println("✓ Reusing stored session")
	}

	profile, err := client.Users.GetProfile(ctx)
	switch {
	case sdk.IsUnauthorized(err):
		fmt.Println("Stored token was rejected; run again to log in")
		return
	case err != nil:
		log.Fatalf("Failed to load profile: %v", err)
	}
	fmt.Printf("✓ Hello %s (%s)\n", profile.FirstName, profile.Role)

	courses, err := client.Courses.GetAllCourses(ctx, &sdk.CourseFilters{Level: "beginner"})
	if err != nil {
		log.Fatalf("Failed to list courses: %v", err)
	}
	fmt.Printf("✓ %d beginner courses\n", len(courses))

	if len(courses) > 0 {
		_, err := client.Courses.Enroll(ctx, sdk.EnrollRequest{CourseID: courses[0].ID})
		if err != nil && !errors.Is(err, sdk.ErrForbidden) {
			log.Printf("Enroll failed: %v", err)
		}
	}

	intent, err := client.Subscriptions.CreatePaymentIntent(ctx, sdk.PaymentIntentRequest{CourseID: 1, Amount: 49.99, PlanType: "monthly"})
	if err != nil {
		// Processor messages are passed through verbatim.
		var apiErr *sdk.APIError
		if errors.As(err, &apiErr) {
			fmt.Printf("Payment declined: %s\n", apiErr.Message)
		}
	} else {
		fmt.Printf("✓ Payment intent ready (secret %d chars)\n", len(intent.ClientSecret))
	}

	snapshot := metrics.GetMetrics()
	fmt.Printf("\nRequests: %v\nErrors: %v\nSessions cleared: %v\n",
		snapshot["requests"], snapshot["errors"], snapshot["sessions_cleared"])
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
