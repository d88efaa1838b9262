package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/birbparty/birb-academy/sdk"
)

func main() {
	// Mock mode needs no backend: everything is answered from bundled fixtures.
	metrics := sdk.NewMetricsCollector()
	config := sdk.DefaultConfig().
		WithMock(true).
		WithObserver(metrics)

	client, err := sdk.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	// Example 1: Log in
	fmt.Println("--- Example 1: Login ---")
	resp, err := client.Users.Login(ctx, sdk.Credentials{Username: "johndoe", Password: "any"})
	if err != nil {
		log.Fatalf("Failed to log in: %v", err)
	}
	fmt.Printf("✓ Logged in as %s %s (token %s)\n", resp.User.FirstName, resp.User.LastName, resp.Token)

	// Example 2: Browse the catalog
	fmt.Println("\n--- Example 2: Catalog ---")
	courses, err := client.Courses.GetAllCourses(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to list courses: %v", err)
	}
	for _, c := range courses {
		fmt.Printf("  [%d] %s (%s, $%.2f)\n", c.ID, c.Title, c.Level, c.Price)
	}

	course, err := client.Courses.GetCourse(ctx, 1)
	if err != nil {
		log.Fatalf("Failed to get course: %v", err)
	}
	fmt.Printf("✓ %s has %d modules\n", course.Title, len(course.Modules))

	// Example 3: Missing records
	fmt.Println("\n--- Example 3: Not Found ---")
	if _, err := client.Courses.GetCourse(ctx, 404); errors.Is(err, sdk.ErrNotFound) {
		fmt.Println("✓ Course 404 does not exist")
	}

	// Example 4: Enrollments and progress
	fmt.Println("\n--- Example 4: Enrollments ---")
	enrollments, err := client.Courses.GetEnrollments(ctx)
	if err != nil {
		log.Fatalf("Failed to list enrollments: %v", err)
	}
	for _, e := range enrollments {
		fmt.Printf("  course %d: %d%%\n", e.CourseID, e.Progress)
	}

	if len(enrollments) > 0 {
		updated, err := client.Courses.UpdateProgress(ctx, enrollments[0].ID, 60, "m2", "l4")
		if err != nil {
			log.Fatalf("Failed to update progress: %v", err)
		}
		fmt.Printf("✓ Progress acknowledged: %d%% at %s/%s\n", updated.Progress, updated.CurrentModuleID, updated.CurrentLessonID)
	}

	// Example 5: Helpdesk
	fmt.Println("\n--- Example 5: Conversations ---")
	conversations, err := client.Conversations.GetConversations(ctx)
	if err != nil {
		log.Fatalf("Failed to list conversations: %v", err)
	}
	for _, c := range conversations {
		fmt.Printf("  %s with %s (%s)\n", c.Subject, c.InstructorName, c.Status)
	}

	// Example 6: Subscription
	fmt.Println("\n--- Example 6: Subscription ---")
	sub, err := client.Subscriptions.GetUserSubscription(ctx)
	if err != nil {
		log.Fatalf("Failed to get subscription: %v", err)
	}
	fmt.Printf("✓ %s plan, %s\n", sub.PlanType, sub.Status)

	// Example 7: Logout
	fmt.Println("\n--- Example 7: Logout ---")
	if err := client.Users.Logout(ctx); err != nil {
		log.Fatalf("Failed to log out: %v", err)
	}
	fmt.Printf("✓ Logged out, session active: %v\n", client.LoggedIn(ctx))

	snapshot := metrics.GetMetrics()
	fmt.Printf("\nFixture lookups: %v, unmapped: %v\n", snapshot["fixtures"], snapshot["fixture_misses"])
}
