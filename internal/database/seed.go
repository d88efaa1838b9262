package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/birbparty/birb-academy/sdk"
)

// Seed is the initial data set of a development backend.
type Seed struct {
	Users         []sdk.User
	Enrollments   []sdk.Enrollment
	Conversations []sdk.Conversation
	Subscriptions []sdk.Subscription
}

// LoadSeed reads the users, enrollments, conversations and subscriptions
// fixtures so the backend starts with the same records mock mode serves.
func LoadSeed(ctx context.Context, loader sdk.FixtureLoader) (*Seed, error) {
	seed := &Seed{}
	targets := []struct {
		name string
		dst  interface{}
	}{
		{"users", &seed.Users},
		{"enrollments", &seed.Enrollments},
		{"conversations", &seed.Conversations},
		{"subscriptions", &seed.Subscriptions},
	}

	for _, t := range targets {
		raw, err := loader.Load(ctx, t.name)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s seed: %w", t.name, err)
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			return nil, fmt.Errorf("failed to decode %s seed: %w", t.name, err)
		}
	}

	for i := range seed.Enrollments {
		if seed.Enrollments[i].CompletedLessons == nil {
			seed.Enrollments[i].CompletedLessons = []string{}
		}
	}
	return seed, nil
}
