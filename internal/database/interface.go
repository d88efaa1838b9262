package database

import (
	"context"

	"github.com/birbparty/birb-academy/sdk"
)

// Store is the persistence port of the backend. Records are returned in the
// wire shapes the client SDK decodes. Ownership is checked by callers using
// the UserID carried on each record.
type Store interface {
	// UserByUsername looks up an account for login, including its password hash.
	UserByUsername(ctx context.Context, username string) (*UserRecord, error)

	// UserByEmail looks up an account by email address.
	UserByEmail(ctx context.Context, email string) (*UserRecord, error)

	// UserByID returns the public view of an account.
	UserByID(ctx context.Context, id int64) (*sdk.User, error)

	// CreateUser inserts an account. ErrConflict when the username or email is taken.
	CreateUser(ctx context.Context, rec *UserRecord) (*sdk.User, error)

	// UpdateUser applies the non-nil fields of a profile update.
	UpdateUser(ctx context.Context, id int64, upd sdk.ProfileUpdate) (*sdk.User, error)

	// ListEnrollments returns a user's enrollments ordered by id.
	ListEnrollments(ctx context.Context, userID int64) ([]sdk.Enrollment, error)

	// GetEnrollment returns an enrollment by id.
	GetEnrollment(ctx context.Context, id int64) (*sdk.Enrollment, error)

	// CreateEnrollment enrolls a user. ErrConflict when already enrolled.
	CreateEnrollment(ctx context.Context, userID, courseID int64) (*sdk.Enrollment, error)

	// UpdateProgress records progress and the current position in a course.
	UpdateProgress(ctx context.Context, id int64, upd sdk.ProgressUpdate) (*sdk.Enrollment, error)

	// ListConversations returns a user's conversations with their messages.
	ListConversations(ctx context.Context, userID int64) ([]sdk.Conversation, error)

	// GetConversation returns a conversation with its messages.
	GetConversation(ctx context.Context, id int64) (*sdk.Conversation, error)

	// CreateConversation opens a conversation with its first message.
	CreateConversation(ctx context.Context, conv *sdk.Conversation, first string) (*sdk.Conversation, error)

	// AddMessage appends a message and bumps the conversation's updatedAt.
	AddMessage(ctx context.Context, msg *sdk.Message) (*sdk.Message, error)

	// SubscriptionForUser returns the user's most recent subscription.
	SubscriptionForUser(ctx context.Context, userID int64) (*sdk.Subscription, error)

	// GetSubscription returns a subscription by id.
	GetSubscription(ctx context.Context, id int64) (*sdk.Subscription, error)

	// CreateSubscription stores a new subscription.
	CreateSubscription(ctx context.Context, sub *sdk.Subscription) (*sdk.Subscription, error)

	// SetSubscriptionStatus changes the status of a subscription.
	SetSubscriptionStatus(ctx context.Context, id int64, status string) (*sdk.Subscription, error)

	// Health checks if the store is reachable.
	Health(ctx context.Context) error

	// Close releases the store's resources.
	Close()
}
