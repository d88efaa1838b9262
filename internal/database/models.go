package database

import (
	"errors"
	"slices"
	"time"

	"github.com/birbparty/birb-academy/sdk"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("record already exists")
)

// UserRecord is an account as stored, including its password hash.
type UserRecord struct {
	sdk.User
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Subscription status values.
const (
	SubscriptionActive     = "active"
	SubscriptionIncomplete = "incomplete"
	SubscriptionCanceled   = "canceled"
)

// Conversation status values.
const (
	ConversationOpen   = "open"
	ConversationClosed = "closed"
)

// Sender types on messages.
const (
	SenderStudent    = "student"
	SenderInstructor = "instructor"
)

// applyProfile copies the non-nil fields of upd onto u.
func applyProfile(u *sdk.User, upd sdk.ProfileUpdate) {
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
}

// applyProgress moves an enrollment to a new position. Leaving a lesson marks
// it completed.
func applyProgress(e *sdk.Enrollment, upd sdk.ProgressUpdate, now time.Time) {
	if e.CurrentLessonID != "" && upd.LessonID != e.CurrentLessonID &&
		!slices.Contains(e.CompletedLessons, e.CurrentLessonID) {
		e.CompletedLessons = append(e.CompletedLessons, e.CurrentLessonID)
	}
	if e.CompletedLessons == nil {
		e.CompletedLessons = []string{}
	}
	e.Progress = upd.Progress
	e.CurrentModuleID = upd.ModuleID
	e.CurrentLessonID = upd.LessonID
	e.LastAccessedAt = now
}
