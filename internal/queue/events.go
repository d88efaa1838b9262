package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of a domain event
type EventType string

const (
	// EventProgressUpdated is emitted after an enrollment's progress changes
	EventProgressUpdated EventType = "progress.updated"
	// EventMessageSent is emitted after a message is posted to a conversation
	EventMessageSent EventType = "message.sent"
	// EventSubscriptionChanged is emitted when a subscription is created or canceled
	EventSubscriptionChanged EventType = "subscription.changed"
)

// Subject names for the event types. All of them live under SubjectRoot.
const (
	SubjectRoot         = "academy.>"
	SubjectProgress     = "academy.enrollments.progress"
	SubjectMessages     = "academy.conversations.messages"
	SubjectSubscription = "academy.subscriptions.changed"
)

// Event is anything the backend publishes.
type Event interface {
	EventID() string
	Subject() string
	Base() BaseEvent
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"userId"`
}

func newBase(t EventType, userID int64) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
	}
}

// EventID is used for JetStream de-duplication.
func (b BaseEvent) EventID() string { return b.ID }

// Base returns the common envelope fields.
func (b BaseEvent) Base() BaseEvent { return b }

// ProgressEvent records a learner's new position in a course
type ProgressEvent struct {
	BaseEvent
	EnrollmentID int64  `json:"enrollmentId"`
	CourseID     int64  `json:"courseId"`
	Progress     int    `json:"progress"`
	ModuleID     string `json:"moduleId"`
	LessonID     string `json:"lessonId"`
}

// Subject implements Event
func (e *ProgressEvent) Subject() string { return SubjectProgress }

// MessageEvent records a helpdesk message
type MessageEvent struct {
	BaseEvent
	ConversationID int64  `json:"conversationId"`
	MessageID      int64  `json:"messageId"`
	InstructorID   int64  `json:"instructorId"`
	SenderType     string `json:"senderType"`
}

// Subject implements Event
func (e *MessageEvent) Subject() string { return SubjectMessages }

// SubscriptionEvent records a subscription status change
type SubscriptionEvent struct {
	BaseEvent
	SubscriptionID int64  `json:"subscriptionId"`
	PlanType       string `json:"planType"`
	Status         string `json:"status"`
}

// Subject implements Event
func (e *SubscriptionEvent) Subject() string { return SubjectSubscription }

// NewProgressEvent creates a new progress event
func NewProgressEvent(userID, enrollmentID, courseID int64, progress int, moduleID, lessonID string) *ProgressEvent {
	return &ProgressEvent{
		BaseEvent:    newBase(EventProgressUpdated, userID),
		EnrollmentID: enrollmentID,
		CourseID:     courseID,
		Progress:     progress,
		ModuleID:     moduleID,
		LessonID:     lessonID,
	}
}

// NewMessageEvent creates a new message event
func NewMessageEvent(userID, conversationID, messageID, instructorID int64, senderType string) *MessageEvent {
	return &MessageEvent{
		BaseEvent:      newBase(EventMessageSent, userID),
		ConversationID: conversationID,
		MessageID:      messageID,
		InstructorID:   instructorID,
		SenderType:     senderType,
	}
}

// NewSubscriptionEvent creates a new subscription event
func NewSubscriptionEvent(userID, subscriptionID int64, planType, status string) *SubscriptionEvent {
	return &SubscriptionEvent{
		BaseEvent:      newBase(EventSubscriptionChanged, userID),
		SubscriptionID: subscriptionID,
		PlanType:       planType,
		Status:         status,
	}
}

// DecodeEvent unmarshals an event published on one of the academy subjects
func DecodeEvent(data []byte) (Event, error) {
	var base BaseEvent
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	var ev Event
	switch base.Type {
	case EventProgressUpdated:
		ev = &ProgressEvent{}
	case EventMessageSent:
		ev = &MessageEvent{}
	case EventSubscriptionChanged:
		ev = &SubscriptionEvent{}
	default:
		return nil, fmt.Errorf("unknown event type %q", base.Type)
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", base.Type, err)
	}
	return ev, nil
}
