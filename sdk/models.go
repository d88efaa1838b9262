package sdk

import (
	"encoding/json"
	"time"
)

// User is a platform account as returned by /users/profile and the auth flow.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignupRequest is the signup request body.
type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ProfileUpdate is a partial profile update. Nil fields are left untouched.
type ProfileUpdate struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

// LoginResponse carries the bearer token and the logged-in user.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// StatusResponse is the {success, message} acknowledgement shape.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Lesson is a single unit inside a course module.
type Lesson struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	Type     string `json:"type"`
}

// Module groups lessons inside a course.
type Module struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Course is an entry of the static course catalog.
type Course struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Instructor   string   `json:"instructor"`
	InstructorID int64    `json:"instructorId"`
	Category     string   `json:"category"`
	Level        string   `json:"level"`
	Price        float64  `json:"price"`
	Duration     string   `json:"duration"`
	Rating       float64  `json:"rating"`
	Students     int      `json:"students"`
	Image        string   `json:"image,omitempty"`
	Modules      []Module `json:"modules,omitempty"`
}

// CourseFilters narrows GetAllCourses. Empty fields are not sent.
type CourseFilters struct {
	Category string
	Level    string
	Search   string
}

// EnrollRequest enrolls the current user in a course.
type EnrollRequest struct {
	CourseID int64 `json:"courseId"`
}

// EnrollResponse acknowledges an enrollment.
type EnrollResponse struct {
	Success      bool  `json:"success"`
	EnrollmentID int64 `json:"enrollmentId"`
}

// ProgressUpdate is the body of PUT /enrollments/{id}/progress.
type ProgressUpdate struct {
	Progress int    `json:"progress"`
	ModuleID string `json:"moduleId"`
	LessonID string `json:"lessonId"`
}

// Enrollment tracks a user's progress through a course.
type Enrollment struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	CourseID         int64     `json:"courseId"`
	Progress         int       `json:"progress"`
	CurrentModuleID  string    `json:"currentModuleId,omitempty"`
	CurrentLessonID  string    `json:"currentLessonId,omitempty"`
	CompletedLessons []string  `json:"completedLessons"`
	EnrolledAt       time.Time `json:"enrolledAt"`
	LastAccessedAt   time.Time `json:"lastAccessedAt"`
}

// Message is a single chat message inside a helpdesk conversation.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversationId"`
	SenderID       int64     `json:"senderId"`
	SenderType     string    `json:"senderType"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Conversation is a helpdesk thread between a student and an instructor.
type Conversation struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	InstructorID   int64     `json:"instructorId"`
	InstructorName string    `json:"instructorName"`
	CourseID       int64     `json:"courseId,omitempty"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	Messages       []Message `json:"messages,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CreateConversationRequest opens a new conversation.
type CreateConversationRequest struct {
	InstructorID int64  `json:"instructorId"`
	CourseID     int64  `json:"courseId,omitempty"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
}

// SendMessageRequest posts a message to a conversation.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// Subscription is a user's plan.
type Subscription struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"userId"`
	CourseID         int64      `json:"courseId,omitempty"`
	PlanType         string     `json:"planType"`
	Status           string     `json:"status"`
	CustomerID       string     `json:"customerId,omitempty"`
	ClientSecret     string     `json:"clientSecret,omitempty"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// CreateSubscriptionRequest is forwarded to the payment processor.
type CreateSubscriptionRequest struct {
	CourseID        int64  `json:"courseId"`
	PlanType        string `json:"planType"`
	PaymentMethodID string `json:"paymentMethodId"`
	CustomerID      string `json:"customerId"`
}

// PaymentIntentRequest is forwarded to the payment processor.
type PaymentIntentRequest struct {
	CourseID int64   `json:"courseId"`
	Amount   float64 `json:"amount"`
	PlanType string  `json:"planType"`
}

// PaymentIntent carries the processor's client secret.
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
}

// Acknowledgement is the envelope synthesized for mock-mode writes.
type Acknowledgement struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}
