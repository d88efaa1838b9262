package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/birbparty/birb-academy/internal/database"
	"github.com/birbparty/birb-academy/internal/queue"
	"github.com/birbparty/birb-academy/sdk"
)

// ListConversations handles GET /conversations
func (h *Handler) ListConversations(c *fiber.Ctx) error {
	list, err := h.store.ListConversations(c.UserContext(), currentClaims(c).UserID())
	if err != nil {
		return storeError(err, "Conversations")
	}
	return c.JSON(list)
}

// ownConversation loads a conversation and checks it belongs to the caller.
func (h *Handler) ownConversation(c *fiber.Ctx) (*sdk.Conversation, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}

	conv, err := h.store.GetConversation(c.UserContext(), id)
	if err != nil {
		return nil, storeError(err, "Conversation")
	}
	if conv.UserID != currentClaims(c).UserID() {
		return nil, forbidden("Conversation belongs to another user")
	}
	return conv, nil
}

// GetConversation handles GET /conversations/:id
func (h *Handler) GetConversation(c *fiber.Ctx) error {
	conv, err := h.ownConversation(c)
	if err != nil {
		return err
	}
	return c.JSON(conv)
}

// instructorName resolves the display name from the catalog, then from the
// instructor's account.
func (h *Handler) instructorName(c *fiber.Ctx, instructorID int64) (string, error) {
	if name, ok := h.catalog.InstructorName(instructorID); ok {
		return name, nil
	}

	user, err := h.store.UserByID(c.UserContext(), instructorID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", badRequest("Unknown instructor")
		}
		return "", storeError(err, "Instructor")
	}
	if user.Role != "instructor" {
		return "", badRequest("Unknown instructor")
	}
	return user.FirstName + " " + user.LastName, nil
}

// CreateConversation handles POST /conversations
func (h *Handler) CreateConversation(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := currentClaims(c).UserID()

	var req CreateConversationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if req.CourseID != 0 {
		if _, ok := h.catalog.Get(req.CourseID); !ok {
			return notFound("Course not found")
		}
	}

	name, err := h.instructorName(c, req.InstructorID)
	if err != nil {
		return err
	}

	conv, err := h.store.CreateConversation(ctx, &sdk.Conversation{
		UserID:         userID,
		InstructorID:   req.InstructorID,
		InstructorName: name,
		CourseID:       req.CourseID,
		Subject:        req.Subject,
	}, req.Message)
	if err != nil {
		return storeError(err, "Conversation")
	}

	if len(conv.Messages) > 0 {
		first := conv.Messages[0]
		h.publish(ctx, queue.NewMessageEvent(userID, conv.ID, first.ID, conv.InstructorID, first.SenderType))
	}

	return c.Status(fiber.StatusCreated).JSON(conv)
}

// SendMessage handles POST /conversations/:id/messages
func (h *Handler) SendMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()

	conv, err := h.ownConversation(c)
	if err != nil {
		return err
	}

	var req SendMessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if conv.Status == database.ConversationClosed {
		return conflict("Conversation is closed")
	}

	msg, err := h.store.AddMessage(ctx, &sdk.Message{
		ConversationID: conv.ID,
		SenderID:       conv.UserID,
		SenderType:     database.SenderStudent,
		Content:        req.Content,
	})
	if err != nil {
		return storeError(err, "Conversation")
	}

	h.publish(ctx, queue.NewMessageEvent(conv.UserID, conv.ID, msg.ID, conv.InstructorID, msg.SenderType))

	return c.Status(fiber.StatusCreated).JSON(msg)
}
