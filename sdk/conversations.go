package sdk

import (
	"context"
	"net/http"
	"strings"
)

// ConversationService covers the instructor helpdesk.
type ConversationService struct {
	service
}

// GetConversations lists the logged-in user's conversations.
func (s *ConversationService) GetConversations(ctx context.Context) ([]Conversation, error) {
	raw, err := request(ctx, s.r, s.endpoints().Conversations.All, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	raw = unwrapData(raw)
	if id := s.currentUserID(ctx); id != "" {
		raw = filterRecords(raw, "userId", id)
	}

	var conversations []Conversation
	if err := deserialize(raw, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// GetConversation returns one conversation with its messages.
func (s *ConversationService) GetConversation(ctx context.Context, id int64) (*Conversation, error) {
	ep := s.endpoints()
	conv, err := CallRecord[Conversation](ctx, s.r, ep.Path(ep.Conversations.ByID, idString(id)), idString(id))
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateConversation opens a conversation with an instructor.
func (s *ConversationService) CreateConversation(ctx context.Context, req CreateConversationRequest) (*Conversation, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, validationError("subject is required")
	}
	conv, err := CallData[Conversation](ctx, s.r, s.endpoints().Conversations.All, http.MethodPost, req)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// SendMessage posts a message to a conversation.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID int64, msg SendMessageRequest) (*Message, error) {
	if strings.TrimSpace(msg.Content) == "" {
		return nil, validationError("message content is required")
	}

	ep := s.endpoints()
	message, err := CallData[Message](ctx, s.r, ep.Path(ep.Conversations.Messages, idString(conversationID)), http.MethodPost, msg)
	if err != nil {
		return nil, err
	}
	if message.ConversationID == 0 {
		message.ConversationID = conversationID
	}
	return &message, nil
}
