package clinic

import (
	"context"
	"fmt"
	"net/http"

	"medicrm/internal/api"
)

// MessageService exposes the two-party messaging operations.
type MessageService struct {
	c *api.Client
}

// Conversation fetches every message exchanged with the given partner,
// ordered by creation time.
func (s *MessageService) Conversation(ctx context.Context, partnerID int) ([]Message, error) {
	var out []Message
	path := fmt.Sprintf("messages?user_id=%d", partnerID)
	if err := s.c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Send posts a message to the given recipient.
func (s *MessageService) Send(ctx context.Context, recipientID int, content string) (*Message, error) {
	if err := ValidateMessage(recipientID, content); err != nil {
		return nil, err
	}
	body := map[string]any{"recipient_id": recipientID, "content": content}
	var out Message
	if err := s.c.Do(ctx, http.MethodPost, "messages", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead flags one message as read.
func (s *MessageService) MarkRead(ctx context.Context, messageID int) error {
	body := map[string]any{"read": true}
	return s.c.Do(ctx, http.MethodPut, fmt.Sprintf("messages/%d", messageID), body, nil)
}

// Partners lists the users available as conversation partners.
func (s *MessageService) Partners(ctx context.Context) ([]User, error) {
	var out []User
	if err := s.c.Do(ctx, http.MethodGet, "users/conversation-partners", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
