package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Message is one portal message between a landlord and a tenant.
type Message struct {
	ID            string `json:"id"`
	Subject       string `json:"subject"`
	Content       string `json:"content"`
	SenderID      string `json:"senderId"`
	SenderName    string `json:"senderName"`
	RecipientID   string `json:"recipientId"`
	RecipientName string `json:"recipientName"`
	PropertyID    string `json:"propertyId"`
	Read          bool   `json:"read"`
	CreatedAt     string `json:"createdAt"`
}

type rawMessage struct {
	identity
	Subject   flexString `json:"subject"`
	Content   flexString `json:"content"`
	Body      flexString `json:"message"`
	Sender    ref        `json:"sender"`
	Recipient ref        `json:"recipient"`
	Receiver  ref        `json:"receiver"`
	Property  ref        `json:"property"`
	Read      flexBool   `json:"read"`
	IsRead    flexBool   `json:"isRead"`
	CreatedAt flexString `json:"createdAt"`
	Timestamp flexString `json:"timestamp"`
}

func shapeMessage(r rawMessage) Message {
	recipient := r.Recipient
	if recipient.ID == "" && recipient.Name == "" {
		recipient = r.Receiver
	}
	return Message{
		ID:            r.id(),
		Subject:       orDefault(r.Subject, "No Subject"),
		Content:       firstNonEmpty(string(r.Content), string(r.Body)),
		SenderID:      r.Sender.ID,
		SenderName:    firstNonEmpty(r.Sender.Name, "Unknown Sender"),
		RecipientID:   recipient.ID,
		RecipientName: firstNonEmpty(recipient.Name, "Unknown Recipient"),
		PropertyID:    r.Property.ID,
		Read:          bool(r.Read || r.IsRead),
		CreatedAt:     firstNonEmpty(string(r.CreatedAt), string(r.Timestamp)),
	}
}

// MessageInput is a new outgoing message.
type MessageInput struct {
	RecipientID string `json:"recipientId"`
	Subject     string `json:"subject,omitempty"`
	Content     string `json:"content"`
	PropertyID  string `json:"propertyId,omitempty"`
}

func (in MessageInput) Validate() error {
	if strings.TrimSpace(in.RecipientID) == "" || strings.TrimSpace(in.Content) == "" {
		return clientErrorf("Recipient and message content are required")
	}
	return nil
}

// List returns the caller's messages.
func (s MessagesService) List(ctx context.Context, token string) ([]Message, error) {
	op := operation{action: "fetch messages", resource: "Messages"}
	return Guard(ctx, s.inflight, "fetchMessages", op.action, func(ctx context.Context) ([]Message, error) {
		raws, err := fetchList[rawMessage](ctx, s.Client, request{
			method: http.MethodGet,
			path:   s.rolePath("/messages"),
			token:  token,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		return shapeAll(raws, shapeMessage), nil
	})
}

// Send posts a new message.
func (s MessagesService) Send(ctx context.Context, token string, in MessageInput) (*Message, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "send message", resource: "Message"}
	return Guard(ctx, s.inflight, "sendMessage", op.action, func(ctx context.Context) (*Message, error) {
		raw, err := fetchOne[rawMessage](ctx, s.Client, request{
			method: http.MethodPost,
			path:   s.rolePath("/messages"),
			token:  token,
			body:   in,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		m := shapeMessage(raw)
		return &m, nil
	})
}

// MarkRead flags a message as read.
func (s MessagesService) MarkRead(ctx context.Context, token, id string) (*Message, error) {
	if err := requireID(id, "Message"); err != nil {
		return nil, err
	}
	op := operation{action: "update message", resource: "Message"}
	return Guard(ctx, s.inflight, operationKey("markMessageRead", id), op.action, func(ctx context.Context) (*Message, error) {
		raw, err := fetchOne[rawMessage](ctx, s.Client, request{
			method: http.MethodPatch,
			path:   s.rolePath(fmt.Sprintf("/messages/%s", url.PathEscape(id))),
			token:  token,
			body:   map[string]bool{"read": true},
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		m := shapeMessage(raw)
		m.Read = true
		return &m, nil
	})
}
