package api

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
)

// SupportTicket is a help request sent to portal staff.
type SupportTicket struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type rawSupportTicket struct {
	identity
	Subject   flexString `json:"subject"`
	Message   flexString `json:"message"`
	Category  flexString `json:"category"`
	Email     flexString `json:"email"`
	Status    flexString `json:"status"`
	CreatedAt flexString `json:"createdAt"`
}

func shapeSupportTicket(r rawSupportTicket) SupportTicket {
	return SupportTicket{
		ID:        r.id(),
		Subject:   orDefault(r.Subject, "No Subject"),
		Message:   string(r.Message),
		Category:  orDefault(r.Category, "General"),
		Email:     string(r.Email),
		Status:    orDefault(r.Status, "Open"),
		CreatedAt: string(r.CreatedAt),
	}
}

// SupportInput opens a support ticket.
type SupportInput struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
	Email    string `json:"email,omitempty"`
}

func (in SupportInput) Validate() error {
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Message) == "" {
		return clientErrorf("Subject and message are required")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return clientErrorf("Invalid email address %q", in.Email)
		}
	}
	return nil
}

// Submit opens a support ticket.
func (s SupportService) Submit(ctx context.Context, token string, in SupportInput) (*SupportTicket, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "submit support request", resource: "Support ticket"}
	return Guard(ctx, s.inflight, "submitSupportRequest", op.action, func(ctx context.Context) (*SupportTicket, error) {
		raw, err := fetchOne[rawSupportTicket](ctx, s.Client, request{
			method: http.MethodPost,
			path:   "/api/support",
			token:  token,
			body:   in,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		t := shapeSupportTicket(raw)
		return &t, nil
	})
}

// List returns the caller's support tickets.
func (s SupportService) List(ctx context.Context, token string) ([]SupportTicket, error) {
	op := operation{action: "fetch support tickets", resource: "Support tickets"}
	return Guard(ctx, s.inflight, "fetchSupportTickets", op.action, func(ctx context.Context) ([]SupportTicket, error) {
		raws, err := fetchList[rawSupportTicket](ctx, s.Client, request{
			method: http.MethodGet,
			path:   "/api/support/tickets",
			token:  token,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		return shapeAll(raws, shapeSupportTicket), nil
	})
}
