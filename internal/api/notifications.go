package api

import (
	"context"
	"net/http"
)

// NotificationPreferences are the user's delivery settings.
type NotificationPreferences struct {
	Email              bool `json:"email"`
	SMS                bool `json:"sms"`
	Push               bool `json:"push"`
	PaymentReminders   bool `json:"paymentReminders"`
	MaintenanceUpdates bool `json:"maintenanceUpdates"`
	Messages           bool `json:"messages"`
}

type rawNotifications struct {
	Email              *flexBool `json:"email"`
	SMS                *flexBool `json:"sms"`
	Push               *flexBool `json:"push"`
	PaymentReminders   *flexBool `json:"paymentReminders"`
	MaintenanceUpdates *flexBool `json:"maintenanceUpdates"`
	Messages           *flexBool `json:"messages"`
}

type rawNotificationsEnvelope struct {
	rawNotifications
	Preferences *rawNotifications `json:"notifications"`
}

// Unset preferences default to enabled, except SMS.
func shapeNotifications(r rawNotifications) NotificationPreferences {
	flag := func(v *flexBool, def bool) bool {
		if v == nil {
			return def
		}
		return bool(*v)
	}
	return NotificationPreferences{
		Email:              flag(r.Email, true),
		SMS:                flag(r.SMS, false),
		Push:               flag(r.Push, true),
		PaymentReminders:   flag(r.PaymentReminders, true),
		MaintenanceUpdates: flag(r.MaintenanceUpdates, true),
		Messages:           flag(r.Messages, true),
	}
}

// NotificationUpdate sets individual flags; nil fields are left unchanged.
type NotificationUpdate struct {
	Email              *bool `json:"email,omitempty"`
	SMS                *bool `json:"sms,omitempty"`
	Push               *bool `json:"push,omitempty"`
	PaymentReminders   *bool `json:"paymentReminders,omitempty"`
	MaintenanceUpdates *bool `json:"maintenanceUpdates,omitempty"`
	Messages           *bool `json:"messages,omitempty"`
}

func (in NotificationUpdate) Validate() error {
	if in == (NotificationUpdate{}) {
		return clientErrorf("At least one notification preference is required")
	}
	return nil
}

// Get returns the user's notification preferences.
func (s NotificationsService) Get(ctx context.Context, token string) (*NotificationPreferences, error) {
	op := operation{action: "fetch notification preferences", resource: "Notification preferences"}
	return Guard(ctx, s.inflight, "fetchNotificationPreferences", op.action, func(ctx context.Context) (*NotificationPreferences, error) {
		return s.one(ctx, request{
			method: http.MethodGet,
			path:   "/api/users/me/notifications",
			token:  token,
			op:     op,
		})
	})
}

// Update changes notification preferences.
func (s NotificationsService) Update(ctx context.Context, token string, in NotificationUpdate) (*NotificationPreferences, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "update notification preferences", resource: "Notification preferences"}
	return Guard(ctx, s.inflight, "updateNotificationPreferences", op.action, func(ctx context.Context) (*NotificationPreferences, error) {
		return s.one(ctx, request{
			method: http.MethodPut,
			path:   "/api/users/me/notifications",
			token:  token,
			body:   in,
			op:     op,
		})
	})
}

func (s NotificationsService) one(ctx context.Context, req request) (*NotificationPreferences, error) {
	raw, err := fetchOne[rawNotificationsEnvelope](ctx, s.Client, req)
	if err != nil {
		return nil, err
	}
	inner := raw.rawNotifications
	if raw.Preferences != nil {
		inner = *raw.Preferences
	}
	p := shapeNotifications(inner)
	return &p, nil
}
