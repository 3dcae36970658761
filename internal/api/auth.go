package api

import (
	"context"
	"net/http"
	"net/mail"
	"strings"

	"github.com/rentportal/rentportal-cli/internal/credstore"
)

// LoginPath is the backend endpoint that issues a new session.
const LoginPath = "/api/auth/login"

// Credentials are the email and password used to sign in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in Credentials) Validate() error {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return clientErrorf("Email and password are required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return clientErrorf("Invalid email address %q", in.Email)
	}
	return nil
}

// LoginResult is a new session.
type LoginResult struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	User         *Profile `json:"user,omitempty"`
}

type rawLogin struct {
	refreshResponse
	User *rawProfile `json:"user"`
}

// Login signs in and persists the issued tokens to the client's store.
func (s AuthService) Login(ctx context.Context, in Credentials) (*LoginResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "log in", resource: "Account"}
	return Guard(ctx, s.inflight, "login", op.action, func(ctx context.Context) (*LoginResult, error) {
		raw, err := fetchOne[rawLogin](ctx, s.Client, request{
			method: http.MethodPost,
			path:   LoginPath,
			public: true,
			body:   in,
			op:     op,
		})
		if err != nil {
			if e, ok := AsError(err); ok && e.StatusCode == http.StatusUnauthorized {
				return nil, &Error{Category: CategoryAuth, Message: "Invalid email or password", StatusCode: e.StatusCode, Details: e.Details}
			}
			return nil, err
		}
		if raw.access() == "" {
			return nil, &Error{Category: CategoryUnknown, Message: "Login response did not include an access token", Details: NoDetails}
		}
		if err := credstore.SaveTokens(ctx, s.Store, raw.access(), raw.refresh()); err != nil {
			return nil, &Error{Category: CategoryUnknown, Message: "Unable to store session", Details: err.Error()}
		}

		result := &LoginResult{Token: raw.access(), RefreshToken: raw.refresh()}
		if raw.User != nil {
			p := shapeProfile(*raw.User)
			result.User = &p
		}
		return result, nil
	})
}

// Logout removes the stored session.
func (s AuthService) Logout(ctx context.Context) error {
	if err := credstore.ClearTokens(ctx, s.Store); err != nil {
		return &Error{Category: CategoryUnknown, Message: "Unable to remove stored session", Details: err.Error()}
	}
	return nil
}
