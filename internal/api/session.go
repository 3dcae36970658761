package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rentportal/rentportal-cli/internal/credstore"
	"github.com/rentportal/rentportal-cli/internal/debug"
	"github.com/rentportal/rentportal-cli/internal/token"
)

// RefreshPath is the backend endpoint that exchanges a refresh token.
const RefreshPath = "/api/auth/refresh-token"

const refreshKey = "refresh"

// SessionManager hands out access tokens that are not expired, renewing them
// against the backend when needed.
type SessionManager struct {
	baseURL   string
	http      *http.Client
	store     credstore.Store
	userAgent string
	now       func() time.Time

	// trustClaimless passes tokens without a readable exp claim through
	// unchanged instead of forcing a refresh.
	trustClaimless bool

	group singleflight.Group
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token             string `json:"token"`
	AccessToken       string `json:"accessToken"`
	AccessTokenSnake  string `json:"access_token"`
	RefreshToken      string `json:"refreshToken"`
	RefreshTokenSnake string `json:"refresh_token"`
}

func (r refreshResponse) access() string {
	return firstNonEmpty(r.Token, r.AccessToken, r.AccessTokenSnake)
}

func (r refreshResponse) refresh() string {
	return firstNonEmpty(r.RefreshToken, r.RefreshTokenSnake)
}

// EnsureValid returns tok if it is still usable, or a freshly renewed token.
func (s *SessionManager) EnsureValid(ctx context.Context, tok string) (string, error) {
	if strings.TrimSpace(tok) == "" {
		return "", newError(CategoryAuth, "No authentication token provided. Please log in.")
	}

	claims, err := token.Decode(tok)
	switch {
	case err != nil:
		if s.trustClaimless {
			return tok, nil
		}
		if debug.IsEnabled(ctx) {
			slog.Debug("access token unreadable, refreshing", "error", err)
		}
		return s.Refresh(ctx)
	case !claims.HasExpiry():
		if s.trustClaimless {
			return tok, nil
		}
		return s.Refresh(ctx)
	case !s.now().Before(claims.Expiry()):
		if debug.IsEnabled(ctx) {
			slog.Debug("access token expired, refreshing", "subject", claims.Subject(), "exp", claims.Expiry())
		}
		return s.Refresh(ctx)
	}
	return tok, nil
}

// Refresh exchanges the stored refresh token for a new access token.
// Concurrent callers share a single exchange. On failure both stored tokens
// are removed.
func (s *SessionManager) Refresh(ctx context.Context) (string, error) {
	// The shared exchange outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := s.group.DoChan(refreshKey, func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", newError(CategoryCancelled, "Session refresh was cancelled")
	}
}

func (s *SessionManager) refresh(ctx context.Context) (string, error) {
	refreshToken, err := credstore.Lookup(ctx, s.store, credstore.KeyRefreshToken)
	if err != nil {
		return "", &Error{Category: CategoryAuth, Message: "Unable to read stored session. Please log in again.", Details: err.Error()}
	}
	if refreshToken == "" {
		return "", newError(CategoryAuth, "No refresh token available. Please log in again.")
	}

	resp, err := s.exchange(ctx, refreshToken)
	if err != nil {
		if clearErr := credstore.ClearTokens(ctx, s.store); clearErr != nil {
			slog.Warn("failed to clear credentials after refresh failure", "error", clearErr)
		}
		return "", err
	}

	if err := credstore.SaveTokens(ctx, s.store, resp.access(), resp.refresh()); err != nil {
		return "", &Error{Category: CategoryAuth, Message: "Unable to store renewed session", Details: err.Error()}
	}
	slog.Debug("session refreshed")
	return resp.access(), nil
}

// exchange performs the refresh call. Every failure is reported as an auth error.
func (s *SessionManager) exchange(ctx context.Context, refreshToken string) (refreshResponse, error) {
	var out refreshResponse

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return out, &Error{Category: CategoryAuth, Message: "Failed to refresh session", Details: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+RefreshPath, bytes.NewReader(payload))
	if err != nil {
		return out, &Error{Category: CategoryAuth, Message: "Failed to refresh session", Details: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return out, &Error{Category: CategoryAuth, Message: "Unable to refresh session. Please log in again.", Details: err.Error()}
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return out, &Error{Category: CategoryAuth, Message: "Unable to refresh session. Please log in again.", StatusCode: resp.StatusCode, Details: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &Error{
			Category:   CategoryAuth,
			Message:    "Session expired. Please log in again.",
			StatusCode: resp.StatusCode,
			Details:    responseDetails(body),
		}
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, &Error{Category: CategoryAuth, Message: "Invalid refresh response", StatusCode: resp.StatusCode, Details: err.Error()}
	}
	if out.access() == "" {
		return out, &Error{Category: CategoryAuth, Message: "Refresh response did not include an access token", StatusCode: resp.StatusCode, Details: responseDetails(body)}
	}
	return out, nil
}

// CurrentToken returns the stored access token, renewed if necessary.
func (c *Client) CurrentToken(ctx context.Context) (string, error) {
	tok, err := credstore.Lookup(ctx, c.Store, credstore.KeyAccessToken)
	if err != nil {
		return "", &Error{Category: CategoryAuth, Message: "Unable to read stored session", Details: err.Error()}
	}
	if tok == "" {
		return "", newError(CategoryAuth, "Not logged in. Run 'rp auth login' first.")
	}
	return c.session.EnsureValid(ctx, tok)
}

// Session returns the client's session manager.
func (c *Client) Session() *SessionManager {
	return c.session
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
