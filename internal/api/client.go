package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/rentportal/rentportal-cli/internal/credstore"
	"github.com/rentportal/rentportal-cli/internal/debug"
)

// DefaultTimeout bounds every network call made by the client.
const DefaultTimeout = 15 * time.Second

// maxResponseSize is the largest response body the client will read (10MB).
const maxResponseSize = 10 * 1024 * 1024

// Role selects which side of the portal role-scoped endpoints address.
type Role string

const (
	RoleLandlord Role = "landlord"
	RoleTenant   Role = "tenant"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleLandlord, RoleTenant:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q (use 'landlord' or 'tenant')", s)
	}
}

// Client is the session-aware portal API client.
//
// Every resource endpoint takes the caller's access token, renews it through
// the SessionManager when it has expired, and returns normalized domain
// objects or an *Error.
type Client struct {
	BaseURL   string
	Role      Role
	HTTP      *http.Client
	UserAgent string
	Store     credstore.Store

	// IdempotencyKeyFunc generates the Idempotency-Key sent with payment
	// creation requests. Nil disables the header.
	IdempotencyKeyFunc func() string

	session  *SessionManager
	inflight *Deduplicator
	timeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRole sets the role used in role-scoped paths.
func WithRole(role Role) Option {
	return func(c *Client) { c.Role = role }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.HTTP = h
		}
	}
}

// WithTimeout sets the client-wide request timeout. It applies to a copy of
// the HTTP client, so a client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.UserAgent = ua }
}

// WithDeduplicator shares an in-flight registry between clients.
func WithDeduplicator(d *Deduplicator) Option {
	return func(c *Client) {
		if d != nil {
			c.inflight = d
		}
	}
}

// WithTrustClaimlessTokens makes the session manager pass through tokens
// whose expiry cannot be read instead of refreshing them.
func WithTrustClaimlessTokens() Option {
	return func(c *Client) { c.session.trustClaimless = true }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.session.now = now
		}
	}
}

// New creates a client for the backend at baseURL. A nil store keeps
// credentials in memory only.
func New(baseURL string, store credstore.Store, opts ...Option) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	if store == nil {
		store = credstore.NewMemory(nil)
	}

	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Role:    RoleTenant,
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		Store:              store,
		IdempotencyKeyFunc: newIdempotencyKey,
		inflight:           NewDeduplicator(),
		session:            &SessionManager{now: time.Now},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		h := *c.HTTP
		h.Timeout = c.timeout
		c.HTTP = &h
	}

	c.session.baseURL = c.BaseURL
	c.session.http = c.HTTP
	c.session.store = c.Store
	c.session.userAgent = c.UserAgent
	return c
}

// Inflight returns the client's request de-duplicator.
func (c *Client) Inflight() *Deduplicator {
	return c.inflight
}

func newIdempotencyKey() string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("rp_%d", time.Now().UnixNano())
	}
	return id.String()
}

// rolePath returns a role-scoped path, e.g. "/api/tenant/payments".
func (c *Client) rolePath(path string) string {
	if path != "" && path[0] != '/' {
		path = "/" + path
	}
	return fmt.Sprintf("/api/%s%s", c.Role, path)
}

// request describes one backend call.
type request struct {
	method string
	path   string
	token  string
	// public endpoints may be called without a token.
	public     bool
	body       any
	form       *multipartForm
	op         operation
	idempotent bool
}

// send validates the token, performs exactly one HTTP call, and returns the
// raw response body. All failures come back as *Error.
func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	tok := req.token
	if !req.public || tok != "" {
		valid, err := c.session.EnsureValid(ctx, tok)
		if err != nil {
			return nil, c.normalize(ctx, err, req.op)
		}
		tok = valid
	}

	var (
		payload     []byte
		contentType string
	)
	switch {
	case req.form != nil:
		var err error
		payload, contentType, err = req.form.encode()
		if err != nil {
			return nil, clientErrorf("Failed to prepare upload: %v", err)
		}
	case req.body != nil:
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return nil, clientErrorf("Failed to encode request: %v", err)
		}
		contentType = "application/json"
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.BaseURL+req.path, bodyReader)
	if err != nil {
		return nil, clientErrorf("Failed to create request: %v", err)
	}
	if tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}
	if req.idempotent && c.IdempotencyKeyFunc != nil {
		httpReq.Header.Set("Idempotency-Key", c.IdempotencyKeyFunc())
	}

	start := time.Now()
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "method", req.method, "path", req.path, "error", err)
		}
		return nil, c.normalize(ctx, err, req.op)
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	_ = resp.Body.Close()
	if err != nil {
		return nil, c.normalize(ctx, err, req.op)
	}
	if len(respBody) > maxResponseSize {
		return nil, &Error{
			Category:   CategoryUnknown,
			Message:    fmt.Sprintf("Response to %s exceeds the maximum allowed size of 10MB", req.op.action),
			StatusCode: resp.StatusCode,
			Details:    NoDetails,
		}
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "method", req.method, "path", req.path, "status", resp.StatusCode, "duration", time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.normalize(ctx, &responseError{StatusCode: resp.StatusCode, Body: respBody}, req.op)
	}
	return respBody, nil
}

// fetchOne sends req and decodes the response object into raw.
func fetchOne[R any](ctx context.Context, c *Client, req request) (R, error) {
	var raw R
	body, err := c.send(ctx, req)
	if err != nil {
		return raw, err
	}
	if err := decodeObject(body, &raw); err != nil {
		return raw, decodeError(req.op, err)
	}
	return raw, nil
}

// fetchList sends req and decodes an array response. Non-array payloads
// yield an empty slice.
func fetchList[R any](ctx context.Context, c *Client, req request) ([]R, error) {
	body, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeList[R](ctx, body), nil
}

// decodeObject unmarshals body into dst. Empty and null bodies leave dst zero.
func decodeObject(body []byte, dst any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil
	}
	if body[0] != '{' {
		return fmt.Errorf("expected a JSON object, got %q", truncate(string(body), 40))
	}
	return json.Unmarshal(body, dst)
}

// decodeList decodes a JSON array element by element, skipping elements that
// are not objects of the expected shape.
func decodeList[R any](ctx context.Context, body []byte) []R {
	body = bytes.TrimSpace(body)
	out := []R{}
	if len(body) == 0 || body[0] != '[' {
		return out
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return out
	}
	for i, elem := range elems {
		var item R
		if err := decodeObject(elem, &item); err != nil || isNull(elem) {
			if debug.IsEnabled(ctx) {
				slog.Debug("skipping malformed list element", "index", i, "error", err)
			}
			continue
		}
		out = append(out, item)
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// File is an upload attachment.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

type multipartForm struct {
	fields    map[string]string
	fileField string
	file      File
}

func (f *multipartForm) encode() ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range f.fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	var (
		part io.Writer
		err  error
	)
	if f.file.ContentType != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.fileField, f.file.Name))
		h.Set("Content-Type", f.file.ContentType)
		part, err = writer.CreatePart(h)
	} else {
		part, err = writer.CreateFormFile(f.fileField, f.file.Name)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file %s: %w", f.file.Name, err)
	}
	if _, err := part.Write(f.file.Content); err != nil {
		return nil, "", fmt.Errorf("failed to write file content %s: %w", f.file.Name, err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
