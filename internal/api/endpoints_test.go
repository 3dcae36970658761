package api

import (
	"context"
	"net/http"
	"testing"
	"time"
)

// endpointCalls exercises one call per resource endpoint with a token.
func endpointCalls(c *Client, tok string) map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"dashboard": func(ctx context.Context) error {
			_, err := c.Dashboard().Fetch(ctx, tok)
			return err
		},
		"messages": func(ctx context.Context) error {
			_, err := c.Messages().List(ctx, tok)
			return err
		},
		"send message": func(ctx context.Context) error {
			_, err := c.Messages().Send(ctx, tok, MessageInput{RecipientID: "u2", Content: "hi"})
			return err
		},
		"payments": func(ctx context.Context) error {
			_, err := c.Payments().List(ctx, tok)
			return err
		},
		"maintenance": func(ctx context.Context) error {
			_, err := c.Maintenance().List(ctx, tok)
			return err
		},
		"properties": func(ctx context.Context) error {
			_, err := c.Properties().List(ctx, tok)
			return err
		},
		"profile": func(ctx context.Context) error {
			_, err := c.Profile().Get(ctx, tok)
			return err
		},
		"notifications": func(ctx context.Context) error {
			_, err := c.Notifications().Get(ctx, tok)
			return err
		},
		"documents": func(ctx context.Context) error {
			_, err := c.Documents().List(ctx, tok)
			return err
		},
		"applications": func(ctx context.Context) error {
			_, err := c.Applications().List(ctx, tok)
			return err
		},
		"support": func(ctx context.Context) error {
			_, err := c.Support().Submit(ctx, tok, SupportInput{Subject: "help", Message: "please"})
			return err
		},
		"leases": func(ctx context.Context) error {
			_, err := c.Leases().List(ctx, tok)
			return err
		},
		"delete document": func(ctx context.Context) error {
			return c.Documents().Delete(ctx, tok, "d1")
		},
	}
}

func TestUnauthorizedClearsTokensOnEveryEndpoint(t *testing.T) {
	tok := validToken(t)
	probe := New("http://example.invalid", nil)
	for name := range endpointCalls(probe, tok) {
		t.Run(name, func(t *testing.T) {
			store := seededStore(tok, "refresh-1")
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"invalid token"}`))
			}), store)

			err := endpointCalls(c, tok)[name](context.Background())
			e := assertCategory(t, err, CategoryAuth)
			if e.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d", e.StatusCode)
			}
			assertCleared(t, store)
		})
	}
}

func TestListEndpointsCoerceNonArrays(t *testing.T) {
	payloads := []string{`null`, `{"data":[{"id":"1"}]}`, `"text"`, ``, `42`}
	tok := validToken(t)

	type lister func(c *Client) (int, bool, error)
	listers := map[string]lister{
		"messages": func(c *Client) (int, bool, error) {
			v, err := c.Messages().List(context.Background(), tok)
			return len(v), v != nil, err
		},
		"payments": func(c *Client) (int, bool, error) {
			v, err := c.Payments().List(context.Background(), tok)
			return len(v), v != nil, err
		},
		"maintenance": func(c *Client) (int, bool, error) {
			v, err := c.Maintenance().List(context.Background(), tok)
			return len(v), v != nil, err
		},
		"properties": func(c *Client) (int, bool, error) {
			v, err := c.Properties().List(context.Background(), "")
			return len(v), v != nil, err
		},
		"documents": func(c *Client) (int, bool, error) {
			v, err := c.Documents().List(context.Background(), tok)
			return len(v), v != nil, err
		},
		"applications": func(c *Client) (int, bool, error) {
			v, err := c.Applications().List(context.Background(), tok)
			return len(v), v != nil, err
		},
		"support tickets": func(c *Client) (int, bool, error) {
			v, err := c.Support().List(context.Background(), tok)
			return len(v), v != nil, err
		},
		"leases": func(c *Client) (int, bool, error) {
			v, err := c.Leases().List(context.Background(), tok)
			return len(v), v != nil, err
		},
	}

	for name, list := range listers {
		for _, payload := range payloads {
			t.Run(name+"/"+payload, func(t *testing.T) {
				c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte(payload))
				}), nil)
				n, nonNil, err := list(c)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if n != 0 || !nonNil {
					t.Errorf("expected empty non-nil slice, got len %d (non-nil %v)", n, nonNil)
				}
			})
		}
	}
}

func TestEndpointCancellation(t *testing.T) {
	g := newGate()
	defer g.open()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.wait()
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Payments().List(ctx, validToken(t))
		done <- err
	}()
	<-g.entered
	cancel()

	e := assertCategory(t, <-done, CategoryCancelled)
	if e.Message != "Request to fetch payments was cancelled" {
		t.Errorf("message = %q", e.Message)
	}
	if c.Inflight().Len() != 0 {
		t.Error("cancelled call should release its dedup key")
	}
}

func TestEndpointTimeoutIsNetworkError(t *testing.T) {
	g := newGate()
	defer g.open()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.wait()
	}), nil, WithTimeout(20*time.Millisecond))

	_, err := c.Leases().List(context.Background(), validToken(t))
	assertCategory(t, err, CategoryNetwork)
}

func TestWithTimeoutLeavesSharedHTTPClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	for _, opts := range [][]Option{
		{WithHTTPClient(shared), WithTimeout(time.Second)},
		{WithTimeout(time.Second), WithHTTPClient(shared)},
	} {
		c := New("http://example.invalid", nil, opts...)
		if c.HTTP == shared {
			t.Fatal("timeout should apply to a copy of the shared client")
		}
		if c.HTTP.Timeout != time.Second {
			t.Errorf("client timeout = %v, want 1s", c.HTTP.Timeout)
		}
	}
	if shared.Timeout != time.Minute {
		t.Errorf("shared client timeout changed to %v", shared.Timeout)
	}
}

func TestEndpointMissingTokenIsAuthError(t *testing.T) {
	c := New("http://example.invalid", nil)
	_, err := c.Payments().List(context.Background(), "")
	assertCategory(t, err, CategoryAuth)
}
