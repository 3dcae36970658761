package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectItems(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	even := func(n int) bool { return n%2 == 0 }

	assert.Equal(t, []int{2, 4, 6}, selectItems(items, even, 0))
	assert.Equal(t, []int{2, 4}, selectItems(items, even, 2))
	assert.Equal(t, []int{1, 2, 3}, selectItems(items, nil, 3))
	assert.Equal(t, items, selectItems(items, nil, 10))

	none := selectItems(items, func(int) bool { return false }, 0)
	assert.NotNil(t, none)
	assert.Empty(t, none)
	assert.NotNil(t, selectItems[int](nil, nil, 0))
}

type listTestItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestNewListCommand(t *testing.T) {
	handler := newRouteHandler()
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	var fetched int
	cfg := ListConfig[listTestItem]{
		Use:   "list",
		Short: "List items",
		Fetch: func(_ context.Context, _ *portal, token string) ([]listTestItem, error) {
			fetched++
			assert.NotEmpty(t, token)
			return []listTestItem{{"1", "alpha"}, {"2", "beta"}, {"3", "gamma"}}, nil
		},
		Filter:       func(i listTestItem) bool { return i.Name != "beta" },
		Headers:      []string{"ID", "NAME"},
		RowFunc:      func(i listTestItem) []string { return []string{i.ID, i.Name} },
		EmptyMessage: "No items found",
	}

	out, _, err := runCommandWith(t, NewListCommand(cfg))
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
	assert.NotContains(t, out, "beta")

	out, _, err = runCommandWith(t, NewListCommand(cfg), "--limit", "1", "--jq", "[.[].name]", "--compact-json")
	require.NoError(t, err)
	assert.Equal(t, `["alpha"]`, strings.TrimSpace(out))
	assert.Equal(t, 2, fetched)
}

func TestNewListCommandEmpty(t *testing.T) {
	handler := newRouteHandler()
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	cfg := ListConfig[listTestItem]{
		Use:          "list",
		Fetch:        func(context.Context, *portal, string) ([]listTestItem, error) { return nil, nil },
		Headers:      []string{"ID"},
		RowFunc:      func(i listTestItem) []string { return []string{i.ID} },
		EmptyMessage: "No items found",
	}

	out, errOut, err := runCommandWith(t, NewListCommand(cfg))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "No items found")

	out, _, err = runCommandWith(t, NewListCommand(cfg), "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestNewListCommandRequiresSession(t *testing.T) {
	handler := newRouteHandler().On("GET", "/api/tenant/leases", jsonResponse(200, `[]`))
	setupTestEnvWithHandler(t, handler)

	cfg := ListConfig[listTestItem]{
		Use: "list",
		Fetch: func(ctx context.Context, p *portal, token string) ([]listTestItem, error) {
			_, err := p.Leases().List(ctx, token)
			return nil, err
		},
		Headers: []string{"ID"},
		RowFunc: func(i listTestItem) []string { return []string{i.ID} },
	}

	_, errOut, err := runCommandWith(t, NewListCommand(cfg))
	require.Error(t, err)
	assert.Equal(t, exitAuth, ExitCode(err))
	assert.Contains(t, errOut, "log in")
	assert.Zero(t, handler.count("GET", "/api/tenant/leases"))
}
