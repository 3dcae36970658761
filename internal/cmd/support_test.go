package cmd

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportSubmit(t *testing.T) {
	var body map[string]any
	handler := newRouteHandler().
		On("POST", "/api/support", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			jsonResponse(201, `{"_id":"s1","subject":"Upload fails"}`)(w, r)
		})
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "It stops at 99%\n", "support", "submit",
		"--subject", "Upload fails", "--message", "-", "--category", "Technical")
	require.NoError(t, err)
	assert.Contains(t, out, "Opened support ticket s1: Upload fails")
	assert.Equal(t, map[string]any{
		"subject":  "Upload fails",
		"message":  "It stops at 99%",
		"category": "Technical",
	}, body)

	_, errOut, err := runCommand(t, "", "support", "submit", "--subject", "Hi", "--message", "x", "--email", "nope")
	require.Error(t, err)
	assert.Contains(t, errOut, "invalid email format")
	assert.Equal(t, 1, handler.count("POST", "/api/support"))
}

func TestSupportList(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/support/tickets", jsonResponse(200, `[{"_id": "s1", "subject": "Upload fails", "status": "Closed"}]`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "", "support", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Upload fails")
	assert.Contains(t, out, "General")
	assert.Contains(t, out, "Closed")
}

func TestLeasesListActive(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/tenant/leases", jsonResponse(200, `[
			{"_id": "l1", "property": {"title": "Elm Cottage"}, "rent": 1450, "startDate": "2024-01-01", "endDate": "2024-12-31"},
			{"_id": "l2", "property": {"title": "Oak Flat"}, "monthlyRent": 900, "status": "Ended"}
		]`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "", "leases", "list", "--active")
	require.NoError(t, err)
	assert.Contains(t, out, "Elm Cottage")
	assert.Contains(t, out, "$1,450.00")
	assert.NotContains(t, out, "Oak Flat")
}
