package cmd

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messagesFixture = `[
	{"_id": "m1", "subject": "Heating", "content": "The radiator is cold", "sender": {"firstName": "Ana", "lastName": "Ruiz"}, "receiver": {"name": "Lee"}, "isRead": false, "createdAt": "2024-05-02T10:00:00Z"},
	{"id": "m2", "message": "Rent received", "sender": "u9", "read": true, "timestamp": "2024-05-01"}
]`

func TestMessagesList(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/tenant/messages", jsonResponse(200, messagesFixture))
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "", "messages", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Ruiz")
	assert.Contains(t, out, "Lee")
	assert.Contains(t, out, "Unknown Sender")

	out, _, err = runCommand(t, "", "messages", "list", "--unread", "-o", "json")
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "m1", items[0]["id"])
	assert.Equal(t, false, items[0]["read"])
}

func TestMessagesShow(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/tenant/messages", jsonResponse(200, messagesFixture))
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "", "messages", "show", "m2")
	require.NoError(t, err)
	assert.Contains(t, out, "Subject: No Subject")
	assert.Contains(t, out, "Read: yes")
	assert.Contains(t, out, "Rent received")

	_, errOut, err := runCommand(t, "", "messages", "show", "m404")
	require.Error(t, err)
	assert.Equal(t, exitNotFound, ExitCode(err))
	assert.Contains(t, errOut, "Message m404 not found")
}

func TestMessagesSendFromStdin(t *testing.T) {
	var body map[string]any
	handler := newRouteHandler().
		On("POST", "/api/tenant/messages", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			jsonResponse(201, `{"_id":"m7","content":"See you at 5"}`)(w, r)
		})
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "See you at 5\n", "messages", "send", "--to", "u42", "--subject", "Visit", "--content", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Sent message m7")
	assert.Equal(t, "u42", body["recipientId"])
	assert.Equal(t, "Visit", body["subject"])
	assert.Equal(t, "See you at 5", body["content"])
	assert.NotContains(t, body, "propertyId")
}

func TestMessagesSendValidation(t *testing.T) {
	handler := newRouteHandler()
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"blank body", []string{"--to", "u1", "--body", "   "}, "message content cannot be empty"},
		{"bad recipient", []string{"--to", "a/b", "--content", "hi"}, "invalid recipient"},
		{"missing to", []string{"--content", "hi"}, `required flag(s) "to" not set`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, err := runCommand(t, "", append([]string{"messages", "send"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, errOut, tt.want)
		})
	}
	assert.Zero(t, handler.count("POST", "/api/tenant/messages"))
}

func TestMessagesReadBulk(t *testing.T) {
	var bodies []string
	handler := newRouteHandler().
		On("PATCH", "/api/tenant/messages/m1", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			raw, _ := json.Marshal(body)
			bodies = append(bodies, string(raw))
			jsonResponse(200, `{"_id":"m1"}`)(w, r)
		}).
		On("PATCH", "/api/tenant/messages/m2", jsonResponse(500, `{"message":"boom"}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "", "messages", "read", "m1", "m2", "--concurrency", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 message operations failed")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Marked read message m1", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Failed message m2:"))
	assert.Equal(t, []string{`{"read":true}`}, bodies)
}
