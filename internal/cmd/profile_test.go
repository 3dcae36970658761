package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileShow(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/users/me", jsonResponse(200, `{"user": {
			"_id": "u1", "name": "Ana Ruiz", "email": "ana@example.com", "phoneNumber": "+1 512 555 0100",
			"role": "tenant", "avatar": "https://img.example.com/ana.png", "bio": "No pets", "createdAt": "2023-09-01"
		}}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "", "profile", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Name: Ana Ruiz")
	assert.Contains(t, out, "Phone: +1 512 555 0100")
	assert.Contains(t, out, "Picture: https://img.example.com/ana.png")
	assert.Contains(t, out, "Member since: 2023-09-01")
	assert.Contains(t, out, "No pets")

	out, _, err = runCommand(t, "", "me", "show", "--jq", ".firstName")
	require.NoError(t, err)
	assert.JSONEq(t, `"Ana"`, out)
}

func TestProfileUpdate(t *testing.T) {
	var body map[string]any
	handler := newRouteHandler().
		On("PUT", "/api/users/me", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			jsonResponse(200, `{"firstName":"Ana","lastName":"Diaz","email":"ana@example.com"}`)(w, r)
		})
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "", "profile", "update", "--last", "Diaz", "--phone", "(512) 555-0100")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated profile: Ana Diaz")
	assert.Equal(t, map[string]any{"lastName": "Diaz", "phone": "(512) 555-0100"}, body)
}

func TestProfileUpdateValidation(t *testing.T) {
	handler := newRouteHandler()
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no fields", nil, "At least one profile field is required"},
		{"bad email", []string{"--email", "not-an-email"}, "invalid email format"},
		{"bad phone", []string{"--phone", "555-CALL"}, "invalid phone format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, err := runCommand(t, "", append([]string{"profile", "update"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, exitUsage, ExitCode(err))
			assert.Contains(t, errOut, tt.want)
		})
	}
	assert.Zero(t, handler.count("PUT", "/api/users/me"))
}

func TestProfilePassword(t *testing.T) {
	var body map[string]string
	handler := newRouteHandler().
		On("PUT", "/api/users/me/password", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			jsonResponse(200, `{"message":"ok"}`)(w, r)
		})
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	t.Run("changed", func(t *testing.T) {
		out, errOut, err := runCommand(t, "old-secret\nnew-secret-1\nnew-secret-1\n", "profile", "password")
		require.NoError(t, err)
		assert.Contains(t, errOut, "Current password: ")
		assert.Contains(t, errOut, "Confirm new password: ")
		assert.Contains(t, out, "Changed password")
		assert.Equal(t, map[string]string{"currentPassword": "old-secret", "newPassword": "new-secret-1"}, body)
	})

	t.Run("mismatch", func(t *testing.T) {
		_, errOut, err := runCommand(t, "old-secret\nnew-secret-1\nnew-secret-2\n", "profile", "password")
		require.Error(t, err)
		assert.Contains(t, errOut, "new passwords do not match")
	})

	t.Run("too short", func(t *testing.T) {
		_, errOut, err := runCommand(t, "old-secret\nshort\nshort\n", "profile", "password")
		require.Error(t, err)
		assert.Contains(t, errOut, "at least 8 characters")
	})

	assert.Equal(t, 1, handler.count("PUT", "/api/users/me/password"))
}

func TestProfilePicture(t *testing.T) {
	var (
		fileName string
		fileType string
		content  string
	)
	handler := newRouteHandler().
		On("PUT", "/api/users/me/picture", func(w http.ResponseWriter, r *http.Request) {
			f, hdr, err := r.FormFile("profilePicture")
			if !assert.NoError(t, err) {
				return
			}
			defer func() { _ = f.Close() }()
			data, _ := io.ReadAll(f)
			fileName, fileType, content = hdr.Filename, hdr.Header.Get("Content-Type"), string(data)
			jsonResponse(200, `{"profilePicture":"https://img.example.com/me.png"}`)(w, r)
		})
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "me.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG fake"), 0o600))

	out, _, err := runCommand(t, "", "profile", "picture", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded profile picture: https://img.example.com/me.png")
	assert.Equal(t, "me.png", fileName)
	assert.Equal(t, "image/png", fileType)
	assert.Equal(t, "\x89PNG fake", content)

	doc := filepath.Join(dir, "me.txt")
	require.NoError(t, os.WriteFile(doc, []byte("hello"), 0o600))
	_, errOut, err := runCommand(t, "", "profile", "picture", doc)
	require.Error(t, err)
	assert.Contains(t, errOut, "Picture must be a JPEG, PNG, GIF, or WebP image")
	assert.Equal(t, 1, handler.count("PUT", "/api/users/me/picture"))
}

func TestNotificationsShowDefaults(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/api/users/me/notifications", jsonResponse(200, `{"notifications": {"push": false}}`))
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "", "notifications", "show", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"email": true, "sms": false, "push": false,
		"paymentReminders": true, "maintenanceUpdates": true, "messages": true
	}`, out)
}

func TestNotificationsSetSendsOnlyChangedFlags(t *testing.T) {
	var body map[string]any
	handler := newRouteHandler().
		On("PUT", "/api/users/me/notifications", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			jsonResponse(200, `{"sms": false, "paymentReminders": true}`)(w, r)
		})
	env := setupTestEnvWithHandler(t, handler)
	env.login(t)

	out, _, err := runCommand(t, "", "notifications", "set", "--sms=false", "--payment-reminders")
	require.NoError(t, err)
	assert.Contains(t, out, "CHANNEL")
	assert.Equal(t, map[string]any{"sms": false, "paymentReminders": true}, body)

	_, errOut, err := runCommand(t, "", "notifications", "set")
	require.Error(t, err)
	assert.Contains(t, errOut, "At least one notification preference is required")
	assert.Equal(t, 1, handler.count("PUT", "/api/users/me/notifications"))
}
