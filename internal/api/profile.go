package api

import (
	"context"
	"net/http"
	"net/mail"
	"path/filepath"
	"strings"
)

// Profile is the signed-in user's account.
type Profile struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profilePicture"`
	Bio            string `json:"bio"`
	CreatedAt      string `json:"createdAt"`
}

// FullName joins first and last name.
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type rawProfile struct {
	identity
	FirstName      flexString `json:"firstName"`
	LastName       flexString `json:"lastName"`
	Name           flexString `json:"name"`
	Email          flexString `json:"email"`
	Phone          flexString `json:"phone"`
	PhoneNumber    flexString `json:"phoneNumber"`
	Role           flexString `json:"role"`
	ProfilePicture flexString `json:"profilePicture"`
	Avatar         flexString `json:"avatar"`
	Bio            flexString `json:"bio"`
	CreatedAt      flexString `json:"createdAt"`
}

type rawProfileEnvelope struct {
	rawProfile
	User *rawProfile `json:"user"`
}

func shapeProfile(r rawProfile) Profile {
	first, last := string(r.FirstName), string(r.LastName)
	if first == "" && last == "" && r.Name != "" {
		first, last, _ = strings.Cut(strings.TrimSpace(string(r.Name)), " ")
	}
	return Profile{
		ID:             r.id(),
		FirstName:      first,
		LastName:       last,
		Email:          string(r.Email),
		Phone:          firstNonEmpty(string(r.Phone), string(r.PhoneNumber)),
		Role:           string(r.Role),
		ProfilePicture: firstNonEmpty(string(r.ProfilePicture), string(r.Avatar)),
		Bio:            string(r.Bio),
		CreatedAt:      string(r.CreatedAt),
	}
}

// ProfileUpdate changes profile fields. Empty fields are left unchanged.
type ProfileUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

func (in ProfileUpdate) Validate() error {
	if in == (ProfileUpdate{}) {
		return clientErrorf("At least one profile field is required")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return clientErrorf("Invalid email address %q", in.Email)
		}
	}
	return nil
}

// PasswordChange replaces the account password.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// MinPasswordLength is the shortest accepted new password.
const MinPasswordLength = 8

func (in PasswordChange) Validate() error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return clientErrorf("Current and new passwords are required")
	}
	if len(in.NewPassword) < MinPasswordLength {
		return clientErrorf("New password must be at least %d characters", MinPasswordLength)
	}
	if in.NewPassword == in.CurrentPassword {
		return clientErrorf("New password must differ from the current password")
	}
	return nil
}

var pictureTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// MaxPictureSize caps profile picture uploads.
const MaxPictureSize = 5 * 1024 * 1024

// Get returns the signed-in user's profile.
func (s ProfileService) Get(ctx context.Context, token string) (*Profile, error) {
	op := operation{action: "fetch profile", resource: "Profile"}
	return Guard(ctx, s.inflight, "fetchProfile", op.action, func(ctx context.Context) (*Profile, error) {
		return s.one(ctx, request{
			method: http.MethodGet,
			path:   "/api/users/me",
			token:  token,
			op:     op,
		})
	})
}

// Update changes profile fields.
func (s ProfileService) Update(ctx context.Context, token string, in ProfileUpdate) (*Profile, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "update profile", resource: "Profile"}
	return Guard(ctx, s.inflight, "updateProfile", op.action, func(ctx context.Context) (*Profile, error) {
		return s.one(ctx, request{
			method: http.MethodPut,
			path:   "/api/users/me",
			token:  token,
			body:   in,
			op:     op,
		})
	})
}

// ChangePassword replaces the account password.
func (s ProfileService) ChangePassword(ctx context.Context, token string, in PasswordChange) error {
	if err := in.Validate(); err != nil {
		return err
	}
	op := operation{action: "change password", resource: "User"}
	_, err := Guard(ctx, s.inflight, "changePassword", op.action, func(ctx context.Context) ([]byte, error) {
		return s.send(ctx, request{
			method: http.MethodPut,
			path:   "/api/users/me/password",
			token:  token,
			body:   in,
			op:     op,
		})
	})
	return err
}

// UploadPicture replaces the profile picture.
func (s ProfileService) UploadPicture(ctx context.Context, token string, f File) (*Profile, error) {
	if len(f.Content) == 0 || strings.TrimSpace(f.Name) == "" {
		return nil, clientErrorf("A picture file is required")
	}
	if len(f.Content) > MaxPictureSize {
		return nil, clientErrorf("Picture must be at most %d MB", MaxPictureSize/(1024*1024))
	}
	ct, ok := pictureTypes[strings.ToLower(filepath.Ext(f.Name))]
	if !ok {
		return nil, clientErrorf("Picture must be a JPEG, PNG, GIF, or WebP image")
	}
	if f.ContentType == "" {
		f.ContentType = ct
	}
	op := operation{action: "upload profile picture", resource: "User"}
	return Guard(ctx, s.inflight, "uploadProfilePicture", op.action, func(ctx context.Context) (*Profile, error) {
		return s.one(ctx, request{
			method: http.MethodPut,
			path:   "/api/users/me/picture",
			token:  token,
			form:   &multipartForm{fileField: "profilePicture", file: f},
			op:     op,
		})
	})
}

// one decodes a profile that may be bare or wrapped in {"user": {...}}.
func (s ProfileService) one(ctx context.Context, req request) (*Profile, error) {
	raw, err := fetchOne[rawProfileEnvelope](ctx, s.Client, req)
	if err != nil {
		return nil, err
	}
	inner := raw.rawProfile
	if raw.User != nil {
		inner = *raw.User
	}
	p := shapeProfile(inner)
	return &p, nil
}
