package domain

import (
	"context"
	"errors"
)

// Persisted state keys.
const (
	TokenKey        = "token"
	RefreshTokenKey = "refreshToken"
	ThemeKey        = "theme"
)

// ErrNotFound is returned by a StateStore when a key has no value.
var ErrNotFound = errors.New("not found")

// StateStore is the port for durable client state (tokens, theme).
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// AuthAPI is the port for the backend's authentication endpoints.
type AuthAPI interface {
	LoginTelegram(ctx context.Context, a TelegramAssertion) (*AuthResult, error)
	Profile(ctx context.Context) (*User, error)
}

// TokenHolder is the request client's default Authorization slot.
type TokenHolder interface {
	SetToken(token string)
	ClearToken()
}

// UserAPI is the port for profile, preference and stats endpoints.
type UserAPI interface {
	Profile(ctx context.Context) (*User, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*User, error)
	UpdatePreferences(ctx context.Context, in PreferencesInput) (*User, error)
	Stats(ctx context.Context) (*Stats, error)
}

// NotesAPI is the port for note endpoints.
type NotesAPI interface {
	ListNotes(ctx context.Context, q ListQuery) (*NoteList, error)
	GetNote(ctx context.Context, id string) (*Note, error)
	CreateNote(ctx context.Context, in NoteInput) (*Note, error)
	UpdateNote(ctx context.Context, id string, in NoteInput) (*Note, error)
	DeleteNote(ctx context.Context, id string) error
	EnrichNote(ctx context.Context, id string) (*Note, error)
	SearchNotes(ctx context.Context, q SearchQuery) (*NoteList, error)
}

// ProfileInput is the editable part of a profile.
type ProfileInput struct {
	Name  string `json:"name"`
	Bio   string `json:"bio"`
	Email string `json:"email"`
}

// PreferencesInput is the settings save payload. Name and Email are only sent
// when they changed.
type PreferencesInput struct {
	Preferences
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}
