package app

import (
	"context"
	"errors"

	"notes/internal/domain"
)

// ErrNotAuthenticated indicates an operation that needs a logged-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// UserService encapsulates profile, preference and stats use cases. Saved
// edits are reflected into the session without refetching the profile.
type UserService struct {
	api     domain.UserAPI
	session *SessionStore
}

// NewUserService creates a UserService.
func NewUserService(api domain.UserAPI, session *SessionStore) *UserService {
	return &UserService{api: api, session: session}
}

// Profile fetches the current profile from the backend.
func (s *UserService) Profile(ctx context.Context) (*domain.User, error) {
	return s.api.Profile(ctx)
}

// Stats fetches the note statistics of the current user.
func (s *UserService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.api.Stats(ctx)
}

// UpdateProfile saves name, bio and email and merges the confirmed name and
// email into the session user.
func (s *UserService) UpdateProfile(ctx context.Context, in domain.ProfileInput) (*domain.User, error) {
	u, err := s.api.UpdateProfile(ctx, in)
	if err != nil {
		return nil, err
	}
	s.session.UpdateUser(domain.UserPatch{Name: &u.Name, Email: &u.Email})
	return u, nil
}

// SavePreferences stores the settings. Name and email are sent only when they
// differ from the session user.
func (s *UserService) SavePreferences(ctx context.Context, prefs domain.Preferences, name, email string) error {
	current := s.session.User()
	if current == nil {
		return ErrNotAuthenticated
	}

	in := domain.PreferencesInput{Preferences: prefs}
	if name != "" && name != current.Name {
		in.Name = &name
	}
	if email != "" && email != current.Email {
		in.Email = &email
	}

	if _, err := s.api.UpdatePreferences(ctx, in); err != nil {
		return err
	}
	s.session.UpdateUser(domain.UserPatch{Preferences: &prefs, Name: in.Name, Email: in.Email})
	return nil
}

// CurrentPreferences returns the session user's preferences, or the defaults.
func (s *UserService) CurrentPreferences() domain.Preferences {
	if u := s.session.User(); u != nil && u.Preferences != nil {
		return *u.Preferences
	}
	return domain.DefaultPreferences()
}
