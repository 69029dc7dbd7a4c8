// Package domain contains the core client entities and the ports the
// application services depend on.
package domain

import "time"

// Notifications holds the per-channel notification switches of a user.
type Notifications struct {
	Email    bool `json:"email"`
	Push     bool `json:"push"`
	Telegram bool `json:"telegram"`
}

// Preferences is the user's settings set.
type Preferences struct {
	Notifications     Notifications `json:"notifications"`
	AutoEnrichEnabled bool          `json:"autoEnrichEnabled"`
	Language          string        `json:"language"`
}

// DefaultPreferences mirrors the settings a fresh account starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Notifications:     Notifications{Telegram: true},
		AutoEnrichEnabled: true,
		Language:          "en",
	}
}

// User represents the authenticated account as reported by the backend.
type User struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Email             string       `json:"email,omitempty"`
	Bio               string       `json:"bio,omitempty"`
	TelegramID        string       `json:"telegramId,omitempty"`
	TelegramUsername  string       `json:"telegramUsername,omitempty"`
	TelegramFirstName string       `json:"telegramFirstName,omitempty"`
	TelegramLastName  string       `json:"telegramLastName,omitempty"`
	TelegramPhotoURL  string       `json:"telegramPhotoUrl,omitempty"`
	Preferences       *Preferences `json:"preferences,omitempty"`
	IsPremium         bool         `json:"isPremium"`
	CreatedAt         time.Time    `json:"createdAt,omitzero"`
}

// UserPatch is a partial user. Nil fields are left untouched by Apply.
type UserPatch struct {
	Name        *string
	Email       *string
	Bio         *string
	Preferences *Preferences
	IsPremium   *bool
}

// Apply returns a copy of u with the non-nil fields of p merged in.
func (p UserPatch) Apply(u User) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Preferences != nil {
		prefs := *p.Preferences
		u.Preferences = &prefs
	}
	if p.IsPremium != nil {
		u.IsPremium = *p.IsPremium
	}
	return u
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Stats summarises a user's notes.
type Stats struct {
	TotalNotes     int        `json:"totalNotes"`
	EnrichedNotes  int        `json:"enrichedNotes"`
	NotesThisMonth int        `json:"notesThisMonth"`
	RecentActivity []Activity `json:"recentActivity"`
}
