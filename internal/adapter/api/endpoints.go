package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"notes/internal/domain"
)

var (
	_ domain.AuthAPI     = (*Client)(nil)
	_ domain.UserAPI     = (*Client)(nil)
	_ domain.NotesAPI    = (*Client)(nil)
	_ domain.TokenHolder = (*Client)(nil)
)

// LoginTelegram exchanges a Telegram assertion for a session token.
func (c *Client) LoginTelegram(ctx context.Context, a domain.TelegramAssertion) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := c.call(ctx, http.MethodPost, "/auth/telegram", nil, a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the current user's profile.
func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodGet, "/user/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile saves name, bio and email.
func (c *Client) UpdateProfile(ctx context.Context, in domain.ProfileInput) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodPut, "/user/profile", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePreferences saves the settings.
func (c *Client) UpdatePreferences(ctx context.Context, in domain.PreferencesInput) (*domain.User, error) {
	var out domain.User
	if err := c.call(ctx, http.MethodPut, "/user/preferences", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns the note statistics of the current user.
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var out domain.Stats
	if err := c.call(ctx, http.MethodGet, "/user/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListNotes returns one page of notes.
func (c *Client) ListNotes(ctx context.Context, q domain.ListQuery) (*domain.NoteList, error) {
	v := url.Values{}
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)
	setString(v, "sort", q.Sort)
	setString(v, "search", q.Search)

	var out domain.NoteList
	if err := c.call(ctx, http.MethodGet, "/notes", v, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetNote returns one note.
func (c *Client) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	var out domain.Note
	if err := c.call(ctx, http.MethodGet, notePath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateNote stores a new note.
func (c *Client) CreateNote(ctx context.Context, in domain.NoteInput) (*domain.Note, error) {
	var out domain.Note
	if err := c.call(ctx, http.MethodPost, "/notes", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNote replaces a note's title and content.
func (c *Client) UpdateNote(ctx context.Context, id string, in domain.NoteInput) (*domain.Note, error) {
	var out domain.Note
	if err := c.call(ctx, http.MethodPut, notePath(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, notePath(id), nil, nil, nil)
}

// EnrichNote triggers AI enrichment and returns the note as reported back.
func (c *Client) EnrichNote(ctx context.Context, id string) (*domain.Note, error) {
	var out domain.Note
	if err := c.call(ctx, http.MethodPost, notePath(id)+"/enrich", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchNotes runs a full-text search.
func (c *Client) SearchNotes(ctx context.Context, q domain.SearchQuery) (*domain.NoteList, error) {
	v := url.Values{}
	setString(v, "query", q.Query)
	setString(v, "dateFrom", q.DateFrom)
	setString(v, "dateTo", q.DateTo)
	setString(v, "sortBy", q.SortBy)
	setInt(v, "limit", q.Limit)

	var out domain.NoteList
	if err := c.call(ctx, http.MethodGet, "/notes/search", v, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func notePath(id string) string {
	return "/notes/" + url.PathEscape(id)
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setInt(v url.Values, key string, n int) {
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}
