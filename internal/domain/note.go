package domain

import "time"

// Note is a single user note.
type Note struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	IsEnriched bool      `json:"isEnriched"`
	Matches    []string  `json:"matches,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NoteInput is the payload for creating or updating a note.
type NoteInput struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	AutoEnrich bool   `json:"autoEnrich,omitempty"`
}

// NoteList is one page of notes.
type NoteList struct {
	Notes []Note `json:"notes"`
	Total int    `json:"total"`
}

// ListQuery selects a page of notes.
type ListQuery struct {
	Page   int
	Limit  int
	Sort   string
	Search string
}

// SearchQuery is a full-text search request.
type SearchQuery struct {
	Query    string
	DateFrom string
	DateTo   string
	SortBy   string
	Limit    int
}
