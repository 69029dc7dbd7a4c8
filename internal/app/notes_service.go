package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"notes/internal/domain"
)

const (
	untitledNote = "Untitled Note"

	defaultPageSize    = 10
	defaultSortField   = "updatedAt"
	defaultSearchSort  = "relevance"
	defaultSearchLimit = 20
	dashboardSize      = 5
)

var (
	// ErrEmptyContent indicates a note without any content after trimming.
	ErrEmptyContent = errors.New("please enter some content for your note")
	// ErrInvalidSort indicates a sort direction other than asc or desc.
	ErrInvalidSort = errors.New("sort direction must be asc or desc")
	// ErrMissingID indicates an empty note id.
	ErrMissingID = errors.New("note id is required")
)

// ListOptions selects a page of notes.
type ListOptions struct {
	Page      int
	Limit     int
	SortField string
	SortDesc  *bool
	Search    string
}

// Dashboard is the landing summary: recent notes and counters.
type Dashboard struct {
	TotalNotes    int
	EnrichedCount int
	RecentNotes   []domain.Note
}

// NotesService encapsulates note use cases.
type NotesService struct {
	api domain.NotesAPI
}

// NewNotesService creates a NotesService backed by the given API.
func NewNotesService(api domain.NotesAPI) *NotesService {
	return &NotesService{api: api}
}

// List returns one page of notes. Zero values fall back to page 1, 10 notes,
// most recently updated first.
func (s *NotesService) List(ctx context.Context, opts ListOptions) (*domain.NoteList, error) {
	q := domain.ListQuery{
		Page:   opts.Page,
		Limit:  opts.Limit,
		Search: strings.TrimSpace(opts.Search),
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	field := opts.SortField
	if field == "" {
		field = defaultSortField
	}
	dir := "desc"
	if opts.SortDesc != nil && !*opts.SortDesc {
		dir = "asc"
	}
	q.Sort = field + ":" + dir
	return s.api.ListNotes(ctx, q)
}

// Get returns a single note.
func (s *NotesService) Get(ctx context.Context, id string) (*domain.Note, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	return s.api.GetNote(ctx, id)
}

// Create validates and stores a new note.
func (s *NotesService) Create(ctx context.Context, title, content string, autoEnrich bool) (*domain.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	return s.api.CreateNote(ctx, domain.NoteInput{
		Title:      titleOrUntitled(title),
		Content:    content,
		AutoEnrich: autoEnrich,
	})
}

// Update replaces the title and content of a note.
func (s *NotesService) Update(ctx context.Context, id, title, content string) (*domain.Note, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	return s.api.UpdateNote(ctx, id, domain.NoteInput{
		Title:   titleOrUntitled(title),
		Content: content,
	})
}

// Delete removes a note.
func (s *NotesService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.api.DeleteNote(ctx, id)
}

// Enrich asks the backend to run AI enrichment on a note.
func (s *NotesService) Enrich(ctx context.Context, id string) (*domain.Note, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	return s.api.EnrichNote(ctx, id)
}

// Search runs a full-text search. An empty query yields an empty result
// without contacting the backend.
func (s *NotesService) Search(ctx context.Context, q domain.SearchQuery) (*domain.NoteList, error) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return &domain.NoteList{Notes: []domain.Note{}}, nil
	}
	if q.SortBy == "" {
		q.SortBy = defaultSearchSort
	}
	if q.Limit <= 0 {
		q.Limit = defaultSearchLimit
	}
	return s.api.SearchNotes(ctx, q)
}

// Dashboard loads the five most recently updated notes and derives the
// counters shown on the landing screen.
func (s *NotesService) Dashboard(ctx context.Context) (*Dashboard, error) {
	list, err := s.api.ListNotes(ctx, domain.ListQuery{
		Page:  1,
		Limit: dashboardSize,
		Sort:  defaultSortField + ":desc",
	})
	if err != nil {
		return nil, fmt.Errorf("load recent notes: %w", err)
	}
	d := &Dashboard{TotalNotes: list.Total, RecentNotes: list.Notes}
	for _, n := range list.Notes {
		if n.IsEnriched {
			d.EnrichedCount++
		}
	}
	return d, nil
}

// ParseSortDirection maps "asc"/"desc" to a SortDesc value.
func ParseSortDirection(dir string) (*bool, error) {
	switch strings.ToLower(dir) {
	case "", "desc":
		desc := true
		return &desc, nil
	case "asc":
		desc := false
		return &desc, nil
	default:
		return nil, ErrInvalidSort
	}
}

func titleOrUntitled(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return untitledNote
}
