package app

import (
	"context"
	"errors"
	"fmt"

	"notes/internal/domain"
)

// Theme is the colour scheme preference.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ErrUnknownTheme indicates a theme other than light or dark.
var ErrUnknownTheme = errors.New("theme must be light or dark")

// ThemeService persists the theme preference under the theme key.
type ThemeService struct {
	store    domain.StateStore
	fallback Theme
}

// NewThemeService creates a ThemeService; fallback is used while nothing is
// stored.
func NewThemeService(store domain.StateStore, fallback Theme) *ThemeService {
	if fallback != ThemeDark {
		fallback = ThemeLight
	}
	return &ThemeService{store: store, fallback: fallback}
}

// Current returns the stored theme or the fallback.
func (s *ThemeService) Current(ctx context.Context) (Theme, error) {
	v, err := s.store.Get(ctx, domain.ThemeKey)
	if errors.Is(err, domain.ErrNotFound) {
		return s.fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("read theme: %w", err)
	}
	if Theme(v) == ThemeDark {
		return ThemeDark, nil
	}
	return ThemeLight, nil
}

// Set stores the given theme.
func (s *ThemeService) Set(ctx context.Context, t Theme) error {
	if t != ThemeLight && t != ThemeDark {
		return ErrUnknownTheme
	}
	return s.store.Set(ctx, domain.ThemeKey, string(t))
}

// Toggle flips and stores the theme.
func (s *ThemeService) Toggle(ctx context.Context) (Theme, error) {
	cur, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	if err := s.Set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
