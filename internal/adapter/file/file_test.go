package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes/internal/domain"
)

func TestStorePlain(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	s := New(path, "")

	_, err := s.Get(ctx, domain.TokenKey)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Set(ctx, domain.TokenKey, "T1"))
	require.NoError(t, s.Set(ctx, domain.ThemeKey, "dark"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "T1")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A second handle on the same file sees the values.
	v, err := New(path, "").Get(ctx, domain.ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	require.NoError(t, s.Delete(ctx, domain.TokenKey, domain.RefreshTokenKey))
	_, err = s.Get(ctx, domain.TokenKey)
	require.ErrorIs(t, err, domain.ErrNotFound)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStoreSealed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.yaml")
	s := New(path, "correct horse")

	require.NoError(t, s.Set(ctx, domain.TokenKey, "secret-token"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token")
	assert.True(t, strings.Contains(string(raw), "salt:"))

	v, err := New(path, "correct horse").Get(ctx, domain.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", v)

	_, err = New(path, "wrong").Get(ctx, domain.TokenKey)
	require.ErrorIs(t, err, ErrUnseal)

	_, err = New(path, "").Get(ctx, domain.TokenKey)
	require.ErrorIs(t, err, ErrPassphraseRequired)
}

func TestStoreSealsPlainFileOnWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, New(path, "").Set(ctx, domain.ThemeKey, "light"))

	s := New(path, "pw")
	v, err := s.Get(ctx, domain.ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	require.NoError(t, s.Set(ctx, domain.TokenKey, "T1"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "light")
}

func TestStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("values: [unterminated"), 0o600))

	_, err := New(path, "").Get(context.Background(), domain.TokenKey)
	require.Error(t, err)
}
