package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes/internal/domain"
)

func TestStore(t *testing.T) {
	url := os.Getenv("NOTES_TEST_REDIS_URL")
	if url == "" {
		t.Skip("NOTES_TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, url, nil)
	require.NoError(t, err)
	s.prefix = "notes-test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		_ = s.Delete(ctx, domain.TokenKey, domain.RefreshTokenKey)
		_ = s.Close()
	})

	_, err = s.Get(ctx, domain.TokenKey)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Set(ctx, domain.TokenKey, "T1"))
	require.NoError(t, s.Set(ctx, domain.RefreshTokenKey, "R1"))
	v, err := s.Get(ctx, domain.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "T1", v)

	require.NoError(t, s.Delete(ctx, domain.TokenKey, domain.RefreshTokenKey))
	_, err = s.Get(ctx, domain.RefreshTokenKey)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "://nope", nil)
	require.Error(t, err)
}
