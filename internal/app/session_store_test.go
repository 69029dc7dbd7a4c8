package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes/internal/adapter/memory"
	"notes/internal/domain"
)

type mockAuthAPI struct {
	loginFn   func(ctx context.Context, a domain.TelegramAssertion) (*domain.AuthResult, error)
	profileFn func(ctx context.Context) (*domain.User, error)
}

func (m *mockAuthAPI) LoginTelegram(ctx context.Context, a domain.TelegramAssertion) (*domain.AuthResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, a)
	}
	return nil, errors.New("not configured")
}

func (m *mockAuthAPI) Profile(ctx context.Context) (*domain.User, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx)
	}
	return nil, errors.New("not configured")
}

type mockHeader struct {
	token   string
	cleared int
}

func (h *mockHeader) SetToken(token string) { h.token = token }

func (h *mockHeader) ClearToken() {
	h.token = ""
	h.cleared++
}

type publicErr struct{ msg string }

func (e publicErr) Error() string         { return "request failed with status code 401" }
func (e publicErr) PublicMessage() string { return e.msg }

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "u1"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newTestSessionStore(auth *mockAuthAPI) (*SessionStore, *mockHeader, *memory.Store) {
	h := &mockHeader{}
	st := memory.New()
	return NewSessionStore(auth, h, st, nil), h, st
}

func TestInitializeWithoutToken(t *testing.T) {
	s, h, _ := newTestSessionStore(&mockAuthAPI{})

	assert.False(t, s.Initialize(context.Background()))
	sess := s.Session()
	assert.False(t, sess.IsLoading)
	assert.False(t, sess.IsAuthenticated())
	assert.Empty(t, sess.Error)
	assert.Equal(t, 1, h.cleared)
}

func TestInitializeExpiredToken(t *testing.T) {
	profileCalled := false
	s, h, st := newTestSessionStore(&mockAuthAPI{
		profileFn: func(context.Context) (*domain.User, error) {
			profileCalled = true
			return &domain.User{ID: "u1"}, nil
		},
	})
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, domain.TokenKey, signedToken(t, time.Now().Add(-time.Hour))))

	assert.False(t, s.Initialize(ctx))
	assert.False(t, profileCalled)
	assert.Empty(t, h.token)
	_, err := st.Get(ctx, domain.TokenKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, s.Token())
	assert.False(t, s.Session().IsLoading)
}

func TestInitializeValidToken(t *testing.T) {
	tok := signedToken(t, time.Now().Add(time.Hour))
	var loadingDuringFetch bool
	var s *SessionStore
	s, h, st := newTestSessionStore(&mockAuthAPI{
		profileFn: func(context.Context) (*domain.User, error) {
			loadingDuringFetch = s.Session().IsLoading
			return &domain.User{ID: "u1", Name: "Ann"}, nil
		},
	})
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, domain.TokenKey, tok))

	assert.True(t, s.Initialize(ctx))
	assert.True(t, loadingDuringFetch)
	assert.Equal(t, tok, h.token)
	assert.Equal(t, tok, s.Token())
	assert.Equal(t, "Ann", s.User().Name)
	assert.False(t, s.Session().IsLoading)
}

func TestInitializeProfileFailure(t *testing.T) {
	tok := signedToken(t, time.Now().Add(time.Hour))
	s, h, st := newTestSessionStore(&mockAuthAPI{
		profileFn: func(context.Context) (*domain.User, error) {
			return nil, errors.New("boom")
		},
	})
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, domain.TokenKey, tok))

	assert.False(t, s.Initialize(ctx))
	assert.Equal(t, "Failed to initialize authentication", s.Err())
	assert.Empty(t, h.token)
	assert.Empty(t, s.Token())
	_, err := st.Get(ctx, domain.TokenKey)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoginWithTelegram(t *testing.T) {
	var got domain.TelegramAssertion
	s, h, st := newTestSessionStore(&mockAuthAPI{
		loginFn: func(_ context.Context, a domain.TelegramAssertion) (*domain.AuthResult, error) {
			got = a
			return &domain.AuthResult{Token: "T2", RefreshToken: "R2", User: domain.User{ID: "u1", Name: "Ann"}}, nil
		},
	})
	ctx := context.Background()

	ok := s.LoginWithTelegram(ctx, domain.TelegramAssertion{ID: "42", Hash: "abc"})
	require.True(t, ok)
	assert.Equal(t, "42", got.ID)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "Ann", s.User().Name)
	assert.Equal(t, "T2", h.token)

	tok, err := st.Get(ctx, domain.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "T2", tok)
	rt, err := st.Get(ctx, domain.RefreshTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "R2", rt)
}

func TestLoginFailureKeepsPriorSession(t *testing.T) {
	calls := 0
	s, h, st := newTestSessionStore(&mockAuthAPI{
		loginFn: func(context.Context, domain.TelegramAssertion) (*domain.AuthResult, error) {
			calls++
			if calls == 1 {
				return &domain.AuthResult{Token: "T1", User: domain.User{ID: "u1", Name: "Ann"}}, nil
			}
			return nil, publicErr{msg: "Invalid Telegram hash"}
		},
	})
	ctx := context.Background()
	require.True(t, s.LoginWithTelegram(ctx, domain.TelegramAssertion{ID: "42"}))

	assert.False(t, s.LoginWithTelegram(ctx, domain.TelegramAssertion{ID: "42", Hash: "bad"}))
	assert.Equal(t, "Invalid Telegram hash", s.Err())
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "T1", h.token)
	tok, err := st.Get(ctx, domain.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "T1", tok)
}

func TestLoginErrorMessageFallbacks(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"public message", publicErr{msg: "User not found"}, "User not found"},
		{"plain error", errors.New("dial tcp: connection refused"), "dial tcp: connection refused"},
		{"empty error", errors.New(""), "Failed to log in with Telegram"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _, _ := newTestSessionStore(&mockAuthAPI{
				loginFn: func(context.Context, domain.TelegramAssertion) (*domain.AuthResult, error) {
					return nil, tc.err
				},
			})
			assert.False(t, s.LoginWithTelegram(context.Background(), domain.TelegramAssertion{}))
			assert.Equal(t, tc.want, s.Err())
			assert.False(t, s.Session().IsLoading)
		})
	}
}

func TestLoginThenLogout(t *testing.T) {
	s, h, st := newTestSessionStore(&mockAuthAPI{
		loginFn: func(context.Context, domain.TelegramAssertion) (*domain.AuthResult, error) {
			return &domain.AuthResult{Token: "T2", RefreshToken: "R2", User: domain.User{ID: "u1"}}, nil
		},
	})
	ctx := context.Background()
	require.True(t, s.LoginWithTelegram(ctx, domain.TelegramAssertion{ID: "42"}))

	s.Logout(ctx)

	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())
	assert.Empty(t, h.token)
	assert.Equal(t, 0, st.Len())
}

func TestSupersededLoginDoesNotOverwriteLogout(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	s, h, st := newTestSessionStore(&mockAuthAPI{
		loginFn: func(context.Context, domain.TelegramAssertion) (*domain.AuthResult, error) {
			close(started)
			<-release
			return &domain.AuthResult{Token: "T2", User: domain.User{ID: "u1"}}, nil
		},
	})
	ctx := context.Background()

	done := make(chan bool)
	go func() { done <- s.LoginWithTelegram(ctx, domain.TelegramAssertion{ID: "42"}) }()

	<-started
	s.Logout(ctx)
	close(release)

	assert.False(t, <-done)
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, h.token)
	assert.Equal(t, 0, st.Len())
}

func TestUpdateUser(t *testing.T) {
	s, _, _ := newTestSessionStore(&mockAuthAPI{
		loginFn: func(context.Context, domain.TelegramAssertion) (*domain.AuthResult, error) {
			return &domain.AuthResult{Token: "T1", User: domain.User{ID: "u1", Name: "Ann", Email: "a@x"}}, nil
		},
	})

	name := "Bob"
	s.UpdateUser(domain.UserPatch{Name: &name})
	assert.Nil(t, s.User(), "no user to update before login")

	require.True(t, s.LoginWithTelegram(context.Background(), domain.TelegramAssertion{ID: "42"}))
	s.UpdateUser(domain.UserPatch{Name: &name})

	u := s.User()
	assert.Equal(t, "Bob", u.Name)
	assert.Equal(t, "a@x", u.Email)
	assert.Equal(t, "u1", u.ID)
}

// readOnlyStore rejects every write.
type readOnlyStore struct{ *memory.Store }

func (readOnlyStore) Set(context.Context, string, string) error { return errors.New("read-only") }

func TestLoginPersistFailure(t *testing.T) {
	h := &mockHeader{}
	s := NewSessionStore(&mockAuthAPI{
		loginFn: func(context.Context, domain.TelegramAssertion) (*domain.AuthResult, error) {
			return &domain.AuthResult{Token: "T1", User: domain.User{ID: "u1"}}, nil
		},
	}, h, readOnlyStore{memory.New()}, nil)

	assert.False(t, s.LoginWithTelegram(context.Background(), domain.TelegramAssertion{ID: "42"}))
	assert.Equal(t, saveErrorMessage, s.Err())
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.Session().IsLoading)
	assert.Empty(t, h.token)
}

func TestListenerHooks(t *testing.T) {
	s, _, _ := newTestSessionStore(&mockAuthAPI{
		loginFn: func(context.Context, domain.TelegramAssertion) (*domain.AuthResult, error) {
			return &domain.AuthResult{Token: "T1", User: domain.User{ID: "u1"}}, nil
		},
	})
	require.True(t, s.LoginWithTelegram(context.Background(), domain.TelegramAssertion{ID: "42"}))

	s.TokenRefreshed("T2")
	assert.Equal(t, "T2", s.Token())
	assert.True(t, s.IsAuthenticated())

	s.CredentialsCleared()
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"future exp", signedToken(t, now.Add(time.Minute)), false},
		{"past exp", signedToken(t, now.Add(-time.Minute)), true},
		{"no exp", signedToken(t, time.Time{}), false},
		{"garbage", "not-a-jwt", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TokenExpired(tc.token, now))
		})
	}
}
