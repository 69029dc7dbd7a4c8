// Package app holds the application services: the session store and the
// note, profile and theme use cases built on top of it.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"notes/internal/domain"
)

const (
	initErrorMessage  = "Failed to initialize authentication"
	loginErrorMessage = "Failed to log in with Telegram"
	saveErrorMessage  = "Failed to save session"
)

// publicMessager is implemented by transport errors that carry a message fit
// for display.
type publicMessager interface {
	PublicMessage() string
}

// SessionStore owns the authentication state and its transitions.
//
// Every transition that starts an asynchronous call takes a generation number
// first; its result is committed only while that generation is still the
// newest, so a slow response can never overwrite a later login or logout.
type SessionStore struct {
	auth   domain.AuthAPI
	header domain.TokenHolder
	store  domain.StateStore
	log    *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	state domain.Session
	gen   uint64
}

// NewSessionStore creates an empty, unauthenticated session store.
func NewSessionStore(auth domain.AuthAPI, header domain.TokenHolder, store domain.StateStore, log *zap.Logger) *SessionStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionStore{
		auth:   auth,
		header: header,
		store:  store,
		log:    log,
		now:    time.Now,
	}
}

// Initialize restores a persisted session. It reports whether the session is
// authenticated afterwards. It must be called at most once per process.
func (s *SessionStore) Initialize(ctx context.Context) bool {
	gen := s.begin()

	token, err := s.store.Get(ctx, domain.TokenKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Warn("read persisted token", zap.Error(err))
		token = ""
	}

	if token == "" || TokenExpired(token, s.now()) {
		s.commit(gen, func(st *domain.Session) error {
			s.dropPersistedToken(ctx)
			s.header.ClearToken()
			st.Token = ""
			st.User = nil
			return nil
		})
		return false
	}

	if !s.update(gen, func(st *domain.Session) error {
		st.Token = token
		s.header.SetToken(token)
		return nil
	}) {
		return s.IsAuthenticated()
	}

	user, err := s.auth.Profile(ctx)
	if err != nil {
		s.log.Error("initialize session", zap.Error(err))
		s.commit(gen, func(st *domain.Session) error {
			s.dropPersistedToken(ctx)
			s.header.ClearToken()
			st.Token = ""
			st.User = nil
			st.Error = initErrorMessage
			return nil
		})
		return false
	}

	s.commit(gen, func(st *domain.Session) error {
		st.User = user
		return nil
	})
	return s.IsAuthenticated()
}

// LoginWithTelegram exchanges a Telegram assertion for a session token. All
// failures are reported as false with the reason stored in the session error;
// a failed attempt leaves the previous session in place.
func (s *SessionStore) LoginWithTelegram(ctx context.Context, a domain.TelegramAssertion) bool {
	gen := s.begin()

	s.log.Info("login with telegram",
		zap.String("tg_id", a.ID),
		zap.Bool("webapp", a.WebApp),
		zap.String("init_data", truncate(a.InitData, 20)),
	)

	res, err := s.auth.LoginTelegram(ctx, a)
	if err != nil {
		msg := errorMessage(err, loginErrorMessage)
		s.log.Error("login with telegram", zap.String("reason", msg), zap.Error(err))
		s.commit(gen, func(st *domain.Session) error {
			st.Error = msg
			return nil
		})
		return false
	}

	var persistErr error
	ok := s.commit(gen, func(st *domain.Session) error {
		if err := s.store.Set(ctx, domain.TokenKey, res.Token); err != nil {
			persistErr = err
			st.Error = saveErrorMessage
			return err
		}
		if res.RefreshToken != "" {
			if err := s.store.Set(ctx, domain.RefreshTokenKey, res.RefreshToken); err != nil {
				s.log.Warn("persist refresh token", zap.Error(err))
			}
		}
		user := res.User
		st.Token = res.Token
		st.User = &user
		s.header.SetToken(res.Token)
		return nil
	})
	if !ok {
		if persistErr != nil {
			s.log.Error("persist session token", zap.Error(persistErr))
		} else {
			s.log.Info("login superseded by a newer session change", zap.String("tg_id", a.ID))
		}
		return false
	}

	s.log.Info("login successful", zap.String("user_id", res.User.ID))
	return true
}

// Logout clears the persisted and in-memory credentials. The backend is not
// notified.
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.dropPersistedCredentials(ctx)
	s.state = domain.Session{}
	s.header.ClearToken()
}

// UpdateUser merges a partial user into the current one. It does nothing when
// no user is loaded.
func (s *SessionStore) UpdateUser(p domain.UserPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.User == nil {
		return
	}
	u := p.Apply(*s.state.User)
	s.state.User = &u
}

// TokenRefreshed implements api.Listener. The request client has already
// persisted the token and updated its header.
func (s *SessionStore) TokenRefreshed(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
}

// CredentialsCleared implements api.Listener. It drops the token and user
// without taking a new generation, so the transition whose request lost the
// credentials still records its own outcome.
func (s *SessionStore) CredentialsCleared() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Token = ""
	s.state.User = nil
}

// Session returns a snapshot of the current state.
func (s *SessionStore) Session() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

// IsAuthenticated reports whether a token and a user are both present.
func (s *SessionStore) IsAuthenticated() bool {
	return s.Session().IsAuthenticated()
}

// User returns a copy of the current user, or nil.
func (s *SessionStore) User() *domain.User {
	return s.Session().User
}

// Token returns the current bearer token, or "".
func (s *SessionStore) Token() string {
	return s.Session().Token
}

// Err returns the last recorded error message.
func (s *SessionStore) Err() string {
	return s.Session().Error
}

func (s *SessionStore) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.state.IsLoading = true
	s.state.Error = ""
	return s.gen
}

// commit applies fn under the lock if gen is still current and ends the
// loading phase. A non-nil error from fn keeps the state changes fn made
// before failing.
func (s *SessionStore) commit(gen uint64, fn func(st *domain.Session) error) bool {
	return s.apply(gen, true, fn)
}

// update is commit without ending the loading phase.
func (s *SessionStore) update(gen uint64, fn func(st *domain.Session) error) bool {
	return s.apply(gen, false, fn)
}

func (s *SessionStore) apply(gen uint64, done bool, fn func(st *domain.Session) error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}
	err := fn(&s.state)
	if done {
		s.state.IsLoading = false
	}
	return err == nil
}

func (s *SessionStore) dropPersistedToken(ctx context.Context) {
	if err := s.store.Delete(ctx, domain.TokenKey); err != nil {
		s.log.Warn("delete persisted token", zap.Error(err))
	}
}

func (s *SessionStore) dropPersistedCredentials(ctx context.Context) {
	if err := s.store.Delete(ctx, domain.TokenKey, domain.RefreshTokenKey); err != nil {
		s.log.Warn("delete persisted credentials", zap.Error(err))
	}
}

// TokenExpired reports whether the token's exp claim lies before now. The
// signature is not checked. A token that cannot be decoded counts as expired;
// one without an exp claim does not.
func TokenExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}

func errorMessage(err error, fallback string) string {
	var pm publicMessager
	if errors.As(err, &pm) {
		if msg := pm.PublicMessage(); msg != "" {
			return msg
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
