// Package telegram turns whichever Telegram integration surface is available
// into a login assertion.
package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"notes/internal/domain"
)

// webAppHash marks assertions whose integrity is carried by the init-data blob
// instead of a widget hash.
const webAppHash = "webapp"

var (
	// ErrNoCredentialSource indicates that no Telegram surface was detected.
	ErrNoCredentialSource = errors.New("not opened from Telegram")
	// ErrNoUserData indicates a WebApp bridge without a user.
	ErrNoUserData = errors.New("could not get user data")
)

// Kind names a credential source variant.
type Kind string

// Source kinds.
const (
	KindNativeBridge Kind = "native_bridge"
	KindURLPayload   Kind = "url_payload"
	KindWidget       Kind = "widget"
	KindNone         Kind = "none"
)

// Source produces a Telegram login assertion.
type Source interface {
	Kind() Kind
	Assertion(now time.Time) (domain.TelegramAssertion, error)
}

// Environment is what the client was started with.
type Environment struct {
	// InitData is the WebApp bridge's signed init-data blob.
	InitData string
	// AliasInitData is the same blob exposed under the legacy global alias.
	AliasInitData string
	// Query is the query string of the URL the client was opened with.
	Query url.Values
}

// Detect selects the credential source once: the WebApp bridge, then its
// alias, then tg_* URL parameters, then a login widget redirect.
func Detect(env Environment, log *zap.Logger) Source {
	if log == nil {
		log = zap.NewNop()
	}

	switch {
	case env.InitData != "":
		log.Info("telegram webapp bridge detected")
		return NativeBridge{InitData: env.InitData}
	case env.AliasInitData != "":
		log.Info("telegram webapp alias detected")
		return NativeBridge{InitData: env.AliasInitData}
	}

	if p := urlPayload(env.Query); len(p) > 0 {
		log.Info("telegram auth payload found in url", zap.Int("fields", len(p)))
		return p
	}
	if env.Query.Get("id") != "" && env.Query.Get("hash") != "" {
		log.Info("telegram login widget redirect detected")
		return WidgetFromQuery(env.Query)
	}

	log.Info("no telegram credential source")
	return None{}
}

// NativeBridge reads the WebApp init-data blob.
type NativeBridge struct {
	InitData string
}

// Kind implements Source.
func (NativeBridge) Kind() Kind { return KindNativeBridge }

type webAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
}

// Assertion implements Source. The backend validates the raw init data; the
// hash field only flags the WebApp flow.
func (b NativeBridge) Assertion(now time.Time) (domain.TelegramAssertion, error) {
	vals, err := url.ParseQuery(b.InitData)
	if err != nil {
		return domain.TelegramAssertion{}, fmt.Errorf("parse init data: %w", err)
	}
	raw := vals.Get("user")
	if raw == "" {
		return domain.TelegramAssertion{}, ErrNoUserData
	}
	var u webAppUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return domain.TelegramAssertion{}, fmt.Errorf("decode init data user: %w", err)
	}
	if u.ID == 0 {
		return domain.TelegramAssertion{}, ErrNoUserData
	}

	return domain.TelegramAssertion{
		ID:        strconv.FormatInt(u.ID, 10),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		PhotoURL:  u.PhotoURL,
		AuthDate:  strconv.FormatInt(now.Unix(), 10),
		Hash:      webAppHash,
		WebApp:    true,
		InitData:  b.InitData,
	}, nil
}

// URLPayload holds the tg_* parameters of a login callback URL.
type URLPayload map[string]string

func urlPayload(q url.Values) URLPayload {
	p := URLPayload{}
	for k := range q {
		if strings.HasPrefix(k, "tg_") {
			p[k] = q.Get(k)
		}
	}
	return p
}

// Kind implements Source.
func (URLPayload) Kind() Kind { return KindURLPayload }

// Assertion implements Source. Parameters are forwarded as given.
func (p URLPayload) Assertion(time.Time) (domain.TelegramAssertion, error) {
	if len(p) == 0 {
		return domain.TelegramAssertion{}, ErrNoCredentialSource
	}
	webApp, _ := strconv.ParseBool(p["tg_webapp"])
	return domain.TelegramAssertion{
		ID:        p["tg_id"],
		FirstName: p["tg_first_name"],
		LastName:  p["tg_last_name"],
		Username:  p["tg_username"],
		PhotoURL:  p["tg_photo_url"],
		AuthDate:  p["tg_auth_date"],
		Hash:      p["tg_hash"],
		WebApp:    webApp,
		InitData:  p["tg_init_data"],
	}, nil
}

// WidgetUser is the object the Telegram login widget hands to its callback.
type WidgetUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
	AuthDate  int64  `json:"auth_date"`
	Hash      string `json:"hash"`
}

// Kind implements Source.
func (WidgetUser) Kind() Kind { return KindWidget }

// Assertion implements Source.
func (u WidgetUser) Assertion(time.Time) (domain.TelegramAssertion, error) {
	if u.ID == 0 || u.Hash == "" {
		return domain.TelegramAssertion{}, ErrNoUserData
	}
	return domain.TelegramAssertion{
		ID:        strconv.FormatInt(u.ID, 10),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		PhotoURL:  u.PhotoURL,
		AuthDate:  strconv.FormatInt(u.AuthDate, 10),
		Hash:      u.Hash,
	}, nil
}

// WidgetFromQuery reads a widget redirect (id, first_name, ..., hash).
func WidgetFromQuery(q url.Values) WidgetUser {
	id, _ := strconv.ParseInt(q.Get("id"), 10, 64)
	authDate, _ := strconv.ParseInt(q.Get("auth_date"), 10, 64)
	return WidgetUser{
		ID:        id,
		FirstName: q.Get("first_name"),
		LastName:  q.Get("last_name"),
		Username:  q.Get("username"),
		PhotoURL:  q.Get("photo_url"),
		AuthDate:  authDate,
		Hash:      q.Get("hash"),
	}
}

// None is selected when no Telegram surface is available.
type None struct{}

// Kind implements Source.
func (None) Kind() Kind { return KindNone }

// Assertion implements Source.
func (None) Assertion(time.Time) (domain.TelegramAssertion, error) {
	return domain.TelegramAssertion{}, ErrNoCredentialSource
}

// LandingPath is where a fresh WebApp login continues: the note named by the
// note parameter, or the note list.
func LandingPath(q url.Values) string {
	if id := q.Get("note"); id != "" {
		return "/notes/" + url.PathEscape(id)
	}
	return "/notes"
}
