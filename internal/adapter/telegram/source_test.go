package telegram_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes/internal/adapter/telegram"
)

func initData(user string) string {
	v := url.Values{}
	v.Set("query_id", "AAE")
	if user != "" {
		v.Set("user", user)
	}
	v.Set("auth_date", "1700000000")
	v.Set("hash", "f00")
	return v.Encode()
}

func TestDetect(t *testing.T) {
	bridge := initData(`{"id":42,"first_name":"Ann"}`)
	tests := []struct {
		name string
		env  telegram.Environment
		want telegram.Kind
	}{
		{"bridge", telegram.Environment{InitData: bridge}, telegram.KindNativeBridge},
		{"alias", telegram.Environment{AliasInitData: bridge}, telegram.KindNativeBridge},
		{"bridge wins over url", telegram.Environment{InitData: bridge, Query: url.Values{"tg_id": {"1"}}}, telegram.KindNativeBridge},
		{"url payload", telegram.Environment{Query: url.Values{"tg_id": {"1"}, "tg_hash": {"h"}}}, telegram.KindURLPayload},
		{"widget redirect", telegram.Environment{Query: url.Values{"id": {"1"}, "hash": {"h"}}}, telegram.KindWidget},
		{"unrelated query", telegram.Environment{Query: url.Values{"note": {"7"}}}, telegram.KindNone},
		{"nothing", telegram.Environment{}, telegram.KindNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, telegram.Detect(tc.env, nil).Kind())
		})
	}
}

func TestNativeBridgeAssertion(t *testing.T) {
	raw := initData(`{"id":42,"first_name":"Ann","last_name":"Lee","username":"ann","photo_url":"https://t.me/a.jpg"}`)
	now := time.Unix(1700000123, 0)

	a, err := telegram.NativeBridge{InitData: raw}.Assertion(now)
	require.NoError(t, err)
	assert.Equal(t, "42", a.ID)
	assert.Equal(t, "Ann", a.FirstName)
	assert.Equal(t, "Lee", a.LastName)
	assert.Equal(t, "ann", a.Username)
	assert.Equal(t, "https://t.me/a.jpg", a.PhotoURL)
	assert.Equal(t, "1700000123", a.AuthDate)
	assert.Equal(t, "webapp", a.Hash)
	assert.True(t, a.WebApp)
	assert.Equal(t, raw, a.InitData)
}

func TestNativeBridgeWithoutUser(t *testing.T) {
	_, err := telegram.NativeBridge{InitData: initData("")}.Assertion(time.Now())
	assert.ErrorIs(t, err, telegram.ErrNoUserData)
}

func TestURLPayloadAssertion(t *testing.T) {
	q := url.Values{
		"tg_id":         {"42"},
		"tg_first_name": {"Ann"},
		"tg_username":   {"ann"},
		"tg_auth_date":  {"1700000000"},
		"tg_hash":       {"abc"},
		"note":          {"7"},
	}
	src := telegram.Detect(telegram.Environment{Query: q}, nil)

	a, err := src.Assertion(time.Now())
	require.NoError(t, err)
	assert.Equal(t, "42", a.ID)
	assert.Equal(t, "Ann", a.FirstName)
	assert.Equal(t, "abc", a.Hash)
	assert.Equal(t, "1700000000", a.AuthDate)
	assert.False(t, a.WebApp)
}

func TestWidgetAssertion(t *testing.T) {
	q := url.Values{"id": {"42"}, "first_name": {"Ann"}, "auth_date": {"1700000000"}, "hash": {"abc"}}

	a, err := telegram.WidgetFromQuery(q).Assertion(time.Now())
	require.NoError(t, err)
	assert.Equal(t, "42", a.ID)
	assert.Equal(t, "1700000000", a.AuthDate)
	assert.Equal(t, "abc", a.Hash)

	_, err = telegram.WidgetUser{ID: 42}.Assertion(time.Now())
	assert.ErrorIs(t, err, telegram.ErrNoUserData)
}

func TestNoneAssertion(t *testing.T) {
	_, err := telegram.None{}.Assertion(time.Now())
	assert.ErrorIs(t, err, telegram.ErrNoCredentialSource)
}

func TestLandingPath(t *testing.T) {
	assert.Equal(t, "/notes/7", telegram.LandingPath(url.Values{"note": {"7"}}))
	assert.Equal(t, "/notes", telegram.LandingPath(url.Values{}))
}
