package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes/internal/adapter/telegram"
	"notes/internal/app"
	"notes/internal/config"
	"notes/internal/domain"
)

func TestNoteContent(t *testing.T) {
	c, err := noteContent(strings.NewReader("from stdin"), nil, true)
	require.NoError(t, err)
	assert.Equal(t, "from stdin", c)

	c, err = noteContent(nil, []string{"from args"}, false)
	require.NoError(t, err)
	assert.Equal(t, "from args", c)

	_, err = noteContent(nil, nil, false)
	assert.ErrorIs(t, err, app.ErrEmptyContent)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcd…", clip("abcdefgh", 5))
}

func TestPrintNotes(t *testing.T) {
	var buf bytes.Buffer
	printNotes(&buf, nil)
	assert.Equal(t, "No notes.\n", buf.String())

	buf.Reset()
	printNotes(&buf, []domain.Note{{ID: "n1", Title: "Groceries", IsEnriched: true}})
	assert.Contains(t, buf.String(), "n1")
	assert.Contains(t, buf.String(), "Groceries")
	assert.Contains(t, buf.String(), "yes")
}

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NOTES_STORE", "memory")
	t.Setenv("NOTES_API_URL", "http://127.0.0.1:1")
	t.Setenv("NOTES_DEFAULT_THEME", "light")
	t.Setenv("LOG_LEVEL", "error")
}

func TestWhoamiRequiresLogin(t *testing.T) {
	memoryEnv(t)

	cmd := whoamiCmd()
	cmd.SetArgs([]string{})
	cmd.SetContext(context.Background())
	err := cmd.Execute()
	assert.ErrorIs(t, err, errLoginRequired)
}

func TestThemeCommand(t *testing.T) {
	memoryEnv(t)

	var out bytes.Buffer
	cmd := themeCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "light\n", out.String())

	cmd = themeCmd()
	cmd.SetArgs([]string{"sepia"})
	cmd.SetContext(context.Background())
	assert.ErrorIs(t, cmd.Execute(), app.ErrUnknownTheme)
}

func TestLauncherEnvironment(t *testing.T) {
	cfg := &config.Config{AliasInitData: "user=%7B%22id%22%3A1%7D&hash=alias"}

	env := launcherEnvironment(cfg, "")
	src := telegram.Detect(env, nil)
	require.Equal(t, telegram.KindNativeBridge, src.Kind())
	assert.Equal(t, cfg.AliasInitData, src.(telegram.NativeBridge).InitData)

	cfg.InitData = "user=%7B%22id%22%3A2%7D&hash=primary"
	src = telegram.Detect(launcherEnvironment(cfg, ""), nil)
	assert.Equal(t, cfg.InitData, src.(telegram.NativeBridge).InitData)

	src = telegram.Detect(launcherEnvironment(cfg, "hash=flag"), nil)
	assert.Equal(t, "hash=flag", src.(telegram.NativeBridge).InitData)

	assert.Equal(t, telegram.KindNone, telegram.Detect(launcherEnvironment(&config.Config{}, ""), nil).Kind())
}
