package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oxce5/Discord-bot/automod"
	"github.com/oxce5/Discord-bot/automod/rules"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		DiscordToken:   "test-token",
		Detection:      automod.DefaultDetectionConfig(),
		WelcomeChannel: "general",
		BannedWords:    []string{"shit", "damn", "badword"},
		CommandPrefix:  "!",
		Workers:        4,
	}
}

func TestNewServer(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	srv, err := NewServer(testConfig())
	require.NoError(t, err)
	assert.Equal("Bot test-token", srv.session.Token)
	assert.Equal(automod.DefaultJanitorInterval, srv.janitorInterval)
	assert.NotNil(srv.engine.Commands)
	assert.Len(srv.engine.Rules.JoinRules, 1)
	assert.Len(srv.engine.Rules.MessageRules, 1)

	words, err := srv.engine.Sets.Values(ctx, rules.BannedWordsSet)
	require.NoError(t, err)
	assert.Equal([]string{"badword", "damn", "shit"}, words)
}

func TestNewServerSetsFile(t *testing.T) {
	assert := assert.New(t)

	p := filepath.Join(t.TempDir(), "sets.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"banned-words": ["heck"]}`), 0o644))

	cfg := testConfig()
	cfg.BannedWordsFile = p
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	words, err := srv.engine.Sets.Values(context.Background(), rules.BannedWordsSet)
	require.NoError(t, err)
	assert.Equal([]string{"heck"}, words)

	cfg.BannedWordsFile = filepath.Join(t.TempDir(), "missing.json")
	_, err = NewServer(cfg)
	assert.Error(err)
}

func TestNewServerRejectsBadConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := testConfig()
	cfg.DiscordToken = ""
	_, err := NewServer(cfg)
	assert.Error(err)

	cfg = testConfig()
	cfg.Detection.MaxJoinsPerMinute = 0
	_, err = NewServer(cfg)
	assert.Error(err)
}

func TestRunJanitor(t *testing.T) {
	assert := assert.New(t)

	cfg := testConfig()
	cfg.JanitorInterval = 5 * time.Millisecond
	srv, err := NewServer(cfg)
	require.NoError(t, err)

	stale := time.Now().Add(-time.Hour)
	srv.engine.Joins.Record("g1", stale)
	srv.engine.Messages.Record("u1", stale)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- srv.RunJanitor(ctx) }()

	assert.Eventually(func() bool {
		return srv.engine.Joins.Len() == 0 && srv.engine.Messages.Len() == 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(<-done)
}

func TestHealthCheck(t *testing.T) {
	assert := assert.New(t)

	srv, err := NewServer(testConfig())
	require.NoError(t, err)

	e := echo.New()
	check := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/_health", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, srv.HandleHealthCheck(e.NewContext(req, rec)))
		return rec
	}

	rec := check()
	assert.Equal(http.StatusServiceUnavailable, rec.Code)
	assert.Contains(rec.Body.String(), "gateway not connected")

	srv.session.DataReady = true
	rec = check()
	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"status":"ok"}`, rec.Body.String())
}
