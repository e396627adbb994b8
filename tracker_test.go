package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edurisk/atrisk-tracker/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "atrisk-tracker", Environment: "test"},
		API: config.APIConfig{
			BaseURL: "https://tracker.example.edu/api",
			Timeout: 5 * time.Second,
		},
		Sync: config.SyncConfig{
			DebounceWindow: 100 * time.Millisecond,
			AllowedRoutes:  []string{"/", "/dashboard", "/settings"},
		},
		Notify: config.NotifyConfig{DefaultTTL: 5 * time.Second},
		Log:    config.LogConfig{Level: "ERROR"},
	}
}

func TestNew_WiresGraph(t *testing.T) {
	app, err := New(testConfig())
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Session)
	assert.NotNil(t, app.Store)
	assert.NotNil(t, app.Syncer)
	assert.NotNil(t, app.Ingest)
	assert.NotNil(t, app.Destructive)
	assert.NotNil(t, app.Alerts)
	assert.NotNil(t, app.Views)
	assert.NotNil(t, app.Notifications)
}

func TestNew_RejectsNilAndInvalidConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.API.BaseURL = "not a url"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestLogout_ClearsLocalState(t *testing.T) {
	app, err := New(testConfig())
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.Login(context.Background(), "opaque-session-token"))
	require.True(t, app.Session.IsAuthenticated())

	app.Logout()
	assert.False(t, app.Session.IsAuthenticated())
	assert.Zero(t, app.Store.Len())
	assert.Empty(t, app.Session.Token())
}
