package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"STOCK_SETTINGS_PATH", "CHATWORK_API_TOKEN", "NOTIFY_TIMEOUT_SECONDS",
		"CHATWORK_RATE_PER_MINUTE", "LOG_LEVEL", "STOCK_ARCHIVE_ROOT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "setting.json", cfg.Settings.Path)
	assert.Equal(t, 30*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, 60, cfg.Notify.ChatworkPerMinute)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "archive", cfg.Batch.ArchiveRoot)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STOCK_SETTINGS_PATH", "/etc/stock/setting.json")
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "5")
	t.Setenv("CHATWORK_RATE_PER_MINUTE", "not-a-number")
	t.Setenv("CHATWORK_API_TOKEN", "token")

	cfg := Load()
	assert.Equal(t, "/etc/stock/setting.json", cfg.Settings.Path)
	assert.Equal(t, 5*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, 60, cfg.Notify.ChatworkPerMinute)
	assert.Equal(t, "token", cfg.Notify.ChatworkToken)
}
