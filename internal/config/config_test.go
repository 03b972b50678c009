package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, RendererChart, cfg.Renderer.Mode)
	assert.Equal(t, "graphs", cfg.Renderer.GraphsDir)
	assert.Equal(t, 30*time.Second, cfg.RenderTimeout())
	assert.Equal(t, 5, cfg.Alerts.HistoryLimit)
	assert.Equal(t, 168*time.Hour, cfg.AuditRetention())
	assert.Equal(t, "file://migrations", cfg.DB.MigrationsPath)
	assert.Empty(t, cfg.Telegram.AllowedChatIDs)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": "8081", "webhook_token": "secret", "shutdown_timeout": 3},
		"telegram": {"bot_token": "file-token", "allowed_chat_ids": [42, -100123]},
		"renderer": {"mode": "script", "interpreter": "python3", "script_path": "graph.py", "timeout_seconds": 5},
		"alerts": {"catalog_path": "alerts.yaml", "timezone": "UTC", "history_limit": 10},
		"db": {"dsn": "chatops.db"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.WebhookToken)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, "file-token", cfg.Telegram.BotToken)
	assert.Equal(t, []int64{42, -100123}, cfg.Telegram.AllowedChatIDs)
	assert.Equal(t, RendererScript, cfg.Renderer.Mode)
	assert.Equal(t, "graph.py", cfg.Renderer.ScriptPath)
	assert.Equal(t, 5*time.Second, cfg.RenderTimeout())
	assert.Equal(t, "alerts.yaml", cfg.Alerts.CatalogPath)
	assert.Equal(t, 10, cfg.Alerts.HistoryLimit)
	assert.Equal(t, "chatops.db", cfg.DB.DSN)
	// Untouched keys keep their defaults.
	assert.Equal(t, "graphs", cfg.Renderer.GraphsDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `{"telegram": {"bot_token": "file-token"}, "server": {"port": "8081"}}`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("PORT", "9090")
	t.Setenv("ZABBIX_CHATOPS_RENDERER_MODE", "none")
	t.Setenv("ZABBIX_CHATOPS_ALERTS_HISTORY_LIMIT", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, RendererNone, cfg.Renderer.Mode)
	assert.Equal(t, 7, cfg.Alerts.HistoryLimit)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"Malformed JSON", `{"server": `},
		{"Unknown renderer mode", `{"renderer": {"mode": "gnuplot"}}`},
		{"Script mode without script", `{"renderer": {"mode": "script", "script_path": ""}}`},
		{"Unknown timezone", `{"alerts": {"timezone": "Mars/Olympus"}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}
