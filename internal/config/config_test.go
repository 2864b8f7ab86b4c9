package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"server_address": ":5000", "provider": "openai"},
		"databases": {"sqlite3": {"dsn": "./data/voyago.db"}},
		"providers": {"openai": {"base_url": "https://api.openai.com/v1", "model": "gpt-5.1", "api_key": "file-key"}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":5000", cfg.BasicConfig.ServerAddress)
	require.Equal(t, "openai", cfg.BasicConfig.Provider)
	require.Equal(t, "gpt-5.1", cfg.Providers["openai"].Model)
	require.Equal(t, "./data/voyago.db", cfg.Databases["sqlite3"].DSN)
}

func TestLoadDefaultsProvider(t *testing.T) {
	path := writeConfig(t, `{
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"providers": {"openai": {"model": "gpt-5.1", "api_key": "k"}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.BasicConfig.Provider)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `{
		"basic_config": {"provider": "claude"},
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"providers": {"openai": {"model": "gpt-5.1"}}
	}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRequiresDatabase(t *testing.T) {
	path := writeConfig(t, `{
		"providers": {"openai": {"model": "gpt-5.1"}}
	}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvCredentialsWin(t *testing.T) {
	t.Setenv("AI_INTEGRATIONS_OPENAI_API_KEY", "env-key")
	t.Setenv("AI_INTEGRATIONS_OPENAI_BASE_URL", "https://proxy.example/v1")
	t.Setenv("UNSPLASH_ACCESS_KEY", "env-unsplash")

	path := writeConfig(t, `{
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"providers": {"openai": {"base_url": "https://api.openai.com/v1", "model": "gpt-5.1", "api_key": "file-key"}},
		"unsplash": {"access_key": "file-unsplash"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "env-key", cfg.Providers["openai"].APIKey)
	require.Equal(t, "https://proxy.example/v1", cfg.Providers["openai"].BaseURL)
	require.Equal(t, "env-unsplash", cfg.Unsplash.AccessKey)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
