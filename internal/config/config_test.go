package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"snippetmanager/internal/kv"
	"snippetmanager/internal/medium"
	"snippetmanager/internal/snippet"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(LoadOptions{ConfigPath: filepath.Join(t.TempDir(), "absent.toml")})
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, snippet.French, cfg.Language())
}

func TestLoadConfigFromTOMLParsesAllSupportedFields(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `
[storage]
medium = "keyvalue"
driver = "s3"
data_dir = "/data"
sqlite_path = "/data/x.db"
postgres_dsn = "postgres://u:p@h/db"

[storage.s3]
bucket = "snips"
region = "eu-west-3"
endpoint = "http://minio:9000"
prefix = "team/"
path_style = true

[logging]
level = "debug"
format = "json"
file = "/var/log/snippets.log"
max_size_mb = 3
max_files = 2

[ui]
language = "en"

[server]
addr = ":9999"
`)

	cfg, err := Load(LoadOptions{ConfigPath: cfgPath})
	require.NoError(t, err)
	require.Equal(t, StorageConfig{
		Medium:      "keyvalue",
		Driver:      "s3",
		DataDir:     "/data",
		SQLitePath:  "/data/x.db",
		PostgresDSN: "postgres://u:p@h/db",
		S3: S3Config{
			Bucket:    "snips",
			Region:    "eu-west-3",
			Endpoint:  "http://minio:9000",
			Prefix:    "team/",
			PathStyle: true,
		},
	}, cfg.Storage)
	require.Equal(t, LoggingConfig{Level: "debug", Format: "json", File: "/var/log/snippets.log", MaxSizeMB: 3, MaxFiles: 2}, cfg.Logging)
	require.Equal(t, snippet.English, cfg.Language())
	require.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoadConfigPrecedenceEnvOverFile(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, `
[storage]
driver = "postgres"
[ui]
language = "en"
`)

	cfg, err := Load(LoadOptions{
		ConfigPath: cfgPath,
		Env: map[string]string{
			"SNIPPET_MANAGER_KV_DRIVER":     "memory",
			"SNIPPET_MANAGER_LANG":          "fr",
			"SNIPPET_MANAGER_SHELL":         "desktop",
			"SNIPPET_MANAGER_LOG_MAX_FILES": "9",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, snippet.French, cfg.Language())
	require.Equal(t, "desktop", cfg.Shell)
	require.Equal(t, 9, cfg.Logging.MaxFiles)
}

func TestLoadConfigPrecedenceFlagOverEnv(t *testing.T) {
	t.Parallel()

	flagMedium := "filesystem"
	flagLang := "en"
	cfg, err := Load(LoadOptions{
		ConfigPath: filepath.Join(t.TempDir(), "absent.toml"),
		Env: map[string]string{
			"SNIPPET_MANAGER_MEDIUM": "keyvalue",
			"SNIPPET_MANAGER_LANG":   "fr",
		},
		Flags: FlagOverrides{Medium: &flagMedium, Language: &flagLang},
	})
	require.NoError(t, err)
	require.Equal(t, "filesystem", cfg.Storage.Medium)
	require.Equal(t, snippet.English, cfg.Language())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]string{
		"medium":      {"SNIPPET_MANAGER_MEDIUM": "floppy"},
		"driver":      {"SNIPPET_MANAGER_KV_DRIVER": "redis"},
		"s3 bucket":   {"SNIPPET_MANAGER_KV_DRIVER": "s3", "SNIPPET_MANAGER_S3_BUCKET": ""},
		"language":    {"SNIPPET_MANAGER_LANG": "de"},
		"level":       {"SNIPPET_MANAGER_LOG_LEVEL": "loud"},
		"format":      {"SNIPPET_MANAGER_LOG_FORMAT": "xml"},
		"path style":  {"SNIPPET_MANAGER_S3_PATH_STYLE": "maybe"},
		"max size":    {"SNIPPET_MANAGER_LOG_MAX_SIZE_MB": "ten"},
		"negative mb": {"SNIPPET_MANAGER_LOG_MAX_SIZE_MB": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(LoadOptions{ConfigPath: filepath.Join(t.TempDir(), "absent.toml"), Env: env})
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	t.Parallel()

	cfgPath := writeConfigFile(t, "[storage\nmedium = ")
	_, err := Load(LoadOptions{ConfigPath: cfgPath})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigEnvironment(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Shell = medium.DesktopShell
	cfg.Storage.DataDir = "/tmp/snips"
	cfg.Storage.Driver = "SQLite"
	cfg.Storage.SQLitePath = "/tmp/snips/s.db"

	env := cfg.Environment()
	require.Equal(t, medium.KindFilesystem, medium.Select(env))
	require.Equal(t, "/tmp/snips", env.DataDir)
	require.Equal(t, kv.DriverSQLite, env.KV.Driver)
	require.Equal(t, "/tmp/snips/s.db", env.KV.SQLitePath)

	cfg.Storage.Medium = "keyvalue"
	require.Equal(t, medium.KindKeyValue, medium.Select(cfg.Environment()))
}

func TestConfigLogOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultConfig().LogOptions()
	require.Equal(t, "info", opts.Level)
	require.Equal(t, 10, opts.MaxSizeMB)
	require.Equal(t, 5, opts.MaxFiles)
}

func TestDefaultConfigPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err := DefaultConfigPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/xdg", "snippet-manager", "config.toml"), path)
}
