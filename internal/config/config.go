package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"snippetmanager/internal/kv"
	applog "snippetmanager/internal/log"
	"snippetmanager/internal/medium"
	"snippetmanager/internal/snippet"
)

const (
	defaultDriver       = "sqlite"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultLogMaxSizeMB = 10
	defaultLogMaxFiles  = 5
	defaultServerAddr   = "127.0.0.1:8080"
	envPrefix           = "SNIPPET_MANAGER_"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	UI      UIConfig      `toml:"ui"`
	Server  ServerConfig  `toml:"server"`
	// Shell is the desktop-shell marker; it only comes from the environment.
	Shell string `toml:"-"`
}

type StorageConfig struct {
	Medium      string   `toml:"medium"`
	Driver      string   `toml:"driver"`
	DataDir     string   `toml:"data_dir"`
	SQLitePath  string   `toml:"sqlite_path"`
	PostgresDSN string   `toml:"postgres_dsn"`
	S3          S3Config `toml:"s3"`
}

type S3Config struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	Prefix          string `toml:"prefix"`
	PathStyle       bool   `toml:"path_style"`
	AccessKeyID     string `toml:"-"`
	SecretAccessKey string `toml:"-"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type UIConfig struct {
	Language string `toml:"language"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LoadOptions struct {
	ConfigPath string
	Env        map[string]string
	Flags      FlagOverrides
}

// FlagOverrides holds command-line values; nil means the flag was not set.
type FlagOverrides struct {
	Medium   *string
	Driver   *string
	Language *string
	DataDir  *string
}

func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Driver: defaultDriver,
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			Format:    defaultLogFormat,
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
		UI: UIConfig{
			Language: string(snippet.DefaultLanguage),
		},
		Server: ServerConfig{
			Addr: defaultServerAddr,
		},
	}
}

// Load layers defaults, the TOML file, environment and flags, in that
// order, then validates the result.
func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	configPath, err := resolveConfigPath(opts)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	if err := loadAndApplyFile(configPath, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg, opts); err != nil {
		return Config{}, err
	}
	applyFlagOverrides(&cfg, opts.Flags)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rawConfig struct {
	Storage *rawStorage `toml:"storage"`
	Logging *rawLogging `toml:"logging"`
	UI      *rawUI      `toml:"ui"`
	Server  *rawServer  `toml:"server"`
}

type rawStorage struct {
	Medium      *string `toml:"medium"`
	Driver      *string `toml:"driver"`
	DataDir     *string `toml:"data_dir"`
	SQLitePath  *string `toml:"sqlite_path"`
	PostgresDSN *string `toml:"postgres_dsn"`
	S3          *rawS3  `toml:"s3"`
}

type rawS3 struct {
	Bucket    *string `toml:"bucket"`
	Region    *string `toml:"region"`
	Endpoint  *string `toml:"endpoint"`
	Prefix    *string `toml:"prefix"`
	PathStyle *bool   `toml:"path_style"`
}

type rawLogging struct {
	Level     *string `toml:"level"`
	Format    *string `toml:"format"`
	File      *string `toml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files"`
}

type rawUI struct {
	Language *string `toml:"language"`
}

type rawServer struct {
	Addr *string `toml:"addr"`
}

func loadAndApplyFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}
	applyRawConfig(cfg, raw)
	return nil
}

func applyRawConfig(cfg *Config, raw rawConfig) {
	if s := raw.Storage; s != nil {
		setString(s.Medium, &cfg.Storage.Medium)
		setString(s.Driver, &cfg.Storage.Driver)
		setString(s.DataDir, &cfg.Storage.DataDir)
		setString(s.SQLitePath, &cfg.Storage.SQLitePath)
		setString(s.PostgresDSN, &cfg.Storage.PostgresDSN)
		if s3 := s.S3; s3 != nil {
			setString(s3.Bucket, &cfg.Storage.S3.Bucket)
			setString(s3.Region, &cfg.Storage.S3.Region)
			setString(s3.Endpoint, &cfg.Storage.S3.Endpoint)
			setString(s3.Prefix, &cfg.Storage.S3.Prefix)
			setBool(s3.PathStyle, &cfg.Storage.S3.PathStyle)
		}
	}

	if l := raw.Logging; l != nil {
		setString(l.Level, &cfg.Logging.Level)
		setString(l.Format, &cfg.Logging.Format)
		setString(l.File, &cfg.Logging.File)
		setInt(l.MaxSizeMB, &cfg.Logging.MaxSizeMB)
		setInt(l.MaxFiles, &cfg.Logging.MaxFiles)
	}

	if raw.UI != nil {
		setString(raw.UI.Language, &cfg.UI.Language)
	}
	if raw.Server != nil {
		setString(raw.Server.Addr, &cfg.Server.Addr)
	}
}

func applyEnvOverrides(cfg *Config, opts LoadOptions) error {
	strs := []struct {
		name   string
		target *string
	}{
		{"MEDIUM", &cfg.Storage.Medium},
		{"KV_DRIVER", &cfg.Storage.Driver},
		{"DATA_DIR", &cfg.Storage.DataDir},
		{"SQLITE_PATH", &cfg.Storage.SQLitePath},
		{"POSTGRES_DSN", &cfg.Storage.PostgresDSN},
		{"S3_BUCKET", &cfg.Storage.S3.Bucket},
		{"S3_REGION", &cfg.Storage.S3.Region},
		{"S3_ENDPOINT", &cfg.Storage.S3.Endpoint},
		{"S3_PREFIX", &cfg.Storage.S3.Prefix},
		{"S3_ACCESS_KEY_ID", &cfg.Storage.S3.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", &cfg.Storage.S3.SecretAccessKey},
		{"LOG_LEVEL", &cfg.Logging.Level},
		{"LOG_FORMAT", &cfg.Logging.Format},
		{"LOG_FILE", &cfg.Logging.File},
		{"LANG", &cfg.UI.Language},
		{"ADDR", &cfg.Server.Addr},
		{"SHELL", &cfg.Shell},
	}
	for _, s := range strs {
		if value, ok := lookupEnv(opts, envPrefix+s.name); ok {
			*s.target = value
		}
	}

	if value, ok := lookupEnv(opts, envPrefix+"S3_PATH_STYLE"); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: parse %sS3_PATH_STYLE: %v", ErrInvalidConfig, envPrefix, err)
		}
		cfg.Storage.S3.PathStyle = parsed
	}
	if value, ok := lookupEnv(opts, envPrefix+"LOG_MAX_SIZE_MB"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse %sLOG_MAX_SIZE_MB: %v", ErrInvalidConfig, envPrefix, err)
		}
		cfg.Logging.MaxSizeMB = parsed
	}
	if value, ok := lookupEnv(opts, envPrefix+"LOG_MAX_FILES"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: parse %sLOG_MAX_FILES: %v", ErrInvalidConfig, envPrefix, err)
		}
		cfg.Logging.MaxFiles = parsed
	}
	return nil
}

func applyFlagOverrides(cfg *Config, flags FlagOverrides) {
	setString(flags.Medium, &cfg.Storage.Medium)
	setString(flags.Driver, &cfg.Storage.Driver)
	setString(flags.Language, &cfg.UI.Language)
	setString(flags.DataDir, &cfg.Storage.DataDir)
}

// Validate rejects unknown media, drivers, languages and log settings.
func Validate(cfg Config) error {
	if _, err := medium.ParseKind(cfg.Storage.Medium); err != nil {
		return fmt.Errorf("%w: storage.medium: %v", ErrInvalidConfig, err)
	}
	driver := kv.Driver(strings.ToLower(cfg.Storage.Driver))
	if !driver.Valid() {
		return fmt.Errorf("%w: storage.driver %q (want memory, sqlite, postgres or s3)", ErrInvalidConfig, cfg.Storage.Driver)
	}
	if driver == kv.DriverS3 && cfg.Storage.S3.Bucket == "" {
		return fmt.Errorf("%w: storage.s3.bucket is required for the s3 driver", ErrInvalidConfig)
	}
	if _, err := snippet.ParseLanguage(cfg.UI.Language); err != nil {
		return fmt.Errorf("%w: ui.language: %v", ErrInvalidConfig, err)
	}
	if _, err := applog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q (want text or json)", ErrInvalidConfig, cfg.Logging.Format)
	}
	if cfg.Logging.MaxSizeMB < 0 || cfg.Logging.MaxFiles < 0 {
		return fmt.Errorf("%w: logging.max_size_mb and logging.max_files must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// Environment converts the storage settings into what medium detection
// needs. cfg must have passed Validate.
func (cfg Config) Environment() medium.Environment {
	kind, _ := medium.ParseKind(cfg.Storage.Medium)
	return medium.Environment{
		Shell:   cfg.Shell,
		Medium:  kind,
		DataDir: cfg.Storage.DataDir,
		KV: kv.Config{
			Driver:      kv.Driver(strings.ToLower(cfg.Storage.Driver)),
			SQLitePath:  cfg.Storage.SQLitePath,
			PostgresDSN: cfg.Storage.PostgresDSN,
			S3: kv.S3Config{
				Bucket:          cfg.Storage.S3.Bucket,
				Region:          cfg.Storage.S3.Region,
				Endpoint:        cfg.Storage.S3.Endpoint,
				Prefix:          cfg.Storage.S3.Prefix,
				PathStyle:       cfg.Storage.S3.PathStyle,
				AccessKeyID:     cfg.Storage.S3.AccessKeyID,
				SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			},
		},
	}
}

// Language returns the validated UI language.
func (cfg Config) Language() snippet.Language {
	lang, err := snippet.ParseLanguage(cfg.UI.Language)
	if err != nil {
		return snippet.DefaultLanguage
	}
	return lang
}

// LogOptions converts the logging section.
func (cfg Config) LogOptions() applog.Options {
	return applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}
}

func setString(raw *string, target *string) {
	if raw != nil {
		*target = *raw
	}
}

func setBool(raw *bool, target *bool) {
	if raw != nil {
		*target = *raw
	}
}

func setInt(raw *int, target *int) {
	if raw != nil {
		*target = *raw
	}
}

func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	if value, ok := lookupEnv(opts, envPrefix+"CONFIG_PATH"); ok {
		return value, nil
	}
	return DefaultConfigPath()
}

func lookupEnv(opts LoadOptions, key string) (string, bool) {
	if opts.Env != nil {
		if value, ok := opts.Env[key]; ok {
			return value, true
		}
	}
	return os.LookupEnv(key)
}

// DefaultConfigPath is $XDG_CONFIG_HOME/snippet-manager/config.toml, with
// ~/.config standing in for an unset XDG_CONFIG_HOME.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	configHome := filepath.Join(home, ".config")
	if xdgConfigHome, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdgConfigHome != "" {
		configHome = xdgConfigHome
	}
	return filepath.Join(configHome, medium.AppDirName, "config.toml"), nil
}
