package config

import (
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/config.yaml"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path" required:"true"`

	Environment string   `koanf:"environment" default:"development"`
	ServerHost  string   `koanf:"server_host" default:"0.0.0.0"`
	ServerPort  int      `koanf:"server_port" default:"3000"`
	CORSOrigins []string `koanf:"cors_origins"`
	JWTSecret   string   `koanf:"jwt_secret" required:"true"`

	// Listing defaults for the file system entry endpoints.
	DefaultPageSize  int    `koanf:"default_page_size" default:"20"`
	MaxPageSize      int    `koanf:"max_page_size" default:"100"`
	DefaultSortBy    string `koanf:"default_sort_by" default:"created_at"`
	DefaultSortOrder string `koanf:"default_sort_order" default:"desc"`

	SearchMaxCandidates    int     `koanf:"search_max_candidates" default:"1000"`
	SearchMinSimilarity    float64 `koanf:"search_min_similarity" default:"0.8"`
	SearchReindexOnStartup bool    `koanf:"search_reindex_on_startup"`

	FolderMaxDepth    int `koanf:"folder_max_depth" default:"5"`
	FolderMaxChildren int `koanf:"folder_max_children" default:"100"`
}

// New loads the config from the YAML file named by CONFIG_FILE (if it exists)
// and then from the environment. Environment variables take precedence over
// the file and are matched by upper-casing the key, e.g. DATABASE_FILE_PATH.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.WithStack(err)
	}

	keys := configKeys()
	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := keys[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config suitable for tests that don't need to touch the
// filesystem or the environment.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.Environment = "test"
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	return cfg
}

func configKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if key := t.Field(i).Tag.Get("koanf"); key != "" {
			keys[key] = struct{}{}
		}
	}
	return keys
}

func validateRequired(cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("required") != "true" {
			continue
		}
		if v.Field(i).IsZero() {
			key := field.Tag.Get("koanf")
			return errors.Errorf("missing required config: %s (%s)", strings.ToUpper(key), key)
		}
	}
	return nil
}
