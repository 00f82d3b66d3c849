package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath  = "JOBMIRROR_CONFIG"
	EnvSQLitePath  = "JOBMIRROR_SQLITE_PATH"
	EnvPGDBName    = "POSTGRES_DB_NAME"
	EnvPGUser      = "POSTGRES_USER"
	EnvPGPassword  = "POSTGRES_PWD"
	EnvPGHost      = "POSTGRES_HOST"
	EnvPGPort      = "POSTGRES_PORT"
	EnvPGSSLMode   = "POSTGRES_SSLMODE"
	DefaultPath    = "config.yml"
	DefaultDotEnv  = ".env"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Store struct {
		Driver   string `yaml:"driver"`
		Path     string `yaml:"path"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		DBName   string `yaml:"dbname"`
		SSLMode  string `yaml:"sslmode"`
		Password string `yaml:"-"`
	} `yaml:"store"`

	Pacing struct {
		ListingDelay time.Duration `yaml:"listing_delay"`
		DetailDelay  time.Duration `yaml:"detail_delay"`
	} `yaml:"pacing"`

	HTTP struct {
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
		HostRPS   float64       `yaml:"host_rps"`
		HostBurst int           `yaml:"host_burst"`
	} `yaml:"http"`

	Logging struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"logging"`

	LockDir string `yaml:"lock_dir"`
}

func Default() Config {
	var cfg Config
	cfg.Store.Driver = DriverSQLite
	cfg.Store.Path = "jobmirror.db"
	cfg.Store.Host = "localhost"
	cfg.Store.Port = "5432"
	cfg.Store.SSLMode = "disable"
	cfg.Pacing.ListingDelay = time.Second
	cfg.Pacing.DetailDelay = 5 * time.Second
	cfg.HTTP.Timeout = 10 * time.Second
	cfg.HTTP.HostRPS = 1
	cfg.HTTP.HostBurst = 2
	cfg.Logging.Level = "info"
	cfg.Logging.Encoding = "console"
	cfg.LockDir = os.TempDir()
	return cfg
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// FromEnv loads .env (if present), then the config file named by
// JOBMIRROR_CONFIG, then applies store credentials from the environment.
func FromEnv() (Config, string, error) {
	_ = godotenv.Load(DefaultDotEnv)

	path := strings.TrimSpace(os.Getenv(EnvConfigPath))
	if path == "" {
		path = DefaultPath
	}
	cfg, err := Load(path)
	if err != nil {
		return cfg, path, err
	}
	ApplyEnv(&cfg, os.Getenv)
	return cfg, path, nil
}

// ApplyEnv overrides store settings with any non-empty variables. Setting
// POSTGRES_DB_NAME switches the driver to postgres.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.Store.Path, EnvSQLitePath)
	set(&cfg.Store.DBName, EnvPGDBName)
	set(&cfg.Store.User, EnvPGUser)
	set(&cfg.Store.Host, EnvPGHost)
	set(&cfg.Store.Port, EnvPGPort)
	set(&cfg.Store.SSLMode, EnvPGSSLMode)
	// no trimming: passwords may carry spaces
	if v := getenv(EnvPGPassword); v != "" {
		cfg.Store.Password = v
	}
	if strings.TrimSpace(getenv(EnvPGDBName)) != "" {
		cfg.Store.Driver = DriverPostgres
	}
}
