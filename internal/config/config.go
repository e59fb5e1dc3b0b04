package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"
)

const defaultConfigPath = "configs/development.yaml"

type Config struct {
	Server Server `yaml:"server"`

	Store Store `yaml:"store"`

	Database Database `yaml:"database"`

	JWT JWT `yaml:"jwt"`

	Auth Auth `yaml:"auth"`

	Log Log `yaml:"log"`

	Jobs Jobs `yaml:"jobs"`
}

type Server struct {
	Address         string        `yaml:"address" validate:"required"`
	Mode            string        `yaml:"mode" validate:"oneof=development production"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `yaml:"allowed_origins"` // websocket origins, empty allows all
}

type Store struct {
	Driver string `yaml:"driver" validate:"oneof=memory postgres"`
	Seed   bool   `yaml:"seed"` // load the demo dataset into an empty store
}

type JWT struct {
	Secret    string `yaml:"secret" validate:"required,min=16"`
	ExpiresIn int    `yaml:"expires_in" validate:"gte=1"` // In Hours
}

type Auth struct {
	MaxLoginAttempts int           `yaml:"max_login_attempts" validate:"gte=1"`
	LoginWindow      time.Duration `yaml:"login_window" validate:"gt=0"`
	BcryptCost       int           `yaml:"bcrypt_cost" validate:"gte=4,lte=31"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
	File   string `yaml:"file"` // optional JSON log file alongside stdout
}

type Jobs struct {
	Enabled     bool   `yaml:"enabled"`
	NoShowSweep string `yaml:"no_show_sweep"` // cron spec
}

type Database struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MigrationsPath string `yaml:"migrations_path"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns a configuration that runs the service on the in-memory
// store with the demo dataset
func Default() *Config {
	return &Config{
		Server: Server{
			Address:         ":8080",
			Mode:            "development",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: Store{
			Driver: "memory",
			Seed:   true,
		},
		Database: Database{
			Host:           "localhost",
			Port:           5432,
			User:           "timetidy",
			DBName:         "timetidy",
			SSLMode:        "disable",
			MigrationsPath: "file://migrations",
		},
		JWT: JWT{
			Secret:    "timetidy-development-secret-change-me",
			ExpiresIn: 24,
		},
		Auth: Auth{
			MaxLoginAttempts: 5,
			LoginWindow:      15 * time.Minute,
			BcryptCost:       10,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		Jobs: Jobs{
			Enabled:     true,
			NoShowSweep: "*/15 * * * *",
		},
	}
}

// Load reads the config from CONFIG_PATH, or configs/development.yaml.
// A missing default file is not an error; the defaults are used instead.
func Load() (*Config, error) {
	configPath := defaultConfigPath
	explicit := false
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
		explicit = true
	}

	cfg, err := LoadFromPath(configPath)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		cfg = Default()
		applyEnv(cfg)
		return cfg, Validate(cfg)
	}
	return cfg, err
}

// LoadFromPath loads the file at path over the defaults, applies environment
// overrides and validates the result
func LoadFromPath(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration struct and checks the cron spec
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Store.Driver == "postgres" && cfg.Database.Host == "" {
		return errors.New("config validation failed: database.host is required for the postgres store")
	}

	if cfg.Jobs.Enabled {
		if _, err := cron.ParseStandard(cfg.Jobs.NoShowSweep); err != nil {
			return fmt.Errorf("invalid jobs.no_show_sweep: %w", err)
		}
	}

	return nil
}

// applyEnv lets secrets and deployment specifics come from the environment
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Address, "TIMETIDY_SERVER_ADDRESS")
	setString(&cfg.Server.Mode, "TIMETIDY_SERVER_MODE")
	setString(&cfg.Store.Driver, "TIMETIDY_STORE_DRIVER")
	setString(&cfg.JWT.Secret, "TIMETIDY_JWT_SECRET")
	setString(&cfg.Database.Host, "TIMETIDY_DB_HOST")
	setString(&cfg.Database.User, "TIMETIDY_DB_USER")
	setString(&cfg.Database.Password, "TIMETIDY_DB_PASSWORD")
	setString(&cfg.Database.DBName, "TIMETIDY_DB_NAME")
	setString(&cfg.Log.Level, "TIMETIDY_LOG_LEVEL")

	if v := os.Getenv("TIMETIDY_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DSN returns the lib/pq connection string
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL returns the connection URL used by golang-migrate
func (d Database) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}
