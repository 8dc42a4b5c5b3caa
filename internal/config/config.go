package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName               = "taskdeck"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskdeck-server.db"
	DefaultLocalEndpoint  = "http://localhost:5000/todos"
	CollectionPath        = "/todos"

	EnvLocal = "local"

	envConfigPath = "TASKDECK_CONFIG"
	envBaseURL    = "TASKDECK_API_BASE_URL"
	envEnv        = "TASKDECK_ENV"
)

// ErrEndpointNotConfigured is returned by Endpoint in a deployed environment
// when no base URL is set.
var ErrEndpointNotConfigured = errors.New("api_base_url is not set for a non-local environment")

type Keymap struct {
	Quit      string `toml:"quit"`
	Add       string `toml:"add"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	Toggle    string `toml:"toggle"`
	Delete    string `toml:"delete"`
	Confirm   string `toml:"confirm"`
	Cancel    string `toml:"cancel"`
	Edit      string `toml:"edit"`
	Refresh   string `toml:"refresh"`
	NextField string `toml:"next_field"`
}

type Server struct {
	Addr   string `toml:"addr"`
	DBPath string `toml:"db_path"`
}

type Config struct {
	APIBaseURL     string   `toml:"api_base_url"`
	Environment    string   `toml:"environment"`
	RequestTimeout Duration `toml:"request_timeout"`
	TickInterval   Duration `toml:"tick_interval"`
	LogPath        string   `toml:"log_path"`
	LogLevel       string   `toml:"log_level"`
	Keys           Keymap   `toml:"keys"`
	Server         Server   `toml:"server"`
}

// Duration reads and writes TOML strings such as "10s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// ResolveConfigPath honours TASKDECK_CONFIG, then XDG_CONFIG_HOME, then
// ~/.config.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, AppName, DefaultConfigFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(home, ".config", AppName, DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there on first
// launch. Environment overrides are applied after reading.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Endpoint returns the normalized collection URL. Without a configured base
// URL it falls back to the local server, except in a deployed environment
// where that would silently talk to the wrong host.
func (c Config) Endpoint() (string, error) {
	base := strings.TrimSpace(c.APIBaseURL)
	if base == "" {
		if c.IsLocal() {
			return DefaultLocalEndpoint, nil
		}
		return "", ErrEndpointNotConfigured
	}
	return NormalizeEndpoint(base), nil
}

// NormalizeEndpoint strips trailing slashes and appends the collection path
// when missing.
func NormalizeEndpoint(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if strings.HasSuffix(base, CollectionPath) {
		return base
	}
	return base + CollectionPath
}

func (c Config) IsLocal() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "" || env == EnvLocal || env == "development" || env == "dev"
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(envBaseURL); ok {
		c.APIBaseURL = v
	}
	if v, ok := os.LookupEnv(envEnv); ok {
		c.Environment = v
	}
}

func (c *Config) fillDefaults() {
	def := defaultConfig()
	if c.Environment == "" {
		c.Environment = def.Environment
	}
	if c.RequestTimeout.Duration <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.TickInterval.Duration <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = def.Server.DBPath
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		APIBaseURL:     "",
		Environment:    EnvLocal,
		RequestTimeout: Duration{10 * time.Second},
		TickInterval:   Duration{time.Second},
		LogPath:        "",
		LogLevel:       "info",
		Keys: Keymap{
			Quit:      "q",
			Add:       "a",
			Up:        "k",
			Down:      "j",
			Toggle:    " ",
			Delete:    "d",
			Confirm:   "enter",
			Cancel:    "esc",
			Edit:      "e",
			Refresh:   "r",
			NextField: "tab",
		},
		Server: Server{
			Addr:   ":5000",
			DBPath: DefaultDBName,
		},
	}
}
