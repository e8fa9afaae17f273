package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/clustertrack/internal/intra"
)

const envPrefix = "CLUSTERTRACK_"

// Config is the resolved runtime configuration. Sources are layered:
// defaults, the YAML file, a .env file, then CLUSTERTRACK_* variables.
type Config struct {
	Intra intra.Config

	StreamURL    string
	StreamCookie string

	PageURL    string
	ControlURL string
	Headless   bool
	UseRelay   bool

	DBPath     string
	ExportDir  string
	ListenAddr string
	Timezone   string
	LogCalls   bool
	Debug      bool
}

// Dir returns ~/.clustertrack, or the working directory when there is no home.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".clustertrack")
}

// DefaultPath is the YAML config location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func DefaultConfig() Config {
	return Config{
		Intra:      intra.DefaultConfig(),
		Headless:   true,
		UseRelay:   true,
		DBPath:     filepath.Join(Dir(), "clustertrack.db"),
		ExportDir:  ".",
		ListenAddr: "127.0.0.1:4242",
	}
}

// Location resolves Timezone, falling back to the local zone.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type fileConfig struct {
	API struct {
		URL            string `yaml:"url"`
		TokenURL       string `yaml:"token_url"`
		ClientID       string `yaml:"client_id"`
		ClientSecret   string `yaml:"client_secret"`
		CampusID       int    `yaml:"campus_id"`
		PerPage        int    `yaml:"per_page"`
		MaxPages       int    `yaml:"max_pages"`
		ActiveMaxPages int    `yaml:"active_max_pages"`
		RequestTimeout string `yaml:"request_timeout"`
		MaxRetries     *int   `yaml:"max_retries"`
		Backoff        string `yaml:"backoff"`
	} `yaml:"api"`
	Stream struct {
		URL    string `yaml:"url"`
		Cookie string `yaml:"cookie"`
	} `yaml:"stream"`
	Browser struct {
		ControlURL string `yaml:"control_url"`
		PageURL    string `yaml:"page_url"`
		Headless   *bool  `yaml:"headless"`
		Relay      *bool  `yaml:"relay"`
	} `yaml:"browser"`
	DBPath    string `yaml:"db_path"`
	ExportDir string `yaml:"export_dir"`
	Listen    string `yaml:"listen"`
	Timezone  string `yaml:"timezone"`
	LogCalls  *bool  `yaml:"log_calls"`
}

// Load resolves the configuration. A missing YAML or .env file is not an
// error; a malformed YAML file is. Bad environment values are ignored and
// the previous layer's value is kept.
func Load(path, envFile string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}
	if err := applyFile(&cfg, path); err != nil {
		return cfg, err
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	applyEnv(&cfg, os.Getenv)
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	setStr(&cfg.Intra.BaseURL, fc.API.URL)
	setStr(&cfg.Intra.TokenURL, fc.API.TokenURL)
	setStr(&cfg.Intra.ClientID, fc.API.ClientID)
	setStr(&cfg.Intra.ClientSecret, fc.API.ClientSecret)
	setPositive(&cfg.Intra.CampusID, fc.API.CampusID)
	setPositive(&cfg.Intra.PerPage, fc.API.PerPage)
	setPositive(&cfg.Intra.MaxPages, fc.API.MaxPages)
	setPositive(&cfg.Intra.ActiveMaxPages, fc.API.ActiveMaxPages)
	setDuration(&cfg.Intra.RequestTimeout, fc.API.RequestTimeout)
	setDuration(&cfg.Intra.Backoff, fc.API.Backoff)
	if fc.API.MaxRetries != nil && *fc.API.MaxRetries >= 0 {
		cfg.Intra.MaxRetries = *fc.API.MaxRetries
	}
	setStr(&cfg.StreamURL, fc.Stream.URL)
	setStr(&cfg.StreamCookie, fc.Stream.Cookie)
	setStr(&cfg.ControlURL, fc.Browser.ControlURL)
	setStr(&cfg.PageURL, fc.Browser.PageURL)
	if fc.Browser.Headless != nil {
		cfg.Headless = *fc.Browser.Headless
	}
	if fc.Browser.Relay != nil {
		cfg.UseRelay = *fc.Browser.Relay
	}
	setStr(&cfg.DBPath, fc.DBPath)
	setStr(&cfg.ExportDir, fc.ExportDir)
	setStr(&cfg.ListenAddr, fc.Listen)
	setStr(&cfg.Timezone, fc.Timezone)
	if fc.LogCalls != nil {
		cfg.LogCalls = *fc.LogCalls
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	get := func(key string) string { return strings.TrimSpace(getenv(envPrefix + key)) }

	setStr(&cfg.Intra.BaseURL, get("API_URL"))
	setStr(&cfg.Intra.TokenURL, get("TOKEN_URL"))
	setStr(&cfg.Intra.ClientID, get("CLIENT_ID"))
	setStr(&cfg.Intra.ClientSecret, get("CLIENT_SECRET"))
	if n, err := strconv.Atoi(get("CAMPUS_ID")); err == nil && n > 0 {
		cfg.Intra.CampusID = n
	}
	if n, err := strconv.Atoi(get("PER_PAGE")); err == nil && n > 0 {
		cfg.Intra.PerPage = n
	}
	if n, err := strconv.Atoi(get("MAX_PAGES")); err == nil && n > 0 {
		cfg.Intra.MaxPages = n
	}
	if n, err := strconv.Atoi(get("ACTIVE_MAX_PAGES")); err == nil && n > 0 {
		cfg.Intra.ActiveMaxPages = n
	}
	if n, err := strconv.Atoi(get("TIMEOUT_MS")); err == nil && n > 0 {
		cfg.Intra.RequestTimeout = time.Duration(n) * time.Millisecond
	}
	if n, err := strconv.Atoi(get("MAX_RETRIES")); err == nil && n >= 0 {
		cfg.Intra.MaxRetries = n
	}
	if n, err := strconv.Atoi(get("BACKOFF_MS")); err == nil && n > 0 {
		cfg.Intra.Backoff = time.Duration(n) * time.Millisecond
	}
	setStr(&cfg.StreamURL, get("STREAM_URL"))
	setStr(&cfg.StreamCookie, get("STREAM_COOKIE"))
	setStr(&cfg.PageURL, get("PAGE_URL"))
	setStr(&cfg.ControlURL, get("BROWSER_URL"))
	if b, err := strconv.ParseBool(get("HEADLESS")); err == nil {
		cfg.Headless = b
	}
	if b, err := strconv.ParseBool(get("RELAY")); err == nil {
		cfg.UseRelay = b
	}
	setStr(&cfg.DBPath, get("DB"))
	setStr(&cfg.ExportDir, get("EXPORT_DIR"))
	setStr(&cfg.ListenAddr, get("LISTEN"))
	setStr(&cfg.Timezone, get("TZ"))
	if b, err := strconv.ParseBool(get("LOG_CALLS")); err == nil {
		cfg.LogCalls = b
	}
	if b, err := strconv.ParseBool(get("DEBUG")); err == nil {
		cfg.Debug = b
	}
}

func (c Config) validate() error {
	if c.Intra.BaseURL == "" {
		return errors.New("api url must not be empty")
	}
	if c.Intra.PerPage > 100 {
		return fmt.Errorf("per_page must be at most 100, got %d", c.Intra.PerPage)
	}
	if c.DBPath == "" {
		return errors.New("db path must not be empty")
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("timezone %q: %w", c.Timezone, err)
		}
	}
	return nil
}

// HasCredentials reports whether direct API access is configured.
func (c Config) HasCredentials() bool {
	return c.Intra.ClientID != "" && c.Intra.ClientSecret != ""
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setPositive(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
	}
}
