package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"docsearch/internal/source"
)

// Source types
const (
	SourceSQLite  = "sqlite"
	SourceHTTP    = "http"
	SourceRecords = "records"
)

// Config represents the application configuration
type Config struct {
	Debounce     Duration       `toml:"debounce"`
	FetchTimeout Duration       `toml:"fetch_timeout"`
	LogFile      string         `toml:"log_file"`
	LogLevel     string         `toml:"log_level"`
	Sources      []SourceConfig `toml:"sources"`
	Indexer      IndexerConfig  `toml:"indexer"`
	Server       ServerConfig   `toml:"server"`
}

// SourceConfig describes one result source
type SourceConfig struct {
	ID          string   `toml:"id"`
	Type        string   `toml:"type"`
	OpenOnFocus bool     `toml:"open_on_focus"`
	PageSize    int      `toml:"page_size,omitempty"`
	Paths       []string `toml:"paths,omitempty"`
	URL         string   `toml:"url,omitempty"`
	Index       string   `toml:"index,omitempty"`
	AppID       string   `toml:"app_id,omitempty"`
	APIKey      string   `toml:"api_key,omitempty"`
	RateLimit   float64  `toml:"rate_limit,omitempty"`
}

// IndexerConfig controls how HTML pages become records
type IndexerConfig struct {
	BaseURL string     `toml:"base_url"`
	Exclude []string   `toml:"exclude,omitempty"`
	Areas   []AreaRule `toml:"areas,omitempty"`
}

// AreaRule names the documentation area for paths containing Match
type AreaRule struct {
	Match string `toml:"match"`
	Name  string `toml:"name"`
}

// ServerConfig configures the query API server
type ServerConfig struct {
	Addr    string            `toml:"addr"`
	Indexes map[string]string `toml:"indexes"` // index name -> sqlite path
}

// Duration is a time.Duration written as text, e.g. "150ms"
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

type configService struct {
	filePath string
}

// NewConfigService creates a config service backed by the default path
func NewConfigService() ConfigService {
	return &configService{filePath: DefaultPath()}
}

// NewConfigServiceAt creates a config service backed by path
func NewConfigServiceAt(path string) ConfigService {
	if path == "" {
		return NewConfigService()
	}
	return &configService{filePath: path}
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "docsearch", "config.toml")
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration, falling back to defaults when the file is missing
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cs.LoadFromPath(cs.filePath)
}

func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Sources = nil
	cfg.Server.Indexes = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Debounce:     Duration{150 * time.Millisecond},
		FetchTimeout: Duration{5 * time.Second},
		LogFile:      "docsearch.log",
		LogLevel:     "info",
		Sources: []SourceConfig{{
			ID:       "docs",
			Type:     SourceSQLite,
			PageSize: source.DefaultPageSize,
			Paths:    []string{"docs.db"},
		}},
		Server: ServerConfig{
			Addr:    ":8080",
			Indexes: map[string]string{"docs": "docs.db"},
		},
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Indexes == nil {
		c.Server.Indexes = make(map[string]string)
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.PageSize <= 0 {
			s.PageSize = source.DefaultPageSize
		}
		if s.Type == SourceHTTP && s.Index == "" {
			s.Index = s.ID
		}
	}
}

// Validate checks the configuration for mistakes a run would trip over
func (c *Config) Validate() error {
	var errs []error

	if c.Debounce.Duration < 0 {
		errs = append(errs, errors.New("debounce must not be negative"))
	}
	if c.FetchTimeout.Duration < 0 {
		errs = append(errs, errors.New("fetch_timeout must not be negative"))
	}
	if len(c.Sources) == 0 {
		errs = append(errs, errors.New("at least one source is required"))
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if strings.TrimSpace(s.ID) == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: id is required", i))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true

		switch s.Type {
		case SourceSQLite, SourceRecords:
			if len(s.Paths) == 0 {
				errs = append(errs, fmt.Errorf("source %q: paths are required for type %s", s.ID, s.Type))
			}
		case SourceHTTP:
			if s.URL == "" {
				errs = append(errs, fmt.Errorf("source %q: url is required for type http", s.ID))
			}
			if s.RateLimit < 0 {
				errs = append(errs, fmt.Errorf("source %q: rate_limit must not be negative", s.ID))
			}
		default:
			errs = append(errs, fmt.Errorf("source %q: unknown type %q", s.ID, s.Type))
		}
	}

	for _, a := range c.Indexer.Areas {
		if a.Match == "" || a.Name == "" {
			errs = append(errs, errors.New("indexer areas need both match and name"))
			break
		}
	}

	return errors.Join(errs...)
}

// Source returns the source configuration with the given id
func (c *Config) Source(id string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return SourceConfig{}, false
}
