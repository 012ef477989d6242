// Package config holds the scanbridge configuration: the listening port,
// the active scan profile, and the batch-scan job settings. Settings the
// user can change between requests (separator policy, save path, output
// mode) are exposed through a Provider so callers always see current
// values instead of a snapshot taken at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// SeparatorPolicy controls how captured pages are split into output files.
type SeparatorPolicy string

const (
	SeparatorNone       SeparatorPolicy = "none"
	SeparatorPerPage    SeparatorPolicy = "per-page"
	SeparatorPerSession SeparatorPolicy = "per-session"
)

// BatchOutputMode selects where a batch job puts its results.
type BatchOutputMode string

const (
	// BatchOutputLoad appends scanned pages to the shared in-memory collection.
	BatchOutputLoad BatchOutputMode = "load"
	// BatchOutputFile writes finished files to disk under the batch save path.
	BatchOutputFile BatchOutputMode = "file"
)

const DefaultPort = 8234

// Profile is the default single-scan profile.
type Profile struct {
	SavePath  string          `yaml:"save_path"`
	Separator SeparatorPolicy `yaml:"separator"`
}

// Batch configures the pre-defined batch-scan job.
type Batch struct {
	OutputMode BatchOutputMode `yaml:"output_mode"`
	SavePath   string          `yaml:"save_path"`
	Separator  SeparatorPolicy `yaml:"separator"`
	Extension  string          `yaml:"extension"`
}

// Config is the full scanbridge configuration file.
type Config struct {
	Port    int     `yaml:"port"`
	Profile Profile `yaml:"profile"`
	Batch   Batch   `yaml:"batch"`

	// Command lines the bridge runs to drive the physical scanner.
	ScanCommand      []string `yaml:"scan_command"`
	BatchScanCommand []string `yaml:"batch_scan_command"`
	ForegroundCmd    []string `yaml:"foreground_command"`
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Profile.Separator == "" {
		c.Profile.Separator = SeparatorNone
	}
	if c.Batch.Separator == "" {
		c.Batch.Separator = SeparatorNone
	}
	if c.Batch.OutputMode == "" {
		c.Batch.OutputMode = BatchOutputLoad
	}
	if c.Batch.Extension == "" {
		c.Batch.Extension = ".pdf"
	}
}

func (c *Config) validate() error {
	switch c.Profile.Separator {
	case SeparatorNone, SeparatorPerPage, SeparatorPerSession:
	default:
		return fmt.Errorf("invalid profile separator: %q", c.Profile.Separator)
	}
	switch c.Batch.Separator {
	case SeparatorNone, SeparatorPerPage, SeparatorPerSession:
	default:
		return fmt.Errorf("invalid batch separator: %q", c.Batch.Separator)
	}
	switch c.Batch.OutputMode {
	case BatchOutputLoad, BatchOutputFile:
	default:
		return fmt.Errorf("invalid batch output mode: %q", c.Batch.OutputMode)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// Load reads a YAML configuration file, fills defaults, and applies
// environment overrides (SCANBRIDGE_PORT).
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if port := os.Getenv("SCANBRIDGE_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SCANBRIDGE_PORT: %w", err)
		}
		cfg.Port = p
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Provider yields the current profile and batch settings. The user may
// change settings while a request is in flight, so separator policy and
// save path are read through a Provider at the moment they are needed.
type Provider interface {
	Profile() Profile
	Batch() Batch
}

// FileProvider re-reads the configuration file on every call, falling back
// to the last good values when the file is missing or malformed.
type FileProvider struct {
	path string

	mu   sync.Mutex
	last *Config
}

func NewFileProvider(path string, initial *Config) *FileProvider {
	return &FileProvider{path: path, last: initial}
}

func (p *FileProvider) current() *Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.path == "" {
		return p.last
	}
	cfg, err := Load(p.path)
	if err != nil {
		return p.last
	}
	p.last = cfg
	return cfg
}

func (p *FileProvider) Profile() Profile { return p.current().Profile }
func (p *FileProvider) Batch() Batch     { return p.current().Batch }

// Static is a fixed-value Provider.
type Static struct {
	P Profile
	B Batch
}

func (s Static) Profile() Profile { return s.P }
func (s Static) Batch() Batch     { return s.B }
