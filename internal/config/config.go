package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the archive root and the triage destination.
type Paths struct {
	Root        string `toml:"root"`
	Destination string `toml:"destination"`
}

// Scan contains traversal and metadata-read configuration.
type Scan struct {
	Extensions   []string `toml:"extensions"`
	Excludes     []string `toml:"excludes"`
	SniffContent bool     `toml:"sniff_content"`
	Workers      int      `toml:"workers"`
	ReadsPerSec  int      `toml:"reads_per_sec"`
	Checkpoints  bool     `toml:"checkpoints"`
}

// Copy contains configuration for carrying out the planned copies.
type Copy struct {
	Overwrite bool `toml:"overwrite"`
	Rename    bool `toml:"rename"`
	Verify    bool `toml:"verify"`
}

// Exiftool contains configuration for the external exiftool process.
type Exiftool struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for tagsift. It is built
// by Load and handed to the entry points explicitly; no package holds
// mutable run state.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Scan     Scan     `toml:"scan"`
	Copy     Copy     `toml:"copy"`
	Exiftool Exiftool `toml:"exiftool"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default
// configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tagsift/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tagsift.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeExiftool()
	return c.normalizeLogging()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Root) == "" {
		c.Paths.Root = envOrEmpty("TAGSIFT_ROOT")
	}
	if strings.TrimSpace(c.Paths.Destination) == "" {
		c.Paths.Destination = envOrEmpty("TAGSIFT_DESTINATION")
	}
	if c.Paths.Root, err = expandPath(c.Paths.Root); err != nil {
		return fmt.Errorf("paths.root: %w", err)
	}
	if c.Paths.Destination, err = expandPath(c.Paths.Destination); err != nil {
		return fmt.Errorf("paths.destination: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	if len(c.Scan.Extensions) == 0 {
		c.Scan.Extensions = defaultExtensions()
	}
	if c.Scan.Workers < 0 {
		c.Scan.Workers = 0
	}
	if c.Scan.ReadsPerSec < 0 {
		c.Scan.ReadsPerSec = 0
	}
}

func (c *Config) normalizeExiftool() {
	c.Exiftool.Binary = strings.TrimSpace(c.Exiftool.Binary)
	if c.Exiftool.Binary == "" {
		c.Exiftool.Binary = defaultExiftoolBinary
	}
	if c.Exiftool.TimeoutSeconds <= 0 {
		c.Exiftool.TimeoutSeconds = defaultExiftoolTimeout
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ScanRoot resolves the directory a run scans. A root-relative
// subdirectory narrows the scan; current selects the working directory
// instead of the configured root.
func (c *Config) ScanRoot(directory string, current bool) (string, error) {
	if current {
		return os.Getwd()
	}
	if c.Paths.Root == "" {
		return "", errors.New("paths.root must be set (or pass --current)")
	}
	if directory == "" {
		return c.Paths.Root, nil
	}
	return filepath.Join(c.Paths.Root, directory), nil
}

// RunDestination resolves the destination for a run. When a subdirectory
// is scanned and no explicit override is given, the subdirectory's base
// name is appended so the destination keeps mirroring the configured
// root.
func (c *Config) RunDestination(directory, override string) (string, error) {
	if strings.TrimSpace(override) != "" {
		return expandPath(override)
	}
	if c.Paths.Destination == "" {
		return "", errors.New("paths.destination must be set (or pass --destination)")
	}
	if directory != "" {
		return filepath.Join(c.Paths.Destination, filepath.Base(directory)), nil
	}
	return c.Paths.Destination, nil
}

// CreateSample writes a sample configuration file to the specified
// location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other
// packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func envOrEmpty(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
