package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ScratchDir string `toml:"scratch_dir"`
	OutputDir  string `toml:"output_dir"`
	LogDir     string `toml:"log_dir"`
}

// Source selects where candidate recordings come from. Exactly one of
// InputDir or RcloneRemote+RemotePath is used for a run; the CLI decides
// which when both are present.
type Source struct {
	InputDir          string   `toml:"input_dir"`
	RcloneRemote      string   `toml:"rclone_remote"`
	RemotePath        string   `toml:"remote_path"`
	IncludeExtensions []string `toml:"include_extensions"`
}

// Disk configures the free-space guard applied before every fetch.
type Disk struct {
	MinFreeGB            float64 `toml:"min_free_gb"`
	Policy               string  `toml:"policy"`
	CheckIntervalSeconds int     `toml:"check_interval_seconds"`
	MaxWaitMinutes       int     `toml:"max_wait_minutes"`
}

// Engine contains transcription engine options passed to WhisperX.
type Engine struct {
	Model          string `toml:"model"`
	Device         string `toml:"device"`
	ComputeType    string `toml:"compute_type"`
	BatchSize      int    `toml:"batch_size"`
	Language       string `toml:"language"`
	Diarization    bool   `toml:"diarization"`
	HFTokenEnv     string `toml:"hf_token_env"`
	TimeoutMinutes int    `toml:"timeout_minutes"`
}

// Outputs selects which transcript projections are written per recording.
type Outputs struct {
	Formats []string `toml:"formats"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lectern.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Source  Source  `toml:"source"`
	Disk    Disk    `toml:"disk"`
	Engine  Engine  `toml:"engine"`
	Outputs Outputs `toml:"outputs"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lectern/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was found at the resolved path.
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

	projectPath, err := filepath.Abs("lectern.toml")
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

// EnsureDirectories creates the scratch, output, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ScratchDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the location of the shared attempt ledger for the
// configured output directory.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.OutputDir, "ledger.db")
}

// LockPath returns the location of the run lock guarding the output
// directory against concurrent writers.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.OutputDir, ".lectern.lock")
}

// LogPath returns the location of the shared log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "lectern.log")
}

// CheckInterval returns the disk guard polling interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Disk.CheckIntervalSeconds) * time.Second
}

// MaxWait returns the longest the disk guard will block under the wait
// policy before aborting the run.
func (c *Config) MaxWait() time.Duration {
	return time.Duration(c.Disk.MaxWaitMinutes) * time.Minute
}

// MinFreeBytes converts the configured minimum free space to bytes.
func (c *Config) MinFreeBytes() uint64 {
	return uint64(c.Disk.MinFreeGB * float64(1<<30))
}

// EngineTimeout returns the per-file transcription timeout. Zero disables
// the timeout; lecture recordings can legitimately run for hours.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutMinutes) * time.Minute
}

// RcloneBinary returns the rclone executable name.
func (c *Config) RcloneBinary() string {
	return "rclone"
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

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
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
