package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownFormats = map[string]struct{}{
	"json": {},
	"srt":  {},
	"vtt":  {},
	"txt":  {},
	"csv":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateDisk(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateOutputs(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.ScratchDir == c.Paths.OutputDir {
		return errors.New("paths.scratch_dir and paths.output_dir must differ; scratch copies are purged after every file")
	}
	return nil
}

func (c *Config) validateSource() error {
	hasRemote := c.Source.RcloneRemote != "" || c.Source.RemotePath != ""
	if hasRemote {
		if c.Source.RcloneRemote == "" {
			return errors.New("source.rclone_remote must be set when source.remote_path is configured")
		}
		if c.Source.RemotePath == "" {
			return errors.New("source.remote_path must be set when source.rclone_remote is configured")
		}
	}
	if len(c.Source.IncludeExtensions) == 0 {
		return errors.New("source.include_extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateDisk() error {
	if c.Disk.MinFreeGB < 0 {
		return errors.New("disk.min_free_gb must not be negative")
	}
	switch c.Disk.Policy {
	case PolicyWait, PolicyFail:
	default:
		return fmt.Errorf("disk.policy must be %q or %q, got %q", PolicyWait, PolicyFail, c.Disk.Policy)
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.Device {
	case "cpu", "cuda":
	default:
		return fmt.Errorf("engine.device must be \"cpu\" or \"cuda\", got %q", c.Engine.Device)
	}
	if c.Engine.TimeoutMinutes < 0 {
		return errors.New("engine.timeout_minutes must not be negative")
	}
	return nil
}

func (c *Config) validateOutputs() error {
	if len(c.Outputs.Formats) == 0 {
		return errors.New("outputs.formats must list at least one format")
	}
	for _, format := range c.Outputs.Formats {
		if _, ok := knownFormats[format]; !ok {
			return fmt.Errorf("outputs.formats: unsupported format %q (supported: json, srt, vtt, txt, csv)", format)
		}
	}
	return nil
}
