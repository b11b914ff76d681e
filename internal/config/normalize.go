package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSource()
	c.normalizeDisk()
	c.normalizeEngine()
	c.normalizeOutputs()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() {
	c.Source.RcloneRemote = strings.TrimSpace(strings.TrimSuffix(c.Source.RcloneRemote, ":"))
	c.Source.RemotePath = strings.TrimSpace(c.Source.RemotePath)
	if c.Source.InputDir != "" {
		if expanded, err := expandPath(c.Source.InputDir); err == nil {
			c.Source.InputDir = expanded
		}
	}
	if len(c.Source.IncludeExtensions) == 0 {
		c.Source.IncludeExtensions = defaultIncludeExtensions()
	}
}

func (c *Config) normalizeDisk() {
	c.Disk.Policy = strings.ToLower(strings.TrimSpace(c.Disk.Policy))
	if c.Disk.Policy == "" {
		c.Disk.Policy = defaultDiskPolicy
	}
	if c.Disk.CheckIntervalSeconds <= 0 {
		c.Disk.CheckIntervalSeconds = defaultDiskCheckIntervalSec
	}
	if c.Disk.MaxWaitMinutes <= 0 {
		c.Disk.MaxWaitMinutes = defaultDiskMaxWaitMinutes
	}
}

func (c *Config) normalizeEngine() {
	c.Engine.Model = strings.TrimSpace(c.Engine.Model)
	if c.Engine.Model == "" {
		c.Engine.Model = defaultEngineModel
	}
	c.Engine.Device = strings.ToLower(strings.TrimSpace(c.Engine.Device))
	if c.Engine.Device == "" {
		c.Engine.Device = defaultEngineDevice
	}
	c.Engine.ComputeType = strings.TrimSpace(c.Engine.ComputeType)
	if c.Engine.ComputeType == "" {
		c.Engine.ComputeType = defaultEngineComputeType
	}
	if c.Engine.BatchSize <= 0 {
		c.Engine.BatchSize = defaultEngineBatchSize
	}
	if strings.TrimSpace(c.Engine.HFTokenEnv) == "" {
		c.Engine.HFTokenEnv = defaultEngineHFTokenEnv
	}
}

func (c *Config) normalizeOutputs() {
	if len(c.Outputs.Formats) == 0 {
		c.Outputs.Formats = defaultOutputFormats()
		return
	}
	formats := make([]string, 0, len(c.Outputs.Formats))
	for _, format := range c.Outputs.Formats {
		trimmed := strings.ToLower(strings.TrimSpace(format))
		if trimmed != "" {
			formats = append(formats, trimmed)
		}
	}
	c.Outputs.Formats = formats
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
