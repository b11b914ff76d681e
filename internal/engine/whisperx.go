package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"lectern/internal/langtag"
	"lectern/internal/media"
)

// UVXCommand launches WhisperX without requiring a managed Python
// environment.
const UVXCommand = "uvx"

// Config contains WhisperX invocation options.
type Config struct {
	Model       string
	Device      string
	ComputeType string
	BatchSize   int
	Language    string
	Diarization bool
	// HFToken authorizes the pyannote diarization models. Resolved via
	// ResolveHFToken when empty and Diarization is enabled.
	HFToken string
}

// Service provides WhisperX transcription.
type Service struct {
	cfg    Config
	runner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Model == "" {
		cfg.Model = "base.en"
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 8
	}
	return &Service{cfg: cfg}
}

// WithRunner sets a custom command runner (for testing).
func (s *Service) WithRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.runner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Transcribe runs WhisperX on the scratch copy at audioPath, using workDir
// for the engine's own output files, and returns the parsed transcript.
// This call can run for minutes to hours depending on recording length.
func (s *Service) Transcribe(ctx context.Context, audioPath, workDir string) (media.Transcript, error) {
	var transcript media.Transcript

	if audioPath == "" {
		return transcript, fmt.Errorf("transcribe: audio path required")
	}
	if workDir == "" {
		return transcript, fmt.Errorf("transcribe: work dir required")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return transcript, fmt.Errorf("transcribe: ensure work dir: %w", err)
	}

	args := s.buildArgs(audioPath, workDir)
	if err := s.run(ctx, UVXCommand, args...); err != nil {
		return transcript, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	resultPath := filepath.Join(workDir, baseName+".json")
	transcript, err := loadResult(resultPath)
	if err != nil {
		return transcript, fmt.Errorf("whisperx result: %w", err)
	}
	transcript.SortSegments()
	return transcript, nil
}

func (s *Service) buildArgs(audioPath, workDir string) []string {
	args := []string{
		"whisperx",
		audioPath,
		"--model", s.cfg.Model,
		"--batch_size", strconv.Itoa(s.cfg.BatchSize),
		"--output_dir", workDir,
		"--output_format", "json",
	}

	if s.cfg.Device == "cuda" {
		args = append(args, "--device", "cuda")
	} else {
		computeType := s.cfg.ComputeType
		if computeType == "" {
			computeType = "int8"
		}
		args = append(args, "--device", "cpu", "--compute_type", computeType)
	}

	if lang := langtag.ToISO2(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.Diarization && s.cfg.HFToken != "" {
		args = append(args, "--diarize", "--hf_token", s.cfg.HFToken)
	}

	return args
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.runner != nil {
		return s.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking
	// WhisperX/pyannote checkpoint loading. Force legacy behavior.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
