package whisper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandRunner executes an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Service provides Whisper transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner CommandRunner
}

// NewService creates a Whisper service with the given configuration.
func NewService(cfg Config) *Service {
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	if cfg.Engine == "" {
		cfg.Engine = EngineWhisper
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// SetModel replaces the model name or checkpoint path.
func (s *Service) SetModel(model string) {
	if model = strings.TrimSpace(model); model != "" {
		s.cfg.Model = model
	}
}

// Model returns the configured model for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Engine returns the configured engine name.
func (s *Service) Engine() string {
	return s.cfg.Engine
}

// Binary returns the executable that fronts the engine.
func (s *Service) Binary() string {
	if bin := strings.TrimSpace(s.cfg.Binary); bin != "" {
		return bin
	}
	if s.cfg.Engine == EngineWhisperX {
		return UVXCommand
	}
	return WhisperCommand
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, which breaks
	// loading older checkpoints.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(strings.TrimSpace(string(output)), 2048))
	}
	return nil
}

// Segment represents a transcribed segment from the engine's JSON output.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result contains the decoded engine output.
type Result struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
	// JSONPath is the file the result was read from.
	JSONPath string `json:"-"`
}

// TranscribeFile runs one whole-file inference over source, writing engine
// output into outputDir, and returns the decoded JSON result.
func (s *Service) TranscribeFile(ctx context.Context, source, outputDir string) (Result, error) {
	if source == "" {
		return Result{}, errors.New("transcribe: source path required")
	}
	if outputDir == "" {
		return Result{}, errors.New("transcribe: output directory required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	if err := s.run(ctx, s.Binary(), s.BuildArgs(source, outputDir)...); err != nil {
		return Result{}, fmt.Errorf("%s: %w", s.cfg.Engine, err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return LoadResult(filepath.Join(outputDir, baseName+".json"))
}

// BuildArgs constructs the command arguments for the configured engine.
func (s *Service) BuildArgs(source, outputDir string) []string {
	if s.cfg.Engine == EngineWhisperX {
		return s.buildWhisperXArgs(source, outputDir)
	}
	return s.buildWhisperArgs(source, outputDir)
}

func (s *Service) buildWhisperArgs(source, outputDir string) []string {
	args := []string{
		source,
		"--task", "transcribe",
		"--model", s.cfg.Model,
		"--output_format", OutputFormat,
		"--output_dir", outputDir,
		"--temperature", Temperature,
		"--verbose", "False",
	}
	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--fp16", "False")
	}
	if lang := s.cfg.Language; lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

func (s *Service) buildWhisperXArgs(source, outputDir string) []string {
	args := make([]string, 0, 32)
	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}
	args = append(args,
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
		"--vad_method", VADMethod,
	)
	if lang := s.cfg.Language; lang != "" {
		args = append(args, "--language", lang)
	}
	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}

// LoadResult decodes an engine JSON file.
func LoadResult(jsonPath string) (Result, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Result{}, fmt.Errorf("read transcript json: %w", err)
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("parse transcript json: %w", err)
	}
	result.JSONPath = jsonPath
	return result, nil
}

// JoinText concatenates non-empty segment texts with single spaces.
func JoinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func tail(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return "..." + value[len(value)-limit:]
}
