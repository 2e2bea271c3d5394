package whisper

// Config captures runtime settings for Whisper invocations.
type Config struct {
	// Engine is EngineWhisper or EngineWhisperX.
	Engine string
	// Binary overrides the executable; empty selects the engine default.
	Binary string
	// Model is a model name or a checkpoint path.
	Model string
	// Language is an ISO 639-1 hint; empty lets the engine detect it.
	Language string
	// CUDAEnabled enables GPU inference.
	CUDAEnabled bool
}

// Engine names.
const (
	EngineWhisper  = "whisper"
	EngineWhisperX = "whisperx"
)

// Whisper configuration constants.
const (
	DefaultModel   = "base"
	WhisperCommand = "whisper"
	UVXCommand     = "uvx"
	CUDAIndexURL   = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL   = "https://pypi.org/simple"
	OutputFormat   = "json"
	BatchSize      = "4"
	BeamSize       = "5"
	Temperature    = "0.0"
	CPUDevice      = "cpu"
	CUDADevice     = "cuda"
	CPUComputeType = "float32"
	VADMethod      = "silero"
)
