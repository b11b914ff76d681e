package config

const (
	defaultScratchDir           = "~/.local/share/lectern/scratch"
	defaultOutputDir            = "~/transcripts"
	defaultLogDir               = "~/.local/share/lectern/logs"
	defaultDiskMinFreeGB        = 5.0
	defaultDiskPolicy           = PolicyWait
	defaultDiskCheckIntervalSec = 30
	defaultDiskMaxWaitMinutes   = 60
	defaultEngineModel          = "base.en"
	defaultEngineDevice         = "cpu"
	defaultEngineComputeType    = "int8"
	defaultEngineBatchSize      = 8
	defaultEngineHFTokenEnv     = "HF_TOKEN"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Disk guard policy values.
const (
	PolicyWait = "wait"
	PolicyFail = "fail"
)

func defaultIncludeExtensions() []string {
	return []string{".mp3", ".wav", ".m4a", ".mp4", ".mov"}
}

func defaultOutputFormats() []string {
	return []string{"json", "srt", "vtt", "txt"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
		},
		Source: Source{
			IncludeExtensions: defaultIncludeExtensions(),
		},
		Disk: Disk{
			MinFreeGB:            defaultDiskMinFreeGB,
			Policy:               defaultDiskPolicy,
			CheckIntervalSeconds: defaultDiskCheckIntervalSec,
			MaxWaitMinutes:       defaultDiskMaxWaitMinutes,
		},
		Engine: Engine{
			Model:       defaultEngineModel,
			Device:      defaultEngineDevice,
			ComputeType: defaultEngineComputeType,
			BatchSize:   defaultEngineBatchSize,
			HFTokenEnv:  defaultEngineHFTokenEnv,
		},
		Outputs: Outputs{
			Formats: defaultOutputFormats(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
