package config

const (
	defaultStateDir            = "~/.local/share/fileorg"
	defaultProgressEvery       = 10
	defaultWorkers             = 1
	maxWorkers                 = 64
	defaultProbeTimeoutSeconds = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultFFprobeBinary       = "ffprobe"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Organize: Organize{
			ByCategory:              true,
			EnrichFilenames:         true,
			ProgressEvery:           defaultProgressEvery,
			Workers:                 defaultWorkers,
			VerifyCopies:            true,
			RestoreMissingExtension: true,
			History:                 true,
		},
		Media: Media{
			FFprobeBinary:       defaultFFprobeBinary,
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
