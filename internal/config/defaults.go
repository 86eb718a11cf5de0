package config

const (
	defaultFeedURL        = "https://feeds.fireside.fm/zeroknowledge/rss"
	defaultRoot           = "out"
	defaultMediaDir       = "mp3"
	defaultMediaExtension = "mp3"
	defaultTimeoutSeconds = 60
	defaultHashAlgorithm  = "sha256"
	defaultLogFormat      = "auto"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		FeedURL: defaultFeedURL,
		Archive: Archive{
			Root:           defaultRoot,
			MediaDir:       defaultMediaDir,
			MediaExtension: defaultMediaExtension,
		},
		HTTP: HTTP{
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Hash: Hash{
			Algorithm: defaultHashAlgorithm,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
