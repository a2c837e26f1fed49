package config

const (
	defaultCardsDir       = "~/artist-wiki/Artists"
	defaultQuarantineBase = "problem-cards"
	defaultBackupBase     = "backups"
	defaultLogDir         = "~/.local/share/liner/logs"
	defaultGraphFile      = "artist_connections.json"

	defaultResearchBaseURL        = "https://api.perplexity.ai"
	defaultResearchModel          = "sonar-pro"
	defaultResearchTemperature    = 0.3
	defaultResearchMaxTokens      = 2048
	defaultResearchTimeoutSeconds = 60

	defaultMetadataBaseURL        = "https://api.spotify.com/v1"
	defaultMetadataTokenURL       = "https://accounts.spotify.com/api/token"
	defaultMetadataTimeoutSeconds = 30

	defaultEncyclopediaBaseURL        = "https://en.wikipedia.org/w/api.php"
	defaultEncyclopediaUserAgent      = "liner/0.1 (artist card enhancer)"
	defaultEncyclopediaTimeoutSeconds = 30

	defaultURLPatternPoints      = 25
	defaultFoodTermPoints        = 20
	defaultFoodTermWithURLPoints = 30
	defaultGenrePhrasePoints     = 30
	defaultGenericActsPoints     = 20
	defaultMismatchPhrasePoints  = 40
	defaultTitleDivergencePoints = 15
	defaultSuspicionThreshold    = 0.7

	defaultRateLimitSeconds = 2

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CardsDir: defaultCardsDir,
			LogDir:   defaultLogDir,
		},
		Research: Research{
			BaseURL:        defaultResearchBaseURL,
			Model:          defaultResearchModel,
			Temperature:    defaultResearchTemperature,
			MaxTokens:      defaultResearchMaxTokens,
			TimeoutSeconds: defaultResearchTimeoutSeconds,
		},
		Metadata: Metadata{
			Enabled:        false,
			BaseURL:        defaultMetadataBaseURL,
			TokenURL:       defaultMetadataTokenURL,
			TimeoutSeconds: defaultMetadataTimeoutSeconds,
		},
		Encyclopedia: Encyclopedia{
			BaseURL:        defaultEncyclopediaBaseURL,
			UserAgent:      defaultEncyclopediaUserAgent,
			TimeoutSeconds: defaultEncyclopediaTimeoutSeconds,
		},
		Classifier: Classifier{
			URLPatternPoints:      defaultURLPatternPoints,
			FoodTermPoints:        defaultFoodTermPoints,
			FoodTermWithURLPoints: defaultFoodTermWithURLPoints,
			GenrePhrasePoints:     defaultGenrePhrasePoints,
			GenericActsPoints:     defaultGenericActsPoints,
			MismatchPhrasePoints:  defaultMismatchPhrasePoints,
			TitleDivergencePoints: defaultTitleDivergencePoints,
			SuspicionThreshold:    defaultSuspicionThreshold,
		},
		Workflow: Workflow{
			RateLimitSeconds: defaultRateLimitSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunLifecycle:   true,
			Quarantine:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
