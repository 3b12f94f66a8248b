// Package config resolves, parses, validates, and defaults viva configuration.
package config

// Config is the fully materialized runtime configuration used by viva.
type Config struct {
	Backend   BackendConfig
	Job       JobConfig
	Audio     AudioConfig
	Video     VideoConfig
	ASR       ASRConfig
	Pacing    PacingConfig
	Timeouts  TimeoutsConfig
	Indicator IndicatorConfig
	Debug     DebugConfig
}

// BackendConfig locates the interview service.
type BackendConfig struct {
	URL        string
	TokenEnv   string
	HealthPath string
}

// JobConfig carries the default job context for new sessions. Resume is a
// filesystem path to the resume document.
type JobConfig struct {
	Role        string
	Company     string
	Description string
	Resume      string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// VideoConfig controls the optional camera feed.
type VideoConfig struct {
	Enable bool
	Device string
}

// ASRConfig selects the transcription route: the backend's transcription
// endpoint or direct Google Cloud Speech-to-Text.
type ASRConfig struct {
	Backend      string
	LanguageCode string
}

// PacingConfig controls the cosmetic greeting/question display delays.
type PacingConfig struct {
	GreetingMS int
	QuestionMS int
}

// TimeoutsConfig overrides per-operation backend deadlines.
type TimeoutsConfig struct {
	StartMS      int
	TranscribeMS int
	EvaluateMS   int
	FeedbackMS   int
	SaveMS       int
}

// IndicatorConfig controls desktop notification and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
