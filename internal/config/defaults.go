package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			URL:        "http://127.0.0.1:5000",
			TokenEnv:   "VIVA_TOKEN",
			HealthPath: "/api/health",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Video: VideoConfig{
			Enable: true,
			Device: "/dev/video0",
		},
		ASR: ASRConfig{
			Backend:      "backend",
			LanguageCode: "en-US",
		},
		Pacing: PacingConfig{
			GreetingMS: 2500,
			QuestionMS: 1500,
		},
		Timeouts: TimeoutsConfig{
			StartMS:      30000,
			TranscribeMS: 30000,
			EvaluateMS:   45000,
			FeedbackMS:   60000,
			SaveMS:       15000,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			DesktopAppName: "viva-interview",
			SoundEnable:    true,
			ErrorTimeoutMS: 2500,
		},
		Debug: DebugConfig{},
	}
}
