package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	backendURL := strings.TrimSpace(cfg.Backend.URL)
	if backendURL == "" {
		return nil, fmt.Errorf("backend.url must not be empty")
	}
	parsed, err := url.Parse(backendURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("backend.url %q must be an absolute http(s) URL", backendURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend.url scheme must be http or https")
	}

	healthPath := strings.TrimSpace(cfg.Backend.HealthPath)
	if healthPath == "" {
		return nil, fmt.Errorf("backend.health_path must not be empty")
	}
	if !strings.HasPrefix(healthPath, "/") {
		return nil, fmt.Errorf("backend.health_path must start with '/'")
	}

	asrBackend := strings.ToLower(strings.TrimSpace(cfg.ASR.Backend))
	if asrBackend != "backend" && asrBackend != "google" {
		return nil, fmt.Errorf("asr.backend must be one of: backend, google")
	}
	if strings.TrimSpace(cfg.ASR.LanguageCode) == "" {
		return nil, fmt.Errorf("asr.language_code must not be empty")
	}

	if cfg.Pacing.GreetingMS < 0 || cfg.Pacing.QuestionMS < 0 {
		return nil, fmt.Errorf("pacing delays must be >= 0")
	}

	for name, ms := range map[string]int{
		"timeouts.start_ms":      cfg.Timeouts.StartMS,
		"timeouts.transcribe_ms": cfg.Timeouts.TranscribeMS,
		"timeouts.evaluate_ms":   cfg.Timeouts.EvaluateMS,
		"timeouts.feedback_ms":   cfg.Timeouts.FeedbackMS,
		"timeouts.save_ms":       cfg.Timeouts.SaveMS,
	} {
		if ms <= 0 {
			return nil, fmt.Errorf("%s must be > 0", name)
		}
	}

	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.enable=true")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Video.Enable && strings.TrimSpace(cfg.Video.Device) == "" {
		return nil, fmt.Errorf("video.device must not be empty when video.enable=true")
	}

	if cfg.Backend.TokenEnv == "" {
		warnings = append(warnings, Warning{Message: "backend.token_env is empty; requests will be unauthenticated"})
	}

	return warnings, nil
}
