// Package doctor runs runtime readiness diagnostics for config, audio,
// video, and the interview backend.
package doctor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dhaines/viva/internal/audio"
	"github.com/dhaines/viva/internal/backend"
	"github.com/dhaines/viva/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkToken(cfg.Config))
	checks = append(checks, checkResume(cfg.Config))
	checks = append(checks, checkAudioSelection(cfg.Config))
	if cfg.Config.Video.Enable {
		checks = append(checks, checkCameraDevice(cfg.Config))
	}
	if strings.EqualFold(cfg.Config.ASR.Backend, "google") {
		checks = append(checks, checkGoogleCredentials())
	}
	checks = append(checks, checkBackendHealth(cfg.Config))

	return Report{Checks: checks}
}

// checkToken validates that the configured token env var resolves to a value.
func checkToken(cfg config.Config) Check {
	name := strings.TrimSpace(cfg.Backend.TokenEnv)
	if name == "" {
		return Check{Name: "backend.token", Pass: true, Message: "no token env configured; requests will be unauthenticated"}
	}
	if strings.TrimSpace(os.Getenv(name)) == "" {
		return Check{Name: "backend.token", Pass: false, Message: fmt.Sprintf("%s is empty", name)}
	}
	return Check{Name: "backend.token", Pass: true, Message: fmt.Sprintf("%s is set", name)}
}

// checkResume validates that the configured resume file is readable.
func checkResume(cfg config.Config) Check {
	path := strings.TrimSpace(cfg.Job.Resume)
	if path == "" {
		return Check{Name: "job.resume", Pass: false, Message: "job.resume is empty; a resume file is required to start a session"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Check{Name: "job.resume", Pass: false, Message: err.Error()}
	}
	if info.IsDir() {
		return Check{Name: "job.resume", Pass: false, Message: fmt.Sprintf("%q is a directory", path)}
	}
	return Check{Name: "job.resume", Pass: true, Message: fmt.Sprintf("readable %q (%d bytes)", path, info.Size())}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkCameraDevice validates that the configured camera node exists.
func checkCameraDevice(cfg config.Config) Check {
	path := strings.TrimSpace(cfg.Video.Device)
	if path == "" {
		return Check{Name: "video.device", Pass: false, Message: "video.device is empty"}
	}
	if _, err := os.Stat(path); err != nil {
		return Check{Name: "video.device", Pass: false, Message: err.Error()}
	}
	return Check{Name: "video.device", Pass: true, Message: fmt.Sprintf("found %q", path)}
}

// checkGoogleCredentials validates that application default credentials are discoverable.
func checkGoogleCredentials() Check {
	if path := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); path != "" {
		if _, err := os.Stat(path); err != nil {
			return Check{Name: "asr.google", Pass: false, Message: fmt.Sprintf("GOOGLE_APPLICATION_CREDENTIALS: %v", err)}
		}
		return Check{Name: "asr.google", Pass: true, Message: fmt.Sprintf("credentials file %q", path)}
	}
	return Check{Name: "asr.google", Pass: true, Message: "GOOGLE_APPLICATION_CREDENTIALS unset; relying on application default credentials"}
}

// checkBackendHealth probes the configured backend health endpoint.
func checkBackendHealth(cfg config.Config) Check {
	token := func() string { return os.Getenv(cfg.Backend.TokenEnv) }
	client := backend.NewClient(cfg.Backend.URL, token, nil, backend.DefaultTimeouts(), nil)

	if err := client.Health(context.Background(), cfg.Backend.HealthPath); err != nil {
		return Check{Name: "backend.health", Pass: false, Message: err.Error()}
	}
	return Check{Name: "backend.health", Pass: true, Message: fmt.Sprintf("ready at %s%s", cfg.Backend.URL, cfg.Backend.HealthPath)}
}
