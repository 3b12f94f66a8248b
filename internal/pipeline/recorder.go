// Package pipeline owns the per-turn capture -> ASR flow: microphone PCM in,
// normalized transcript out.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhaines/viva/internal/audio"
	"github.com/dhaines/viva/internal/interview"
	"github.com/dhaines/viva/internal/transcript"
)

// Transcriber converts one WAV payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Options configure device selection and debug artifacts.
type Options struct {
	Input           string
	Fallback        string
	EnableAudioDump bool
}

// Recorder captures one answer at a time and hands the audio to a
// Transcriber. It is reused across turns; Start begins a new turn only
// after the previous one was stopped or cancelled.
type Recorder struct {
	opts        Options
	transcriber Transcriber
	logger      *slog.Logger

	mu        sync.Mutex
	started   bool
	selection audio.Selection
	capture   *audio.Capture
	drained   chan struct{}
}

// NewRecorder constructs a recorder from runtime options.
func NewRecorder(opts Options, transcriber Transcriber, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{opts: opts, transcriber: transcriber, logger: logger}
}

// Start resolves device selection and begins audio capture for one answer.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("recorder already started")
	}

	selection, err := audio.SelectDevice(ctx, r.opts.Input, r.opts.Fallback)
	if err != nil {
		return err
	}
	r.selection = selection
	if selection.Warning != "" {
		r.logger.Warn(selection.Warning)
	}

	capture, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		return err
	}
	r.capture = capture

	// Capture pushes fixed-size chunks; drain them so the stream never
	// stalls. The full take comes from RawPCM at stop time.
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range capture.Chunks() {
		}
	}()
	r.drained = drained

	r.started = true
	return nil
}

// StopAndTranscribe finalizes the captured audio, sends it for recognition,
// and returns the normalized transcript.
func (r *Recorder) StopAndTranscribe(ctx context.Context) (interview.RecordResult, error) {
	r.mu.Lock()
	started := r.started
	capture := r.capture
	drained := r.drained
	selection := r.selection
	r.started = false
	r.capture = nil
	r.drained = nil
	r.mu.Unlock()

	if !started || capture == nil {
		return interview.RecordResult{}, interview.ErrRecorderUnavailable
	}

	_ = capture.Stop()
	if drained != nil {
		<-drained
	}

	rawPCM := capture.RawPCM()
	result := interview.RecordResult{
		AudioDevice:   describeDevice(selection.Device),
		Encoding:      "wav",
		BytesCaptured: capture.BytesCaptured(),
	}

	r.writeDebugAudio(rawPCM)

	if len(rawPCM) == 0 {
		return result, interview.ErrEmptyTranscript
	}

	wav := audio.EncodeWAV(rawPCM, audio.SampleRate, 1)

	asrStart := time.Now()
	raw, err := r.transcriber.Transcribe(ctx, wav)
	result.ASRLatency = time.Since(asrStart)
	if err != nil {
		return result, fmt.Errorf("transcribe answer: %w", err)
	}

	normalized := transcript.Normalize(raw)
	if normalized == "" {
		return result, interview.ErrEmptyTranscript
	}
	result.Transcript = normalized
	return result, nil
}

// Cancel stops capture immediately and discards the turn.
func (r *Recorder) Cancel(_ context.Context) error {
	r.mu.Lock()
	capture := r.capture
	drained := r.drained
	r.started = false
	r.capture = nil
	r.drained = nil
	r.mu.Unlock()

	if capture != nil {
		_ = capture.Stop()
		if drained != nil {
			<-drained
		}
		r.writeDebugAudio(capture.RawPCM())
	}
	return nil
}

// describeDevice formats device metadata for logs/session results.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

// writeDebugAudio writes raw PCM to WAV when debug.audio_dump is enabled.
func (r *Recorder) writeDebugAudio(rawPCM []byte) {
	if !r.opts.EnableAudioDump || len(rawPCM) == 0 {
		return
	}

	path, err := createDebugPath("audio", "wav")
	if err != nil {
		r.logger.Warn(fmt.Sprintf("unable to create debug audio dump: %v", err))
		return
	}

	wav := audio.EncodeWAV(rawPCM, audio.SampleRate, 1)
	if err := os.WriteFile(path, wav, 0o600); err != nil {
		r.logger.Warn(fmt.Sprintf("unable to write debug audio dump: %v", err))
	}
}

// createDebugPath builds a timestamped artifact path under state/viva/debug.
func createDebugPath(prefix string, extension string) (string, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return "", err
	}
	debugDir := filepath.Join(stateDir, "viva", "debug")
	if err := os.MkdirAll(debugDir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	return filepath.Join(debugDir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension)), nil
}

// resolveStateDir returns XDG_STATE_HOME fallback path for debug artifacts.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}
