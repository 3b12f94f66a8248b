// Package indicator handles desktop notifications and audio cue playback
// for interview session state.
package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dhaines/viva/internal/config"
	"github.com/dhaines/viva/internal/interview"
)

const stickyTimeoutMS = 300000

// DesktopNotify is the concrete indicator implementation used by runtime
// sessions. It routes state changes through freedesktop notifications over
// DBus and plays short synthesized cues for the audible transitions.
type DesktopNotify struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu             sync.Mutex
	notificationID uint32
	soundMu        sync.Mutex
}

// New creates an indicator controller from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *DesktopNotify {
	return &DesktopNotify{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
	}
}

// ShowGreeting displays the session opening message.
func (d *DesktopNotify) ShowGreeting(ctx context.Context) {
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, stickyTimeoutMS, d.messages.greeting)
	})
}

// ShowQuestion displays the current question with its position in the set.
func (d *DesktopNotify) ShowQuestion(ctx context.Context, number int, total int, text string) {
	if !d.cfg.Enable {
		return
	}
	summary := fmt.Sprintf("Question %d of %d: %s", number, total, truncate(text, 200))
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, stickyTimeoutMS, summary)
	})
}

// ShowWaiting signals that the session is ready for the candidate to speak.
func (d *DesktopNotify) ShowWaiting(ctx context.Context) {
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, stickyTimeoutMS, d.messages.waiting)
	})
}

// ShowListening signals capture start and emits the listen cue.
func (d *DesktopNotify) ShowListening(ctx context.Context) {
	d.playCue(cueListen)
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, stickyTimeoutMS, d.messages.listening)
	})
}

// ShowAnalyzing signals the post-capture transcription and scoring state.
func (d *DesktopNotify) ShowAnalyzing(ctx context.Context) {
	d.playCue(cueSubmit)
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, stickyTimeoutMS, d.messages.analyzing)
	})
}

// ShowFeedback displays the per-answer evaluation result.
func (d *DesktopNotify) ShowFeedback(ctx context.Context, outcome interview.Outcome) {
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, stickyTimeoutMS, feedbackSummary(outcome))
	})
}

// ShowGeneratingFeedback signals the end-of-session synthesis state.
func (d *DesktopNotify) ShowGeneratingFeedback(ctx context.Context) {
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, stickyTimeoutMS, d.messages.generating)
	})
}

// ShowError displays an error-state indicator message and emits the error cue.
func (d *DesktopNotify) ShowError(ctx context.Context, text string) {
	d.playCue(cueError)
	if !d.cfg.Enable {
		return
	}
	if text == "" {
		text = d.messages.errorText
	}
	timeout := d.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 2500
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, timeout, text)
	})
}

// CueComplete emits the session-complete cue.
func (d *DesktopNotify) CueComplete(context.Context) {
	d.playCue(cueComplete)
}

// Hide dismisses the active notification.
func (d *DesktopNotify) Hide(ctx context.Context) {
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, d.dismiss)
}

// notify sends a replaceable desktop notification and stores its ID.
func (d *DesktopNotify) notify(ctx context.Context, timeoutMS int, text string) error {
	d.mu.Lock()
	replaceID := d.notificationID
	d.mu.Unlock()

	appName := strings.TrimSpace(d.cfg.DesktopAppName)
	if appName == "" {
		appName = "viva-interview"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.notificationID = id
	d.mu.Unlock()
	return nil
}

// dismiss closes the current notification ID when present.
func (d *DesktopNotify) dismiss(ctx context.Context) error {
	d.mu.Lock()
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (d *DesktopNotify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		d.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (d *DesktopNotify) playCue(kind cueKind) {
	if !d.cfg.SoundEnable {
		return
	}
	go func() {
		d.soundMu.Lock()
		defer d.soundMu.Unlock()
		if err := emitCue(kind); err != nil {
			d.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (d *DesktopNotify) log(message string, err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Debug(message, "error", err.Error())
}

func feedbackSummary(outcome interview.Outcome) string {
	switch outcome.Kind {
	case interview.OutcomeScored:
		return fmt.Sprintf("Score %d/100. %s", outcome.Score, truncate(outcome.Feedback, 200))
	case interview.OutcomeSkipped:
		return "Question skipped"
	default:
		text := outcome.Feedback
		if text == "" {
			text = "Evaluation was unavailable for this answer"
		}
		return truncate(text, 200)
	}
}

func truncate(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
