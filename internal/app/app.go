package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	googleasr "github.com/dhaines/viva/internal/asr/google"
	"github.com/dhaines/viva/internal/audio"
	"github.com/dhaines/viva/internal/backend"
	"github.com/dhaines/viva/internal/cli"
	"github.com/dhaines/viva/internal/config"
	"github.com/dhaines/viva/internal/doctor"
	"github.com/dhaines/viva/internal/indicator"
	"github.com/dhaines/viva/internal/interview"
	"github.com/dhaines/viva/internal/ipc"
	"github.com/dhaines/viva/internal/logging"
	"github.com/dhaines/viva/internal/pipeline"
	"github.com/dhaines/viva/internal/transcript"
	"github.com/dhaines/viva/internal/version"
	"github.com/dhaines/viva/internal/video"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("viva"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("viva"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandSpeak, cli.CommandSubmit, cli.CommandSkip, cli.CommandNext, cli.CommandEnd:
		return r.forwardOrFail(ctx, string(parsed.Command))
	case cli.CommandInterview:
		return r.commandInterview(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active viva interview\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) commandInterview(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: viva interview already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	start, err := buildStartRequest(cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	service := backend.NewClient(
		cfg.Backend.URL,
		func() string { return os.Getenv(cfg.Backend.TokenEnv) },
		logger,
		backendTimeouts(cfg.Timeouts),
		nil,
	)

	transcriber, closeTranscriber, err := buildTranscriber(ctx, cfg, service, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer closeTranscriber()

	recorder := pipeline.NewRecorder(pipeline.Options{
		Input:           cfg.Audio.Input,
		Fallback:        cfg.Audio.Fallback,
		EnableAudioDump: cfg.Debug.EnableAudioDump,
	}, transcriber, logger)

	var camera interview.Camera
	if cfg.Video.Enable {
		camera = video.New(cfg.Video.Device, logger)
	}

	indicatorCtl := indicator.New(cfg.Indicator, logger)
	pacing := interview.Pacing{
		Greeting: time.Duration(cfg.Pacing.GreetingMS) * time.Millisecond,
		Question: time.Duration(cfg.Pacing.QuestionMS) * time.Millisecond,
	}
	controller := interview.NewController(logger, service, recorder, camera, indicatorCtl, start, pacing)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	summary := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionSummary(logger, summary)

	if summary.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", summary.Err)
		return 1
	}

	fmt.Fprintln(r.Stdout, renderSummary(summary))
	return 0
}

// buildStartRequest assembles the session-start payload, loading the resume
// blob from disk.
func buildStartRequest(cfg config.Config) (interview.StartRequest, error) {
	resumePath := strings.TrimSpace(cfg.Job.Resume)
	if resumePath == "" {
		return interview.StartRequest{}, errors.New("job.resume is required to start an interview")
	}
	data, err := os.ReadFile(resumePath)
	if err != nil {
		return interview.StartRequest{}, fmt.Errorf("read resume: %w", err)
	}

	return interview.StartRequest{
		JobRole:        cfg.Job.Role,
		Company:        cfg.Job.Company,
		JobDescription: cfg.Job.Description,
		ResumeName:     filepath.Base(resumePath),
		Resume:         data,
	}, nil
}

// buildTranscriber picks the speech backend: the interview service's own
// transcription endpoint, or Google Cloud Speech when configured.
func buildTranscriber(ctx context.Context, cfg config.Config, service *backend.Client, logger *slog.Logger) (pipeline.Transcriber, func(), error) {
	if strings.EqualFold(cfg.ASR.Backend, "google") {
		t, err := googleasr.New(ctx, googleasr.Options{LanguageCode: cfg.ASR.LanguageCode})
		if err != nil {
			return nil, nil, fmt.Errorf("create speech client: %w", err)
		}
		return t, func() {
			if err := t.Close(); err != nil {
				logger.Debug("close speech client failed", "error", err.Error())
			}
		}, nil
	}
	return service, func() {}, nil
}

func backendTimeouts(cfg config.TimeoutsConfig) backend.Timeouts {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return backend.Timeouts{
		Start:      ms(cfg.StartMS),
		Transcribe: ms(cfg.TranscribeMS),
		Evaluate:   ms(cfg.EvaluateMS),
		Feedback:   ms(cfg.FeedbackMS),
		Save:       ms(cfg.SaveMS),
	}
}

// renderSummary produces the end-of-session stdout report: the per-question
// transcript followed by the aggregate feedback.
func renderSummary(summary interview.Summary) string {
	turns := make([]transcript.Turn, 0, len(summary.Records))
	for i, record := range summary.Records {
		turns = append(turns, transcript.Turn{
			Number:   i + 1,
			Question: record.Question,
			Answer:   record.Answer,
			Feedback: record.Feedback,
			Score:    record.Score,
			Answered: record.Answered,
		})
	}

	var out strings.Builder
	out.WriteString(transcript.Render(summary.JobRole, summary.Company, turns))

	out.WriteString("\nOverall feedback\n")
	if summary.FeedbackDegraded {
		out.WriteString("  (feedback generation was unavailable for this session)\n")
	}
	scores := summary.Feedback.ParameterScores
	fmt.Fprintf(&out, "  communication: %d/10\n", scores.Communication)
	fmt.Fprintf(&out, "  technical skills: %d/45\n", scores.Technical)
	fmt.Fprintf(&out, "  relevant experience: %d/45\n", scores.Experience)
	fmt.Fprintf(&out, "  total: %d/100\n", scores.Total)
	writeFeedbackList(&out, "strengths", summary.Feedback.Strengths)
	writeFeedbackList(&out, "areas for improvement", summary.Feedback.Improvements)
	writeFeedbackList(&out, "recommendations", summary.Feedback.Recommendations)

	if summary.Saved {
		fmt.Fprintf(&out, "\nsaved as %q\n", summary.SessionName)
	} else {
		out.WriteString("\nsession was not saved\n")
	}

	return strings.TrimSuffix(out.String(), "\n")
}

func writeFeedbackList(out *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "  %s:\n", label)
	for _, item := range items {
		fmt.Fprintf(out, "    - %s\n", item)
	}
}

func logSessionSummary(logger *slog.Logger, summary interview.Summary) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", summary.State,
		"session_id", summary.SessionID,
		"questions", len(summary.Questions),
		"answers", len(summary.History),
		"records", len(summary.Records),
		"ended_early", summary.EndedEarly,
		"feedback_degraded", summary.FeedbackDegraded,
		"saved", summary.Saved,
		"camera_disabled", summary.CameraDisabled,
		"started_at", summary.StartedAt.Format(time.RFC3339Nano),
		"finished_at", summary.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", summary.FinishedAt.Sub(summary.StartedAt).Milliseconds(),
	}

	if summary.Err != nil {
		logger.Error("interview failed", append(fields, "error", summary.Err.Error())...)
		return
	}
	logger.Info("interview complete", fields...)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
