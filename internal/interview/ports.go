package interview

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRecorderUnavailable indicates runtime recorder wiring is missing.
	ErrRecorderUnavailable = errors.New("audio capture and transcription pipeline not wired")
	// ErrEmptyTranscript indicates the stop completed but no usable speech
	// was recognized in the captured audio.
	ErrEmptyTranscript = errors.New("no speech recognized; check microphone input or mute state")
)

// StartRequest carries the job context submitted when a session begins.
// Resume is the injected resume blob (may be nil when no resume is
// configured); the controller never reads shared storage itself.
type StartRequest struct {
	JobRole        string
	Company        string
	JobDescription string
	ResumeName     string
	Resume         []byte
}

// StartResult is the backend's session-start payload: the opaque session id
// and the canonical, ordered question list fixed for the session's lifetime.
type StartResult struct {
	SessionID   string
	Questions   []Question
	JobRole     string
	Company     string
	AIGenerated bool
}

// Evaluation is the per-answer scoring payload. A nil Score (or Degraded
// set) means the service could not score the answer; that is data, not an
// error.
type Evaluation struct {
	Score        *int
	Feedback     string
	Improvements []string
	Degraded     bool
	Reason       string
}

// FeedbackRequest carries the full conversation history for aggregate
// feedback synthesis.
type FeedbackRequest struct {
	JobRole   string
	Company   string
	History   []HistoryEntry
	SessionID string
}

// SaveRequest persists the reconciled session outcome.
type SaveRequest struct {
	JobName     string
	CompanyName string
	Records     []AnswerRecord
	Feedback    OverallFeedback
}

// SaveResult echoes the backend's persistence acknowledgement.
type SaveResult struct {
	SessionName   string
	QuestionCount int
}

// Service abstracts the interview backend contract consumed by the
// controller: session start, per-answer evaluation, aggregate feedback, and
// end-of-session persistence.
type Service interface {
	StartSession(context.Context, StartRequest) (StartResult, error)
	Evaluate(ctx context.Context, question Question, answer string, jobRole string) (Evaluation, error)
	OverallFeedback(context.Context, FeedbackRequest) (OverallFeedback, error)
	SaveSession(context.Context, SaveRequest) (SaveResult, error)
}

// RecordResult is the recorder output for one completed answer.
type RecordResult struct {
	Transcript    string
	AudioDevice   string
	Encoding      string
	BytesCaptured int64
	ASRLatency    time.Duration
}

// Recorder abstracts microphone capture plus transcription for one turn.
// Start acquires the device and begins capture; StopAndTranscribe finalizes
// the payload and returns the transcript; Cancel discards the turn.
type Recorder interface {
	Start(context.Context) error
	StopAndTranscribe(context.Context) (RecordResult, error)
	Cancel(context.Context) error
}

// PlaceholderRecorder is a no-op recorder used in tests and fallback wiring.
type PlaceholderRecorder struct{}

func (PlaceholderRecorder) Start(context.Context) error { return nil }

func (PlaceholderRecorder) StopAndTranscribe(context.Context) (RecordResult, error) {
	return RecordResult{}, ErrRecorderUnavailable
}

func (PlaceholderRecorder) Cancel(context.Context) error { return nil }

// Camera is the optional video feed handle. Acquisition failure is a device
// error the session survives in a camera-disabled degraded mode; Release
// must be safe to call on every exit path.
type Camera interface {
	Acquire(context.Context) error
	Release()
}

// noopCamera preserves session flow when no camera is wired.
type noopCamera struct{}

func (noopCamera) Acquire(context.Context) error { return nil }
func (noopCamera) Release()                      {}

// Indicator is the session-facing subset of progress-surface behavior.
type Indicator interface {
	ShowGreeting(context.Context)
	ShowQuestion(ctx context.Context, number int, total int, text string)
	ShowWaiting(context.Context)
	ShowListening(context.Context)
	ShowAnalyzing(context.Context)
	ShowFeedback(context.Context, Outcome)
	ShowGeneratingFeedback(context.Context)
	ShowError(context.Context, string)
	CueComplete(context.Context)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowGreeting(context.Context)                   {}
func (noopIndicator) ShowQuestion(context.Context, int, int, string) {}
func (noopIndicator) ShowWaiting(context.Context)                    {}
func (noopIndicator) ShowListening(context.Context)                  {}
func (noopIndicator) ShowAnalyzing(context.Context)                  {}
func (noopIndicator) ShowFeedback(context.Context, Outcome)          {}
func (noopIndicator) ShowGeneratingFeedback(context.Context)         {}
func (noopIndicator) ShowError(context.Context, string)              {}
func (noopIndicator) CueComplete(context.Context)                    {}
func (noopIndicator) Hide(context.Context)                           {}

// userMessager lets collaborator errors carry an actionable user-facing
// message distinct from the wrapped technical error chain.
type userMessager interface {
	UserMessage() string
}

// messageFor extracts the user-facing message for an error, falling back to
// the provided default.
func messageFor(err error, fallback string) string {
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
