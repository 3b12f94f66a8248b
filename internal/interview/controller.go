package interview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dhaines/viva/internal/fsm"
	"github.com/dhaines/viva/internal/ipc"
)

type action int

const (
	actionSpeak action = iota + 1
	actionSubmit
	actionSkip
	actionNext
	actionEnd
)

func (a action) String() string {
	switch a {
	case actionSpeak:
		return "speak"
	case actionSubmit:
		return "submit"
	case actionSkip:
		return "skip"
	case actionNext:
		return "next"
	case actionEnd:
		return "end"
	default:
		return "none"
	}
}

const (
	degradedEvalMessage = "AI evaluation service is currently busy. Please try again in a moment."
	transcribeFailText  = "Could not transcribe your answer. Press speak to try again."
)

// Pacing controls the cosmetic greeting/question display delays. They gate
// auto-advance only; user actions are never blocked behind them.
type Pacing struct {
	Greeting time.Duration
	Question time.Duration
}

// Summary is the complete lifecycle output returned by one Run invocation.
type Summary struct {
	State            fsm.State
	SessionID        string
	SessionName      string
	JobRole          string
	Company          string
	Questions        []Question
	History          []HistoryEntry
	Records          []AnswerRecord
	Feedback         OverallFeedback
	FeedbackDegraded bool
	Saved            bool
	CameraDisabled   bool
	EndedEarly       bool
	Err              error
	StartedAt        time.Time
	FinishedAt       time.Time
}

// pendingTurn holds one evaluated but not-yet-committed exchange; it is
// appended to history when the candidate advances, skips, or ends.
type pendingTurn struct {
	number   int
	question Question
	response string
	outcome  Outcome
}

// Controller orchestrates one interview session: conversation state,
// recording turns, the ledgers, and the completion flow. All session state
// is mutated only through the run loop's transition handling.
type Controller struct {
	logger    *slog.Logger
	service   Service
	recorder  Recorder
	camera    Camera
	indicator Indicator
	pacing    Pacing
	start     StartRequest

	mu        sync.RWMutex
	state     fsm.State
	sessionID string
	jobRole   string
	company   string
	questions []Question
	index     int
	pending   *pendingTurn
	history   []HistoryEntry
	ledger    []AnswerRecord
	queued    action

	actions chan action
}

// NewController constructs an interview controller with safe default
// fallbacks for absent collaborators.
func NewController(
	logger *slog.Logger,
	service Service,
	recorder Recorder,
	camera Camera,
	indicator Indicator,
	start StartRequest,
	pacing Pacing,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if recorder == nil {
		recorder = PlaceholderRecorder{}
	}
	if camera == nil {
		camera = noopCamera{}
	}
	if indicator == nil {
		indicator = noopIndicator{}
	}

	return &Controller{
		logger:    logger,
		service:   service,
		recorder:  recorder,
		camera:    camera,
		indicator: indicator,
		pacing:    pacing,
		start:     start,
		state:     fsm.StateGreeting,
		actions:   make(chan action, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Run executes one full interview session from start call to persisted
// (or degraded) completion.
func (c *Controller) Run(ctx context.Context) Summary {
	summary := Summary{StartedAt: time.Now()}

	started, err := c.service.StartSession(ctx, c.start)
	if err != nil {
		summary.State = c.State()
		summary.Err = err
		summary.FinishedAt = time.Now()
		return summary
	}
	if len(started.Questions) == 0 {
		summary.State = c.State()
		summary.Err = fmt.Errorf("session %q started with no questions", started.SessionID)
		summary.FinishedAt = time.Now()
		return summary
	}

	c.adoptSession(started)
	summary.SessionID = c.sessionID
	summary.JobRole = c.jobRole
	summary.Company = c.company
	summary.Questions = c.snapshotQuestions()

	if err := c.camera.Acquire(ctx); err != nil {
		// Camera loss disables only the video feed; the interview proceeds.
		c.logger.Warn("camera unavailable, continuing without video", "error", err.Error())
		c.indicator.ShowError(ctx, messageFor(err, "Camera unavailable; continuing without video"))
		summary.CameraDisabled = true
	}
	defer c.camera.Release()
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
		defer cancel()
		c.indicator.Hide(cleanupCtx)
	}()

	c.indicator.ShowGreeting(ctx)

	var pace <-chan time.Time
	schedule := func(d time.Duration) {
		if d <= 0 {
			d = time.Millisecond
		}
		pace = time.After(d)
	}
	schedule(c.pacing.Greeting)

	for {
		select {
		case <-ctx.Done():
			_ = c.recorder.Cancel(context.Background())
			summary.State = c.State()
			summary.History = c.snapshotHistory()
			summary.Err = ctx.Err()
			summary.FinishedAt = time.Now()
			return summary

		case <-pace:
			pace = nil
			switch c.State() {
			case fsm.StateGreeting:
				_ = c.transition(fsm.EventIntroDone)
				c.showCurrentQuestion(ctx)
				schedule(c.pacing.Question)
			case fsm.StateQuestion:
				_ = c.transition(fsm.EventReady)
				c.indicator.ShowWaiting(ctx)
			}

		case a := <-c.actions:
			c.dequeued()
			switch a {
			case actionSpeak:
				c.handleSpeak(ctx)
			case actionSubmit:
				c.handleSubmit(ctx)
			case actionSkip:
				if done, advanced := c.handleSkip(); done {
					return c.finish(ctx, summary)
				} else if advanced {
					c.showCurrentQuestion(ctx)
					schedule(c.pacing.Question)
				}
			case actionNext:
				if done, advanced := c.handleNext(); done {
					return c.finish(ctx, summary)
				} else if advanced {
					c.showCurrentQuestion(ctx)
					schedule(c.pacing.Question)
				}
			case actionEnd:
				summary.EndedEarly = true
				c.foldPartial(ctx)
				_ = c.transition(fsm.EventFinish)
				return c.finish(ctx, summary)
			}
		}
	}
}

// adoptSession installs the backend start payload as session state,
// generating a local correlation id when the backend omitted one.
func (c *Controller) adoptSession(started StartResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessionID = started.SessionID
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	c.questions = started.Questions
	c.jobRole = started.JobRole
	if c.jobRole == "" {
		c.jobRole = c.start.JobRole
	}
	c.company = started.Company
	if c.company == "" {
		c.company = c.start.Company
	}
}

// handleSpeak begins audio capture. A device failure surfaces an actionable
// error and leaves the machine in waiting so the candidate can retry.
func (c *Controller) handleSpeak(ctx context.Context) {
	if c.State() != fsm.StateWaiting {
		return
	}

	if err := c.recorder.Start(ctx); err != nil {
		c.logger.Warn("recorder start failed", "error", err.Error())
		c.indicator.ShowError(ctx, messageFor(err, "Unable to start recording; check microphone permissions"))
		return
	}

	_ = c.transition(fsm.EventSpeak)
	c.indicator.ShowListening(ctx)
}

// handleSubmit stops capture and runs transcribe-then-evaluate. Evaluation
// failures always resolve to a feedback-visible outcome; only transcription
// failure returns the turn to waiting for a retry.
func (c *Controller) handleSubmit(ctx context.Context) {
	if c.State() != fsm.StateListening {
		return
	}

	_ = c.transition(fsm.EventSubmit)
	c.indicator.ShowAnalyzing(ctx)

	result, err := c.recorder.StopAndTranscribe(ctx)
	if err != nil {
		c.logger.Warn("transcription failed",
			"error", err.Error(),
			"question", c.currentNumber(),
			"bytes_captured", result.BytesCaptured,
		)
		c.indicator.ShowError(ctx, messageFor(err, transcribeFailText))
		_ = c.transition(fsm.EventRetry)
		return
	}

	question := c.currentQuestion()
	outcome := c.evaluate(ctx, question, result.Transcript)

	c.mu.Lock()
	c.pending = &pendingTurn{
		number:   c.index + 1,
		question: question,
		response: result.Transcript,
		outcome:  outcome,
	}
	c.ledger = append(c.ledger, AnswerRecord{
		Question:     question.Text,
		Answer:       result.Transcript,
		Score:        outcome.ScorePtr(),
		Feedback:     outcome.Feedback,
		Improvements: append([]string{}, outcome.Improvements...),
		Answered:     true,
	})
	c.mu.Unlock()

	_ = c.transition(fsm.EventEvaluated)
	c.indicator.ShowFeedback(ctx, outcome)

	c.logger.Info("answer evaluated",
		"question", c.currentNumber(),
		"scored", outcome.Kind == OutcomeScored,
		"transcript_length", len(result.Transcript),
		"audio_device", result.AudioDevice,
		"encoding", result.Encoding,
		"bytes_captured", result.BytesCaptured,
		"asr_latency_ms", result.ASRLatency.Milliseconds(),
	)
}

// evaluate classifies the evaluation service response into a tagged
// outcome. Transport failures and unscored payloads both degrade; neither
// blocks the conversation.
func (c *Controller) evaluate(ctx context.Context, question Question, answer string) Outcome {
	evaluation, err := c.service.Evaluate(ctx, question, answer, c.jobRole)
	if err != nil {
		c.logger.Warn("evaluation failed", "error", err.Error(), "question", c.currentNumber())
		return Outcome{
			Kind:     OutcomeDegraded,
			Feedback: messageFor(err, degradedEvalMessage),
			Reason:   err.Error(),
		}
	}

	if evaluation.Degraded || evaluation.Score == nil {
		feedback := evaluation.Feedback
		if feedback == "" {
			feedback = degradedEvalMessage
		}
		return Outcome{Kind: OutcomeDegraded, Feedback: feedback, Reason: evaluation.Reason}
	}

	return Outcome{
		Kind:         OutcomeScored,
		Score:        *evaluation.Score,
		Feedback:     evaluation.Feedback,
		Improvements: evaluation.Improvements,
	}
}

// handleNext commits the pending exchange and advances. Returns done=true
// when the session is complete, advanced=true when a new question is shown.
func (c *Controller) handleNext() (done bool, advanced bool) {
	if c.State() != fsm.StateFeedback {
		return false, false
	}

	c.commitPending()

	c.mu.Lock()
	c.index++
	last := c.index >= len(c.questions)
	c.mu.Unlock()

	if last {
		_ = c.transition(fsm.EventFinish)
		return true, false
	}
	_ = c.transition(fsm.EventNext)
	return false, true
}

// handleSkip records a skipped entry plus a synthetic unanswered ledger
// record, discarding any pending evaluated turn. Returns done=true when
// skipping the final question completed the session.
func (c *Controller) handleSkip() (done bool, advanced bool) {
	switch c.State() {
	case fsm.StateQuestion, fsm.StateWaiting, fsm.StateFeedback:
	default:
		return false, false
	}

	c.mu.Lock()
	question := c.questions[c.index]
	c.pending = nil
	c.history = append(c.history, HistoryEntry{
		ID:        uuid.NewString(),
		Number:    c.index + 1,
		Question:  question.Text,
		Response:  "Question skipped",
		Timestamp: time.Now(),
		Skipped:   true,
	})
	c.ledger = append(c.ledger, AnswerRecord{
		Question:     question.Text,
		Improvements: []string{},
		Answered:     false,
	})
	c.index++
	last := c.index >= len(c.questions)
	c.mu.Unlock()

	if last {
		_ = c.transition(fsm.EventFinish)
		return true, false
	}
	_ = c.transition(fsm.EventSkip)
	return false, true
}

// commitPending appends the evaluated-but-uncommitted exchange to history.
func (c *Controller) commitPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return
	}
	outcome := c.pending.outcome
	c.history = append(c.history, HistoryEntry{
		ID:        uuid.NewString(),
		Number:    c.pending.number,
		Question:  c.pending.question.Text,
		Response:  c.pending.response,
		Outcome:   &outcome,
		Timestamp: time.Now(),
	})
	c.pending = nil
}

// foldPartial includes the in-progress answer in history best-effort when
// the candidate ends the interview mid-turn.
func (c *Controller) foldPartial(ctx context.Context) {
	state := c.State()

	if state == fsm.StateListening {
		// No transcript exists yet; discard audio but keep the attempt
		// visible as an empty best-effort response.
		_ = c.recorder.Cancel(ctx)
		c.mu.Lock()
		c.history = append(c.history, HistoryEntry{
			ID:        uuid.NewString(),
			Number:    c.index + 1,
			Question:  c.questions[c.index].Text,
			Timestamp: time.Now(),
		})
		c.mu.Unlock()
		return
	}

	c.commitPending()
}

// finish runs the completion flow: feedback synthesis first, persistence
// second, always in that order and exactly once. Feedback failure degrades
// to a placeholder; persistence failure is logged and never blocks the
// session from reporting complete.
func (c *Controller) finish(ctx context.Context, summary Summary) Summary {
	c.indicator.ShowGeneratingFeedback(ctx)

	history := c.snapshotHistory()
	summary.History = history

	feedback, err := c.service.OverallFeedback(ctx, FeedbackRequest{
		JobRole:   c.jobRole,
		Company:   c.company,
		History:   history,
		SessionID: c.sessionID,
	})
	if err != nil {
		c.logger.Warn("overall feedback synthesis failed", "error", err.Error(), "session_id", c.sessionID)
		feedback = PlaceholderFeedback(messageFor(err, ""))
		summary.FeedbackDegraded = true
	}
	summary.Feedback = feedback

	records := Reconcile(c.snapshotQuestions(), history)
	summary.Records = records

	saved, err := c.service.SaveSession(ctx, SaveRequest{
		JobName:     c.jobRole,
		CompanyName: c.company,
		Records:     records,
		Feedback:    feedback,
	})
	if err != nil {
		// Best-effort from the candidate's perspective; the session still
		// completes.
		c.logger.Error("session persistence failed",
			"error", err.Error(),
			"session_id", c.sessionID,
			"question_count", len(records),
		)
	} else {
		summary.Saved = true
		summary.SessionName = saved.SessionName
	}

	c.indicator.CueComplete(ctx)

	summary.State = c.State()
	summary.FinishedAt = time.Now()
	return summary
}

func (c *Controller) showCurrentQuestion(ctx context.Context) {
	c.mu.RLock()
	number := c.index + 1
	total := len(c.questions)
	text := ""
	if c.index < len(c.questions) {
		text = c.questions[c.index].Text
	}
	c.mu.RUnlock()
	c.indicator.ShowQuestion(ctx, number, total, text)
}

func (c *Controller) currentQuestion() Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.index >= len(c.questions) {
		return Question{}
	}
	return c.questions[c.index]
}

func (c *Controller) currentNumber() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index + 1
}

func (c *Controller) snapshotHistory() []HistoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]HistoryEntry, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Controller) snapshotQuestions() []Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// Ledger returns a snapshot of the chronological answer records captured so
// far, including synthetic skip records.
func (c *Controller) Ledger() []AnswerRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]AnswerRecord, len(c.ledger))
	copy(out, c.ledger)
	return out
}

// Handle serves IPC commands for the active interview session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return ipc.Response{
			OK:      true,
			State:   string(c.State()),
			Message: fmt.Sprintf("question %d of %d", c.currentNumber(), len(c.snapshotQuestions())),
		}
	case "speak":
		return c.request(actionSpeak, "speak", fsm.StateWaiting)
	case "submit":
		return c.request(actionSubmit, "submit", fsm.StateListening)
	case "skip":
		return c.request(actionSkip, "skip", fsm.StateQuestion, fsm.StateWaiting, fsm.StateFeedback)
	case "next":
		return c.request(actionNext, "next", fsm.StateFeedback)
	case "end":
		return c.request(actionEnd, "end",
			fsm.StateGreeting, fsm.StateQuestion, fsm.StateWaiting,
			fsm.StateListening, fsm.StateFeedback,
		)
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// request enqueues an action when the current state permits it. Only a
// duplicate of the action already queued collapses into it; a different
// action arriving while one is pending is rejected, never silently dropped.
func (c *Controller) request(a action, source string, allowed ...fsm.State) ipc.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state
	if state == fsm.StateAnalyzing {
		return ipc.Response{OK: false, State: string(state), Error: "busy analyzing your answer"}
	}

	permitted := false
	for _, s := range allowed {
		if state == s {
			permitted = true
			break
		}
	}
	if !permitted {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s from state %s", source, state)}
	}

	if c.queued != 0 {
		if c.queued == a {
			return ipc.Response{OK: true, State: string(state), Message: source + " already requested"}
		}
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s while %s is pending", source, c.queued)}
	}

	select {
	case c.actions <- a:
		c.queued = a
		return ipc.Response{OK: true, State: string(state), Message: source + " requested"}
	default:
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s while another action is pending", source)}
	}
}

// dequeued releases the pending-action slot once the run loop has taken
// the action off the channel.
func (c *Controller) dequeued() {
	c.mu.Lock()
	c.queued = 0
	c.mu.Unlock()
}
