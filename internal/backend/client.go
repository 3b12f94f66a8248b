// Package backend is the HTTP client for the interview service: session
// start, answer transcription and evaluation, aggregate feedback, and
// session persistence.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dhaines/viva/internal/interview"
)

// ErrGenerationUnavailable reports that AI question generation is down and
// the backend could not fall back to a default question set.
var ErrGenerationUnavailable = errors.New("question generation service unavailable")

// Timeouts are the per-operation deadlines. Each call gets its own budget
// so a slow evaluation cannot starve session persistence.
type Timeouts struct {
	Start      time.Duration
	Transcribe time.Duration
	Evaluate   time.Duration
	Feedback   time.Duration
	Save       time.Duration
}

// DefaultTimeouts match the observed latency envelope of the evaluation
// models plus headroom.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Start:      30 * time.Second,
		Transcribe: 30 * time.Second,
		Evaluate:   45 * time.Second,
		Feedback:   60 * time.Second,
		Save:       15 * time.Second,
	}
}

// Client talks to the interview backend. It implements the session
// controller's service contract.
type Client struct {
	baseURL    string
	token      func() string
	httpClient *http.Client
	logger     *slog.Logger
	timeouts   Timeouts
}

// NewClient creates a backend client. token may be nil when the deployment
// runs unauthenticated; httpClient may be nil to use a default client.
func NewClient(baseURL string, token func() string, logger *slog.Logger, timeouts Timeouts, httpClient *http.Client) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		logger:     logger,
		timeouts:   timeouts,
	}
}

type startResponse struct {
	Success     bool                 `json:"success"`
	SessionID   string               `json:"session_id"`
	Questions   []interview.Question `json:"questions"`
	JobRole     string               `json:"job_role"`
	Company     string               `json:"company"`
	AIGenerated bool                 `json:"ai_generated"`
	Error       string               `json:"error"`
}

// StartSession submits the job context and receives the canonical question
// list for the session.
func (c *Client) StartSession(ctx context.Context, req interview.StartRequest) (interview.StartResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Start)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"job_role":        req.JobRole,
		"company":         req.Company,
		"job_description": req.JobDescription,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return interview.StartResult{}, fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if len(req.Resume) > 0 {
		name := req.ResumeName
		if name == "" {
			name = "resume.pdf"
		}
		part, err := writer.CreateFormFile("resume", name)
		if err != nil {
			return interview.StartResult{}, fmt.Errorf("create resume part: %w", err)
		}
		if _, err := part.Write(req.Resume); err != nil {
			return interview.StartResult{}, fmt.Errorf("write resume part: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return interview.StartResult{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/interview/start", &body)
	if err != nil {
		return interview.StartResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	var resp startResponse
	if err := c.do(httpReq, "start session", &resp); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusServiceUnavailable {
			return interview.StartResult{}, fmt.Errorf("start session: %w", ErrGenerationUnavailable)
		}
		return interview.StartResult{}, err
	}
	if !resp.Success {
		return interview.StartResult{}, &apiError{op: "start session", message: resp.Error}
	}

	c.logger.Info("session started",
		"session_id", resp.SessionID,
		"question_count", len(resp.Questions),
		"ai_generated", resp.AIGenerated,
	)

	return interview.StartResult{
		SessionID:   resp.SessionID,
		Questions:   resp.Questions,
		JobRole:     resp.JobRole,
		Company:     resp.Company,
		AIGenerated: resp.AIGenerated,
	}, nil
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
	Error         string `json:"error"`
}

// Transcribe sends one captured WAV payload for speech recognition. An
// empty transcription is valid output; callers decide how to treat it.
func (c *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Transcribe)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "response.wav")
	if err != nil {
		return "", fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("write audio part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/interview/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	var resp transcribeResponse
	if err := c.do(httpReq, "transcribe", &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &apiError{op: "transcribe", message: resp.Error}
	}
	return resp.Transcription, nil
}

type evaluateRequest struct {
	Response    string              `json:"response"`
	JobRole     string              `json:"job_role"`
	Question    string              `json:"question,omitempty"`
	QuestionObj *interview.Question `json:"question_obj,omitempty"`
}

type evaluateResponse struct {
	Evaluation struct {
		Score        *int     `json:"answer_score"`
		Feedback     string   `json:"feedback"`
		Improvements []string `json:"improvements"`
		Error        bool     `json:"error"`
	} `json:"evaluation"`
}

// Evaluate scores one answer against its question. A response the service
// could not score comes back as a degraded evaluation, not an error.
func (c *Client) Evaluate(ctx context.Context, question interview.Question, answer string, jobRole string) (interview.Evaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Evaluate)
	defer cancel()

	payload := evaluateRequest{Response: answer, JobRole: jobRole}
	if question.HasMetadata() {
		payload.QuestionObj = &question
	} else {
		payload.Question = question.Text
	}

	httpReq, err := c.jsonRequest(ctx, "/api/interview/evaluate", payload)
	if err != nil {
		return interview.Evaluation{}, err
	}

	var resp evaluateResponse
	if err := c.do(httpReq, "evaluate", &resp); err != nil {
		return interview.Evaluation{}, err
	}

	evaluation := interview.Evaluation{
		Score:        resp.Evaluation.Score,
		Feedback:     resp.Evaluation.Feedback,
		Improvements: resp.Evaluation.Improvements,
	}
	if resp.Evaluation.Error || resp.Evaluation.Score == nil {
		evaluation.Degraded = true
		evaluation.Reason = "evaluation service returned no score"
	}
	return evaluation, nil
}

type feedbackRequest struct {
	JobRole   string                   `json:"job_role"`
	Company   string                   `json:"company"`
	History   []interview.HistoryEntry `json:"conversation_history"`
	SessionID string                   `json:"session_id"`
}

type feedbackResponse struct {
	Success  bool                      `json:"success"`
	Feedback interview.OverallFeedback `json:"feedback"`
	Error    string                    `json:"error"`
}

// OverallFeedback synthesizes the aggregate session feedback from the full
// conversation history.
func (c *Client) OverallFeedback(ctx context.Context, req interview.FeedbackRequest) (interview.OverallFeedback, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Feedback)
	defer cancel()

	httpReq, err := c.jsonRequest(ctx, "/api/interview/overall-feedback", feedbackRequest{
		JobRole:   req.JobRole,
		Company:   req.Company,
		History:   req.History,
		SessionID: req.SessionID,
	})
	if err != nil {
		return interview.OverallFeedback{}, err
	}

	var resp feedbackResponse
	if err := c.do(httpReq, "overall feedback", &resp); err != nil {
		return interview.OverallFeedback{}, err
	}
	if !resp.Success {
		return interview.OverallFeedback{}, &apiError{op: "overall feedback", message: resp.Error}
	}
	return resp.Feedback, nil
}

type saveRequest struct {
	JobName     string                    `json:"job_name"`
	CompanyName string                    `json:"company_name"`
	QAData      []interview.AnswerRecord  `json:"qa_data"`
	Feedback    interview.OverallFeedback `json:"overall_feedback"`
}

type saveResponse struct {
	SessionName string `json:"session_name"`
	Error       string `json:"error"`
}

// SaveSession persists the reconciled session outcome.
func (c *Client) SaveSession(ctx context.Context, req interview.SaveRequest) (interview.SaveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Save)
	defer cancel()

	httpReq, err := c.jsonRequest(ctx, "/api/interview/end", saveRequest{
		JobName:     req.JobName,
		CompanyName: req.CompanyName,
		QAData:      req.Records,
		Feedback:    req.Feedback,
	})
	if err != nil {
		return interview.SaveResult{}, err
	}

	var resp saveResponse
	if err := c.do(httpReq, "save session", &resp); err != nil {
		return interview.SaveResult{}, err
	}
	if resp.Error != "" {
		return interview.SaveResult{}, &apiError{op: "save session", message: resp.Error}
	}
	return interview.SaveResult{SessionName: resp.SessionName, QuestionCount: len(req.Records)}, nil
}

// Health probes the backend health endpoint.
func (c *Client) Health(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return classify("health check", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &apiError{op: "health check", status: resp.StatusCode}
	}
	return nil
}

func (c *Client) jsonRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

// do executes one request, decodes a JSON response, and normalizes
// failures into classified errors.
func (c *Client) do(req *http.Request, op string, out any) error {
	c.authorize(req)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		"op", op,
		"status", resp.StatusCode,
		"latency_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &apiError{op: op, status: resp.StatusCode, message: string(bytes.TrimSpace(snippet))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token == nil {
		return
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
