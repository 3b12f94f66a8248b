// Package interview coordinates the mock-interview conversation lifecycle:
// state transitions, recording turns, the answer ledger, and end-of-session
// reconciliation and persistence.
package interview

import (
	"encoding/json"
	"time"
)

// Question is one interview prompt from the canonical session list. Category
// and Difficulty are opaque metadata echoed back to the evaluation service.
type Question struct {
	Text       string `json:"question"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// UnmarshalJSON accepts both wire shapes the backend emits: a plain string
// or an object carrying question metadata.
func (q *Question) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*q = Question{Text: plain}
		return nil
	}

	type questionObject struct {
		Text       string `json:"question"`
		Category   string `json:"category"`
		Difficulty string `json:"difficulty"`
	}
	var obj questionObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*q = Question{Text: obj.Text, Category: obj.Category, Difficulty: obj.Difficulty}
	return nil
}

// HasMetadata reports whether the question arrived in object form.
func (q Question) HasMetadata() bool {
	return q.Category != "" || q.Difficulty != ""
}

type OutcomeKind int

const (
	// OutcomeScored is a normal evaluation with a numeric score.
	OutcomeScored OutcomeKind = iota + 1
	// OutcomeDegraded is an evaluation the service could not score; the
	// conversation continues and the record stays explicitly unscored.
	OutcomeDegraded
	// OutcomeSkipped marks a question the candidate skipped.
	OutcomeSkipped
)

// Outcome is the tagged per-turn evaluation result. Score is meaningful only
// when Kind is OutcomeScored.
type Outcome struct {
	Kind         OutcomeKind
	Score        int
	Feedback     string
	Improvements []string
	Reason       string
}

// ScorePtr returns the score as a nullable value for wire payloads and
// ledger records: nil unless the outcome was actually scored.
func (o Outcome) ScorePtr() *int {
	if o.Kind != OutcomeScored {
		return nil
	}
	score := o.Score
	return &score
}

// MarshalJSON renders the evaluation object consumed by the feedback
// endpoint: scored outcomes carry answer_score, degraded outcomes carry a
// null score plus an error marker, skipped outcomes marshal as null.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OutcomeScored:
		return json.Marshal(struct {
			Score        int      `json:"answer_score"`
			Feedback     string   `json:"feedback"`
			Improvements []string `json:"improvements"`
		}{o.Score, o.Feedback, o.Improvements})
	case OutcomeDegraded:
		return json.Marshal(struct {
			Score    *int   `json:"answer_score"`
			Feedback string `json:"feedback"`
			Error    bool   `json:"error"`
		}{nil, o.Feedback, true})
	default:
		return []byte("null"), nil
	}
}

// AnswerRecord is the canonical per-question result persisted at session
// end. Score is nil for skipped and degraded-evaluation answers so that
// aggregation can exclude them instead of averaging in zeroes.
type AnswerRecord struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Score        *int     `json:"score"`
	Feedback     string   `json:"feedback"`
	Improvements []string `json:"improvements"`
	Answered     bool     `json:"answered"`
}

// HistoryEntry is one append-only conversation log record. Entries are the
// chronological narrative of the session and seed reconciliation; they are
// never mutated once appended.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Number    int       `json:"questionNumber"`
	Question  string    `json:"question"`
	Response  string    `json:"response"`
	Outcome   *Outcome  `json:"evaluation"`
	Timestamp time.Time `json:"timestamp"`
	Skipped   bool      `json:"skipped,omitempty"`
}

// ParameterScores are the aggregate sub-scores with their defined maxima.
type ParameterScores struct {
	Communication int `json:"grammar_communication_score"` // out of 10
	Technical     int `json:"technical_skills_score"`      // out of 45
	Experience    int `json:"relevant_experience_score"`   // out of 45
	Total         int `json:"total_score"`                 // out of 100
}

// OverallFeedback is the aggregate session result. A non-empty Error marks
// a degraded synthesis whose score fields are zeroed placeholders.
type OverallFeedback struct {
	ParameterScores   ParameterScores   `json:"parameter_scores"`
	ParameterFeedback map[string]string `json:"parameter_feedback,omitempty"`
	Strengths         []string          `json:"strengths"`
	Improvements      []string          `json:"areas_for_improvement"`
	Recommendations   []string          `json:"recommendations"`
	Error             string            `json:"error,omitempty"`
}

// Degraded reports whether this feedback is an error placeholder.
func (f OverallFeedback) Degraded() bool {
	return f.Error != ""
}

const feedbackBusyMessage = "AI feedback generation service is currently busy. Please try again in a moment."

// PlaceholderFeedback builds the degraded aggregate result stored when
// feedback synthesis fails; it still allows persistence to proceed.
func PlaceholderFeedback(reason string) OverallFeedback {
	if reason == "" {
		reason = feedbackBusyMessage
	}
	return OverallFeedback{
		Error:           reason,
		Strengths:       []string{},
		Improvements:    []string{},
		Recommendations: []string{},
	}
}
