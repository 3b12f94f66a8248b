package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dhaines/viva/internal/interview"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, func() string { return "test-token" }, nil, DefaultTimeouts(), server.Client())
}

func TestStartSessionSubmitsJobContext(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/interview/start", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "Backend Engineer", r.FormValue("job_role"))
		require.Equal(t, "Acme", r.FormValue("company"))
		require.Equal(t, "build APIs", r.FormValue("job_description"))

		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "cv.pdf", header.Filename)
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, []byte("resume bytes"), content)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"session_id":   "sess-42",
			"questions":    []any{"plain question", map[string]any{"question": "object question", "category": "technical"}},
			"job_role":     "Backend Engineer",
			"company":      "Acme",
			"ai_generated": true,
		})
	})

	result, err := client.StartSession(context.Background(), interview.StartRequest{
		JobRole:        "Backend Engineer",
		Company:        "Acme",
		JobDescription: "build APIs",
		ResumeName:     "cv.pdf",
		Resume:         []byte("resume bytes"),
	})
	require.NoError(t, err)
	require.Equal(t, "sess-42", result.SessionID)
	require.True(t, result.AIGenerated)
	require.Len(t, result.Questions, 2)
	require.Equal(t, "plain question", result.Questions[0].Text)
	require.Equal(t, "object question", result.Questions[1].Text)
	require.Equal(t, "technical", result.Questions[1].Category)
}

func TestStartSessionGenerationUnavailable(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "generation down", http.StatusServiceUnavailable)
	})

	_, err := client.StartSession(context.Background(), interview.StartRequest{JobRole: "SRE"})
	require.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestTranscribeUploadsWAV(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/interview/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "response.wav", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]string{"transcription": "I led the migration"})
	})

	text, err := client.Transcribe(context.Background(), []byte("RIFFfake"))
	require.NoError(t, err)
	require.Equal(t, "I led the migration", text)
}

func TestEvaluateScoredAnswer(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "my answer", req["response"])
		require.Equal(t, "plain question", req["question"])
		require.NotContains(t, req, "question_obj")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"evaluation": map[string]any{
				"answer_score": 8,
				"feedback":     "well structured",
				"improvements": []string{"quantify impact"},
			},
		})
	})

	evaluation, err := client.Evaluate(context.Background(), interview.Question{Text: "plain question"}, "my answer", "SRE")
	require.NoError(t, err)
	require.False(t, evaluation.Degraded)
	require.NotNil(t, evaluation.Score)
	require.Equal(t, 8, *evaluation.Score)
	require.Equal(t, []string{"quantify impact"}, evaluation.Improvements)
}

func TestEvaluateSendsQuestionObjectWhenMetadataPresent(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		obj, ok := req["question_obj"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "object question", obj["question"])
		require.Equal(t, "technical", obj["category"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"evaluation": map[string]any{"answer_score": 5, "feedback": "ok"},
		})
	})

	question := interview.Question{Text: "object question", Category: "technical"}
	_, err := client.Evaluate(context.Background(), question, "my answer", "SRE")
	require.NoError(t, err)
}

func TestEvaluateNullScoreIsDegraded(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"evaluation": map[string]any{
				"answer_score": nil,
				"feedback":     "service busy",
				"error":        true,
			},
		})
	})

	evaluation, err := client.Evaluate(context.Background(), interview.Question{Text: "q"}, "answer", "SRE")
	require.NoError(t, err)
	require.True(t, evaluation.Degraded)
	require.Nil(t, evaluation.Score)
	require.Equal(t, "service busy", evaluation.Feedback)
}

func TestOverallFeedback(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/interview/overall-feedback", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "sess-42", req["session_id"])
		history, ok := req["conversation_history"].([]any)
		require.True(t, ok)
		require.Len(t, history, 1)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"feedback": map[string]any{
				"parameter_scores": map[string]int{
					"grammar_communication_score": 8,
					"technical_skills_score":      35,
					"relevant_experience_score":   30,
					"total_score":                 73,
				},
				"strengths":             []string{"clear delivery"},
				"areas_for_improvement": []string{"more depth"},
				"recommendations":       []string{"practice system design"},
			},
		})
	})

	feedback, err := client.OverallFeedback(context.Background(), interview.FeedbackRequest{
		JobRole:   "SRE",
		Company:   "Acme",
		SessionID: "sess-42",
		History: []interview.HistoryEntry{
			{ID: "a", Number: 1, Question: "q", Response: "a", Timestamp: time.Now()},
		},
	})
	require.NoError(t, err)
	require.False(t, feedback.Degraded())
	require.Equal(t, 73, feedback.ParameterScores.Total)
	require.Equal(t, []string{"clear delivery"}, feedback.Strengths)
}

func TestOverallFeedbackFailureSurfacesError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "model overloaded"})
	})

	_, err := client.OverallFeedback(context.Background(), interview.FeedbackRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model overloaded")
}

func TestSaveSession(t *testing.T) {
	score := 7
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/interview/end", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Backend Engineer", req["job_name"])
		require.Equal(t, "Acme", req["company_name"])
		qaData, ok := req["qa_data"].([]any)
		require.True(t, ok)
		require.Len(t, qaData, 2)

		_ = json.NewEncoder(w).Encode(map[string]string{"session_name": "backend engineer interview 3"})
	})

	result, err := client.SaveSession(context.Background(), interview.SaveRequest{
		JobName:     "Backend Engineer",
		CompanyName: "Acme",
		Records: []interview.AnswerRecord{
			{Question: "q one", Answer: "a one", Score: &score, Answered: true, Improvements: []string{}},
			{Question: "q two", Improvements: []string{}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "backend engineer interview 3", result.SessionName)
	require.Equal(t, 2, result.QuestionCount)
}

func TestDoClassifiesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, nil, nil, Timeouts{
		Start: 20 * time.Millisecond, Transcribe: 20 * time.Millisecond,
		Evaluate: 20 * time.Millisecond, Feedback: 20 * time.Millisecond, Save: 20 * time.Millisecond,
	}, server.Client())

	_, err := client.Evaluate(context.Background(), interview.Question{Text: "q"}, "answer", "SRE")
	require.Error(t, err)
	require.True(t, IsTimeout(err))

	var um interface{ UserMessage() string }
	require.True(t, errors.As(err, &um))
	require.Contains(t, um.UserMessage(), "took too long")
}

func TestDoClassifiesTransportFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil, nil, DefaultTimeouts(), nil)

	_, err := client.Transcribe(context.Background(), []byte("RIFF"))
	require.Error(t, err)
	require.False(t, IsTimeout(err))

	var um interface{ UserMessage() string }
	require.True(t, errors.As(err, &um))
	require.Contains(t, um.UserMessage(), "Could not reach")
}

func TestDoSurfacesStatusError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Transcribe(context.Background(), []byte("RIFF"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}

func TestHealth(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, client.Health(context.Background(), "/health"))
	require.Error(t, client.Health(context.Background(), "/missing"))
}
