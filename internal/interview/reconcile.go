package interview

// Reconcile walks the canonical question list in order and resolves each
// question against the conversation history to a single AnswerRecord. The
// result always has exactly one record per question, in session order:
// answered questions carry their transcript and outcome, skipped and
// never-reached questions get a synthetic unanswered record.
//
// Matching is by question text equality, the identity contract the backend
// provides (no stable per-question id is guaranteed). Each history entry is
// consumed at most once so duplicate question text degrades to first-come
// attribution instead of double-counting.
func Reconcile(questions []Question, history []HistoryEntry) []AnswerRecord {
	used := make([]bool, len(history))

	records := make([]AnswerRecord, 0, len(questions))
	for _, question := range questions {
		entry := takeMatch(question.Text, history, used)
		records = append(records, recordFor(question, entry))
	}
	return records
}

// takeMatch finds the first unconsumed history entry for a question text
// and marks it consumed. Returns nil when the question was never reached.
func takeMatch(questionText string, history []HistoryEntry, used []bool) *HistoryEntry {
	for i := range history {
		if used[i] {
			continue
		}
		if history[i].Question == questionText {
			used[i] = true
			return &history[i]
		}
	}
	return nil
}

func recordFor(question Question, entry *HistoryEntry) AnswerRecord {
	if entry == nil || entry.Skipped {
		return AnswerRecord{
			Question:     question.Text,
			Improvements: []string{},
			Answered:     false,
		}
	}

	record := AnswerRecord{
		Question:     question.Text,
		Answer:       entry.Response,
		Improvements: []string{},
		Answered:     true,
	}
	if entry.Outcome != nil {
		record.Score = entry.Outcome.ScorePtr()
		record.Feedback = entry.Outcome.Feedback
		if len(entry.Outcome.Improvements) > 0 {
			record.Improvements = append([]string{}, entry.Outcome.Improvements...)
		}
	}
	return record
}
