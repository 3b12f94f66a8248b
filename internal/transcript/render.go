package transcript

import (
	"fmt"
	"strings"
)

// Turn is one question/answer pair prepared for display.
type Turn struct {
	Number   int
	Question string
	Answer   string
	Feedback string
	Score    *int
	Answered bool
}

// Render formats the session transcript for terminal output: one block per
// question in session order, with unanswered questions marked.
func Render(jobRole string, company string, turns []Turn) string {
	var out strings.Builder

	header := jobRole
	if company != "" {
		header = fmt.Sprintf("%s at %s", jobRole, company)
	}
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(strings.Repeat("=", len(header)))
	out.WriteString("\n")

	for _, turn := range turns {
		fmt.Fprintf(&out, "\nQ%d: %s\n", turn.Number, turn.Question)
		if !turn.Answered {
			out.WriteString("    (not answered)\n")
			continue
		}
		fmt.Fprintf(&out, "    %s\n", turn.Answer)
		if turn.Score != nil {
			fmt.Fprintf(&out, "    score: %d/100\n", *turn.Score)
		} else {
			out.WriteString("    score: unavailable\n")
		}
		if turn.Feedback != "" {
			fmt.Fprintf(&out, "    feedback: %s\n", turn.Feedback)
		}
	}

	return out.String()
}
