package indicator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhaines/viva/internal/config"
	"github.com/dhaines/viva/internal/interview"
)

func TestDesktopNotifyDispatchReplacesNotification(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "busctl-args.log")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)
	installBusctlStub(t, `
printf '%s\n' "$*" >> "${BUSCTL_ARGS_FILE}"
if [[ "$*" == *" Notify "* ]]; then
  echo 'u 7'
fi
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.Enable = true

	notify := New(cfg, nil)
	notify.ShowGreeting(context.Background())
	notify.ShowQuestion(context.Background(), 1, 3, "Tell me about yourself")
	notify.Hide(context.Background())

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Notify")
	require.Contains(t, lines[0], "viva-interview")
	// second notify replaces the ID returned by the first
	require.Contains(t, lines[1], " 7 ")
	require.Contains(t, lines[1], "Question 1 of 3: Tell me about yourself")
	require.Contains(t, lines[2], "CloseNotification")
	require.Contains(t, lines[2], " 7")
}

func TestDesktopNotifyShowErrorUsesFallbackTextAndTimeout(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "busctl-args.log")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)
	installBusctlStub(t, `
printf '%s\n' "$*" >> "${BUSCTL_ARGS_FILE}"
echo 'u 1'
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.Enable = true
	cfg.ErrorTimeoutMS = 0 // exercises fallback to 2500ms

	notify := New(cfg, nil)
	notify.ShowError(context.Background(), "")

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "Interview session error")
	require.Contains(t, string(data), " 2500")
}

func TestDesktopNotifyDisabledSkipsDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "busctl-args.log")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)
	installBusctlStub(t, `
printf '%s\n' "$*" >> "${BUSCTL_ARGS_FILE}"
echo 'u 1'
`)

	cfg := config.Default().Indicator
	cfg.Enable = false
	cfg.SoundEnable = false

	notify := New(cfg, nil)
	notify.ShowGreeting(context.Background())
	notify.ShowWaiting(context.Background())
	notify.ShowListening(context.Background())
	notify.ShowAnalyzing(context.Background())
	notify.ShowError(context.Background(), "ignored")
	notify.Hide(context.Background())

	_, err := os.Stat(argsFile)
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestFeedbackSummaryByOutcomeKind(t *testing.T) {
	scored := interview.Outcome{Kind: interview.OutcomeScored, Score: 85, Feedback: "Clear and specific."}
	require.Equal(t, "Score 85/100. Clear and specific.", feedbackSummary(scored))

	degraded := interview.Outcome{Kind: interview.OutcomeDegraded}
	require.Equal(t, "Evaluation was unavailable for this answer", feedbackSummary(degraded))

	skipped := interview.Outcome{Kind: interview.OutcomeSkipped}
	require.Equal(t, "Question skipped", feedbackSummary(skipped))
}

func TestTruncateLimitsLongText(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := truncate(long, 200)
	require.Len(t, []rune(got), 200)
	require.True(t, strings.HasSuffix(got, "…"))
	require.Equal(t, "short", truncate("  short  ", 200))
}

func installBusctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "busctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
