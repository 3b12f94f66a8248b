package doctor

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhaines/viva/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestCheckTokenStates(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.TokenEnv = "TEST_DOCTOR_TOKEN"

	t.Setenv("TEST_DOCTOR_TOKEN", "")
	check := checkToken(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "TEST_DOCTOR_TOKEN is empty")

	t.Setenv("TEST_DOCTOR_TOKEN", "secret")
	check = checkToken(cfg)
	require.True(t, check.Pass)

	cfg.Backend.TokenEnv = ""
	check = checkToken(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "unauthenticated")
}

func TestCheckResume(t *testing.T) {
	cfg := config.Default()

	check := checkResume(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "job.resume is empty")

	dir := t.TempDir()
	path := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("resume body"), 0o644))

	cfg.Job.Resume = path
	check = checkResume(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, path)

	cfg.Job.Resume = dir
	check = checkResume(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "is a directory")
}

func TestCheckCameraDeviceMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Video.Device = filepath.Join(t.TempDir(), "video9")

	check := checkCameraDevice(cfg)
	require.False(t, check.Pass)
}

func TestCheckGoogleCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	check := checkGoogleCredentials()
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "application default credentials")

	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	check = checkGoogleCredentials()
	require.True(t, check.Pass)

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path+".missing")
	check = checkGoogleCredentials()
	require.False(t, check.Pass)
}

func TestCheckBackendHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Backend.URL = server.URL

	check := checkBackendHealth(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "/api/health")
}

func TestCheckBackendHealthFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.URL = "http://127.0.0.1:1"

	check := checkBackendHealth(cfg)
	require.False(t, check.Pass)
}
