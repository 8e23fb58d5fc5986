package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pdf-ocr-worker dev")
	assert.Contains(t, out, "Commit: unknown")
}

func TestOCRCommand(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("api_key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"processed_file_content": base64.StdEncoding.EncodeToString([]byte("searchable")),
			"base_file_name":         "scan",
			"result_code":            "Success",
		})
	}))
	defer srv.Close()

	t.Setenv("MUHIMBI_API_KEY", "test-key")
	t.Setenv("MUHIMBI_BASE_URL", srv.URL)
	t.Setenv("LOG_LEVEL", "error")

	dir := t.TempDir()
	input := filepath.Join(dir, "scan.pdf")
	output := filepath.Join(dir, "scan-ocr.pdf")
	require.NoError(t, os.WriteFile(input, []byte("%PDF-1.4 scanned"), 0o644))

	out, err := runCommand(t, "ocr", input, output, "--language", "German", "--paginate")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved "+output)

	saved, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "searchable", string(saved))

	assert.Equal(t, "scan.pdf", got["source_file_name"])
	assert.Equal(t, "German", got["language"])
	assert.Equal(t, true, got["paginate"])
	assert.Equal(t, false, got["use_async_pattern"])
}

func TestOCRCommand_MissingAPIKey(t *testing.T) {
	t.Setenv("MUHIMBI_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")

	_, err := runCommand(t, "ocr", "in.pdf", "out.pdf")
	assert.EqualError(t, err, "MUHIMBI_API_KEY is missing")
}

func TestOCRCommand_RequiresTwoArgs(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	_, err := runCommand(t, "ocr", "in.pdf")
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	require.NoError(t, setupLogging("debug", "json", &buf))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	require.NoError(t, setupLogging("WARN", "console", &buf))
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	assert.Error(t, setupLogging("loud", "json", &buf))
	assert.Error(t, setupLogging("info", "xml", &buf))
}
