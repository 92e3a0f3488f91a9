package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactionFields(t *testing.T) {
	t.Parallel()
	for _, key := range []string{"dsn", "password", "secret_access_key", "session_token", "token", "DSN"} {
		out := logSingleField(t, key, "postgres://u:p@host/db")
		require.Equal(t, "[REDACTED]", out[key], key)
	}
}

func TestNonSensitiveFieldsPassThrough(t *testing.T) {
	t.Parallel()
	out := logSingleField(t, "key", "snippets")
	require.Equal(t, "snippets", out["key"])
}

func TestRedactionInsideGroupsAndWithAttrs(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewRedactingHandler(base)).With("dsn", "secret-dsn")
	logger.Info("open", slog.Group("s3", slog.String("bucket", "b"), slog.String("secret_access_key", "sk")))

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	require.Equal(t, "[REDACTED]", out["dsn"])
	group := out["s3"].(map[string]any)
	require.Equal(t, "b", group["bucket"])
	require.Equal(t, "[REDACTED]", group["secret_access_key"])
}

func TestNewWritesToFallbackAndFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "key", "snippets")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
	require.Contains(t, buf.String(), "key=snippets")
}

func TestNewJSONToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "snippetmanager.log")
	logger, closer, err := New(Options{Level: "debug", Format: "json", File: path}, nil)
	require.NoError(t, err)
	logger.Debug("saved", "key", "snippets")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `"msg":"saved"`))
}

func TestNewRejectsBadInput(t *testing.T) {
	_, _, err := New(Options{Level: "loud"}, nil)
	require.ErrorIs(t, err, ErrInvalidLevel)

	_, _, err = New(Options{Format: "xml"}, nil)
	require.ErrorContains(t, err, "unknown log format")
}

func TestNewRotatingWriterDefaults(t *testing.T) {
	w, err := NewRotatingWriter(RotationConfig{File: filepath.Join(t.TempDir(), "a.log")})
	require.NoError(t, err)
	require.Equal(t, 10, w.MaxSize)
	require.Equal(t, 5, w.MaxBackups)

	_, err = NewRotatingWriter(RotationConfig{})
	require.Error(t, err)
}

func TestLogRotationCreatesNewFile(t *testing.T) {
	logDir := t.TempDir()
	logPath := filepath.Join(logDir, "snippetmanager.log")

	writer, err := NewRotatingWriter(RotationConfig{File: logPath, MaxSizeMB: 1, MaxFiles: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	chunk := bytes.Repeat([]byte("a"), 512*1024)
	for i := 0; i < 5; i++ {
		_, err = writer.Write(chunk)
		require.NoError(t, err)
	}

	files, err := filepath.Glob(filepath.Join(logDir, "snippetmanager*"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(files), 2)
}

func logSingleField(t *testing.T, key, value string) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	base := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewRedactingHandler(base))
	logger.Info("test", key, value)

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	return out
}
