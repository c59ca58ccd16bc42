package logger

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel("INFO")
	})
	return buf
}

func TestLogFormatter(t *testing.T) {
	f := &LogFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		LevelDesc:       []string{"PANIC", "FATAL", "ERROR", "WARN", "INFO", "DEBUG", "TRACE"},
	}
	entry := &log.Entry{
		Time:    time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC),
		Level:   log.WarnLevel,
		Message: "slow flush",
		Data:    log.Fields{"pending": 3, "batch": 10},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01 12:30:00 [WARN] slow flush batch=10 pending=3\n", string(out))
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, "INFO")

	Debug("hidden")
	Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[INFO] shown")

	SetLevel("DEBUG")
	Debugf("now %s", "visible")
	assert.Contains(t, buf.String(), "[DEBUG] now visible")

	SetLevel("ERROR")
	Warn("dropped")
	Errorf("failed: %d", 42)
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "[ERROR] failed: 42")
}

func TestWriteLog(t *testing.T) {
	buf := capture(t, "INFO")

	WriteLog("ERROR", "req-1", "analysis", "boom")
	WriteLog("INFO", "", "health", map[string]int{"ok": 1})

	out := buf.String()
	assert.Contains(t, out, "[ERROR] [analysis] [req-1] | boom")
	assert.Contains(t, out, "[health] [no-uuid-found] | map[ok:1]")
}

func TestWithFields(t *testing.T) {
	buf := capture(t, "INFO")

	WithFields(map[string]interface{}{"project_id": "p1", "years": 25}, "schedule built")
	assert.Contains(t, buf.String(), "schedule built project_id=p1 years=25")
}

func TestCompressLogFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "2025-03-01-12.log")
	require.NoError(t, os.WriteFile(src, []byte("line one\nline two\n"), 0644))

	require.NoError(t, compressLogFile(src))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	f, err := os.Open(src + ".gz")
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", string(data))
}

func TestDeleteOldDateFolders(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	old := filepath.Join(dir, "2025-01-01")
	fresh := filepath.Join(dir, "2025-01-05")
	require.NoError(t, os.Mkdir(old, 0755))
	require.NoError(t, os.Mkdir(fresh, 0755))
	require.NoError(t, os.Chtimes(old, now.Add(-72*time.Hour), now.Add(-72*time.Hour)))

	deleteOldDateFolders(dir, 2, now)

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	assert.DirExists(t, fresh)
}

func TestConfigureToFile(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { SetOutput(os.Stdout) })

	require.NoError(t, Configure(Options{Level: "INFO", Directory: dir, MaxAgeDays: 1, ToFile: true}))
	assert.DirExists(t, filepath.Join(dir, time.Now().Format("2006-01-02")))
}
