package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMessagesRouting(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewWithOutput(false, "", false, &stdout, &stderr)

	l.Info("hidden %d", 1)
	l.Warning("hidden warning")
	l.Success("created with %s at: %s", "INDEX", "/tmp/x")
	l.InfoToUser("reusing %s", "/tmp/y")
	l.StatusMessage("status")
	l.WarningToUser("wrong password")
	l.Error("boom")

	assert.Equal(t, "created with INDEX at: /tmp/x\nreusing /tmp/y\nstatus\n", stdout.String())
	assert.Equal(t, "wrong password\nerror: boom\n", stderr.String())
	require.NoError(t, l.Close())
}

func TestVerboseWarnings(t *testing.T) {
	var stdout bytes.Buffer
	l := NewWithOutput(false, "", true, &stdout, &bytes.Buffer{})

	l.Warning("careful")
	assert.Equal(t, "warning: careful\n", stdout.String())
}

func TestFileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "gesign.log")
	var stdout bytes.Buffer
	l := NewWithOutput(true, logFile, false, &stdout, &bytes.Buffer{})

	l.Info("wrote object %s", "4b825dc6")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gesign debug logging started")
	assert.Contains(t, string(data), "wrote object 4b825dc6")
	assert.Empty(t, stdout.String())
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	assert.NoError(t, l.Close())
}
