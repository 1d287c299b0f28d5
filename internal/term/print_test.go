package term

import (
	"bytes"
	"os"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	pterm.DisableColor()
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	t.Cleanup(func() {
		SetOutput(os.Stdout, os.Stderr)
		SetLevel(LevelInfo)
		pterm.EnableColor()
	})
	return &stdout, &stderr
}

func TestLevels(t *testing.T) {
	stdout, stderr := capture(t)

	Debug("hidden")
	Infof("created %s", "a@mail.test")
	Warn("careful")
	Error("broken")

	assert.Equal(t, "created a@mail.test\n", stdout.String())
	assert.Equal(t, "careful\nbroken\n", stderr.String())
}

func TestQuietKeepsErrors(t *testing.T) {
	stdout, stderr := capture(t)
	SetLevel(LevelWarn)

	Info("hidden")
	Errorf("code %d", 1)

	assert.Empty(t, stdout.String())
	assert.Equal(t, "code 1\n", stderr.String())
}

func TestVerboseShowsDebug(t *testing.T) {
	stdout, _ := capture(t)
	SetLevel(LevelDebug)

	Debugf("polling %d pages", 3)
	assert.Equal(t, "polling 3 pages\n", stdout.String())
}

func TestTable(t *testing.T) {
	capture(t)

	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []string{"ID", "Address"}, [][]string{{"a1", "ghost_1@mail.test"}}))
	assert.Contains(t, buf.String(), "Address")
	assert.Contains(t, buf.String(), "ghost_1@mail.test")
}
