package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects printer output into buffers for the duration of a test
func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	prevOut, prevErr, prevNoColor := Stdout, Stderr, color.NoColor
	Stdout, Stderr = out, errOut
	color.NoColor = true
	t.Cleanup(func() {
		Stdout, Stderr, color.NoColor = prevOut, prevErr, prevNoColor
	})
	return out, errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		capture(t)
		err := Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
	})

	t.Run("single suggestion printed verbatim", func(t *testing.T) {
		_, errOut := capture(t)
		err := Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Try this fix")
		assert.NotContains(t, errOut.String(), "Either:")
	})

	t.Run("multiple suggestions are numbered", func(t *testing.T) {
		_, errOut := capture(t)
		Error("Test Error", "Explanation", []string{"First option", "Second option"})
		assert.Contains(t, errOut.String(), "Either:")
		assert.Contains(t, errOut.String(), "1. First option")
		assert.Contains(t, errOut.String(), "2. Second option")
	})
}

func TestErrorWithContext(t *testing.T) {
	_, errOut := capture(t)
	context := map[string]string{
		"Stage":   "pr-creation",
		"Command": "gh pr create",
	}
	err := ErrorWithContext("Test Error", "Explanation", context, nil)
	require.Equal(t, "Test Error", err.Error())

	text := errOut.String()
	assert.Less(t, strings.Index(text, "Command:"), strings.Index(text, "Stage:"), "context keys should be sorted")
}

func TestSuccessAndWarningPrefixes(t *testing.T) {
	out, _ := capture(t)

	Success("done\n")
	Success("✅ already prefixed\n")
	Warning("careful\n")

	text := out.String()
	assert.Contains(t, text, "✅ done")
	assert.NotContains(t, text, "✅ ✅")
	assert.Contains(t, text, "⚠️  careful")
}

func TestBanner(t *testing.T) {
	out, _ := capture(t)
	Banner("TITLE")
	assert.Equal(t, "TITLE\n"+strings.Repeat("=", 50)+"\n", out.String())
}
