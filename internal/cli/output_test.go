package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "lookup failed", errors.New("boom")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	err := WrapExitError(ExitFailure, "lookup failed", cause)

	assert.Equal(t, "lookup failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())
}

func TestOutputFormatterSuccess(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf}

		require.NoError(t, f.Success(map[string]int{"n": 1}, "done"))
		assert.Equal(t, "done\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Success(map[string]int{"n": 1}, "done"))
		assert.JSONEq(t, `{"status":"ok","data":{"n":1}}`, buf.String())
	})
}

func TestOutputFormatterError(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

		require.NoError(t, f.Error(ErrCodeInvalidWindow, "window start after end", "start=5 end=4"))
		assert.Equal(t, "Error [E010]: window start after end\nDetails: start=5 end=4\n", buf.String())
	})

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		f := &OutputFormatter{Format: "json", Writer: buf}

		require.NoError(t, f.Error(ErrCodeQueryFailed, "store down", nil))

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeQueryFailed, resp.Error.Code)
		assert.Equal(t, "store down", resp.Error.Message)
	})
}

func TestOutputFormatterVerboseLog(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	quiet := &OutputFormatter{Writer: out, ErrWriter: errOut}
	quiet.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	loud := &OutputFormatter{Writer: out, ErrWriter: errOut, Verbose: true}
	loud.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestErrCode(t *testing.T) {
	assert.Equal(t, ErrCodeGeneric, errCode(errors.New("plain")))
	assert.Equal(t, ErrCodeInvalidInput, errCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ErrCodeGeneric, errCode(NewExitError(ExitFailure, "failed")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "lookup failed", errors.New("boom")).WithErrCode(ErrCodeQueryFailed))
	assert.Equal(t, ErrCodeQueryFailed, errCode(wrapped))
}

func TestIsReported(t *testing.T) {
	assert.False(t, isReported(errors.New("plain")))
	assert.False(t, isReported(NewExitError(ExitFailure, "failed")))
	assert.True(t, isReported(reportedExitError(ExitFailure, "1 scenario(s) failed")))
}
