package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbridge/mbridge/internal/bridge"
)

func TestFormatterResultText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Result(json.RawMessage(`{"defined":1,"data":42}`)))
	assert.Equal(t, "{\"defined\":1,\"data\":42}\n", buf.String())
}

func TestFormatterResultJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Result(json.RawMessage(`{"result":1}`)))
	assert.JSONEq(t, `{"status":"ok","data":{"result":1}}`, buf.String())
}

func TestFormatterErrorKeepsBridgeCode(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error(bridge.NewEncodingError("get", "bad name")))
	assert.JSONEq(t, `{"status":"error","error":{"code":"ENCODING","message":"bad name"}}`, buf.String())

	buf.Reset()
	f.Format = "text"
	require.NoError(t, f.Error(errors.New("plain failure")))
	assert.Equal(t, "error [ERROR]: plain failure\n", buf.String())
}

func TestFormatterVerboseLog(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &out, ErrWriter: &errOut, Verbose: false}

	f.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	f.Verbose = true
	f.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String(), "diagnostics must not mix into result output")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(&ExitError{Code: ExitCommandError, Message: "x"}))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("other")))
}
