package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mbridge/mbridge/internal/bridge"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (engine error, capacity, interrupt)
	ExitCommandError = 2 // Command error (bad flags, unreadable config, bad database path)
)

// ExitError carries a specific process exit code out of a command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error. Non-ExitError errors
// map to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders operation results and errors as JSON or text.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Response is the JSON envelope for --format json output.
type Response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError mirrors the bridge error taxonomy in CLI output.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result outputs an operation result in the configured format. Text mode
// prints the result object as-is; it is already a single JSON value.
func (f *OutputFormatter) Result(data json.RawMessage) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintf(f.Writer, "%s\n", data)
	return err
}

// Error outputs an operation failure. Bridge errors keep their code and
// message; anything else is reported under a generic code.
func (f *OutputFormatter) Error(err error) error {
	code, message := "ERROR", err.Error()
	var be *bridge.BridgeError
	if errors.As(err, &be) {
		code, message = string(be.Code), be.Message
	}
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: message},
		})
	}
	_, werr := fmt.Fprintf(f.Writer, "error [%s]: %s\n", code, message)
	return werr
}

// VerboseLog prints a diagnostic line when verbose mode is on. Goes to
// ErrWriter so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
