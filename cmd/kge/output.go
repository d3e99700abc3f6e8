package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/matsen/kgeval/internal/logger"
	"github.com/matsen/kgeval/internal/storage"
	"github.com/matsen/kgeval/internal/triple"
)

// maxLoggedDiagnostics caps per-command diagnostic log lines; the rest are summarized.
const maxLoggedDiagnostics = 20

// Envelope wraps every analysis result written as JSON.
type Envelope struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Command     string             `json:"command"`
	Result      any                `json:"result"`
	Diagnostics triple.Diagnostics `json:"diagnostics,omitempty"`
}

// newEnvelope stamps a result with a fresh run id and the current time.
func newEnvelope(command string, result any, diags triple.Diagnostics) (Envelope, error) {
	id, err := gonanoid.New()
	if err != nil {
		return Envelope{}, fmt.Errorf("generating run id: %w", err)
	}
	return Envelope{
		RunID:       id,
		GeneratedAt: time.Now().UTC(),
		Command:     command,
		Result:      result,
		Diagnostics: diags,
	}, nil
}

// OutputResponse is printed when a result was written to a file.
type OutputResponse struct {
	RunID  string `json:"run_id"`
	Output string `json:"output"`
}

// emit writes an envelope to path, or to stdout when path is empty.
// human is called instead of printing JSON to stdout when --human is set.
func emit(command string, result any, diags triple.Diagnostics, path string, human func()) {
	env, err := newEnvelope(command, result, diags)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if path != "" {
		if err := storage.WriteJSON(path, env); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			outputHuman("Wrote %s report to %s (run %s)\n", command, path, env.RunID)
		} else {
			outputJSON(OutputResponse{RunID: env.RunID, Output: path})
		}
		return
	}

	if humanOutput {
		human()
		return
	}
	outputJSON(env)
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Debug("exiting", "code", code)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// logDiagnostics reports recoverable input problems at WARN level.
func logDiagnostics(diags triple.Diagnostics) {
	for i, d := range diags {
		if i == maxLoggedDiagnostics {
			logger.Warn("further diagnostics omitted", "count", len(diags)-i)
			return
		}
		logger.Warn(d.Message, "kind", d.Kind, "source", d.Source, "record", d.Record, "index", d.Index)
	}
}

// truncate shortens s to n runes with a trailing ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
