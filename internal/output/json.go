package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kuochunchang/goose-sonarqube-vscode-sub001/internal/merge"
)

func init() {
	RegisterFormatter(NewJSONFormatter())
}

// JSONEnvelope wraps the merged result with metadata for the JSON format.
type JSONEnvelope struct {
	Result   *merge.Result `json:"result"`
	Metadata JSONMetadata  `json:"metadata"`
}

// JSONMetadata identifies the run that produced the result.
type JSONMetadata struct {
	Tool        string `json:"tool"`
	Version     string `json:"version,omitempty"`
	RunID       string `json:"run_id"`
	GeneratedAt string `json:"generated_at"`
}

// JSONFormatter writes the result as a JSON document with a metadata
// envelope.
type JSONFormatter struct {
	// Version is the goosereview version to embed in the metadata.
	Version string

	// Compact switches to single-line output. Default is two-space indent.
	Compact bool

	// nowFunc is used by tests to override the current time.
	nowFunc func() time.Time
}

// Compile-time interface check.
var _ Formatter = (*JSONFormatter)(nil)

// NewJSONFormatter returns a new JSONFormatter with default settings.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string { return "json" }

// Format writes the result as a JSON envelope to w.
func (f *JSONFormatter) Format(result *merge.Result, w io.Writer) error {
	now := time.Now()
	if f.nowFunc != nil {
		now = f.nowFunc()
	}

	envelope := JSONEnvelope{
		Result: result,
		Metadata: JSONMetadata{
			Tool:        "goosereview",
			Version:     f.Version,
			RunID:       result.RunID,
			GeneratedAt: now.UTC().Format(time.RFC3339),
		},
	}

	var data []byte
	var err error
	if f.Compact {
		data, err = json.Marshal(envelope)
	} else {
		data, err = json.MarshalIndent(envelope, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write json trailing newline: %w", err)
	}
	return nil
}
