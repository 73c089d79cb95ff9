// Package report renders walk results for people and for machines.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/fathom/internal/filelock"
	"github.com/harrison/fathom/internal/walker"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatHTML}

// ParseFormat validates a format name. "md" and "yml" are accepted as
// aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text", "txt", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unknown format %q, must be one of: %s", name, strings.Join(names, ", "))
}

// Report is one finished walk.
type Report struct {
	ID       uuid.UUID
	Root     string
	Started  time.Time
	Duration time.Duration
	// Partial is set when the walk was cut short by cancellation or timeout.
	Partial bool
	Result  *walker.Result
}

// New builds a report with a fresh run id. The result is sorted so output is
// stable across runs.
func New(root string, started time.Time, duration time.Duration, result *walker.Result) *Report {
	if result == nil {
		result = &walker.Result{}
	}
	result.Sort()
	return &Report{
		ID:       uuid.New(),
		Root:     root,
		Started:  started,
		Duration: duration,
		Result:   result,
	}
}

// Options tunes rendering.
type Options struct {
	// Color enables ANSI colors in the text format.
	Color bool
}

// Render writes r to w in the given format.
func Render(w io.Writer, format Format, r *Report, opts Options) error {
	switch format {
	case FormatText:
		return renderText(w, r, opts)
	case FormatJSON:
		return renderJSON(w, r)
	case FormatYAML:
		return renderYAML(w, r)
	case FormatMarkdown:
		return renderMarkdown(w, r)
	case FormatHTML:
		return renderHTML(w, r)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteFile renders r and writes it to path atomically under a lock, so
// concurrent runs pointed at the same file never interleave.
func WriteFile(path string, format Format, r *Report, opts Options) error {
	var buf bytes.Buffer
	if err := Render(&buf, format, r, opts); err != nil {
		return err
	}
	if err := filelock.LockAndWrite(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
