package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/harrison/fathom/internal/walker"
)

// MaxListed is how many items a warning lists before summarizing the rest.
const MaxListed = 10

var warnColor = color.New(color.FgYellow)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Related paths or messages (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	shown := w.Items
	if len(shown) > MaxListed {
		shown = shown[:MaxListed]
	}
	for i, item := range shown {
		fmt.Fprintf(&b, "      %d. %s\n", i+1, item)
	}
	if rest := len(w.Items) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "      ... and %d more\n", rest)
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	warnColor.Fprint(out, b.String())
}

// WarnBrokenSymlinks builds the warning shown when a walk found links whose
// chains end at a missing target. It returns false when there is nothing to
// warn about.
func WarnBrokenSymlinks(paths []string) (Warning, bool) {
	if len(paths) == 0 {
		return Warning{}, false
	}
	return Warning{
		Title:      fmt.Sprintf("%d broken %s", len(paths), plural(len(paths), "symlink", "symlinks")),
		Items:      paths,
		Suggestion: "Remove the links or restore their targets",
	}, true
}

// WarnWalkErrors builds the warning for errors collected during a walk.
func WarnWalkErrors(errs []error) (Warning, bool) {
	if len(errs) == 0 {
		return Warning{}, false
	}
	items := make([]string, len(errs))
	for i, err := range errs {
		items[i] = err.Error()
	}
	return Warning{
		Title:   fmt.Sprintf("%d %s during walk", len(errs), plural(len(errs), "error", "errors")),
		Message: "The results below are missing whatever these paths contain",
		Items:   items,
	}, true
}

// WarnPartial builds the warning for a walk that was interrupted.
func WarnPartial(err error) Warning {
	msg := "the walk was canceled"
	if err != nil {
		msg = err.Error()
	}
	return Warning{
		Title:      "Partial result",
		Message:    msg,
		Suggestion: "Raise --timeout or run again to get a complete listing",
	}
}

// DisplayResult shows every warning res calls for.
func DisplayResult(out io.Writer, res *walker.Result) {
	if res == nil {
		return
	}
	if w, ok := WarnBrokenSymlinks(res.BrokenSymlinks); ok {
		w.Display(out)
	}
	if w, ok := WarnWalkErrors(res.Errors); ok {
		w.Display(out)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
