package display

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/fathom/internal/walker"
)

// WatchIndicator prints status lines while a tree is being watched
type WatchIndicator struct {
	writer io.Writer
	root   string
	runs   int
}

// NewWatchIndicator creates a new watch indicator for root
func NewWatchIndicator(w io.Writer, root string) *WatchIndicator {
	return &WatchIndicator{writer: w, root: root}
}

// Start displays the header message
func (p *WatchIndicator) Start() {
	fmt.Fprintf(p.writer, "Watching %s (Ctrl+C to stop)\n", p.root)
}

// Changed shows which paths triggered the next walk: [N] path (+k more)
func (p *WatchIndicator) Changed(paths []string) {
	p.runs++
	switch len(paths) {
	case 0:
		color.New(color.FgCyan).Fprintf(p.writer, "  [%d] change detected\n", p.runs)
	case 1:
		color.New(color.FgCyan).Fprintf(p.writer, "  [%d] %s\n", p.runs, paths[0])
	default:
		color.New(color.FgCyan).Fprintf(p.writer, "  [%d] %s (+%d more)\n", p.runs, paths[0], len(paths)-1)
	}
}

// Complete shows the outcome of a walk with a green check, or a yellow mark
// when the walk found problems.
func (p *WatchIndicator) Complete(res *walker.Result, d time.Duration) {
	if res == nil {
		return
	}
	mark := color.GreenString("✓")
	if res.HasErrors() || len(res.BrokenSymlinks) > 0 {
		mark = color.YellowString("!")
	}
	fmt.Fprintf(p.writer, "%s %d files, %d directories, %d broken symlinks, %d errors (%s)\n",
		mark, len(res.Files), len(res.Dirs), len(res.BrokenSymlinks), len(res.Errors), d.Round(time.Millisecond))
}

// Runs returns how many changes have been reported.
func (p *WatchIndicator) Runs() int {
	return p.runs
}
