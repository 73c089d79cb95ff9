package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/fathom/internal/walker"
)

type palette struct {
	header *color.Color
	file   *color.Color
	dir    *color.Color
	link   *color.Color
	broken *color.Color
	err    *color.Color
	dim    *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		header: color.New(color.Bold),
		file:   color.New(color.Reset),
		dir:    color.New(color.FgBlue, color.Bold),
		link:   color.New(color.FgCyan),
		broken: color.New(color.FgYellow),
		err:    color.New(color.FgRed),
		dim:    color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{p.header, p.file, p.dir, p.link, p.broken, p.err, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func renderText(w io.Writer, r *Report, opts Options) error {
	p := newPalette(opts.Color)
	res := r.Result
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", p.header.Sprint("fathom"), p.dim.Sprint(r.ID))
	fmt.Fprintf(&b, "root: %s\n", r.Root)
	if r.Partial {
		fmt.Fprintf(&b, "%s\n", p.broken.Sprint("walk interrupted: results are partial"))
	}

	section(&b, p.header, "Directories", len(res.Dirs))
	for _, e := range res.Dirs {
		fmt.Fprintf(&b, "  %s%s\n", p.dir.Sprint(e.Path), linkSuffix(p, e))
	}

	section(&b, p.header, "Files", len(res.Files))
	for _, e := range res.Files {
		fmt.Fprintf(&b, "  %s %s %8d %s%s\n",
			p.dim.Sprint(e.Mode.String()), p.dim.Sprint(e.ModTime.Format("2006-01-02 15:04")),
			e.Size, p.file.Sprint(e.Path), linkSuffix(p, e))
	}

	if len(res.BrokenSymlinks) > 0 {
		section(&b, p.broken, "Broken symlinks", len(res.BrokenSymlinks))
		for _, path := range res.BrokenSymlinks {
			fmt.Fprintf(&b, "  %s\n", p.broken.Sprint(path))
		}
	}

	if len(res.Errors) > 0 {
		section(&b, p.err, "Errors", len(res.Errors))
		for _, err := range res.Errors {
			fmt.Fprintf(&b, "  %s\n", p.err.Sprint(err.Error()))
		}
	}

	s := summarize(res)
	fmt.Fprintf(&b, "\n%d files, %d directories, %d broken symlinks, %d errors in %s\n",
		s.Files, s.Dirs, s.BrokenSymlinks, s.Errors, r.Duration.Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, c *color.Color, title string, n int) {
	fmt.Fprintf(b, "\n%s\n", c.Sprintf("%s (%d)", title, n))
}

func linkSuffix(p *palette, e walker.Entry) string {
	if !e.ViaSymlink() {
		return ""
	}
	return " " + p.link.Sprint("-> "+e.TargetPath)
}
