package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

func renderMarkdown(w io.Writer, r *Report) error {
	_, err := io.WriteString(w, markdownOf(r))
	return err
}

func markdownOf(r *Report) string {
	res := r.Result
	s := summarize(res)
	var b strings.Builder

	fmt.Fprintf(&b, "# fathom report `%s`\n\n", r.ID)
	fmt.Fprintf(&b, "- **Root:** `%s`\n", r.Root)
	fmt.Fprintf(&b, "- **Started:** %s\n", r.Started.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Duration:** %s\n", r.Duration.Round(time.Millisecond))
	if r.Partial {
		b.WriteString("- **Partial:** walk was interrupted\n")
	}

	b.WriteString("\n## Summary\n\n")
	b.WriteString("| Files | Directories | Broken symlinks | Errors |\n")
	b.WriteString("|------:|------------:|----------------:|-------:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n", s.Files, s.Dirs, s.BrokenSymlinks, s.Errors)

	if len(res.Dirs) > 0 {
		fmt.Fprintf(&b, "\n## Directories (%d)\n\n", len(res.Dirs))
		b.WriteString("| Path | Target | Mode |\n|------|--------|------|\n")
		for _, e := range res.Dirs {
			fmt.Fprintf(&b, "| %s | %s | `%s` |\n", cell(e.Path), cell(e.TargetPath), e.Mode)
		}
	}

	if len(res.Files) > 0 {
		fmt.Fprintf(&b, "\n## Files (%d)\n\n", len(res.Files))
		b.WriteString("| Path | Target | Size | Mode | Modified |\n|------|--------|-----:|------|----------|\n")
		for _, e := range res.Files {
			fmt.Fprintf(&b, "| %s | %s | %d | `%s` | %s |\n",
				cell(e.Path), cell(e.TargetPath), e.Size, e.Mode, e.ModTime.Format("2006-01-02 15:04"))
		}
	}

	if len(res.BrokenSymlinks) > 0 {
		fmt.Fprintf(&b, "\n## Broken symlinks (%d)\n\n", len(res.BrokenSymlinks))
		for _, p := range res.BrokenSymlinks {
			fmt.Fprintf(&b, "- `%s`\n", p)
		}
	}

	if len(res.Errors) > 0 {
		fmt.Fprintf(&b, "\n## Errors (%d)\n\n", len(res.Errors))
		for _, err := range res.Errors {
			fmt.Fprintf(&b, "- %s\n", escapeMarkdown(err.Error()))
		}
	}

	return b.String()
}

// cell formats a path for a table cell.
func cell(s string) string {
	if s == "" {
		return ""
	}
	return "`" + strings.ReplaceAll(s, "|", `\|`) + "`"
}

func escapeMarkdown(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "|", `\|`, "<", "&lt;")
	return r.Replace(s)
}

func renderHTML(w io.Writer, r *Report) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdownOf(r)), &body); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}

	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>fathom report %s</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25em 0.5em; }
code { font-size: 0.9em; }
</style>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(r.ID.String()), body.String())
	return err
}
