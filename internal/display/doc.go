// Package display writes short human-facing notices to the terminal: warnings
// about broken links and walk errors, and the status lines printed while
// watching a tree.
//
//	w := display.WarnBrokenSymlinks(res.BrokenSymlinks)
//	w.Display(os.Stderr)
//
// Output goes to any io.Writer. Colors follow fatih/color, so they switch off
// with color.NoColor.
package display
