// Package fathom walks directory trees concurrently, following symbolic link
// chains and reporting files, directories and broken links.
//
// It is a thin public facade over the internal walker package; see Find.
package fathom

import (
	"context"

	"github.com/harrison/fathom/internal/walker"
)

type (
	// Entry is one reported file or directory.
	Entry = walker.Entry
	// Result is the outcome of a walk.
	Result = walker.Result
	// Options configures a walk.
	Options = walker.Options
	// Filter holds exclusion rules for files and directories.
	Filter = walker.Filter
	// Rules maps attribute names to exclusion predicates.
	Rules = walker.Rules
	// Predicate excludes an artifact based on one attribute value.
	Predicate = walker.Predicate
	// FS is the filesystem a walk reads from.
	FS = walker.FS
	// Logger receives walk diagnostics.
	Logger = walker.Logger

	DirectoryReadError     = walker.DirectoryReadError
	StatError              = walker.StatError
	SymlinkResolutionError = walker.SymlinkResolutionError
)

var (
	// ErrSymlinkCycle marks a link chain that loops.
	ErrSymlinkCycle = walker.ErrSymlinkCycle
	// ErrInvalidFilter marks a malformed filter configuration.
	ErrInvalidFilter = walker.ErrInvalidFilter
)

// Find walks the tree under root. Filesystem failures are reported in
// Result.Errors; the error return is reserved for invalid options and
// cancellation.
func Find(ctx context.Context, root string, opts Options) (*Result, error) {
	return walker.Find(ctx, root, opts)
}

// OSFS returns the operating system filesystem.
func OSFS() FS {
	return walker.OSFS()
}
