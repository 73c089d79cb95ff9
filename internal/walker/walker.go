package walker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrency bounds in-flight filesystem calls when
// Options.MaxConcurrency is zero.
const DefaultMaxConcurrency = 64

// Logger receives diagnostics that are neither results nor errors, such as
// artifacts of unsupported types.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogWarn(string)  {}

// Options configures a Walker. The zero value walks the OS filesystem with
// no filtering.
type Options struct {
	// Filter excludes files and directories by attribute.
	Filter Filter
	// MaxConcurrency caps concurrent filesystem calls (0 = DefaultMaxConcurrency).
	MaxConcurrency int
	// Logger receives diagnostics. Nil discards them.
	Logger Logger
	// FS is the filesystem to walk. Nil means OSFS().
	FS FS
}

// Walker walks directory trees with a fixed configuration. It keeps no state
// between walks and is safe for concurrent use.
type Walker struct {
	fs     FS
	filter Filter
	logger Logger
	sem    *semaphore.Weighted
}

// New validates opts and returns a Walker.
func New(opts Options) (*Walker, error) {
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxConcurrency < 0 {
		return nil, fmt.Errorf("max concurrency must be >= 0, got %d", opts.MaxConcurrency)
	}

	limit := opts.MaxConcurrency
	if limit == 0 {
		limit = DefaultMaxConcurrency
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = OSFS()
	}
	var logger Logger = nopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}

	return &Walker{
		fs:     fsys,
		filter: opts.Filter,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(limit)),
	}, nil
}

// Find walks root with opts. See Walker.Find.
func Find(ctx context.Context, root string, opts Options) (*Result, error) {
	w, err := New(opts)
	if err != nil {
		return nil, err
	}
	return w.Find(ctx, root)
}

// Find walks the tree under root and reports everything it found.
//
// Filesystem failures are collected in Result.Errors and never fail the
// call. The returned error is non-nil only when root cannot be made absolute
// or ctx ends; in the latter case the partial result is returned with it.
func (w *Walker) Find(ctx context.Context, root string) (*Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	if err := ctx.Err(); err != nil {
		return &Result{}, err
	}

	w.logger.LogDebug(fmt.Sprintf("walking %s", abs))

	var parents *ancestry
	if st, err := w.lstat(ctx, abs); err == nil {
		e, kind := classify(abs, st)
		if kind == KindSymlink {
			// A linked root is identified by the directory it points at, so
			// links back to it inside the tree are caught as cycles.
			if r := w.resolve(ctx, abs); r.err == nil {
				e, kind = r.target, r.kind
			}
		}
		if kind == KindDir {
			parents = parents.push(identify(e))
		}
	}

	res := w.traverse(ctx, abs, parents)
	return res, ctx.Err()
}

// traverse walks one directory level and everything below it. parents holds
// the identities of dir and every directory above it in this walk.
func (w *Walker) traverse(ctx context.Context, dir string, parents *ancestry) *Result {
	lv := &level{res: &Result{}}

	names, err := w.readDirNames(ctx, dir)
	if err != nil {
		if ctx.Err() == nil {
			lv.res.Errors = append(lv.res.Errors, &DirectoryReadError{Path: dir, Err: err})
		}
		return lv.res
	}

	outcomes := make([]statOutcome, len(names))
	fork(len(names), func(i int) {
		path := filepath.Join(dir, names[i])
		st, err := w.lstat(ctx, path)
		outcomes[i] = statOutcome{path: path, st: st, err: err}
	})
	if ctx.Err() != nil {
		return lv.res
	}

	for _, out := range outcomes {
		w.dispatch(lv, out)
	}

	merge(lv.res, w.descend(ctx, lv.subdirs, parents)...)

	resolved := make([]resolution, len(lv.links))
	fork(len(lv.links), func(i int) {
		resolved[i] = w.resolve(ctx, lv.links[i])
	})
	if ctx.Err() != nil {
		return lv.res
	}

	linkedDirs, failed := w.settle(lv, resolved)
	merge(lv.res, failed...)
	merge(lv.res, w.descend(ctx, linkedDirs, parents)...)

	return lv.res
}

// descend walks dirs concurrently and returns one partial per directory.
// Directories are walked at their real location. A directory that is already
// one of parents is not walked again.
func (w *Walker) descend(ctx context.Context, dirs []Entry, parents *ancestry) []partial {
	partials := make([]partial, len(dirs))
	fork(len(dirs), func(i int) {
		d := dirs[i]
		id := identify(d)
		if parents.contains(id) {
			partials[i] = partial{err: &SymlinkResolutionError{Path: d.Path, Link: d.realPath(), Err: ErrSymlinkCycle}}
			return
		}
		partials[i] = partial{res: w.traverse(ctx, d.realPath(), parents.push(id))}
	})
	return partials
}

// fork runs fn(0..n-1) concurrently and returns when all calls have.
func fork(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}

func (w *Walker) readDirNames(ctx context.Context, path string) ([]string, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer w.sem.Release(1)
	return w.fs.ReadDirNames(path)
}

func (w *Walker) lstat(ctx context.Context, path string) (lookup, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return lookup{}, err
	}
	defer w.sem.Release(1)

	info, err := w.fs.Lstat(path)
	if err != nil {
		return lookup{}, err
	}
	st := lookup{info: info}
	if bt, ok := w.fs.(birthTimer); ok {
		st.birth, st.hasBirth = bt.BirthTime(path)
	}
	return st, nil
}

func (w *Walker) readlink(ctx context.Context, path string) (string, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer w.sem.Release(1)
	return w.fs.Readlink(path)
}

// dirID identifies a directory independently of the path it was reached by.
type dirID struct {
	dev  uint64
	ino  uint64
	path string
}

func identify(e Entry) dirID {
	if e.Dev == 0 && e.Ino == 0 {
		return dirID{path: e.realPath()}
	}
	return dirID{dev: e.Dev, ino: e.Ino}
}

// ancestry is an immutable list of directories above the current level.
type ancestry struct {
	id     dirID
	parent *ancestry
}

func (a *ancestry) push(id dirID) *ancestry {
	return &ancestry{id: id, parent: a}
}

func (a *ancestry) contains(id dirID) bool {
	for ; a != nil; a = a.parent {
		if a.id == id {
			return true
		}
	}
	return false
}

// IsCanceled reports whether err is a context cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
