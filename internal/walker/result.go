package walker

import "sort"

// Result is what a walk found. The lists are unordered.
type Result struct {
	Files          []Entry
	Dirs           []Entry
	BrokenSymlinks []string
	Errors         []error
}

// Len returns the number of reported files and directories.
func (r *Result) Len() int {
	return len(r.Files) + len(r.Dirs)
}

// HasErrors reports whether any filesystem error was collected.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Sort orders every list by path (errors by message) for stable output.
func (r *Result) Sort() {
	sort.Slice(r.Files, func(i, j int) bool { return r.Files[i].Path < r.Files[j].Path })
	sort.Slice(r.Dirs, func(i, j int) bool { return r.Dirs[i].Path < r.Dirs[j].Path })
	sort.Strings(r.BrokenSymlinks)
	sort.Slice(r.Errors, func(i, j int) bool { return r.Errors[i].Error() < r.Errors[j].Error() })
}

// partial is the outcome of one forked task: either a result to fold in or
// an error to record.
type partial struct {
	res *Result
	err error
}

// merge folds partials into base and returns it. Merging with no partials
// leaves base unchanged.
func merge(base *Result, partials ...partial) *Result {
	for _, p := range partials {
		if p.err != nil {
			base.Errors = append(base.Errors, p.err)
			continue
		}
		if p.res == nil {
			continue
		}
		base.Files = append(base.Files, p.res.Files...)
		base.Dirs = append(base.Dirs, p.res.Dirs...)
		base.BrokenSymlinks = append(base.BrokenSymlinks, p.res.BrokenSymlinks...)
		base.Errors = append(base.Errors, p.res.Errors...)
	}
	return base
}
