package walker

import (
	"fmt"
	"sort"
)

// Predicate decides, from one attribute value, whether an artifact should be
// left out of the results. See Entry.Attr for the value types.
type Predicate func(value any) bool

// Rules maps attribute names to exclusion predicates.
type Rules map[string]Predicate

// Filter holds separate rules for files and directories. Nil rules never
// exclude anything.
type Filter struct {
	File Rules
	Dir  Rules
}

// Validate rejects unknown attribute names and nil predicates.
func (f Filter) Validate() error {
	if err := f.File.validate("file"); err != nil {
		return err
	}
	return f.Dir.validate("dir")
}

func (r Rules) validate(kind string) error {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !IsAttribute(name) {
			return fmt.Errorf("%w: %s rule on unknown attribute %q", ErrInvalidFilter, kind, name)
		}
		if r[name] == nil {
			return fmt.Errorf("%w: %s rule on %q has no predicate", ErrInvalidFilter, kind, name)
		}
	}
	return nil
}

// IsIgnored reports whether e should be excluded. A single predicate that
// returns true is enough. Attributes the entry does not carry are skipped.
func IsIgnored(rules Rules, e Entry) bool {
	for name, pred := range rules {
		v, ok := e.Attr(name)
		if !ok || pred == nil {
			continue
		}
		if pred(v) {
			return true
		}
	}
	return false
}

// IsSymlinkIgnored evaluates rules against the target's metadata as seen from
// linkPath: path and name come from the link, everything else from the
// target.
func IsSymlinkIgnored(rules Rules, target Entry, linkPath string) bool {
	return IsIgnored(rules, target.withPath(linkPath))
}
