// Package rules compiles declarative, YAML-friendly exclusion rules into a
// walker.Filter.
//
// A rule set names attributes per artifact kind and, for each attribute, a
// condition made of one or more operators:
//
//	file:
//	  gid: {ne: 127}
//	  path: {glob: "**/*.tmp"}
//	  mtime: {before: 720h}
//	dir:
//	  name: {regex: "^\\."}
//
// An artifact is excluded when any one of its attribute conditions holds.
// A condition holds when every operator in it holds. A bare scalar is
// shorthand for {eq: value}.
package rules

import (
	"fmt"
	"io/fs"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/harrison/fathom/internal/walker"
)

// Operators by attribute class.
const (
	OpEq     = "eq"
	OpNe     = "ne"
	OpGt     = "gt"
	OpGte    = "gte"
	OpLt     = "lt"
	OpLte    = "lte"
	OpGlob   = "glob"
	OpRegex  = "regex"
	OpBefore = "before"
	OpAfter  = "after"
)

// Spec is the declarative form of a walker.Filter.
type Spec struct {
	File map[string]Condition `yaml:"file,omitempty" json:"file,omitempty"`
	Dir  map[string]Condition `yaml:"dir,omitempty" json:"dir,omitempty"`
}

// IsEmpty reports whether the spec declares no rules at all.
func (s Spec) IsEmpty() bool {
	return len(s.File) == 0 && len(s.Dir) == 0
}

// Condition maps operators to their operand.
type Condition map[string]any

// UnmarshalYAML accepts either a mapping of operators or a bare scalar.
func (c *Condition) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var v any
		if err := value.Decode(&v); err != nil {
			return err
		}
		*c = Condition{OpEq: v}
		return nil
	}

	m := map[string]any{}
	if err := value.Decode(&m); err != nil {
		return fmt.Errorf("line %d: condition must be a scalar or a mapping of operators: %w", value.Line, err)
	}
	*c = Condition(m)
	return nil
}

type class int

const (
	classString class = iota
	classNumber
	classTime
)

func classOf(attr string) class {
	switch attr {
	case walker.AttrPath, walker.AttrName, walker.AttrTarget:
		return classString
	case walker.AttrAtime, walker.AttrMtime, walker.AttrCtime, walker.AttrBirthtime:
		return classTime
	default:
		return classNumber
	}
}

// Compile turns spec into a walker.Filter. Relative times are measured from
// the moment of compilation.
func Compile(spec Spec) (walker.Filter, error) {
	return CompileAt(spec, time.Now())
}

// CompileAt is Compile with an explicit reference time for relative
// "before"/"after" operands.
func CompileAt(spec Spec, now time.Time) (walker.Filter, error) {
	file, err := compileRules("file", spec.File, now)
	if err != nil {
		return walker.Filter{}, err
	}
	dir, err := compileRules("dir", spec.Dir, now)
	if err != nil {
		return walker.Filter{}, err
	}
	return walker.Filter{File: file, Dir: dir}, nil
}

func compileRules(kind string, conds map[string]Condition, now time.Time) (walker.Rules, error) {
	if len(conds) == 0 {
		return nil, nil
	}

	rules := make(walker.Rules, len(conds))
	for _, attr := range sortedKeys(conds) {
		if !walker.IsAttribute(attr) {
			return nil, fmt.Errorf("%s rules: unknown attribute %q (known: %s)",
				kind, attr, strings.Join(walker.Attributes(), ", "))
		}
		pred, err := compileCondition(attr, conds[attr], now)
		if err != nil {
			return nil, fmt.Errorf("%s rules: %s: %w", kind, attr, err)
		}
		rules[attr] = pred
	}
	return rules, nil
}

func compileCondition(attr string, cond Condition, now time.Time) (walker.Predicate, error) {
	if len(cond) == 0 {
		return nil, fmt.Errorf("empty condition")
	}

	preds := make([]walker.Predicate, 0, len(cond))
	for _, op := range sortedKeys(cond) {
		var (
			p   walker.Predicate
			err error
		)
		switch classOf(attr) {
		case classString:
			p, err = stringOp(op, cond[op])
		case classTime:
			p, err = timeOp(op, cond[op], now)
		default:
			p, err = numberOp(attr, op, cond[op])
		}
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	if len(preds) == 1 {
		return preds[0], nil
	}
	return func(v any) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}, nil
}

func stringOp(op string, operand any) (walker.Predicate, error) {
	s, ok := operand.(string)
	if !ok {
		s = fmt.Sprint(operand)
	}

	switch op {
	case OpEq:
		return func(v any) bool { return asString(v) == s }, nil
	case OpNe:
		return func(v any) bool { return asString(v) != s }, nil
	case OpGlob:
		if !doublestar.ValidatePattern(s) {
			return nil, fmt.Errorf("invalid glob %q", s)
		}
		return func(v any) bool { return matchGlob(s, asString(v)) }, nil
	case OpRegex:
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %w", s, err)
		}
		return func(v any) bool { return re.MatchString(asString(v)) }, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q for a string attribute", op)
	}
}

// matchGlob matches slash-separated patterns. A pattern without a leading
// slash is matched against the path with its leading slash removed, so
// "**/*.tmp" matches files anywhere.
func matchGlob(pattern, path string) bool {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(pattern, "/") {
		path = strings.TrimPrefix(path, "/")
	}
	ok, _ := doublestar.Match(pattern, path)
	return ok
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

var numberOps = map[string]func(x, n uint64) bool{
	OpEq:  func(x, n uint64) bool { return x == n },
	OpNe:  func(x, n uint64) bool { return x != n },
	OpGt:  func(x, n uint64) bool { return x > n },
	OpGte: func(x, n uint64) bool { return x >= n },
	OpLt:  func(x, n uint64) bool { return x < n },
	OpLte: func(x, n uint64) bool { return x <= n },
}

func numberOp(attr, op string, operand any) (walker.Predicate, error) {
	cmp, ok := numberOps[op]
	if !ok {
		return nil, fmt.Errorf("unsupported operator %q for a numeric attribute", op)
	}
	n, err := parseNumber(attr, operand)
	if err != nil {
		return nil, err
	}

	return func(v any) bool {
		x, ok := asNumber(v)
		return ok && cmp(x, n)
	}, nil
}

// parseNumber reads a numeric operand. Mode operands given as strings are
// octal ("0644", "755").
func parseNumber(attr string, operand any) (uint64, error) {
	switch v := operand.(type) {
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative operand %d", v)
		}
		return uint64(v), nil
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative operand %d", v)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case uint32:
		return uint64(v), nil
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return 0, fmt.Errorf("operand %v is not a non-negative integer", v)
		}
		return uint64(v), nil
	case string:
		base := 0
		if attr == walker.AttrMode {
			base = 8
			v = strings.TrimPrefix(strings.TrimPrefix(v, "0o"), "0O")
		}
		n, err := strconv.ParseUint(strings.TrimSpace(v), base, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", v, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("operand %v (%T) is not a number", operand, operand)
	}
}

// asNumber widens an attribute value. Modes compare on their permission bits.
func asNumber(v any) (uint64, bool) {
	switch x := v.(type) {
	case int64:
		if x < 0 {
			return 0, false
		}
		return uint64(x), true
	case uint32:
		return uint64(x), true
	case uint64:
		return x, true
	case fs.FileMode:
		return uint64(x.Perm()), true
	default:
		return 0, false
	}
}

func timeOp(op string, operand any, now time.Time) (walker.Predicate, error) {
	at, err := parseTime(operand, now)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpBefore:
		return func(v any) bool {
			t, ok := v.(time.Time)
			return ok && t.Before(at)
		}, nil
	case OpAfter:
		return func(v any) bool {
			t, ok := v.(time.Time)
			return ok && t.After(at)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q for a time attribute", op)
	}
}

// parseTime accepts an RFC 3339 timestamp or an age such as "36h" or "7d",
// which is taken as that long before now.
func parseTime(operand any, now time.Time) (time.Time, error) {
	switch v := operand.(type) {
	case time.Time:
		return v, nil
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.DateOnly, v); err == nil {
			return t, nil
		}
		d, err := ParseAge(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339, YYYY-MM-DD or an age like 36h or 7d", v)
		}
		return now.Add(-d), nil
	default:
		return time.Time{}, fmt.Errorf("operand %v (%T) is not a time", operand, operand)
	}
}

// ParseAge parses a duration that may also be given in days, as in "7d".
func ParseAge(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(s)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
