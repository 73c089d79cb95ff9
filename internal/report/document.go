package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/fathom/internal/walker"
)

// Document is the machine-readable form of a Report.
type Document struct {
	ID             string      `json:"id" yaml:"id"`
	Root           string      `json:"root" yaml:"root"`
	Started        time.Time   `json:"started" yaml:"started"`
	DurationMS     int64       `json:"duration_ms" yaml:"duration_ms"`
	Partial        bool        `json:"partial,omitempty" yaml:"partial,omitempty"`
	Summary        Summary     `json:"summary" yaml:"summary"`
	Files          []EntryView `json:"files" yaml:"files"`
	Dirs           []EntryView `json:"dirs" yaml:"dirs"`
	BrokenSymlinks []string    `json:"broken_symlinks" yaml:"broken_symlinks"`
	Errors         []string    `json:"errors" yaml:"errors"`
}

// Summary holds bucket counts.
type Summary struct {
	Files          int `json:"files" yaml:"files"`
	Dirs           int `json:"dirs" yaml:"dirs"`
	BrokenSymlinks int `json:"broken_symlinks" yaml:"broken_symlinks"`
	Errors         int `json:"errors" yaml:"errors"`
}

// EntryView is the serialized form of a walker.Entry. BirthTime is nil where
// the filesystem does not record it.
type EntryView struct {
	Path       string     `json:"path" yaml:"path"`
	Target     string     `json:"target,omitempty" yaml:"target,omitempty"`
	Size       int64      `json:"size" yaml:"size"`
	Mode       string     `json:"mode" yaml:"mode"`
	UID        uint32     `json:"uid" yaml:"uid"`
	GID        uint32     `json:"gid" yaml:"gid"`
	Nlink      uint64     `json:"nlink" yaml:"nlink"`
	Dev        uint64     `json:"dev" yaml:"dev"`
	Ino        uint64     `json:"ino" yaml:"ino"`
	AccessTime time.Time  `json:"atime" yaml:"atime"`
	ModTime    time.Time  `json:"mtime" yaml:"mtime"`
	ChangeTime time.Time  `json:"ctime" yaml:"ctime"`
	BirthTime  *time.Time `json:"birthtime,omitempty" yaml:"birthtime,omitempty"`
}

func summarize(res *walker.Result) Summary {
	return Summary{
		Files:          len(res.Files),
		Dirs:           len(res.Dirs),
		BrokenSymlinks: len(res.BrokenSymlinks),
		Errors:         len(res.Errors),
	}
}

func viewOf(e walker.Entry) EntryView {
	v := EntryView{
		Path:       e.Path,
		Target:     e.TargetPath,
		Size:       e.Size,
		Mode:       e.Mode.String(),
		UID:        e.UID,
		GID:        e.GID,
		Nlink:      e.Nlink,
		Dev:        e.Dev,
		Ino:        e.Ino,
		AccessTime: e.AccessTime,
		ModTime:    e.ModTime,
		ChangeTime: e.ChangeTime,
	}
	if !e.BirthTime.IsZero() {
		birth := e.BirthTime
		v.BirthTime = &birth
	}
	return v
}

// NewDocument converts r to its serializable form. Empty buckets are
// rendered as empty lists, never null.
func NewDocument(r *Report) Document {
	res := r.Result
	doc := Document{
		ID:             r.ID.String(),
		Root:           r.Root,
		Started:        r.Started,
		DurationMS:     r.Duration.Milliseconds(),
		Partial:        r.Partial,
		Summary:        summarize(res),
		Files:          make([]EntryView, 0, len(res.Files)),
		Dirs:           make([]EntryView, 0, len(res.Dirs)),
		BrokenSymlinks: append([]string{}, res.BrokenSymlinks...),
		Errors:         make([]string, 0, len(res.Errors)),
	}
	for _, e := range res.Files {
		doc.Files = append(doc.Files, viewOf(e))
	}
	for _, e := range res.Dirs {
		doc.Dirs = append(doc.Dirs, viewOf(e))
	}
	for _, err := range res.Errors {
		doc.Errors = append(doc.Errors, err.Error())
	}
	return doc
}

func renderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(r)); err != nil {
		return fmt.Errorf("failed to encode json report: %w", err)
	}
	return nil
}

func renderYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(r)); err != nil {
		return fmt.Errorf("failed to encode yaml report: %w", err)
	}
	return enc.Close()
}
