package display

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/harrison/fathom/internal/walker"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestDisplayWarning(t *testing.T) {
	tests := []struct {
		name    string
		warning Warning
		want    []string
		notWant []string
	}{
		{
			name:    "title only",
			warning: Warning{Title: "Something odd"},
			want:    []string{"Warning: Something odd\n"},
			notWant: []string{"Suggestion:", "1."},
		},
		{
			name:    "with message",
			warning: Warning{Title: "T", Message: "details here"},
			want:    []string{"    details here\n"},
		},
		{
			name:    "with items",
			warning: Warning{Title: "T", Items: []string{"/a", "/b"}},
			want:    []string{"      1. /a\n", "      2. /b\n"},
			notWant: []string{"more"},
		},
		{
			name:    "with suggestion",
			warning: Warning{Title: "T", Suggestion: "fix it"},
			want:    []string{"    Suggestion:\n    fix it\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.warning.Display(&buf)
			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestDisplayWarning_TruncatesLongLists(t *testing.T) {
	items := make([]string, MaxListed+3)
	for i := range items {
		items[i] = fmt.Sprintf("/p%d", i)
	}
	var buf bytes.Buffer
	Warning{Title: "many", Items: items}.Display(&buf)
	out := buf.String()

	if !strings.Contains(out, fmt.Sprintf("%d. /p%d", MaxListed, MaxListed-1)) {
		t.Errorf("expected last listed item in output:\n%s", out)
	}
	if strings.Contains(out, fmt.Sprintf("/p%d\n", MaxListed)) {
		t.Errorf("item past the limit should not be listed:\n%s", out)
	}
	if !strings.Contains(out, "... and 3 more") {
		t.Errorf("expected overflow summary:\n%s", out)
	}
}

func TestWarnBrokenSymlinks(t *testing.T) {
	if _, ok := WarnBrokenSymlinks(nil); ok {
		t.Error("expected no warning for no broken links")
	}

	w, ok := WarnBrokenSymlinks([]string{"/x"})
	if !ok {
		t.Fatal("expected a warning")
	}
	if w.Title != "1 broken symlink" {
		t.Errorf("Title = %q", w.Title)
	}

	w, _ = WarnBrokenSymlinks([]string{"/x", "/y"})
	if w.Title != "2 broken symlinks" {
		t.Errorf("Title = %q", w.Title)
	}
	if len(w.Items) != 2 {
		t.Errorf("Items = %v", w.Items)
	}
}

func TestWarnWalkErrors(t *testing.T) {
	if _, ok := WarnWalkErrors(nil); ok {
		t.Error("expected no warning for no errors")
	}

	errs := []error{
		&walker.DirectoryReadError{Path: "/locked", Err: os.ErrPermission},
		errors.New("boom"),
	}
	w, ok := WarnWalkErrors(errs)
	if !ok {
		t.Fatal("expected a warning")
	}
	if w.Title != "2 errors during walk" {
		t.Errorf("Title = %q", w.Title)
	}
	if !strings.Contains(w.Items[0], "/locked") {
		t.Errorf("Items[0] = %q, want the failing path", w.Items[0])
	}
	if w.Items[1] != "boom" {
		t.Errorf("Items[1] = %q", w.Items[1])
	}
}

func TestWarnPartial(t *testing.T) {
	w := WarnPartial(context.DeadlineExceeded)
	if w.Message != context.DeadlineExceeded.Error() {
		t.Errorf("Message = %q", w.Message)
	}
	if WarnPartial(nil).Message == "" {
		t.Error("expected a default message")
	}
}

func TestDisplayResult(t *testing.T) {
	var buf bytes.Buffer
	DisplayResult(&buf, nil)
	DisplayResult(&buf, &walker.Result{})
	if buf.Len() != 0 {
		t.Errorf("expected no output for a clean result, got %q", buf.String())
	}

	DisplayResult(&buf, &walker.Result{
		BrokenSymlinks: []string{"/dangling"},
		Errors:         []error{errors.New("read failed")},
	})
	out := buf.String()
	for _, want := range []string{"1 broken symlink", "/dangling", "1 error during walk", "read failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
