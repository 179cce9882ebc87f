package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wbsetup/internal/fsutil"
)

// DeletionError is one target that could not be removed. It never stops a
// cleanup run.
type DeletionError struct {
	Rule Rule
	Path string
	Err  error
}

func (e DeletionError) Error() string {
	return fmt.Sprintf("CLN_DELETE: %s (%s): %v", e.Path, e.Rule, e.Err)
}

func (e DeletionError) Unwrap() error { return e.Err }

type Report struct {
	Root     string          `json:"root"`
	Removed  []string        `json:"removed"`
	Missing  int             `json:"missing"`
	Skipped  []string        `json:"skipped,omitempty"`
	Failures []DeletionError `json:"-"`
}

func (r *Report) OK() bool { return len(r.Failures) == 0 }

// FailureMessages renders failures for output and audit fields.
func (r *Report) FailureMessages() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Error())
	}
	return out
}

// Apply runs every rule of catalog against root in order. Absent targets
// are counted, failures are collected, and processing always continues.
func Apply(root string, catalog Catalog, env Env) *Report {
	report := &Report{Root: root}
	for _, rule := range catalog {
		applyRule(report, root, rule, env)
	}
	return report
}

func applyRule(report *Report, root string, rule Rule, env Env) {
	if rule.Kind == ConditionalDelete && (rule.When == nil || !rule.When.Holds(env)) {
		report.Skipped = append(report.Skipped, rule.Target)
		return
	}
	if err := fsutil.ValidateRelPath(rule.Target); err != nil {
		report.fail(rule, rule.Target, err)
		return
	}
	target := filepath.Join(root, filepath.FromSlash(rule.Target))
	if err := fsutil.CheckParents(root, target); err != nil {
		report.fail(rule, rule.Target, err)
		return
	}

	switch rule.Kind {
	case FileDelete, ConditionalDelete:
		removed, err := fsutil.RemoveFile(target)
		report.record(rule, rule.Target, removed, err)
	case DirectoryRecursiveDelete:
		removed, err := fsutil.RemoveTree(target)
		report.record(rule, rule.Target, removed, err)
	case GlobDelete:
		applyGlob(report, root, target, rule)
	default:
		report.fail(rule, rule.Target, fmt.Errorf("unknown rule kind %q", rule.Kind))
	}
}

func applyGlob(report *Report, root, dir string, rule Rule) {
	info, err := os.Lstat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		report.Missing++
		return
	}
	if err != nil {
		report.fail(rule, rule.Target, err)
		return
	}
	if info.Mode()&os.ModeSymlink != 0 {
		report.fail(rule, rule.Target, fmt.Errorf("%w: %s", fsutil.ErrSymlinkParent, dir))
		return
	}
	if !info.IsDir() {
		report.fail(rule, rule.Target, fmt.Errorf("%w: %s is not a directory", fsutil.ErrKindMismatch, dir))
		return
	}

	var matches []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.fail(rule, relSlash(root, path), err)
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && !rule.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(rule.Pattern, d.Name()); ok {
			matches = append(matches, path)
		}
		return nil
	})
	if walkErr != nil {
		report.fail(rule, rule.Target, walkErr)
	}
	if len(matches) == 0 {
		report.Missing++
		return
	}
	sort.Strings(matches)
	for _, path := range matches {
		removed, err := fsutil.RemoveFile(path)
		report.record(rule, relSlash(root, path), removed, err)
	}
}

func (r *Report) record(rule Rule, rel string, removed bool, err error) {
	switch {
	case err != nil:
		r.fail(rule, rel, err)
	case removed:
		r.Removed = append(r.Removed, rel)
	default:
		r.Missing++
	}
}

func (r *Report) fail(rule Rule, rel string, err error) {
	r.Failures = append(r.Failures, DeletionError{Rule: rule, Path: rel, Err: err})
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// PruneEmpty removes the listed directories under root if they are empty,
// deepest first, and returns the ones removed. Non-empty, absent and
// symlinked directories are left alone.
func PruneEmpty(root string, dirs []string) []string {
	ordered := append([]string(nil), dirs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		di := strings.Count(ordered[i], "/")
		dj := strings.Count(ordered[j], "/")
		if di != dj {
			return di > dj
		}
		return ordered[i] > ordered[j]
	})
	var pruned []string
	for _, rel := range ordered {
		if fsutil.ValidateRelPath(rel) != nil {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		if fsutil.CheckParents(root, path) != nil {
			continue
		}
		if fsutil.RemoveEmptyDir(path) {
			pruned = append(pruned, rel)
		}
	}
	return pruned
}
