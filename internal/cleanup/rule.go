// Package cleanup removes files left in a product's install root by every
// historical release. Rules are declared in release order, never edited once
// published, and safe to run any number of times.
package cleanup

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"wbsetup/internal/fsutil"
)

type Kind string

const (
	FileDelete               Kind = "file"
	DirectoryRecursiveDelete Kind = "dir"
	GlobDelete               Kind = "glob"
	ConditionalDelete        Kind = "conditional"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case FileDelete:
		return FileDelete, nil
	case DirectoryRecursiveDelete:
		return DirectoryRecursiveDelete, nil
	case GlobDelete:
		return GlobDelete, nil
	case ConditionalDelete:
		return ConditionalDelete, nil
	default:
		return "", fmt.Errorf("CLN_RULE_KIND: unknown rule kind %q", s)
	}
}

// Rule removes Target, relative to the install root and slash separated.
// GlobDelete treats Target as a directory and removes the files below it
// whose base name matches Pattern. ConditionalDelete removes the file at
// Target only while When holds.
type Rule struct {
	IntroducedIn string
	Target       string
	Kind         Kind
	Pattern      string
	Recursive    bool
	When         Predicate
}

func (r Rule) String() string {
	switch r.Kind {
	case GlobDelete:
		suffix := ""
		if r.Recursive {
			suffix = " (recursive)"
		}
		return fmt.Sprintf("%s %s %s/%s%s", r.IntroducedIn, r.Kind, r.Target, r.Pattern, suffix)
	case ConditionalDelete:
		return fmt.Sprintf("%s %s %s if %s", r.IntroducedIn, r.Kind, r.Target, r.When)
	default:
		return fmt.Sprintf("%s %s %s", r.IntroducedIn, r.Kind, r.Target)
	}
}

func (r Rule) validate() error {
	if !semver.IsValid(r.IntroducedIn) {
		return fmt.Errorf("CLN_RULE_TAG: invalid release tag %q", r.IntroducedIn)
	}
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if err := fsutil.ValidateRelPath(r.Target); err != nil {
		return fmt.Errorf("CLN_RULE_TARGET: %s: %w", r.Target, err)
	}
	switch r.Kind {
	case GlobDelete:
		if r.Pattern == "" || strings.ContainsAny(r.Pattern, `/\`) {
			return fmt.Errorf("CLN_RULE_PATTERN: glob pattern %q must be a base name pattern", r.Pattern)
		}
		if _, err := filepath.Match(r.Pattern, ""); err != nil {
			return fmt.Errorf("CLN_RULE_PATTERN: %q: %w", r.Pattern, err)
		}
	}
	switch {
	case r.Kind == ConditionalDelete && r.When == nil:
		return fmt.Errorf("CLN_RULE_PREDICATE: conditional rule for %s has no predicate", r.Target)
	case r.Kind != ConditionalDelete && r.When != nil:
		return fmt.Errorf("CLN_RULE_PREDICATE: %s rule for %s cannot carry a predicate; use kind %q", r.Kind, r.Target, ConditionalDelete)
	}
	return nil
}

// Catalog is an ordered rule list, oldest release first.
type Catalog []Rule

// Validate checks every rule and that release tags never decrease.
func (c Catalog) Validate() error {
	seen := map[string]struct{}{}
	for i, r := range c {
		if err := r.validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		if i > 0 && semver.Compare(c[i-1].IntroducedIn, r.IntroducedIn) > 0 {
			return fmt.Errorf("CLN_RULE_ORDER: rule %d (%s) is older than its predecessor (%s)", i, r.IntroducedIn, c[i-1].IntroducedIn)
		}
		id := string(r.Kind) + "|" + r.Target + "|" + r.Pattern
		if _, dup := seen[id]; dup {
			return fmt.Errorf("CLN_RULE_DUPLICATE: rule %d repeats %s", i, r)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Latest returns the newest release tag in the catalog.
func (c Catalog) Latest() string {
	if len(c) == 0 {
		return ""
	}
	return c[len(c)-1].IntroducedIn
}

// Append returns a catalog with rules added after the current tail. Added
// rules must belong to a release newer than any already published.
func (c Catalog) Append(rules ...Rule) (Catalog, error) {
	if len(rules) == 0 {
		return c, nil
	}
	if tail := c.Latest(); tail != "" && semver.Compare(rules[0].IntroducedIn, tail) <= 0 {
		return nil, fmt.Errorf("CLN_RULE_APPEND: %s does not sort after published release %s", rules[0].IntroducedIn, tail)
	}
	out := make(Catalog, 0, len(c)+len(rules))
	out = append(out, c...)
	out = append(out, rules...)
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Before returns the rules introduced strictly before tag. Rules tagged with
// tag itself describe that release's own files. An empty tag returns all.
func (c Catalog) Before(tag string) Catalog {
	if tag == "" {
		return append(Catalog(nil), c...)
	}
	var out Catalog
	for _, r := range c {
		if semver.Compare(r.IntroducedIn, tag) < 0 {
			out = append(out, r)
		}
	}
	return out
}

// Since returns the rules introduced after tag. An empty tag returns all.
func (c Catalog) Since(tag string) (Catalog, error) {
	if tag == "" {
		return append(Catalog(nil), c...), nil
	}
	if !semver.IsValid(tag) {
		return nil, fmt.Errorf("CLN_RULE_TAG: invalid release tag %q", tag)
	}
	var out Catalog
	for _, r := range c {
		if semver.Compare(r.IntroducedIn, tag) > 0 {
			out = append(out, r)
		}
	}
	return out, nil
}
