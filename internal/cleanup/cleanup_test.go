package cleanup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"testing"

	"wbsetup/internal/fsutil"
)

var modernWindows = Env{GOOS: "windows", OSVersion: OSVersion{Major: 10, Minor: 0, Build: 19045}}

func mkfile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(rel), 0o644); err != nil {
		t.Fatal(err)
	}
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			rel += "/"
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(out)
	return out
}

func TestBuiltinCatalogIsValid(t *testing.T) {
	c := Builtin()
	if err := c.Validate(); err != nil {
		t.Fatalf("builtin catalog invalid: %v", err)
	}
	if c.Latest() != "v307" {
		t.Fatalf("expected latest release v307, got %s", c.Latest())
	}
	if c[0].IntroducedIn != "v291" {
		t.Fatalf("expected first release v291, got %s", c[0].IntroducedIn)
	}
}

func TestBuiltinRulesEachRemoveTheirTarget(t *testing.T) {
	for i, rule := range Builtin() {
		rule := rule
		t.Run(rule.String(), func(t *testing.T) {
			root := t.TempDir()
			switch rule.Kind {
			case FileDelete, ConditionalDelete:
				mkfile(t, root, rule.Target)
			case DirectoryRecursiveDelete:
				mkfile(t, root, rule.Target+"/nested/leftover.bin")
			case GlobDelete:
				mkfile(t, root, rule.Target+"/"+strings.ReplaceAll(rule.Pattern, "*", "x"))
			}
			report := Apply(root, Catalog{rule}, modernWindows)
			if !report.OK() {
				t.Fatalf("rule %d failed: %v", i, report.FailureMessages())
			}
			if len(report.Removed) == 0 {
				t.Fatalf("rule %d removed nothing", i)
			}
		})
	}
}

func TestValidateRejectsBadRules(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		code    string
	}{
		{"bad tag", Catalog{{IntroducedIn: "291", Target: "Mopy/a.py", Kind: FileDelete}}, "CLN_RULE_TAG"},
		{"unknown kind", Catalog{{IntroducedIn: "v291", Target: "Mopy/a.py", Kind: "shred"}}, "CLN_RULE_KIND"},
		{"absolute target", Catalog{{IntroducedIn: "v291", Target: "/etc/passwd", Kind: FileDelete}}, "CLN_RULE_TARGET"},
		{"escaping target", Catalog{{IntroducedIn: "v291", Target: "../Oblivion.ini", Kind: FileDelete}}, "CLN_RULE_TARGET"},
		{"glob without pattern", Catalog{{IntroducedIn: "v291", Target: "Mopy", Kind: GlobDelete}}, "CLN_RULE_PATTERN"},
		{"glob with separator", Catalog{{IntroducedIn: "v291", Target: "Mopy", Kind: GlobDelete, Pattern: "bash/*.pyc"}}, "CLN_RULE_PATTERN"},
		{"conditional without predicate", Catalog{{IntroducedIn: "v291", Target: "Mopy/a.dll", Kind: ConditionalDelete}}, "CLN_RULE_PREDICATE"},
		{"predicate on file rule", Catalog{{IntroducedIn: "v291", Target: "Mopy/a.dll", Kind: FileDelete, When: OSAtLeast(10, 0)}}, "CLN_RULE_PREDICATE"},
		{"predicate on glob rule", Catalog{{IntroducedIn: "v291", Target: "Mopy", Kind: GlobDelete, Pattern: "*.dll", When: OSAtLeast(6, 2)}}, "CLN_RULE_PREDICATE"},
		{"older than predecessor", Catalog{
			{IntroducedIn: "v300", Target: "Mopy/a.py", Kind: FileDelete},
			{IntroducedIn: "v294", Target: "Mopy/b.py", Kind: FileDelete},
		}, "CLN_RULE_ORDER"},
		{"duplicate", Catalog{
			{IntroducedIn: "v300", Target: "Mopy/a.py", Kind: FileDelete},
			{IntroducedIn: "v301", Target: "Mopy/a.py", Kind: FileDelete},
		}, "CLN_RULE_DUPLICATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestSubReleaseTagsSortBetweenReleases(t *testing.T) {
	c := Catalog{
		{IntroducedIn: "v304", Target: "a", Kind: FileDelete},
		{IntroducedIn: "v304.4", Target: "b", Kind: FileDelete},
		{IntroducedIn: "v305", Target: "c", Kind: FileDelete},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid ordering: %v", err)
	}
}

func TestAppendRequiresNewerRelease(t *testing.T) {
	base := Builtin()
	if _, err := base.Append(Rule{IntroducedIn: "v307", Target: "Mopy/late.py", Kind: FileDelete}); err == nil || !strings.HasPrefix(err.Error(), "CLN_RULE_APPEND:") {
		t.Fatalf("expected CLN_RULE_APPEND, got %v", err)
	}
	next, err := base.Append(Rule{IntroducedIn: "v308", Target: "Mopy/late.py", Kind: FileDelete})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if len(next) != len(base)+1 || next.Latest() != "v308" {
		t.Fatalf("unexpected appended catalog tail %s", next.Latest())
	}
	if len(Builtin()) != len(base) {
		t.Fatalf("append must not modify the builtin catalog")
	}
}

func TestSince(t *testing.T) {
	c := Builtin()
	later, err := c.Since("v306")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range later {
		if r.IntroducedIn != "v307" {
			t.Fatalf("unexpected rule %s after v306", r)
		}
	}
	all, err := c.Since("")
	if err != nil || len(all) != len(c) {
		t.Fatalf("empty tag should return everything, got %d %v", len(all), err)
	}
	if _, err := c.Since("latest"); err == nil {
		t.Fatalf("expected invalid tag error")
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"Mopy/Wrye Bash Launcher.pyw",
		"Mopy/bash/bosh.pyc",
		"Mopy/bash/basher/__init__.pyc",
		"Mopy/bash/compiled/Microsoft.VC80.CRT/msvcr80.dll",
		"Mopy/bash/db/Oblivion_Names.csv",
		"Mopy/bash/compiled/Microsoft.VC90.CRT/msvcr90.dll",
		"Mopy/bash.ini",
		"Data/Bash Patches/Oblivion_Names.csv",
		"Data/Oblivion.esm",
	} {
		mkfile(t, root, rel)
	}

	first := Apply(root, Builtin(), modernWindows)
	if !first.OK() {
		t.Fatalf("first run failed: %v", first.FailureMessages())
	}
	afterFirst := listTree(t, root)

	second := Apply(root, Builtin(), modernWindows)
	if !second.OK() {
		t.Fatalf("second run failed: %v", second.FailureMessages())
	}
	if len(second.Removed) != 0 {
		t.Fatalf("second run removed %v", second.Removed)
	}
	if !reflect.DeepEqual(afterFirst, listTree(t, root)) {
		t.Fatalf("state changed on second run")
	}
	for _, keep := range []string{"Mopy/bash.ini", "Data/Oblivion.esm"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(keep))); err != nil {
			t.Fatalf("%s must survive cleanup: %v", keep, err)
		}
	}
}

func TestCumulativeCleanupFromAnyRelease(t *testing.T) {
	catalog := Catalog{
		{IntroducedIn: "v1", Target: "app/v1-only.dat", Kind: FileDelete},
		{IntroducedIn: "v2", Target: "app/legacy", Kind: DirectoryRecursiveDelete},
		{IntroducedIn: "v3", Target: "app", Kind: GlobDelete, Pattern: "*.v2cache", Recursive: true},
	}
	current := []string{"app/main.exe", "app/lib/core.dll"}

	starts := map[string][]string{
		"from v1": {"app/v1-only.dat"},
		"from v2": {"app/v1-only.dat", "app/legacy/old.cfg", "app/lib/a.v2cache"},
		"fresh":   {},
	}
	for name, leftovers := range starts {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			for _, rel := range append(append([]string(nil), current...), leftovers...) {
				mkfile(t, root, rel)
			}
			report := Apply(root, catalog, Env{})
			if !report.OK() {
				t.Fatalf("cleanup failed: %v", report.FailureMessages())
			}
			want := []string{"app/", "app/lib/", "app/lib/core.dll", "app/main.exe"}
			if got := listTree(t, root); !reflect.DeepEqual(got, want) {
				t.Fatalf("tree = %v, want %v", got, want)
			}
		})
	}
}

func TestApplyOnEmptyRootCountsMissing(t *testing.T) {
	root := t.TempDir()
	report := Apply(root, Builtin(), modernWindows)
	if !report.OK() {
		t.Fatalf("unexpected failures: %v", report.FailureMessages())
	}
	if len(report.Removed) != 0 {
		t.Fatalf("nothing to remove, got %v", report.Removed)
	}
	if report.Missing != len(Builtin()) {
		t.Fatalf("expected %d missing, got %d", len(Builtin()), report.Missing)
	}
}

func TestConditionalDeleteSkipsWhenPredicateFalse(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "Mopy/bash/compiled/taskbar.dll")
	rule := Rule{IntroducedIn: "v304.4", Target: "Mopy/bash/compiled/taskbar.dll", Kind: ConditionalDelete, When: OSAtLeast(6, 2)}

	win7 := Env{GOOS: "windows", OSVersion: OSVersion{Major: 6, Minor: 1}}
	report := Apply(root, Catalog{rule}, win7)
	if len(report.Skipped) != 1 || len(report.Removed) != 0 {
		t.Fatalf("expected skip on 6.1, got %+v", report)
	}
	if _, err := os.Stat(filepath.Join(root, "Mopy", "bash", "compiled", "taskbar.dll")); err != nil {
		t.Fatalf("file must survive a false predicate: %v", err)
	}

	report = Apply(root, Catalog{rule}, Env{GOOS: "windows", OSVersion: OSVersion{Major: 6, Minor: 3}})
	if len(report.Removed) != 1 {
		t.Fatalf("expected removal on 6.3, got %+v", report)
	}
}

func TestGlobDeleteRecursion(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"Mopy/bash/a.pyc", "Mopy/bash/gui/b.pyc", "Mopy/bash/gui/b.py"} {
		mkfile(t, root, rel)
	}
	flat := Rule{IntroducedIn: "v1", Target: "Mopy/bash", Kind: GlobDelete, Pattern: "*.pyc"}
	report := Apply(root, Catalog{flat}, Env{})
	if !reflect.DeepEqual(report.Removed, []string{"Mopy/bash/a.pyc"}) {
		t.Fatalf("flat glob removed %v", report.Removed)
	}

	deep := flat
	deep.Recursive = true
	report = Apply(root, Catalog{deep}, Env{})
	if !reflect.DeepEqual(report.Removed, []string{"Mopy/bash/gui/b.pyc"}) {
		t.Fatalf("recursive glob removed %v", report.Removed)
	}
	if _, err := os.Stat(filepath.Join(root, "Mopy", "bash", "gui", "b.py")); err != nil {
		t.Fatalf("non-matching file must survive: %v", err)
	}
}

func TestApplyContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "Mopy/Apps/readme.txt")
	mkfile(t, root, "Mopy/Wrye Bash.exe")
	catalog := Catalog{
		{IntroducedIn: "v1", Target: "Mopy/Apps", Kind: FileDelete},
		{IntroducedIn: "v2", Target: "Mopy/Wrye Bash.exe", Kind: FileDelete},
	}
	report := Apply(root, catalog, Env{})
	if len(report.Failures) != 1 {
		t.Fatalf("expected one failure, got %v", report.FailureMessages())
	}
	if !errors.Is(report.Failures[0], fsutil.ErrKindMismatch) {
		t.Fatalf("expected kind mismatch, got %v", report.Failures[0])
	}
	if !strings.HasPrefix(report.Failures[0].Error(), "CLN_DELETE:") {
		t.Fatalf("expected CLN_DELETE code, got %q", report.Failures[0].Error())
	}
	if !reflect.DeepEqual(report.Removed, []string{"Mopy/Wrye Bash.exe"}) {
		t.Fatalf("later rule must still run, removed %v", report.Removed)
	}
}

func TestApplyRefusesSymlinkedParents(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	mkfile(t, outside, "bash/bosh.py")
	if err := os.Symlink(outside, filepath.Join(root, "Mopy")); err != nil {
		t.Fatal(err)
	}
	report := Apply(root, Catalog{
		{IntroducedIn: "v1", Target: "Mopy/bash/bosh.py", Kind: FileDelete},
		{IntroducedIn: "v2", Target: "Mopy/bash", Kind: GlobDelete, Pattern: "*.py"},
	}, Env{})
	if len(report.Failures) != 2 {
		t.Fatalf("expected both targets refused, got %v", report.FailureMessages())
	}
	for _, f := range report.Failures {
		if !errors.Is(f, fsutil.ErrSymlinkParent) {
			t.Fatalf("expected symlink refusal, got %v", f)
		}
	}
	if _, err := os.Stat(filepath.Join(outside, "bash", "bosh.py")); err != nil {
		t.Fatalf("file outside the root must survive: %v", err)
	}
}

func TestPruneEmpty(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"Mopy/bash/compiled", "Mopy/Docs", "Data/Docs"} {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	mkfile(t, root, "Data/Docs/user notes.txt")

	pruned := PruneEmpty(root, []string{"Mopy", "Mopy/bash", "Mopy/bash/compiled", "Mopy/Docs", "Data/Docs", "Mopy/Apps"})
	sort.Strings(pruned)
	want := []string{"Mopy", "Mopy/Docs", "Mopy/bash", "Mopy/bash/compiled"}
	if !reflect.DeepEqual(pruned, want) {
		t.Fatalf("pruned = %v, want %v", pruned, want)
	}
	if _, err := os.Stat(filepath.Join(root, "Data", "Docs")); err != nil {
		t.Fatalf("non-empty dir must survive: %v", err)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	body := `
[[rules]]
introduced_in = "v308"
target = "Mopy/bash/compiled/old.dll"
kind = "conditional"
os_at_least = "10.0"

[[rules]]
introduced_in = "v308"
target = "Mopy/bash"
kind = "glob"
pattern = "*.bak"
recursive = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	overlay, err := LoadOverlay(path)
	if err != nil {
		t.Fatalf("load overlay failed: %v", err)
	}
	if len(overlay) != 2 || overlay[0].When == nil || !overlay[1].Recursive {
		t.Fatalf("unexpected overlay %+v", overlay)
	}
	if overlay[0].When.String() != "os >= 10.0" {
		t.Fatalf("unexpected predicate %s", overlay[0].When)
	}
	merged, err := Builtin().Append(overlay...)
	if err != nil {
		t.Fatalf("append overlay failed: %v", err)
	}
	if merged.Latest() != "v308" {
		t.Fatalf("unexpected tail %s", merged.Latest())
	}

	if err := os.WriteFile(path, []byte("[[rules]]\nintroduced_in = \"v308\"\ntarget = \"x\"\nkind = \"melt\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOverlay(path); err == nil || !strings.Contains(err.Error(), "CLN_RULE_KIND") {
		t.Fatalf("expected kind error, got %v", err)
	}

	gated := "[[rules]]\nintroduced_in = \"v308\"\ntarget = \"Mopy/x.dll\"\nkind = \"file\"\nos_at_least = \"10.0\"\n"
	if err := os.WriteFile(path, []byte(gated), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOverlay(path); err == nil || !strings.Contains(err.Error(), "CLN_RULE_PREDICATE") {
		t.Fatalf("expected os_at_least on a file rule to be rejected, got %v", err)
	}
}

func TestBeforeExcludesTargetRelease(t *testing.T) {
	catalog := Builtin()
	stale := catalog.Before("v307")
	if len(stale) == 0 || len(stale) >= len(catalog) {
		t.Fatalf("unexpected stale rule count %d of %d", len(stale), len(catalog))
	}
	for _, r := range stale {
		if r.IntroducedIn == "v307" {
			t.Fatalf("rule %s belongs to the target release", r)
		}
	}
	if got := catalog.Before("v304.4"); got[len(got)-1].IntroducedIn != "v304" {
		t.Fatalf("expected v304 tail before v304.4, got %s", got[len(got)-1])
	}
	if got := catalog.Before(""); len(got) != len(catalog) {
		t.Fatalf("empty tag should return every rule")
	}
	if got := catalog.Before("v291"); len(got) != 0 {
		t.Fatalf("nothing precedes the first release, got %d rules", len(got))
	}
}

func TestParseOSVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    OSVersion
		wantErr bool
	}{
		{"10.0", OSVersion{Major: 10}, false},
		{"6.1.7601", OSVersion{Major: 6, Minor: 1, Build: 7601}, false},
		{"6.8.0-45-generic", OSVersion{Major: 6, Minor: 8}, false},
		{"6.18.44-fc", OSVersion{Major: 6, Minor: 18, Build: 44}, false},
		{"10", OSVersion{}, true},
		{"x.1", OSVersion{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOSVersion(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOSVersion(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseOSVersion(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
	if !(OSVersion{Major: 10}).AtLeast(6, 2) || (OSVersion{Major: 6, Minor: 1}).AtLeast(6, 2) {
		t.Fatalf("unexpected AtLeast results")
	}
}
