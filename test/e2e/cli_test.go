package e2e

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wbsetup/internal/store"
)

func TestCLIInstallUpgradeUninstallFlow(t *testing.T) {
	home := t.TempDir()
	bin, env := buildCLI(t, home)
	cfgPath := filepath.Join(home, ".wbsetup", "config.toml")
	gameDir := filepath.Join(home, "games", "Oblivion")
	if err := os.MkdirAll(filepath.Join(gameDir, "Data"), 0o755); err != nil {
		t.Fatal(err)
	}

	release := writeRelease(t, map[string]string{
		"Mopy/Wrye Bash.exe":   "exe",
		"Mopy/bash/bush.py":    "print()",
		"Data/Docs/readme.txt": "docs",
	})
	runCLI(t, bin, env, "--config", cfgPath, "install", "Oblivion", "--root", gameDir, "--source", release)

	// A file dropped by an old release and the user's own plugin.
	stale := filepath.Join(gameDir, "Mopy", "Wrye Bash Launcher.pyw")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	plugin := filepath.Join(gameDir, "Data", "MyMod.esp")
	if err := os.WriteFile(plugin, []byte("mod"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := runCLI(t, bin, env, "--config", cfgPath, "upgrade", "Oblivion", "--source", release)
	assertContains(t, out, "upgraded Oblivion")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale launcher should be removed by upgrade, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(gameDir, "Mopy", "bash", "bush.py")); err != nil {
		t.Fatalf("upgrade should reinstall release files: %v", err)
	}

	out = runCLI(t, bin, env, "--config", cfgPath, "path", "get", "Oblivion")
	assertContains(t, out, gameDir)

	out = runCLI(t, bin, env, "--config", cfgPath, "uninstall", "Oblivion")
	assertContains(t, out, "uninstalled Oblivion")
	if _, err := os.Stat(filepath.Join(gameDir, "Mopy")); !os.IsNotExist(err) {
		t.Fatalf("Mopy should be pruned after uninstall, got %v", err)
	}
	if _, err := os.Stat(plugin); err != nil {
		t.Fatalf("user plugin must survive uninstall: %v", err)
	}

	out = runCLI(t, bin, env, "--config", cfgPath, "uninstall", "Oblivion")
	assertContains(t, out, "Oblivion was not installed")
}

func TestCLICopyFailureLeavesStoreUntouched(t *testing.T) {
	home := t.TempDir()
	bin, env := buildCLI(t, home)
	cfgPath := filepath.Join(home, ".wbsetup", "config.toml")
	gameDir := t.TempDir()
	release := writeRelease(t, map[string]string{"Mopy/Wrye Bash.exe": "exe"})

	out, code := runCLIExitCode(t, bin, env, map[string]string{"WBSETUP_TEST_FAIL_COPY": "1"},
		"--config", cfgPath, "install", "Skyrim", "--root", gameDir, "--source", release)
	if code != 3 {
		t.Fatalf("expected copy failure exit code 3, got %d\n%s", code, out)
	}
	assertContains(t, out, "INS_COPY")

	blob, err := os.ReadFile(store.NamespacePath(filepath.Join(home, ".wbsetup"), store.Primary))
	if err == nil && strings.Contains(string(blob), "Skyrim") {
		t.Fatalf("failed copy must not record an install root:\n%s", blob)
	}
}

func TestCLIUninstallWithoutRootExitCode(t *testing.T) {
	home := t.TempDir()
	bin, env := buildCLI(t, home)
	cfgPath := filepath.Join(home, ".wbsetup", "config.toml")

	runCLI(t, bin, env, "--config", cfgPath, "path", "set", "Fallout3", "python_version", "3.11")
	out, code := runCLIExitCode(t, bin, env, nil, "--config", cfgPath, "uninstall", "Fallout3")
	if code != 4 {
		t.Fatalf("expected resolution exit code 4, got %d\n%s", code, out)
	}
	assertContains(t, out, "INS_RESOLVE")
}

func TestCLIDoctorAndRules(t *testing.T) {
	home := t.TempDir()
	bin, env := buildCLI(t, home)
	cfgPath := filepath.Join(home, ".wbsetup", "config.toml")

	out := runCLI(t, bin, env, "--config", cfgPath, "doctor")
	assertContains(t, out, "healthy")

	out = runCLI(t, bin, env, "--config", cfgPath, "rules", "--since", "v306")
	assertContains(t, out, "v307")

	out = runCLIExpectFail(t, bin, env, "--config", cfgPath, "extra", "rm", "0")
	assertContains(t, out, "EXTRA_SLOT")
}
