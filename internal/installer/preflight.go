package installer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-ps"

	"wbsetup/internal/game"
)

// LauncherExecutable is the Wrye Bash executable itself.
const LauncherExecutable = "Wrye Bash.exe"

type Process struct {
	PID        int
	Executable string
}

// ProcessLister reports the processes running on the machine.
type ProcessLister func() ([]Process, error)

func RunningProcesses() ([]Process, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		out = append(out, Process{PID: p.Pid(), Executable: p.Executable()})
	}
	return out, nil
}

// WatchedExecutables lists the executables that lock files under a
// product's install root while running.
func WatchedExecutables(product string) []string {
	names := []string{LauncherExecutable}
	if g, ok := game.Lookup(product); ok && g.Executable != "" {
		names = append(names, g.Executable)
	}
	return names
}

// preflight returns warnings for running processes that may hold files
// cleanup is about to remove. It never fails an operation.
func (s *Service) preflight(product string) []string {
	if s.Processes == nil {
		return nil
	}
	procs, err := s.Processes()
	if err != nil {
		return []string{fmt.Sprintf("PRE_PROCESS_LIST: cannot list running processes: %v", err)}
	}
	watched := map[string]struct{}{}
	for _, name := range WatchedExecutables(product) {
		watched[strings.ToLower(name)] = struct{}{}
	}
	var warnings []string
	for _, p := range procs {
		base := strings.ToLower(filepath.Base(p.Executable))
		if _, ok := watched[base]; ok {
			warnings = append(warnings, fmt.Sprintf("PRE_PROCESS_RUNNING: %s (pid %d) is running; files it holds may not be removed", p.Executable, p.PID))
		}
	}
	sort.Strings(warnings)
	return warnings
}
