package cleanup

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

type OSVersion struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Build int `json:"build,omitempty"`
}

func (v OSVersion) String() string {
	if v.Build > 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (v OSVersion) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// ParseOSVersion reads the leading "major.minor[.build]" of s; trailing
// text such as a kernel flavour is ignored.
func ParseOSVersion(s string) (OSVersion, error) {
	fields := strings.SplitN(strings.TrimSpace(s), ".", 3)
	var out OSVersion
	nums := []*int{&out.Major, &out.Minor, &out.Build}
	for i, f := range fields {
		end := 0
		for end < len(f) && f[end] >= '0' && f[end] <= '9' {
			end++
		}
		if end == 0 {
			if i < 2 {
				return OSVersion{}, fmt.Errorf("CLN_OS_VERSION: cannot parse %q", s)
			}
			break
		}
		n, err := strconv.Atoi(f[:end])
		if err != nil {
			return OSVersion{}, fmt.Errorf("CLN_OS_VERSION: cannot parse %q: %w", s, err)
		}
		*nums[i] = n
		if end < len(f) {
			break
		}
	}
	if len(fields) < 2 {
		return OSVersion{}, fmt.Errorf("CLN_OS_VERSION: cannot parse %q", s)
	}
	return out, nil
}

// Env is what predicates may inspect.
type Env struct {
	GOOS      string
	OSVersion OSVersion
}

// HostEnv describes the running machine.
func HostEnv() Env {
	return Env{GOOS: runtime.GOOS, OSVersion: hostOSVersion()}
}

// Predicate gates a ConditionalDelete rule.
type Predicate interface {
	Holds(env Env) bool
	String() string
}

type osAtLeast struct {
	major, minor int
}

// OSAtLeast holds when the host OS version is major.minor or newer.
func OSAtLeast(major, minor int) Predicate {
	return osAtLeast{major: major, minor: minor}
}

func (p osAtLeast) Holds(env Env) bool { return env.OSVersion.AtLeast(p.major, p.minor) }

func (p osAtLeast) String() string { return fmt.Sprintf("os >= %d.%d", p.major, p.minor) }
