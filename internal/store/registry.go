package store

import (
	"fmt"
	"strings"
)

// RegistryBase is the key every product subkey lives under.
const RegistryBase = `Software\Wrye Bash`

// RegistryView selects which side of the WOW64 registry redirector a
// namespace reads and writes.
type RegistryView int

const (
	View64 RegistryView = iota
	View32
)

func (v RegistryView) String() string {
	if v == View32 {
		return "32-bit"
	}
	return "64-bit"
}

// ParseHive accepts the short and long spellings of the two hives an
// installer may write to.
func ParseHive(hive string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(hive)) {
	case "", "HKLM", "HKEY_LOCAL_MACHINE":
		return "HKLM", nil
	case "HKCU", "HKEY_CURRENT_USER":
		return "HKCU", nil
	default:
		return "", fmt.Errorf("STORE_CONFIG: unsupported registry hive %q", hive)
	}
}

// ViewFor maps the conventional namespace names to their registry views.
func ViewFor(name string) RegistryView {
	if name == Fallback {
		return View32
	}
	return View64
}
