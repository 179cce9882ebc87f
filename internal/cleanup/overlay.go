package cleanup

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type overlayFile struct {
	Rules []overlayRule `toml:"rules"`
}

type overlayRule struct {
	IntroducedIn string `toml:"introduced_in"`
	Target       string `toml:"target"`
	Kind         string `toml:"kind"`
	Pattern      string `toml:"pattern,omitempty"`
	Recursive    bool   `toml:"recursive,omitempty"`
	OSAtLeast    string `toml:"os_at_least,omitempty"`
}

// LoadOverlay reads rules published after the builtin catalog from a TOML
// file of [[rules]] tables. The rules are validated on their own; ordering
// against an existing catalog is checked by Catalog.Append.
func LoadOverlay(path string) (Catalog, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("CLN_OVERLAY_READ: %w", err)
	}
	var f overlayFile
	if err := toml.Unmarshal(blob, &f); err != nil {
		return nil, fmt.Errorf("CLN_OVERLAY_PARSE: %s: %w", path, err)
	}
	out := make(Catalog, 0, len(f.Rules))
	for i, r := range f.Rules {
		kind, err := ParseKind(r.Kind)
		if err != nil {
			return nil, fmt.Errorf("overlay rule %d: %w", i, err)
		}
		rule := Rule{
			IntroducedIn: r.IntroducedIn,
			Target:       r.Target,
			Kind:         kind,
			Pattern:      r.Pattern,
			Recursive:    r.Recursive,
		}
		if r.OSAtLeast != "" {
			v, err := ParseOSVersion(r.OSAtLeast)
			if err != nil {
				return nil, fmt.Errorf("overlay rule %d: %w", i, err)
			}
			rule.When = OSAtLeast(v.Major, v.Minor)
		}
		out = append(out, rule)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("CLN_OVERLAY_INVALID: %w", err)
	}
	return out, nil
}
