package game

import (
	"context"
	"fmt"
	"strings"
)

// RegistryChooser picks a product's install root from the game's own
// registry entries. The lookup is overridable in tests.
type RegistryChooser struct {
	lookup func(hive, path, value string) (string, bool)
}

func NewRegistryChooser() *RegistryChooser {
	return &RegistryChooser{lookup: readRegistryString}
}

func (c *RegistryChooser) ChooseDir(ctx context.Context, product string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	g, ok := Lookup(product)
	if !ok {
		return "", fmt.Errorf("GAME_UNKNOWN: %q is not a known game", product)
	}
	for _, candidate := range g.RegistryCandidates() {
		hive, path, _ := strings.Cut(candidate, `\`)
		dir, ok := c.lookup(hive, path, g.RegistryValue)
		if !ok {
			continue
		}
		if g.Detect(dir) {
			return dir, nil
		}
	}
	return "", fmt.Errorf("GAME_NOT_DETECTED: no registered %s directory contains %s", g.DisplayName, g.DetectFile)
}
