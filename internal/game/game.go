// Package game lists the products Wrye Bash can be installed for and how
// each one's game directory is recognized.
package game

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExtraProduct is the reserved product id that records auxiliary install
// locations not tied to a game.
const ExtraProduct = "Extra"

type Game struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	// RegistryKey is relative to Software\ in the game publisher's hive.
	RegistryKey   string `json:"registryKey"`
	RegistryValue string `json:"registryValue"`
	// DetectFile is relative to the game directory, slash separated.
	DetectFile string `json:"detectFile"`
	Executable string `json:"executable,omitempty"`
}

var catalog = []Game{
	{ID: "Oblivion", DisplayName: "Oblivion", RegistryKey: `Bethesda Softworks\Oblivion`, RegistryValue: "Installed Path", DetectFile: "Data/Oblivion.esm", Executable: "Oblivion.exe"},
	{ID: "Nehrim", DisplayName: "Nehrim", RegistryKey: `Bethesda Softworks\Oblivion`, RegistryValue: "Installed Path", DetectFile: "Data/Nehrim.esm", Executable: "Oblivion.exe"},
	{ID: "Skyrim", DisplayName: "Skyrim", RegistryKey: `Bethesda Softworks\Skyrim`, RegistryValue: "Installed Path", DetectFile: "SkyrimLauncher.exe", Executable: "TESV.exe"},
	{ID: "Enderal", DisplayName: "Enderal", RegistryKey: `SureAI\Enderal`, RegistryValue: "Install_Path", DetectFile: "Enderal Launcher.exe", Executable: "TESV.exe"},
	{ID: "Skyrim Special Edition", DisplayName: "Skyrim Special Edition", RegistryKey: `Bethesda Softworks\Skyrim Special Edition`, RegistryValue: "Installed Path", DetectFile: "SkyrimSE.exe", Executable: "SkyrimSE.exe"},
	{ID: "Skyrim VR", DisplayName: "Skyrim VR", RegistryKey: `Bethesda Softworks\Skyrim VR`, RegistryValue: "Installed Path", DetectFile: "SkyrimVR.exe", Executable: "SkyrimVR.exe"},
	{ID: "Fallout3", DisplayName: "Fallout 3", RegistryKey: `Bethesda Softworks\Fallout3`, RegistryValue: "Installed Path", DetectFile: "Fallout3.exe", Executable: "Fallout3.exe"},
	{ID: "FalloutNV", DisplayName: "Fallout New Vegas", RegistryKey: `Bethesda Softworks\FalloutNV`, RegistryValue: "Installed Path", DetectFile: "FalloutNV.exe", Executable: "FalloutNV.exe"},
	{ID: "Fallout4", DisplayName: "Fallout 4", RegistryKey: `Bethesda Softworks\Fallout4`, RegistryValue: "Installed Path", DetectFile: "Fallout4.exe", Executable: "Fallout4.exe"},
	{ID: "Fallout4VR", DisplayName: "Fallout 4 VR", RegistryKey: `Bethesda Softworks\Fallout 4 VR`, RegistryValue: "Installed Path", DetectFile: "Fallout4VR.exe", Executable: "Fallout4VR.exe"},
	{ID: "Morrowind", DisplayName: "Morrowind", RegistryKey: `Bethesda Softworks\Morrowind`, RegistryValue: "Installed Path", DetectFile: "Morrowind.exe", Executable: "Morrowind.exe"},
}

// All returns the catalog sorted by id.
func All() []Game {
	out := append([]Game(nil), catalog...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup finds a game by id, ignoring case.
func Lookup(id string) (Game, bool) {
	for _, g := range catalog {
		if strings.EqualFold(g.ID, strings.TrimSpace(id)) {
			return g, true
		}
	}
	return Game{}, false
}

// Canonical returns the catalog spelling of a known product id, the reserved
// extra id, or id unchanged.
func Canonical(id string) string {
	if strings.EqualFold(strings.TrimSpace(id), ExtraProduct) {
		return ExtraProduct
	}
	if g, ok := Lookup(id); ok {
		return g.ID
	}
	return id
}

// Detect reports whether dir looks like this game's install directory.
func (g Game) Detect(dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(g.DetectFile)))
	return err == nil && !info.IsDir()
}

// RegistryCandidates lists the key paths probed for the game directory, in
// order. Both hives are tried with and without the 32-bit redirect node.
func (g Game) RegistryCandidates() []string {
	out := make([]string, 0, 4)
	for _, hive := range []string{"HKLM", "HKCU"} {
		for _, node := range []string{"", `Wow6432Node\`} {
			out = append(out, hive+`\Software\`+node+g.RegistryKey)
		}
	}
	return out
}
