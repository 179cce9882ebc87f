//go:build !windows

package game

// Games only register themselves on windows.
func readRegistryString(hive, path, value string) (string, bool) {
	return "", false
}
