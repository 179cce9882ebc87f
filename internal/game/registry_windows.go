//go:build windows

package game

import "golang.org/x/sys/windows/registry"

func readRegistryString(hive, path, value string) (string, bool) {
	root := registry.LOCAL_MACHINE
	if hive == "HKCU" {
		root = registry.CURRENT_USER
	}
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE|registry.WOW64_64KEY)
	if err != nil {
		return "", false
	}
	defer k.Close()
	v, valType, err := k.GetStringValue(value)
	if err != nil || valType != registry.SZ || v == "" {
		return "", false
	}
	return v, true
}
