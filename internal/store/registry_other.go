//go:build !windows

package store

import "fmt"

func NewRegistryNamespace(name, hive, base string, view RegistryView) (Namespace, error) {
	return nil, fmt.Errorf("STORE_REGISTRY_UNSUPPORTED: registry namespace %q needs windows", name)
}
