package store

import (
	"os"
	"path/filepath"
)

func NamespacesRoot(root string) string {
	return filepath.Join(root, "namespaces")
}

func NamespacePath(root, name string) string {
	return filepath.Join(NamespacesRoot(root), name+".toml")
}

func AuditPath(root string) string {
	return filepath.Join(root, "audit.log")
}

func EnsureLayout(root string) error {
	for _, d := range []string{root, NamespacesRoot(root)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
