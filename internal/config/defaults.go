package config

const (
	SchemaVersion = 1

	BackendFile     = "file"
	BackendRegistry = "registry"
)

// DefaultConfig returns a fully-populated v1 config document.
func DefaultConfig() Config {
	return Config{
		Version: SchemaVersion,
		Storage: StorageConfig{
			Root: "~/.wbsetup",
		},
		Namespaces: DefaultNamespaces(BackendFile),
		Audit: AuditConfig{
			Enabled:    true,
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
		Install: InstallConfig{
			CheckProcesses: true,
		},
	}
}

// DefaultNamespaces returns the primary and fallback pair on one backend.
func DefaultNamespaces(backend string) []NamespaceConfig {
	if backend == BackendRegistry {
		return []NamespaceConfig{
			{Name: "primary", Backend: BackendRegistry, Hive: "HKLM", View: "64"},
			{Name: "fallback", Backend: BackendRegistry, Hive: "HKLM", View: "32"},
		}
	}
	return []NamespaceConfig{
		{Name: "primary", Backend: BackendFile},
		{Name: "fallback", Backend: BackendFile},
	}
}
