package config

// Config is the frozen v1 global schema.
type Config struct {
	Version    int               `toml:"version"`
	Storage    StorageConfig     `toml:"storage"`
	Namespaces []NamespaceConfig `toml:"namespaces"`
	Audit      AuditConfig       `toml:"audit"`
	Cleanup    CleanupConfig     `toml:"cleanup"`
	Install    InstallConfig     `toml:"install"`
}

type StorageConfig struct {
	Root string `toml:"root"`
}

// NamespaceConfig declares one backing store of the path registry. Order in
// the config is lookup priority; the first entry receives every write.
type NamespaceConfig struct {
	Name    string `toml:"name" json:"name"`
	Backend string `toml:"backend" json:"backend"`
	Hive    string `toml:"hive,omitempty" json:"hive,omitempty"`
	View    string `toml:"view,omitempty" json:"view,omitempty"`
}

type AuditConfig struct {
	Enabled    bool `toml:"enabled"`
	MaxSizeMB  int  `toml:"max_size_mb"`
	MaxBackups int  `toml:"max_backups"`
}

type CleanupConfig struct {
	// ExtraCatalog names a TOML file of rules appended after the builtin
	// catalog.
	ExtraCatalog string `toml:"extra_catalog,omitempty"`
}

type InstallConfig struct {
	// Source is the default directory copied into an install root.
	Source string `toml:"source,omitempty"`
	// Release is recorded as installed_version; empty means the newest
	// release tag of the cleanup catalog.
	Release        string `toml:"release,omitempty"`
	CheckProcesses bool   `toml:"check_processes"`
}
