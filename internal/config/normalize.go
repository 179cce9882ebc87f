package config

import "strings"

func Normalize(cfg Config) Config {
	if cfg.Version == 0 {
		cfg.Version = SchemaVersion
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "~/.wbsetup"
	}
	if len(cfg.Namespaces) == 0 {
		cfg.Namespaces = DefaultNamespaces(BackendFile)
	}
	for i := range cfg.Namespaces {
		ns := &cfg.Namespaces[i]
		ns.Name = strings.TrimSpace(ns.Name)
		ns.Backend = strings.ToLower(strings.TrimSpace(ns.Backend))
		if ns.Backend == "" {
			ns.Backend = BackendFile
		}
		if ns.Backend == BackendRegistry {
			if ns.Hive == "" {
				ns.Hive = "HKLM"
			}
			if ns.View == "" {
				ns.View = "64"
				if ns.Name == "fallback" {
					ns.View = "32"
				}
			}
		}
	}
	if cfg.Audit.MaxSizeMB == 0 {
		cfg.Audit.MaxSizeMB = 5
	}
	return cfg
}
