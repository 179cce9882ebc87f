package config

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

var allowedBackends = map[string]struct{}{
	BackendFile:     {},
	BackendRegistry: {},
}

var allowedHives = map[string]struct{}{
	"HKLM": {},
	"HKCU": {},
}

func Validate(cfg Config) error {
	if cfg.Version != SchemaVersion {
		return fmt.Errorf("DOC_CONFIG_VERSION: unsupported version %d", cfg.Version)
	}
	if cfg.Storage.Root == "" {
		return fmt.Errorf("DOC_CONFIG_STORAGE: missing storage root")
	}
	if len(cfg.Namespaces) == 0 {
		return fmt.Errorf("DOC_CONFIG_NAMESPACE: at least one namespace is required")
	}

	names := map[string]struct{}{}
	for _, ns := range cfg.Namespaces {
		if ns.Name == "" {
			return fmt.Errorf("DOC_CONFIG_NAMESPACE: namespace name is required")
		}
		if strings.ContainsAny(ns.Name, `/\.`) {
			return fmt.Errorf("DOC_CONFIG_NAMESPACE: invalid namespace name %q", ns.Name)
		}
		if _, ok := names[ns.Name]; ok {
			return fmt.Errorf("DOC_CONFIG_NAMESPACE: duplicate namespace %q", ns.Name)
		}
		names[ns.Name] = struct{}{}
		if _, ok := allowedBackends[ns.Backend]; !ok {
			return fmt.Errorf("DOC_CONFIG_NAMESPACE: unsupported backend %q for namespace %q", ns.Backend, ns.Name)
		}
		if ns.Backend == BackendRegistry {
			if _, ok := allowedHives[strings.ToUpper(ns.Hive)]; !ok {
				return fmt.Errorf("DOC_CONFIG_NAMESPACE: unsupported hive %q for namespace %q", ns.Hive, ns.Name)
			}
			if ns.View != "64" && ns.View != "32" {
				return fmt.Errorf("DOC_CONFIG_NAMESPACE: registry view must be 64 or 32, got %q", ns.View)
			}
		}
	}

	if cfg.Audit.MaxSizeMB < 0 || cfg.Audit.MaxBackups < 0 {
		return fmt.Errorf("DOC_CONFIG_AUDIT: rotation limits must not be negative")
	}
	if cfg.Install.Release != "" && !semver.IsValid(cfg.Install.Release) {
		return fmt.Errorf("DOC_CONFIG_INSTALL: invalid release tag %q", cfg.Install.Release)
	}
	return nil
}

func FindNamespace(cfg Config, name string) (NamespaceConfig, bool) {
	for _, ns := range cfg.Namespaces {
		if ns.Name == name {
			return ns, true
		}
	}
	return NamespaceConfig{}, false
}
