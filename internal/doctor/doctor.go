package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"wbsetup/internal/cleanup"
	"wbsetup/internal/config"
	"wbsetup/internal/game"
	"wbsetup/internal/installer"
	"wbsetup/internal/store"
)

type Finding struct {
	Code    string `json:"code"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Report struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
	Products []string  `json:"products,omitempty"`
}

type Service struct {
	ConfigPath string
	Store      *store.Store
	Catalog    cleanup.Catalog
	Processes  installer.ProcessLister
}

func (s *Service) Run(ctx context.Context) Report {
	findings := []Finding{}
	if _, err := os.Stat(s.ConfigPath); err != nil {
		findings = append(findings, Finding{Code: "DOC_CONFIG_MISSING", Level: "error", Message: err.Error()})
	} else if _, err := config.Load(s.ConfigPath); err != nil {
		findings = append(findings, Finding{Code: "DOC_CONFIG_INVALID", Level: "error", Message: err.Error()})
	}

	if err := s.Catalog.Validate(); err != nil {
		findings = append(findings, Finding{Code: "DOC_CATALOG_INVALID", Level: "error", Message: err.Error()})
	}

	var products []string
	if s.Store != nil {
		for _, ns := range s.Store.Namespaces() {
			if _, err := ns.Products(); err != nil {
				findings = append(findings, Finding{Code: "DOC_NAMESPACE_UNREADABLE", Level: "error", Message: ns.Name() + ": " + err.Error()})
			}
		}
		if listed, err := s.Store.Products(); err == nil {
			products = listed
		}
		for _, product := range products {
			findings = append(findings, s.checkProduct(product)...)
		}
	}

	if ctx.Err() == nil && s.Processes != nil {
		if procs, err := s.Processes(); err == nil {
			for _, p := range procs {
				if strings.EqualFold(filepath.Base(p.Executable), installer.LauncherExecutable) {
					findings = append(findings, Finding{Code: "DOC_PROCESS_RUNNING", Level: "warn", Message: p.Executable + " is running and may lock files"})
				}
			}
		}
	}

	healthy := true
	for _, f := range findings {
		if f.Level == "error" {
			healthy = false
			break
		}
	}
	return Report{Healthy: healthy, Findings: findings, Products: products}
}

func (s *Service) checkProduct(product string) []Finding {
	var findings []Finding
	if product != game.ExtraProduct {
		if _, ok := game.Lookup(product); !ok {
			findings = append(findings, Finding{Code: "DOC_PRODUCT_UNKNOWN", Level: "warn", Message: product + " is not a known game"})
		}
		root, ok, err := s.Store.Get(product, store.KeyInstallRoot)
		switch {
		case err != nil:
			findings = append(findings, Finding{Code: "DOC_NAMESPACE_UNREADABLE", Level: "error", Message: err.Error()})
		case !ok:
			findings = append(findings, Finding{Code: "DOC_ROOT_ABSENT", Level: "warn", Message: product + " has recorded values but no install root; uninstall cannot clean it"})
		default:
			findings = append(findings, checkRoot(product, root)...)
		}
	}
	if shadowed, err := s.Store.Shadowed(product); err == nil {
		for _, key := range shadowed {
			findings = append(findings, Finding{Code: "DOC_STALE_FALLBACK", Level: "warn", Message: product + ": " + key + " differs from the resolved value"})
		}
	}
	return findings
}

func checkRoot(product, root string) []Finding {
	if !filepath.IsAbs(root) {
		return []Finding{{Code: "DOC_ROOT_RELATIVE", Level: "error", Message: product + ": install root " + root + " is not absolute"}}
	}
	info, err := os.Stat(root)
	if errors.Is(err, os.ErrNotExist) {
		return []Finding{{Code: "DOC_ROOT_MISSING", Level: "warn", Message: product + ": install root " + root + " does not exist"}}
	}
	if err == nil && !info.IsDir() {
		return []Finding{{Code: "DOC_ROOT_NOT_DIR", Level: "error", Message: product + ": install root " + root + " is not a directory"}}
	}
	return nil
}
