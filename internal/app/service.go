package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"wbsetup/internal/audit"
	"wbsetup/internal/cleanup"
	"wbsetup/internal/config"
	"wbsetup/internal/doctor"
	"wbsetup/internal/game"
	"wbsetup/internal/installer"
	storepkg "wbsetup/internal/store"
)

type Options struct {
	ConfigPath string
	// Copier, Chooser and Processes replace the defaults built from config.
	Copier    installer.Copier
	Chooser   installer.DirChooser
	Processes installer.ProcessLister
	Env       *cleanup.Env
}

type Service struct {
	ConfigPath string
	Config     config.Config
	StateRoot  string

	Store     *storepkg.Store
	Catalog   cleanup.Catalog
	Installer *installer.Service
	Doctor    *doctor.Service
	Audit     *audit.Logger
}

func New(opts Options) (*Service, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.Ensure(configPath)
	if err != nil {
		return nil, err
	}
	stateRoot, err := config.ResolveStorageRoot(cfg)
	if err != nil {
		return nil, err
	}
	if err := storepkg.EnsureLayout(stateRoot); err != nil {
		return nil, err
	}

	namespaces, err := buildNamespaces(cfg, stateRoot)
	if err != nil {
		return nil, err
	}
	st, err := storepkg.New(namespaces...)
	if err != nil {
		return nil, err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var logger *audit.Logger
	if cfg.Audit.Enabled {
		logger = audit.New(storepkg.AuditPath(stateRoot), audit.Rotation{MaxSizeMB: cfg.Audit.MaxSizeMB, MaxBackups: cfg.Audit.MaxBackups})
	}

	env := cleanup.HostEnv()
	if opts.Env != nil {
		env = *opts.Env
	}
	copier := opts.Copier
	if copier == nil {
		source, err := config.ResolveOptionalPath(cfg.Install.Source)
		if err != nil {
			return nil, err
		}
		copier = installer.DirCopier{Source: source}
	}
	var chooser installer.DirChooser = game.NewRegistryChooser()
	if opts.Chooser != nil {
		chooser = opts.Chooser
	}
	processes := opts.Processes
	if processes == nil && cfg.Install.CheckProcesses {
		processes = installer.RunningProcesses
	}
	release := cfg.Install.Release
	if release == "" {
		release = catalog.Latest()
	}

	installerSvc := &installer.Service{
		Store:     st,
		Catalog:   catalog,
		Env:       env,
		Copier:    copier,
		Chooser:   chooser,
		Audit:     logger,
		Release:   release,
		Processes: processes,
	}
	doctorSvc := &doctor.Service{ConfigPath: configPath, Store: st, Catalog: catalog, Processes: processes}
	return &Service{
		ConfigPath: configPath,
		Config:     cfg,
		StateRoot:  stateRoot,
		Store:      st,
		Catalog:    catalog,
		Installer:  installerSvc,
		Doctor:     doctorSvc,
		Audit:      logger,
	}, nil
}

func (s *Service) Close() error {
	return s.Audit.Close()
}

func buildNamespaces(cfg config.Config, stateRoot string) ([]storepkg.Namespace, error) {
	out := make([]storepkg.Namespace, 0, len(cfg.Namespaces))
	for _, nc := range cfg.Namespaces {
		switch nc.Backend {
		case config.BackendFile:
			out = append(out, storepkg.NewFileNamespace(nc.Name, storepkg.NamespacePath(stateRoot, nc.Name)))
		case config.BackendRegistry:
			view := storepkg.View64
			if nc.View == "32" {
				view = storepkg.View32
			}
			ns, err := storepkg.NewRegistryNamespace(nc.Name, nc.Hive, storepkg.RegistryBase, view)
			if err != nil {
				return nil, err
			}
			out = append(out, ns)
		default:
			return nil, fmt.Errorf("DOC_CONFIG_NAMESPACE: unsupported backend %q", nc.Backend)
		}
	}
	return out, nil
}

func loadCatalog(cfg config.Config) (cleanup.Catalog, error) {
	catalog := cleanup.Builtin()
	overlayPath, err := config.ResolveOptionalPath(cfg.Cleanup.ExtraCatalog)
	if err != nil {
		return nil, err
	}
	if overlayPath == "" {
		return catalog, nil
	}
	overlay, err := cleanup.LoadOverlay(overlayPath)
	if err != nil {
		return nil, err
	}
	return catalog.Append(overlay...)
}

// withSource swaps in a directory copier for one call when source is set.
func (s *Service) withSource(source string) (*installer.Service, error) {
	if source == "" {
		return s.Installer, nil
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	svc := *s.Installer
	svc.Copier = installer.DirCopier{Source: abs}
	return &svc, nil
}

func (s *Service) Install(ctx context.Context, product, root, source string, markers map[string]string) (*installer.Result, error) {
	svc, err := s.withSource(source)
	if err != nil {
		return nil, err
	}
	return svc.Install(ctx, installer.InstallRequest{Product: game.Canonical(product), TargetRoot: root, Markers: markers})
}

func (s *Service) Upgrade(ctx context.Context, product, root, source string) (*installer.Result, error) {
	svc, err := s.withSource(source)
	if err != nil {
		return nil, err
	}
	return svc.Upgrade(ctx, installer.InstallRequest{Product: game.Canonical(product), TargetRoot: root})
}

func (s *Service) Uninstall(ctx context.Context, products []string) []installer.BatchItem {
	canonical := make([]string, 0, len(products))
	for _, p := range products {
		canonical = append(canonical, game.Canonical(p))
	}
	return s.Installer.UninstallMany(ctx, canonical)
}

func (s *Service) PathGet(product, key string) (storepkg.Resolution, error) {
	if key == "" {
		key = storepkg.KeyInstallRoot
	}
	return s.Store.Lookup(game.Canonical(product), key)
}

func (s *Service) PathSet(product, key, value string) error {
	product = game.Canonical(product)
	if strings.TrimSpace(product) == "" || strings.TrimSpace(key) == "" {
		return fmt.Errorf("PATH_SET: product and key are required")
	}
	if key == storepkg.KeyInstallRoot && !filepath.IsAbs(value) {
		return fmt.Errorf("PATH_SET: install root %q must be absolute", value)
	}
	if err := s.Store.Set(product, key, value); err != nil {
		return err
	}
	if s.Audit != nil {
		_ = s.Audit.Log(audit.Event{Operation: "path-set", Product: product, Phase: "commit", Status: "ok", Fields: map[string]string{"key": key}})
	}
	return nil
}

// PathEntry is every resolved value of one product.
type PathEntry struct {
	Product string                         `json:"product"`
	Values  map[string]storepkg.Resolution `json:"values"`
}

func (s *Service) PathList(product string) ([]PathEntry, error) {
	products := []string{game.Canonical(product)}
	if product == "" {
		listed, err := s.Store.Products()
		if err != nil {
			return nil, err
		}
		products = listed
	}
	out := make([]PathEntry, 0, len(products))
	for _, p := range products {
		values, err := s.Store.Snapshot(p)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, PathEntry{Product: p, Values: values})
	}
	return out, nil
}

// PathRemove deletes one key from every namespace, or every key of the
// product when key is empty. Files are left alone.
func (s *Service) PathRemove(product, key string) error {
	product = game.Canonical(product)
	var err error
	if key == "" {
		err = s.Store.RemoveAll(product)
	} else {
		err = s.Store.Delete(product, key)
	}
	if err != nil {
		return err
	}
	if s.Audit != nil {
		_ = s.Audit.Log(audit.Event{Operation: "path-remove", Product: product, Phase: "commit", Status: "ok", Fields: map[string]string{"key": key}})
	}
	return nil
}

func (s *Service) ExtraAdd(ctx context.Context, root, source string) (installer.ExtraPath, error) {
	svc, err := s.withSource(source)
	if err != nil {
		return installer.ExtraPath{}, err
	}
	return svc.AddExtra(ctx, root)
}

func (s *Service) ExtraList() ([]installer.ExtraPath, error) {
	return s.Installer.ExtraPaths()
}

func (s *Service) ExtraRemove(ctx context.Context, slot int) (*installer.Result, error) {
	return s.Installer.RemoveExtra(ctx, slot)
}

func (s *Service) Rules(since string) (cleanup.Catalog, error) {
	return s.Catalog.Since(since)
}

func (s *Service) Games() []game.Game {
	return game.All()
}

func (s *Service) RunDoctor(ctx context.Context) doctor.Report {
	return s.Doctor.Run(ctx)
}
