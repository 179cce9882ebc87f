// Package installer sequences path store lookups, the external bulk copy
// and cleanup runs into install, upgrade and uninstall operations.
package installer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"wbsetup/internal/audit"
	"wbsetup/internal/cleanup"
	"wbsetup/internal/game"
	"wbsetup/internal/store"
)

type Service struct {
	Store   *store.Store
	Catalog cleanup.Catalog
	Env     cleanup.Env
	Copier  Copier
	Chooser DirChooser
	Audit   *audit.Logger
	// Release is recorded as installed_version after a successful install.
	Release string
	// Processes enables the running-process preflight when set.
	Processes ProcessLister
}

type InstallRequest struct {
	Product string
	// TargetRoot overrides any recorded install root.
	TargetRoot string
	// Markers are extra key/value pairs recorded with the install root.
	Markers map[string]string
}

type Result struct {
	Product  string          `json:"product"`
	Root     string          `json:"root,omitempty"`
	State    State           `json:"state"`
	NoOp     bool            `json:"noop,omitempty"`
	Cleanup  *cleanup.Report `json:"cleanup,omitempty"`
	Failures []string        `json:"failures,omitempty"`
	Pruned   []string        `json:"pruned,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

type BatchItem struct {
	Product string  `json:"product"`
	Result  *Result `json:"result,omitempty"`
	Err     error   `json:"-"`
	Error   string  `json:"error,omitempty"`
}

func (s *Service) InstallRoot(product string) (string, bool, error) {
	return s.Store.Get(product, store.KeyInstallRoot)
}

func (s *Service) Install(ctx context.Context, req InstallRequest) (*Result, error) {
	if err := checkProduct(req.Product); err != nil {
		return nil, err
	}
	from, err := s.currentState(req.Product)
	if err != nil {
		return nil, err
	}
	root, err := s.resolveRoot(ctx, req.Product, req.TargetRoot)
	if err != nil {
		s.log("install", req.Product, string(from), "error", err, nil)
		return nil, err
	}
	return s.install(ctx, "install", req, root, from, &Result{Product: req.Product, Root: root})
}

// Upgrade removes stale artifacts of every release before the target one
// from the install root and then installs over it. Rules tagged with the
// target release are left to uninstall, so a failed copy does not take the
// working install with it. Store entries are kept throughout.
func (s *Service) Upgrade(ctx context.Context, req InstallRequest) (*Result, error) {
	if err := checkProduct(req.Product); err != nil {
		return nil, err
	}
	from, err := s.currentState(req.Product)
	if err != nil {
		return nil, err
	}
	root, err := s.resolveRoot(ctx, req.Product, req.TargetRoot)
	if err != nil {
		s.log("upgrade", req.Product, string(from), "error", err, nil)
		return nil, err
	}
	res := &Result{Product: req.Product, Root: root}
	res.Warnings = s.preflight(req.Product)
	res.Cleanup = cleanup.Apply(root, s.Catalog.Before(s.target()), s.Env)
	res.Failures = res.Cleanup.FailureMessages()
	s.logCleanup("upgrade", req.Product, res.Cleanup)
	return s.install(ctx, "upgrade", req, root, from, res)
}

// target is the release being installed. Without an explicit release the
// newest catalog tag stands in.
func (s *Service) target() string {
	if s.Release != "" {
		return s.Release
	}
	return s.Catalog.Latest()
}

func (s *Service) install(ctx context.Context, op string, req InstallRequest, root string, from State, res *Result) (*Result, error) {
	if err := checkTransition(from, Installing); err != nil {
		return nil, err
	}
	for key := range req.Markers {
		if key == "" || key == store.KeyInstallRoot {
			return nil, fmt.Errorf("INS_MARKER: invalid marker key %q", key)
		}
	}
	s.log(op, req.Product, string(Installing), "ok", nil, map[string]string{"root": root, "from": string(from)})

	if s.Copier == nil {
		err := &CopyError{Product: req.Product, Root: root, Err: errors.New("no copier configured")}
		s.log(op, req.Product, string(from), "error", err, nil)
		return nil, err
	}
	if err := s.Copier.Copy(ctx, root); err != nil {
		copyErr := &CopyError{Product: req.Product, Root: root, Err: err}
		s.log(op, req.Product, string(from), "error", copyErr, nil)
		res.State = from
		return res, copyErr
	}

	if err := s.Store.Set(req.Product, store.KeyInstallRoot, root); err != nil {
		s.log(op, req.Product, string(from), "error", err, nil)
		res.State = from
		return res, err
	}
	// From here on install_root is recorded. A store failure leaves the
	// registration partial and the result in Installing; rerunning install
	// completes it.
	if s.Release != "" {
		if err := s.Store.Set(req.Product, store.KeyInstalledVersion, s.Release); err != nil {
			s.log(op, req.Product, string(Installing), "error", err, nil)
			res.State = Installing
			return res, err
		}
	}
	for _, key := range sortedKeys(req.Markers) {
		if err := s.Store.Set(req.Product, key, req.Markers[key]); err != nil {
			s.log(op, req.Product, string(Installing), "error", err, nil)
			res.State = Installing
			return res, err
		}
	}

	res.State = Installed
	s.log(op, req.Product, string(Installed), "ok", nil, map[string]string{"root": root, "release": s.Release})
	return res, nil
}

// Uninstall removes every file a release of product may have left in its
// install root and then clears the product from all namespaces. A product
// without any recorded value is already uninstalled.
func (s *Service) Uninstall(ctx context.Context, product string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if product == game.ExtraProduct {
		return s.uninstallExtras(ctx)
	}
	has, err := s.Store.Has(product)
	if err != nil {
		return nil, err
	}
	if !has {
		s.log("uninstall", product, string(Uninstalled), "ok", nil, map[string]string{"noop": "true"})
		return &Result{Product: product, State: Uninstalled, NoOp: true}, nil
	}
	root, ok, err := s.Store.Get(product, store.KeyInstallRoot)
	if err != nil {
		return nil, err
	}
	if !ok {
		err := &ResolutionError{Product: product, Reason: "entries are recorded but no install root"}
		s.log("uninstall", product, string(Installed), "error", err, nil)
		return nil, err
	}
	if !filepath.IsAbs(root) {
		err := &ResolutionError{Product: product, Reason: fmt.Sprintf("recorded install root %q is not absolute", root)}
		s.log("uninstall", product, string(Installed), "error", err, nil)
		return nil, err
	}

	if err := checkTransition(Installed, Uninstalling); err != nil {
		return nil, err
	}
	s.log("uninstall", product, string(Uninstalling), "ok", nil, map[string]string{"root": root})
	res := &Result{Product: product, Root: root}
	res.Warnings = s.preflight(product)
	res.Cleanup = cleanup.Apply(root, s.Catalog, s.Env)
	res.Failures = res.Cleanup.FailureMessages()
	s.logCleanup("uninstall", product, res.Cleanup)
	res.Pruned = cleanup.PruneEmpty(root, cleanup.ExpectedDirs())

	if err := s.Store.RemoveAll(product); err != nil {
		s.log("uninstall", product, string(Installed), "error", err, nil)
		res.State = Installed
		return res, err
	}
	res.State = Uninstalled
	s.log("uninstall", product, string(Uninstalled), "ok", nil, map[string]string{
		"removed":  fmt.Sprintf("%d", len(res.Cleanup.Removed)),
		"failures": fmt.Sprintf("%d", len(res.Cleanup.Failures)),
	})
	return res, nil
}

// UninstallMany uninstalls each product in turn. A failure is recorded on
// its item and never stops the batch.
func (s *Service) UninstallMany(ctx context.Context, products []string) []BatchItem {
	items := make([]BatchItem, 0, len(products))
	for _, product := range products {
		res, err := s.Uninstall(ctx, product)
		item := BatchItem{Product: product, Result: res, Err: err}
		if err != nil {
			item.Error = err.Error()
		}
		items = append(items, item)
	}
	return items
}

func (s *Service) currentState(product string) (State, error) {
	_, ok, err := s.Store.Get(product, store.KeyInstallRoot)
	if err != nil {
		return "", err
	}
	if ok {
		return Installed, nil
	}
	return Uninstalled, nil
}

// resolveRoot prefers an explicit target, then the recorded root, then the
// chooser.
func (s *Service) resolveRoot(ctx context.Context, product, explicit string) (string, error) {
	root := strings.TrimSpace(explicit)
	if root == "" {
		recorded, ok, err := s.Store.Get(product, store.KeyInstallRoot)
		if err != nil {
			return "", err
		}
		if ok {
			root = recorded
		}
	}
	if root == "" && s.Chooser != nil {
		chosen, err := s.Chooser.ChooseDir(ctx, product)
		if err != nil {
			return "", &ResolutionError{Product: product, Reason: "directory selection failed", Err: err}
		}
		root = chosen
	}
	if root == "" {
		return "", &ResolutionError{Product: product, Reason: "no install root recorded or supplied"}
	}
	if !filepath.IsAbs(root) {
		return "", &ResolutionError{Product: product, Reason: fmt.Sprintf("install root %q is not absolute", root)}
	}
	return filepath.Clean(root), nil
}

func checkProduct(product string) error {
	if strings.TrimSpace(product) == "" {
		return fmt.Errorf("INS_PRODUCT: product is required")
	}
	if product == game.ExtraProduct {
		return fmt.Errorf("INS_PRODUCT: %q is reserved for extra locations", product)
	}
	return nil
}

func (s *Service) log(op, product, phase, status string, err error, fields map[string]string) {
	if s.Audit == nil {
		return
	}
	ev := audit.Event{Operation: op, Product: product, Phase: phase, Status: status, Fields: fields}
	if err != nil {
		ev.Message = err.Error()
		ev.Code = errorCode(err)
	}
	_ = s.Audit.Log(ev)
}

func (s *Service) logCleanup(op, product string, report *cleanup.Report) {
	for _, f := range report.Failures {
		s.log(op, product, "cleanup", "error", f, map[string]string{"target": f.Path})
	}
}

// errorCode extracts the UPPER_SNAKE prefix of an error message.
func errorCode(err error) string {
	msg := err.Error()
	code, _, ok := strings.Cut(msg, ":")
	if !ok || code == "" || strings.ToUpper(code) != code || strings.ContainsAny(code, " \t") {
		return ""
	}
	return code
}
