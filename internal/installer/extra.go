package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"wbsetup/internal/cleanup"
	"wbsetup/internal/game"
)

const extraKeyPrefix = "extra_path_"

// ExtraPath is a user-registered install location not tied to a game.
type ExtraPath struct {
	Slot      int    `json:"slot"`
	Key       string `json:"key"`
	Root      string `json:"root"`
	Namespace string `json:"namespace"`
}

func ExtraKey(slot int) string {
	return extraKeyPrefix + strconv.Itoa(slot)
}

func parseExtraKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, extraKeyPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (s *Service) ExtraPaths() ([]ExtraPath, error) {
	snap, err := s.Store.Snapshot(game.ExtraProduct)
	if err != nil {
		return nil, err
	}
	out := make([]ExtraPath, 0, len(snap))
	for key, res := range snap {
		slot, ok := parseExtraKey(key)
		if !ok {
			continue
		}
		out = append(out, ExtraPath{Slot: slot, Key: key, Root: res.Value, Namespace: res.Namespace})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

// AddExtra copies the release into root and records it in the first free
// slot. A root that is already registered keeps its slot.
func (s *Service) AddExtra(ctx context.Context, root string) (ExtraPath, error) {
	if !filepath.IsAbs(root) {
		return ExtraPath{}, &ResolutionError{Product: game.ExtraProduct, Reason: fmt.Sprintf("extra location %q is not absolute", root)}
	}
	root = filepath.Clean(root)
	existing, err := s.ExtraPaths()
	if err != nil {
		return ExtraPath{}, err
	}
	used := map[int]struct{}{}
	for _, e := range existing {
		used[e.Slot] = struct{}{}
	}
	slot := 1
	for {
		if _, taken := used[slot]; !taken {
			break
		}
		slot++
	}
	for _, e := range existing {
		if sameRoot(e.Root, root) {
			slot = e.Slot
			break
		}
	}

	if s.Copier == nil {
		return ExtraPath{}, &CopyError{Product: game.ExtraProduct, Root: root, Err: fmt.Errorf("no copier configured")}
	}
	if err := s.Copier.Copy(ctx, root); err != nil {
		copyErr := &CopyError{Product: game.ExtraProduct, Root: root, Err: err}
		s.log("extra-add", game.ExtraProduct, string(Uninstalled), "error", copyErr, nil)
		return ExtraPath{}, copyErr
	}
	key := ExtraKey(slot)
	if err := s.Store.Set(game.ExtraProduct, key, root); err != nil {
		s.log("extra-add", game.ExtraProduct, string(Uninstalled), "error", err, nil)
		return ExtraPath{}, err
	}
	s.log("extra-add", game.ExtraProduct, string(Installed), "ok", nil, map[string]string{"key": key, "root": root})
	return ExtraPath{Slot: slot, Key: key, Root: root, Namespace: s.Store.Namespaces()[0].Name()}, nil
}

// RemoveExtra cleans the location recorded in slot and forgets it. An empty
// slot is a no-op.
func (s *Service) RemoveExtra(ctx context.Context, slot int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := ExtraKey(slot)
	root, ok, err := s.Store.Get(game.ExtraProduct, key)
	if err != nil {
		return nil, err
	}
	res := &Result{Product: game.ExtraProduct, Root: root}
	if !ok {
		res.State = Uninstalled
		res.NoOp = true
		return res, nil
	}
	if !filepath.IsAbs(root) {
		return nil, &ResolutionError{Product: game.ExtraProduct, Reason: fmt.Sprintf("%s holds non-absolute path %q", key, root)}
	}
	s.log("extra-remove", game.ExtraProduct, string(Uninstalling), "ok", nil, map[string]string{"key": key, "root": root})
	res.Warnings = s.preflight(game.ExtraProduct)
	res.Cleanup = cleanup.Apply(root, s.Catalog, s.Env)
	res.Failures = res.Cleanup.FailureMessages()
	s.logCleanup("extra-remove", game.ExtraProduct, res.Cleanup)
	res.Pruned = cleanup.PruneEmpty(root, cleanup.ExpectedDirs())
	if err := s.Store.Delete(game.ExtraProduct, key); err != nil {
		res.State = Installed
		return res, err
	}
	res.State = Uninstalled
	s.log("extra-remove", game.ExtraProduct, string(Uninstalled), "ok", nil, map[string]string{"key": key})
	return res, nil
}

// uninstallExtras removes every extra location and then any leftover keys.
func (s *Service) uninstallExtras(ctx context.Context) (*Result, error) {
	paths, err := s.ExtraPaths()
	if err != nil {
		return nil, err
	}
	has, err := s.Store.Has(game.ExtraProduct)
	if err != nil {
		return nil, err
	}
	if !has {
		return &Result{Product: game.ExtraProduct, State: Uninstalled, NoOp: true}, nil
	}
	merged := &Result{Product: game.ExtraProduct, State: Uninstalled, Cleanup: &cleanup.Report{}}
	for _, p := range paths {
		res, err := s.RemoveExtra(ctx, p.Slot)
		if err != nil {
			return merged, err
		}
		if res.Cleanup != nil {
			merged.Cleanup.Removed = append(merged.Cleanup.Removed, res.Cleanup.Removed...)
			merged.Cleanup.Missing += res.Cleanup.Missing
			merged.Cleanup.Skipped = append(merged.Cleanup.Skipped, res.Cleanup.Skipped...)
			merged.Cleanup.Failures = append(merged.Cleanup.Failures, res.Cleanup.Failures...)
		}
		merged.Failures = append(merged.Failures, res.Failures...)
		merged.Pruned = append(merged.Pruned, res.Pruned...)
		merged.Warnings = append(merged.Warnings, res.Warnings...)
	}
	if err := s.Store.RemoveAll(game.ExtraProduct); err != nil {
		return merged, err
	}
	return merged, nil
}

func sameRoot(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if filepath.Separator == '\\' {
		return strings.EqualFold(a, b)
	}
	return a == b
}

