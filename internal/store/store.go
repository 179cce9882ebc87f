// Package store resolves per-product installer values across an ordered list
// of namespaces. Reads take the first non-empty value in priority order,
// writes go to the first namespace only, and removals clear every namespace.
package store

import (
	"errors"
	"fmt"
	"sort"
)

type Store struct {
	namespaces []Namespace
}

// Resolution is the result of a lookup together with the namespace that
// answered it.
type Resolution struct {
	Value     string `json:"value"`
	Namespace string `json:"namespace"`
	Found     bool   `json:"found"`
}

func New(namespaces ...Namespace) (*Store, error) {
	if len(namespaces) == 0 {
		return nil, fmt.Errorf("STORE_CONFIG: at least one namespace is required")
	}
	seen := map[string]struct{}{}
	for _, ns := range namespaces {
		if _, dup := seen[ns.Name()]; dup {
			return nil, fmt.Errorf("STORE_CONFIG: duplicate namespace %q", ns.Name())
		}
		seen[ns.Name()] = struct{}{}
	}
	return &Store{namespaces: namespaces}, nil
}

func (s *Store) Namespaces() []Namespace {
	return append([]Namespace(nil), s.namespaces...)
}

func (s *Store) Lookup(product, key string) (Resolution, error) {
	for _, ns := range s.namespaces {
		v, err := ns.Get(product, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Resolution{}, &StoreAccessError{Namespace: ns.Name(), Op: "get", Product: product, Err: err}
		}
		if v == "" {
			continue
		}
		return Resolution{Value: v, Namespace: ns.Name(), Found: true}, nil
	}
	return Resolution{}, nil
}

func (s *Store) Get(product, key string) (string, bool, error) {
	res, err := s.Lookup(product, key)
	if err != nil {
		return "", false, err
	}
	return res.Value, res.Found, nil
}

// Set writes to the highest-priority namespace only.
func (s *Store) Set(product, key, value string) error {
	ns := s.namespaces[0]
	if err := ns.Set(product, key, value); err != nil {
		return &StoreAccessError{Namespace: ns.Name(), Op: "set", Product: product, Err: err}
	}
	return nil
}

// Delete clears one key from every namespace.
func (s *Store) Delete(product, key string) error {
	var errs []error
	for _, ns := range s.namespaces {
		if err := ns.Delete(product, key); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: %w", ns.Name(), err))
		}
	}
	if len(errs) > 0 {
		return &StoreAccessError{Namespace: "*", Op: "delete", Product: product, Err: errors.Join(errs...)}
	}
	return nil
}

// RemoveAll clears every known and every enumerable key of product from
// every namespace. It keeps going past failures and reports them together.
func (s *Store) RemoveAll(product string) error {
	var errs []error
	for _, ns := range s.namespaces {
		keys := append([]string(nil), KnownKeys...)
		held, err := ns.Keys(product)
		if err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, fmt.Errorf("%s: list keys: %w", ns.Name(), err))
		}
		keys = append(keys, held...)
		seen := map[string]struct{}{}
		for _, key := range keys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if err := ns.Delete(product, key); err != nil && !errors.Is(err, ErrNotFound) {
				errs = append(errs, fmt.Errorf("%s: delete %s: %w", ns.Name(), key, err))
			}
		}
	}
	if len(errs) > 0 {
		return &StoreAccessError{Namespace: "*", Op: "remove", Product: product, Err: errors.Join(errs...)}
	}
	return nil
}

// Has reports whether any namespace holds any value for product.
func (s *Store) Has(product string) (bool, error) {
	for _, ns := range s.namespaces {
		keys, err := ns.Keys(product)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return false, &StoreAccessError{Namespace: ns.Name(), Op: "list", Product: product, Err: err}
		}
		if len(keys) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Products() ([]string, error) {
	seen := map[string]struct{}{}
	for _, ns := range s.namespaces {
		products, err := ns.Products()
		if err != nil {
			return nil, &StoreAccessError{Namespace: ns.Name(), Op: "list", Err: err}
		}
		for _, p := range products {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Snapshot resolves every key any namespace holds for product.
func (s *Store) Snapshot(product string) (map[string]Resolution, error) {
	keys := map[string]struct{}{}
	for _, ns := range s.namespaces {
		held, err := ns.Keys(product)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, &StoreAccessError{Namespace: ns.Name(), Op: "list", Product: product, Err: err}
		}
		for _, k := range held {
			keys[k] = struct{}{}
		}
	}
	out := make(map[string]Resolution, len(keys))
	for k := range keys {
		res, err := s.Lookup(product, k)
		if err != nil {
			return nil, err
		}
		if res.Found {
			out[k] = res
		}
	}
	return out, nil
}

// Shadowed lists keys whose fallback values differ from what a read
// resolves to. They become visible again if the primary value is removed
// without clearing the fallback.
func (s *Store) Shadowed(product string) ([]string, error) {
	if len(s.namespaces) < 2 {
		return nil, nil
	}
	var out []string
	for _, ns := range s.namespaces[1:] {
		held, err := ns.Keys(product)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, &StoreAccessError{Namespace: ns.Name(), Op: "list", Product: product, Err: err}
		}
		for _, k := range held {
			v, err := ns.Get(product, k)
			if err != nil || v == "" {
				continue
			}
			res, err := s.Lookup(product, k)
			if err != nil {
				return nil, err
			}
			if res.Namespace != ns.Name() && res.Value != v {
				out = append(out, ns.Name()+":"+k)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
