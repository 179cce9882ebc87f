//go:build windows

package store

import (
	"errors"
	"sort"

	"golang.org/x/sys/windows/registry"
)

// RegistryNamespace keeps values as strings under <hive>\<base>\<product>.
// Products are subkeys; deleting the last value of a product removes its key.
type RegistryNamespace struct {
	name   string
	hive   registry.Key
	base   string
	access uint32
}

func NewRegistryNamespace(name, hive, base string, view RegistryView) (Namespace, error) {
	h, err := ParseHive(hive)
	if err != nil {
		return nil, err
	}
	root := registry.LOCAL_MACHINE
	if h == "HKCU" {
		root = registry.CURRENT_USER
	}
	if base == "" {
		base = RegistryBase
	}
	access := uint32(registry.WOW64_64KEY)
	if view == View32 {
		access = registry.WOW64_32KEY
	}
	return &RegistryNamespace{name: name, hive: root, base: base, access: access}, nil
}

func (n *RegistryNamespace) Name() string { return n.name }

func (n *RegistryNamespace) productPath(product string) string {
	return n.base + `\` + product
}

func (n *RegistryNamespace) open(path string, access uint32) (registry.Key, error) {
	k, err := registry.OpenKey(n.hive, path, access|n.access)
	if errors.Is(err, registry.ErrNotExist) {
		return 0, ErrNotFound
	}
	return k, err
}

func (n *RegistryNamespace) Get(product, key string) (string, error) {
	k, err := n.open(n.productPath(product), registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()
	v, _, err := k.GetStringValue(key)
	if errors.Is(err, registry.ErrNotExist) {
		return "", ErrNotFound
	}
	return v, err
}

func (n *RegistryNamespace) Set(product, key, value string) error {
	k, _, err := registry.CreateKey(n.hive, n.productPath(product), registry.SET_VALUE|n.access)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.SetStringValue(key, value)
}

func (n *RegistryNamespace) Delete(product, key string) error {
	k, err := n.open(n.productPath(product), registry.SET_VALUE|registry.QUERY_VALUE)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	err = k.DeleteValue(key)
	if err != nil && !errors.Is(err, registry.ErrNotExist) {
		k.Close()
		return err
	}
	info, statErr := k.Stat()
	k.Close()
	if statErr == nil && info.ValueCount == 0 && info.SubKeyCount == 0 {
		parent, err := n.open(n.base, registry.ENUMERATE_SUB_KEYS|registry.SET_VALUE)
		if err == nil {
			_ = registry.DeleteKey(parent, product)
			parent.Close()
		}
	}
	return nil
}

func (n *RegistryNamespace) Keys(product string) ([]string, error) {
	k, err := n.open(n.productPath(product), registry.QUERY_VALUE)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer k.Close()
	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (n *RegistryNamespace) Products() ([]string, error) {
	k, err := n.open(n.base, registry.ENUMERATE_SUB_KEYS)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer k.Close()
	subkeys, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(subkeys))
	for _, p := range subkeys {
		keys, err := n.Keys(p)
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}
