package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"wbsetup/internal/fsutil"
)

const DocumentVersion = 1

type document struct {
	Version  int                          `toml:"version"`
	Products map[string]map[string]string `toml:"products"`
}

// FileNamespace keeps one namespace in a TOML document. The document is
// re-read on every call because other processes may change it.
type FileNamespace struct {
	name string
	path string
}

func NewFileNamespace(name, path string) *FileNamespace {
	return &FileNamespace{name: name, path: path}
}

func (n *FileNamespace) Name() string { return n.name }

func (n *FileNamespace) Path() string { return n.path }

func (n *FileNamespace) Get(product, key string) (string, error) {
	doc, err := n.load()
	if err != nil {
		return "", err
	}
	values, ok := doc.Products[product]
	if !ok {
		return "", ErrNotFound
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (n *FileNamespace) Set(product, key, value string) error {
	doc, err := n.load()
	if err != nil {
		return err
	}
	if doc.Products == nil {
		doc.Products = map[string]map[string]string{}
	}
	if doc.Products[product] == nil {
		doc.Products[product] = map[string]string{}
	}
	doc.Products[product][key] = value
	return n.save(doc)
}

func (n *FileNamespace) Delete(product, key string) error {
	doc, err := n.load()
	if err != nil {
		return err
	}
	values, ok := doc.Products[product]
	if !ok {
		return nil
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		delete(doc.Products, product)
	}
	return n.save(doc)
}

func (n *FileNamespace) Keys(product string) ([]string, error) {
	doc, err := n.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc.Products[product]))
	for k := range doc.Products[product] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (n *FileNamespace) Products() ([]string, error) {
	doc, err := n.load()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(doc.Products))
	for p, values := range doc.Products {
		if len(values) > 0 {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (n *FileNamespace) load() (document, error) {
	blob, err := os.ReadFile(n.path)
	if err != nil {
		if os.IsNotExist(err) {
			return document{Version: DocumentVersion}, nil
		}
		return document{}, err
	}
	var doc document
	if err := toml.Unmarshal(blob, &doc); err != nil {
		return document{}, fmt.Errorf("STORE_PARSE: %s: %w", n.path, err)
	}
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	if doc.Version != DocumentVersion {
		return document{}, fmt.Errorf("STORE_VERSION: unsupported namespace version %d in %s", doc.Version, n.path)
	}
	return doc, nil
}

func (n *FileNamespace) save(doc document) error {
	doc.Version = DocumentVersion
	blob, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("STORE_ENCODE: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(n.path), 0o755); err != nil {
		return err
	}
	return fsutil.AtomicWrite(n.path, blob, 0o644)
}
