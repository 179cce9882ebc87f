package store

import (
	"errors"
	"fmt"
)

// Names of the two namespaces the installer has historically written to.
const (
	Primary  = "primary"
	Fallback = "fallback"
)

// Keys the orchestrator reads and writes for every product.
const (
	KeyInstallRoot      = "install_root"
	KeyInstalledVersion = "installed_version"
	KeyPythonVersion    = "python_version"
	KeyWxPythonVersion  = "wxpython_version"
	KeyPywin32Version   = "pywin32_version"
)

// KnownKeys is the fixed key set removed on uninstall even when a backend
// cannot enumerate what it holds.
var KnownKeys = []string{
	KeyInstallRoot,
	KeyInstalledVersion,
	KeyPythonVersion,
	KeyWxPythonVersion,
	KeyPywin32Version,
}

// ErrNotFound is returned by Namespace.Get for an absent product or key.
var ErrNotFound = errors.New("not found")

// Namespace is one persistent (product, key) -> value container.
type Namespace interface {
	Name() string
	Get(product, key string) (string, error)
	Set(product, key, value string) error
	// Delete removes a single value. Deleting an absent value is not an error.
	Delete(product, key string) error
	Keys(product string) ([]string, error)
	Products() ([]string, error)
}

// StoreAccessError reports a namespace that could not be read or written.
type StoreAccessError struct {
	Namespace string
	Op        string
	Product   string
	Err       error
}

func (e *StoreAccessError) Error() string {
	return fmt.Sprintf("STORE_ACCESS: %s %s in namespace %q: %v", e.Op, e.Product, e.Namespace, e.Err)
}

func (e *StoreAccessError) Unwrap() error { return e.Err }
