package installer

import "fmt"

// CopyError is a failed bulk copy. The store is never written after one.
type CopyError struct {
	Product string
	Root    string
	Err     error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("INS_COPY: copy into %s for %s failed: %v", e.Root, e.Product, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// ResolutionError means an install root was needed and none was available.
type ResolutionError struct {
	Product string
	Reason  string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("INS_RESOLVE: %s: %s: %v", e.Product, e.Reason, e.Err)
	}
	return fmt.Sprintf("INS_RESOLVE: %s: %s", e.Product, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
