package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrSymlinkParent is returned when a path below a root crosses a symlink.
	ErrSymlinkParent = errors.New("path crosses a symlink")
	// ErrKindMismatch is returned when a file removal meets a directory or
	// a tree removal meets a regular file.
	ErrKindMismatch = errors.New("unexpected entry kind")
)

// ValidateRelPath rejects empty, absolute and escaping relative paths.
func ValidateRelPath(relPath string) error {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == "" || cleaned == "." {
		return fmt.Errorf("invalid path: empty or current directory")
	}
	if filepath.IsAbs(cleaned) || filepath.VolumeName(cleaned) != "" || strings.HasPrefix(cleaned, string(filepath.Separator)) {
		return fmt.Errorf("invalid path: must be relative, got %q", relPath)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid path: path traversal not allowed in %q", relPath)
	}
	return nil
}

// CheckParents walks every directory between root (exclusive) and path
// (exclusive) and fails if one of them is a symlink. A missing component
// ends the walk: nothing below it can exist.
func CheckParents(root, path string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	parts := strings.Split(rel, string(filepath.Separator))
	cur := root
	for _, part := range parts[:len(parts)-1] {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s", ErrSymlinkParent, cur)
		}
	}
	return nil
}

// RemoveFile removes a single non-directory entry. Symlinks are removed
// without being followed. Reports whether something was removed; an absent
// path is not an error.
func RemoveFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %s is a directory", ErrKindMismatch, path)
	}
	if err := removeWritable(path); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveTree removes a directory and everything below it. A symlink at path
// is unlinked, never followed. An absent path is not an error.
func RemoveTree(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return true, os.Remove(path)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%w: %s is not a directory", ErrKindMismatch, path)
	}
	if err := os.RemoveAll(path); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveEmptyDir removes path only if it is an empty directory. It reports
// whether the directory was removed and never returns an error.
func RemoveEmptyDir(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	entries, err := os.ReadDir(path)
	if err != nil || len(entries) > 0 {
		return false
	}
	return os.Remove(path) == nil
}

// removeWritable retries once after clearing a read-only bit, which is what
// blocks deletion of legacy files on windows.
func removeWritable(path string) error {
	err := os.Remove(path)
	if err == nil || !errors.Is(err, fs.ErrPermission) {
		return err
	}
	if chErr := os.Chmod(path, 0o666); chErr != nil {
		return err
	}
	return os.Remove(path)
}
