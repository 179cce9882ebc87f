package installer

import (
	"context"
	"fmt"
	"os"

	"wbsetup/internal/fsutil"
)

// Copier places a release's files into an install root.
type Copier interface {
	Copy(ctx context.Context, root string) error
}

// DirChooser supplies an install root when none is recorded.
type DirChooser interface {
	ChooseDir(ctx context.Context, product string) (string, error)
}

type CopierFunc func(ctx context.Context, root string) error

func (f CopierFunc) Copy(ctx context.Context, root string) error { return f(ctx, root) }

type ChooserFunc func(ctx context.Context, product string) (string, error)

func (f ChooserFunc) ChooseDir(ctx context.Context, product string) (string, error) {
	return f(ctx, product)
}

// DirCopier copies an unpacked release directory into the install root.
type DirCopier struct {
	Source string
}

func (c DirCopier) Copy(ctx context.Context, root string) error {
	if c.Source == "" {
		return fmt.Errorf("no release source directory configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if os.Getenv("WBSETUP_TEST_FAIL_COPY") == "1" {
		return fmt.Errorf("injected copy failure")
	}
	return fsutil.CopyTree(c.Source, root)
}
