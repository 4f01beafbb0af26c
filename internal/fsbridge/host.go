package fsbridge

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// HostFS is a billy.Filesystem that acts like the native filesystem: paths are
// used as given, and Chroot roots a new OS filesystem at an absolute path.
type HostFS struct {
	osfs.ChrootOS
}

// Chroot returns a new filesystem rooted at the provided path.
//
//nolint:ireturn // billy.Filesystem is an interface; signature is dictated by upstream.
func (h *HostFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

// Root returns the root path for this filesystem.
func (h *HostFS) Root() string {
	return "/"
}

// NewHostFS creates a filesystem over the host OS.
//
//nolint:ireturn // callers work against billy.Filesystem.
func NewHostFS() billy.Filesystem {
	return &HostFS{}
}

// Exists reports whether path exists on fsys.
// Errors other than "not exist" are returned.
func Exists(fsys billy.Filesystem, path string) (bool, error) {
	_, err := fsys.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
}
