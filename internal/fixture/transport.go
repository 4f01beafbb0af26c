package fixture

import (
	"sync"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/client"
	"github.com/go-git/go-git/v5/plumbing/transport/server"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/fsbridge"
)

var installOnce sync.Once

// InstallFileTransport serves file:// and plain-path remotes in process, so
// tests do not depend on git-upload-pack being installed. It is safe to call
// from every test.
func InstallFileTransport() {
	installOnce.Do(func() {
		client.InstallProtocol("file", server.NewServer(loader{}))
	})
}

// loader opens a repository for an endpoint path. Paths may name a bare
// repository, a .git directory or a working directory containing .git.
type loader struct{}

func (loader) Load(ep *transport.Endpoint) (storer.Storer, error) {
	fs := osfs.New(ep.Path)

	if ok, _ := fsbridge.Exists(fs, ".git/config"); ok {
		dotGit, err := fs.Chroot(".git")
		if err != nil {
			return nil, err
		}
		fs = dotGit
	} else if ok, _ := fsbridge.Exists(fs, "config"); !ok {
		return nil, transport.ErrRepositoryNotFound
	}

	return filesystem.NewStorage(fs, cache.NewObjectLRUDefault()), nil
}
