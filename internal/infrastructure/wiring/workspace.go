package wiring

import (
	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/storage"
)

// Workspace bundles the repository with its loaded configuration.
type Workspace struct {
	Root   string
	Repo   *storage.FilesystemRepository
	Config *config.Config
}

// NewWorkspace opens the workspace at root. A missing .specs.yml yields defaults.
func NewWorkspace(root string) (*Workspace, error) {
	repo := storage.NewFilesystemRepository(root)
	cfg, err := repo.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Root:   root,
		Repo:   repo,
		Config: cfg,
	}, nil
}
