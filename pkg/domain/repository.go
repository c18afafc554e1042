package domain

import (
	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/coverage"
)

// WorkspaceRepository persists specsync artifacts: the .specs.yml config at the
// workspace root and generated files under .specs/.
type WorkspaceRepository interface {
	Root() string
	Initialize() error
	LoadConfig() (*config.Config, error)
	SaveConfig(cfg *config.Config) error
	SaveCoverageReport(report *coverage.Report) (string, error)
	LoadCoverageReport() (*coverage.Report, error)
	WriteTaskContext(task, agentContext string) ([]string, error)
	// WriteFileIfMissing writes content to a root-relative path unless it exists.
	WriteFileIfMissing(rel string, content []byte, mode uint32) (bool, error)
}
