package application_test

import (
	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/coverage"
)

type MockRepo struct {
	RootDir     string
	Config      *config.Config
	Report      *coverage.Report
	Files       map[string][]byte
	Modes       map[string]uint32
	Task        string
	AgentTask   string
	Initialized bool
	SaveError   error
	LoadError   error
}

func NewMockRepo() *MockRepo {
	return &MockRepo{Files: map[string][]byte{}, Modes: map[string]uint32{}}
}

func (m *MockRepo) Root() string      { return m.RootDir }
func (m *MockRepo) Initialize() error { m.Initialized = true; return m.SaveError }
func (m *MockRepo) LoadConfig() (*config.Config, error) {
	if m.Config == nil {
		return config.Default(), m.LoadError
	}
	return m.Config, m.LoadError
}
func (m *MockRepo) SaveConfig(c *config.Config) error { m.Config = c; return m.SaveError }
func (m *MockRepo) SaveCoverageReport(r *coverage.Report) (string, error) {
	m.Report = r
	return ".specs/coverage-report.json", m.SaveError
}
func (m *MockRepo) LoadCoverageReport() (*coverage.Report, error) { return m.Report, m.LoadError }
func (m *MockRepo) WriteTaskContext(task, agent string) ([]string, error) {
	m.Task, m.AgentTask = task, agent
	return []string{".specs/current-task.md", ".codex/context-spec-next.md"}, m.SaveError
}
func (m *MockRepo) WriteFileIfMissing(rel string, content []byte, mode uint32) (bool, error) {
	if m.SaveError != nil {
		return false, m.SaveError
	}
	if _, ok := m.Files[rel]; ok {
		return false, nil
	}
	m.Files[rel] = content
	m.Modes[rel] = mode
	return true, nil
}
