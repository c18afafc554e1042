package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/coverage"
	"gopkg.in/yaml.v3"
)

const WorkspaceDir = ".specs"
const CodexDir = ".codex"
const CoverageFile = "coverage-report.json"
const CurrentTaskFile = "current-task.md"
const CodexContextFile = "context-spec-next.md"

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is a direct child of the .specs directory.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	return r.resolveIn(WorkspaceDir, filename)
}

func (r *FilesystemRepository) resolveIn(dir, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Join(r.root, dir)
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

// resolveRelative ensures rel stays inside the workspace root.
func (r *FilesystemRepository) resolveRelative(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid file path: %s", rel)
	}
	root := filepath.Clean(r.root)
	cleanPath := filepath.Clean(filepath.Join(root, rel))
	if cleanPath == root || !strings.HasPrefix(cleanPath, root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path: %s", rel)
	}
	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, WorkspaceDir)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", WorkspaceDir, err)
	}
	return nil
}

// LoadConfig reads .specs.yml. A missing file yields the defaults; sections
// present in the file replace the matching defaults field by field.
func (r *FilesystemRepository) LoadConfig() (*config.Config, error) {
	retryer := retry.New[*config.Config](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*config.Config, error) {
		path := filepath.Join(r.root, config.FileName)

		// #nosec G304 -- fixed file name under the workspace root
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return config.Default(), nil
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		cfg := config.Default()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		cfg.Normalize()
		return cfg, nil
	})
}

func (r *FilesystemRepository) SaveConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// G306: Use 0600 for files
	return os.WriteFile(filepath.Join(r.root, config.FileName), data, 0600)
}

// SaveCoverageReport writes the report and returns its path.
func (r *FilesystemRepository) SaveCoverageReport(report *coverage.Report) (string, error) {
	if err := r.Initialize(); err != nil {
		return "", err
	}
	path, err := r.ResolvePath(CoverageFile)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal coverage report: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write coverage report: %w", err)
	}
	return path, nil
}

func (r *FilesystemRepository) LoadCoverageReport() (*coverage.Report, error) {
	retryer := retry.New[*coverage.Report](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*coverage.Report, error) {
		path, err := r.ResolvePath(CoverageFile)
		if err != nil {
			return nil, err
		}

		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read coverage report: %w", err)
		}

		var report coverage.Report
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal coverage report: %w", err)
		}
		return &report, nil
	})
}

// WriteTaskContext writes the current task for humans (.specs/current-task.md)
// and for coding agents (.codex/context-spec-next.md).
func (r *FilesystemRepository) WriteTaskContext(task, agentContext string) ([]string, error) {
	taskPath, err := r.ResolvePath(CurrentTaskFile)
	if err != nil {
		return nil, err
	}
	codexPath, err := r.resolveIn(CodexDir, CodexContextFile)
	if err != nil {
		return nil, err
	}

	for _, p := range []struct{ path, content string }{{taskPath, task}, {codexPath, agentContext}} {
		if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(p.path), err)
		}
		if err := os.WriteFile(p.path, []byte(p.content), 0600); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p.path, err)
		}
	}
	return []string{taskPath, codexPath}, nil
}

func (r *FilesystemRepository) WriteFileIfMissing(rel string, content []byte, mode uint32) (bool, error) {
	path, err := r.resolveRelative(rel)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat %s: %w", rel, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return false, fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(path, content, os.FileMode(mode)); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return true, nil
}
