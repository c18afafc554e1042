package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/specsync/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
)

// buildServices is swapped in tests to inject a tracker.
var buildServices = wiring.BuildAppServices

func loadServices(root string) (*wiring.AppServices, error) {
	services, err := buildServices(root, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}
	return services, nil
}

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

func loadServicesForCurrentDir() (*wiring.AppServices, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	return loadServices(root)
}

// loadSpecs parses the specs matched by the configured paths.
func loadSpecs(services *wiring.AppServices) ([]*spec.Document, error) {
	docs, err := services.Spec.LoadSpecs(services.Workspace.Config.Specs.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}
	return docs, nil
}
