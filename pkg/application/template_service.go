package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/felixgeelhaar/specsync/pkg/domain/config"
	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

// DefaultTemplateDir is where templates land when no destination is given.
const DefaultTemplateDir = ".specs/spec-kit"

// TemplateService downloads spec-kit templates.
type TemplateService struct {
	source tracker.TemplateSource
	logger *slog.Logger
}

func NewTemplateService(source tracker.TemplateSource, logger *slog.Logger) *TemplateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateService{source: source, logger: logger}
}

// Fetch writes every configured template into dest under its base name and
// returns the written paths. The first failure stops the download.
func (s *TemplateService) Fetch(ctx context.Context, cfg config.SpecKitConfig, dest string) ([]string, error) {
	if dest == "" {
		dest = DefaultTemplateDir
	}
	if err := os.MkdirAll(dest, 0750); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	var written []string
	for _, tmpl := range cfg.Templates {
		data, err := s.source.FetchFile(ctx, cfg.Repo, cfg.Ref, tmpl)
		if err != nil {
			return written, fmt.Errorf("failed to fetch template %s: %w", tmpl, err)
		}
		out := filepath.Join(dest, path.Base(tmpl))
		if err := os.WriteFile(out, data, 0600); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", out, err)
		}
		s.logger.Debug("template fetched", "template", tmpl, "path", out)
		written = append(written, out)
	}
	return written, nil
}
