package application

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/specsync/pkg/domain/spec"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const frontMatterSchemaJSON = `{
  "type": "object",
  "properties": {
    "spec_id": {"type": ["string", "number"]},
    "id": {"type": ["string", "number"]},
    "title": {"type": ["string", "number", "null"]},
    "features": {
      "type": ["array", "object", "string", "null"],
      "items": {
        "type": ["string", "object"],
        "properties": {
          "id": {"type": ["string", "number"]},
          "accept": {"type": ["string", "array", "null"], "items": {"type": ["string", "number", "boolean"]}}
        }
      },
      "properties": {
        "id": {"type": ["string", "number"]},
        "accept": {"type": ["string", "array", "null"]}
      }
    }
  }
}`

var frontMatterSchema = gojsonschema.NewStringLoader(frontMatterSchemaJSON)

// SpecService discovers and parses spec documents in a workspace.
type SpecService struct {
	root   string
	logger *slog.Logger
}

func NewSpecService(root string, logger *slog.Logger) *SpecService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpecService{root: root, logger: logger}
}

// LoadSpecs parses every file matching patterns. Files that fail to parse are
// logged and skipped so one broken spec does not block the rest.
func (s *SpecService) LoadSpecs(patterns []string) ([]*spec.Document, error) {
	if len(patterns) == 0 {
		patterns = []string{spec.DefaultPattern}
	}

	files, err := s.discover(patterns)
	if err != nil {
		return nil, err
	}

	docs := make([]*spec.Document, 0, len(files))
	for _, file := range files {
		doc, err := s.ParseSpecFile(file)
		if err != nil {
			s.logger.Warn("failed to parse spec file", "file", file, "error", err)
			continue
		}
		for _, w := range doc.Warnings() {
			s.logger.Warn("spec warning", "spec_id", doc.ID, "warning", w)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// FindSpec returns the spec with the given id, or nil.
func FindSpec(docs []*spec.Document, specID string) *spec.Document {
	for _, d := range docs {
		if d.ID == specID {
			return d
		}
	}
	return nil
}

func (s *SpecService) discover(patterns []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			name := d.Name()
			if p != s.root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range patterns {
			if spec.MatchPattern(pattern, rel) {
				files = append(files, p)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}
	return files, nil
}

// ParseSpecFile reads a markdown file with YAML front matter into a Document.
func (s *SpecService) ParseSpecFile(file string) (*spec.Document, error) {
	// #nosec G304 -- file comes from walking the workspace root
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	data, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, err
	}

	if err := validateFrontMatter(data); err != nil {
		return nil, err
	}

	source := file
	if rel, err := filepath.Rel(s.root, file); err == nil {
		source = filepath.ToSlash(rel)
	}

	specID := scalarString(data["spec_id"])
	if specID == "" {
		specID = scalarString(data["id"])
	}
	if specID == "" {
		base := filepath.Base(file)
		specID = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return &spec.Document{
		ID:       specID,
		Title:    scalarString(data["title"]),
		Features: normalizeFeatures(data["features"], specID),
		Body:     strings.TrimSpace(body),
		Source:   source,
	}, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block from the body.
// A file without front matter has empty data.
func splitFrontMatter(raw []byte) (map[string]any, string, error) {
	data := map[string]any{}
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "---" {
		return data, string(raw), nil
	}

	var fm, body strings.Builder
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if !closed {
			if strings.TrimSpace(line) == "---" {
				closed = true
				continue
			}
			fm.WriteString(line + "\n")
			continue
		}
		body.WriteString(line + "\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to scan spec file: %w", err)
	}
	if !closed {
		return nil, "", fmt.Errorf("unterminated front matter")
	}

	if err := yaml.Unmarshal([]byte(fm.String()), &data); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal front matter: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, body.String(), nil
}

func validateFrontMatter(data map[string]any) error {
	result, err := gojsonschema.Validate(frontMatterSchema, gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate front matter: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("invalid front matter: %s", strings.Join(problems, "; "))
	}
	return nil
}

// normalizeFeatures accepts a list of strings or objects, a single object, or
// nothing. Anything else yields one feature named after the spec.
func normalizeFeatures(raw any, fallbackID string) []spec.Feature {
	switch v := raw.(type) {
	case []any:
		features := make([]spec.Feature, 0, len(v))
		for _, entry := range v {
			switch e := entry.(type) {
			case string:
				features = append(features, spec.Feature{ID: e})
			case map[string]any:
				features = append(features, featureFromMap(e, fallbackID))
			}
		}
		return features
	case map[string]any:
		return []spec.Feature{featureFromMap(v, fallbackID)}
	default:
		return []spec.Feature{{ID: fallbackID}}
	}
}

func featureFromMap(obj map[string]any, fallbackID string) spec.Feature {
	id := scalarString(obj["id"])
	if id == "" {
		id = fallbackID
	}
	var accept []string
	switch a := obj["accept"].(type) {
	case []any:
		for _, item := range a {
			accept = append(accept, scalarString(item))
		}
	case nil:
	default:
		if s := scalarString(a); s != "" {
			accept = []string{s}
		}
	}
	return spec.Feature{ID: id, Accept: accept}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
