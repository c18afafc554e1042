package application

import (
	"fmt"

	"github.com/felixgeelhaar/specsync/pkg/domain"
	"github.com/felixgeelhaar/specsync/pkg/domain/config"
)

// InitOptions selects optional scaffolding.
type InitOptions struct {
	CodexWrappers bool
	Workflow      bool
}

// ScaffoldResult reports one scaffolded file.
type ScaffoldResult struct {
	Path    string
	Created bool
}

const exampleSpecPath = "specs/example.feature.md"

const initConfig = `specs:
  paths:
    - 'specs/**/*.md'
  format: 'markdown+yaml'

github:
  project_name: 'Spec Funnel'
  issue_labels:
    - 'spec'
    - 'feature'

codex:
  context_paths:
    - 'src'
    - 'tests'
`

const exampleSpec = `---
spec_id: ingest.sensor
title: Sensor ingestion pipeline
features:
  - id: ingest.validate-schema
    accept:
      - Reject packets missing fields
      - Emit structured error telemetry
---

## Overview

Describe the ingestion behavior and validation guarantees.
`

const approveWrapper = `Usage="Usage: codex approve <pr>"
PR="$1"
if [ -z "$PR" ]; then
  echo "$Usage"
  exit 1
fi

echo "Running spec coverage..."
specs coverage --pr "$PR"

echo "Approving PR via gh..."
gh pr review "$PR" --approve`

const coverageWorkflow = `name: specs coverage

on:
  pull_request:
    branches: [main]

permissions:
  pull-requests: write
  contents: read
  issues: read

jobs:
  coverage:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-go@v5
        with:
          go-version: '1.24'
      - run: go install github.com/felixgeelhaar/specsync/cmd/specs@latest
      - run: specs coverage --pr ${{ github.event.pull_request.number }}
        env:
          GITHUB_TOKEN: ${{ secrets.GITHUB_TOKEN }}
`

// InitService scaffolds a workspace. Existing files are never overwritten.
type InitService struct {
	repo domain.WorkspaceRepository
}

func NewInitService(repo domain.WorkspaceRepository) *InitService {
	return &InitService{repo: repo}
}

func wrapper(body string) string {
	return "#!/usr/bin/env bash\n" + body + "\n"
}

// Initialize writes the config, an example spec, and the selected extras.
func (s *InitService) Initialize(opts InitOptions) ([]ScaffoldResult, error) {
	type file struct {
		path    string
		content string
		mode    uint32
	}

	files := []file{
		{config.FileName, initConfig, 0600},
		{exampleSpecPath, exampleSpec, 0600},
	}
	if opts.CodexWrappers {
		files = append(files,
			file{".codex/commands/spec-next", wrapper(`specs next "$@"`), 0700},
			file{".codex/commands/spec-sync", wrapper(`specs sync "$@"`), 0700},
			file{".codex/commands/spec-coverage", wrapper(`specs coverage "$@"`), 0700},
			file{".codex/commands/approve", wrapper(approveWrapper), 0700},
		)
	}
	if opts.Workflow {
		files = append(files, file{".github/workflows/spec-coverage.yml", coverageWorkflow, 0600})
	}

	results := make([]ScaffoldResult, 0, len(files))
	for _, f := range files {
		created, err := s.repo.WriteFileIfMissing(f.path, []byte(f.content), f.mode)
		if err != nil {
			return results, fmt.Errorf("failed to scaffold %s: %w", f.path, err)
		}
		results = append(results, ScaffoldResult{Path: f.path, Created: created})
	}

	if err := s.repo.Initialize(); err != nil {
		return results, err
	}
	return results, nil
}
