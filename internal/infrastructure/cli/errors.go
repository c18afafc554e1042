package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/specsync/pkg/domain/tracker"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors and errors that already are CLIErrors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	switch {
	case errors.Is(err, tracker.ErrNotAuthenticated):
		return NewCLIError("not authenticated with GitHub", "Export GITHUB_TOKEN or GH_TOKEN with repo and project scopes", err)
	case errors.Is(err, tracker.ErrSpecNotFound):
		return NewCLIError("spec not found", "Run 'specs scan' to list spec ids", err)
	case errors.Is(err, tracker.ErrIssueNotFound):
		return NewCLIError("no issue found for spec", "Run 'specs sync' first, or pass --issue", err)
	case errors.Is(err, tracker.ErrPRNotMergeable):
		return NewCLIError("pull request cannot be merged", "Wait for checks to pass, then retry 'specs ship'", err)
	case errors.Is(err, tracker.ErrProjectMetadataUnavailable):
		return NewCLIError("project board metadata unavailable", "Check project_owner, project_number and status_field in .specs.yml", err)
	}

	var remoteErr *tracker.RemoteError
	if errors.As(err, &remoteErr) {
		return NewCLIError(
			fmt.Sprintf("GitHub request %s failed", remoteErr.Op),
			"Check network access and GitHub status, then retry",
			err,
		)
	}

	return err
}
