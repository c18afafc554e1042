package tracker

import "errors"

// Domain errors for tracker reconciliation.
var (
	// ErrRemoteUnavailable indicates a tracker call failed after the adapter's own retries.
	ErrRemoteUnavailable = errors.New("remote tracker unavailable")

	// ErrNotAuthenticated indicates no usable tracker credentials were found.
	ErrNotAuthenticated = errors.New("remote tracker not authenticated")

	// ErrProjectMetadataUnavailable indicates project field metadata could not be resolved.
	ErrProjectMetadataUnavailable = errors.New("project metadata unavailable")

	// ErrMalformedRemoteState indicates an issue body that does not follow the checklist format.
	ErrMalformedRemoteState = errors.New("malformed remote issue body")

	// ErrIssueNotFound indicates no issue could be resolved for a spec.
	ErrIssueNotFound = errors.New("issue not found")

	// ErrSpecNotFound indicates the spec id is not present in the workspace.
	ErrSpecNotFound = errors.New("spec not found")

	// ErrPRNotMergeable indicates a pull request is closed, or has pending or failing checks.
	ErrPRNotMergeable = errors.New("pull request not mergeable")
)

// RemoteError records which tracker operation failed.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return "remote " + e.Op + ": " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match RemoteError against ErrRemoteUnavailable.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteUnavailable
}

// Remote wraps err as a RemoteError for op. A nil err stays nil.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}
