package anchore

import (
	"fmt"
	"time"

	"github.com/project-copacetic/anchore-scan/pkg/types"
)

// SubmissionError is returned when the service rejects an image or answers
// with a body that cannot be turned into an analysis record.
type SubmissionError struct {
	Image      string
	StatusCode int
	Body       string
	Cause      error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Cause != nil && e.StatusCode != 0:
		return fmt.Sprintf("image submission failed for %s (HTTP %d): %v: %s", e.Image, e.StatusCode, e.Cause, e.Body)
	case e.Cause != nil:
		return fmt.Sprintf("image submission failed for %s: %v", e.Image, e.Cause)
	default:
		return fmt.Sprintf("image submission failed for %s (HTTP %d): %s", e.Image, e.StatusCode, e.Body)
	}
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// PollingTransportError is returned when a status query fails at the HTTP level.
type PollingTransportError struct {
	Digest     string
	StatusCode int
	Body       string
	Cause      error
}

func (e *PollingTransportError) Error() string {
	switch {
	case e.Cause != nil && e.StatusCode != 0:
		return fmt.Sprintf("analysis status query failed for %s (HTTP %d): %v: %s", e.Digest, e.StatusCode, e.Cause, e.Body)
	case e.Cause != nil:
		return fmt.Sprintf("analysis status query failed for %s: %v", e.Digest, e.Cause)
	}
	return fmt.Sprintf("analysis status query failed for %s (HTTP %d): %s", e.Digest, e.StatusCode, e.Body)
}

func (e *PollingTransportError) Unwrap() error { return e.Cause }

// PollingTimeoutError is returned when analysis does not finish in time.
type PollingTimeoutError struct {
	Digest     string
	Timeout    time.Duration
	LastStatus types.AnalysisStatus
}

func (e *PollingTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for analysis of %s (last status %q)", e.Timeout, e.Digest, e.LastStatus)
}

// UnexpectedAnalysisStatus is returned when the service reports a status that
// is neither done nor in progress.
type UnexpectedAnalysisStatus struct {
	Digest string
	Status types.AnalysisStatus
}

func (e *UnexpectedAnalysisStatus) Error() string {
	return fmt.Sprintf("unexpected analysis status %q for %s", e.Status, e.Digest)
}
