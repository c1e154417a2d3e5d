package report

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/project-copacetic/anchore-scan/pkg/types"
)

// FailedReport is the error recorded for one report that could not be saved.
type FailedReport struct {
	Outcome types.ReportOutcome
}

func (e *FailedReport) Error() string {
	if e.Outcome.HTTPStatus == 0 {
		return fmt.Sprintf("%s report failed: %s", e.Outcome.Kind, e.Outcome.ErrorBody)
	}
	return fmt.Sprintf("%s report failed (HTTP %d): %s", e.Outcome.Kind, e.Outcome.HTTPStatus, e.Outcome.ErrorBody)
}

// ReportFetchError carries every failed report of a run.
type ReportFetchError struct {
	errs *multierror.Error
}

func (e *ReportFetchError) Error() string { return e.errs.Error() }

func (e *ReportFetchError) Unwrap() error { return e.errs }

// Kinds returns the failed report kinds in fetch order.
func (e *ReportFetchError) Kinds() []types.ReportKind {
	kinds := make([]types.ReportKind, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		if f, ok := err.(*FailedReport); ok {
			kinds = append(kinds, f.Outcome.Kind)
		}
	}
	return kinds
}

func formatFailures(errs []error) string {
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, "\t* "+err.Error())
	}
	return fmt.Sprintf("%d of the reports failed:\n%s", len(errs), strings.Join(lines, "\n"))
}

// Aggregate returns nil when every outcome succeeded, and otherwise a
// ReportFetchError listing all failures.
func Aggregate(outcomes []types.ReportOutcome) error {
	var result *multierror.Error
	for _, o := range outcomes {
		if !o.Succeeded {
			result = multierror.Append(result, &FailedReport{Outcome: o})
		}
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = formatFailures
	return &ReportFetchError{errs: result}
}
