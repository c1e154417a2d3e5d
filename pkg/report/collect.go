package report

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-copacetic/anchore-scan/pkg/anchore"
	"github.com/project-copacetic/anchore-scan/pkg/types"
)

// Fetcher issues GET requests against the analysis service.
type Fetcher interface {
	Get(ctx context.Context, path string, query url.Values) (*anchore.Response, error)
}

// Writer stores a report body at target.
type Writer interface {
	Write(target string, data []byte) error
}

// FileWriter writes reports to the local filesystem, creating parent
// directories as needed.
type FileWriter struct{}

func (FileWriter) Write(target string, data []byte) error {
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory for %s", target)
		}
	}
	if err := os.WriteFile(target, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrapf(err, "failed to write %s", target)
	}
	return nil
}

// Collect fetches every request in order and returns one outcome per request.
// A failed report never stops the remaining ones from being fetched.
func Collect(ctx context.Context, f Fetcher, requests []types.ReportRequest, w Writer) []types.ReportOutcome {
	outcomes := make([]types.ReportOutcome, 0, len(requests))
	for _, req := range requests {
		outcome := fetchOne(ctx, f, req, w)
		entry := log.WithFields(log.Fields{"report": req.Kind, "status": outcome.HTTPStatus})
		if outcome.Succeeded {
			entry.WithField("output", req.OutputTarget).Info("report saved")
		} else {
			entry.Errorf("report failed: %s", outcome.ErrorBody)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func fetchOne(ctx context.Context, f Fetcher, req types.ReportRequest, w Writer) types.ReportOutcome {
	outcome := types.ReportOutcome{Kind: req.Kind}

	resp, err := f.Get(ctx, req.EndpointPath, req.Query)
	if err != nil {
		outcome.ErrorBody = err.Error()
		return outcome
	}
	outcome.HTTPStatus = resp.StatusCode
	if !resp.Accepted() {
		outcome.ErrorBody = string(resp.Body)
		return outcome
	}

	if err := w.Write(req.OutputTarget, resp.Body); err != nil {
		outcome.ErrorBody = err.Error()
		return outcome
	}
	summarize(req.Kind, resp.Body)
	outcome.Succeeded = true
	return outcome
}
