package anchore

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/project-copacetic/anchore-scan/pkg/types"
)

// WaitForAnalysis queries the analysis status of imageDigest every interval
// until the service reports it analyzed. The first query is sent immediately.
// Any status other than analyzed, analyzing or not_analyzed ends the wait
// with an UnexpectedAnalysisStatus, and running past timeout ends it with a
// PollingTimeoutError.
func (c *Client) WaitForAnalysis(ctx context.Context, imageDigest string, interval, timeout time.Duration) (*types.AnalysisRecord, error) {
	var (
		last    *types.AnalysisRecord
		attempt int
	)
	lastStatus := types.StatusUnknown
	deadline := time.Now().Add(timeout)

	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		attempt++
		record, err := c.GetImage(ctx, imageDigest)
		if err != nil {
			return false, err
		}
		last = record
		lastStatus = record.Status

		entry := log.WithFields(log.Fields{"digest": imageDigest, "status": record.Status, "attempt": attempt})
		switch {
		case record.Status == types.StatusAnalyzed:
			entry.Info("image analysis complete")
			return true, nil
		case record.Status.Pending():
			entry.Debugf("analysis in progress, checking again in %s", interval)
			return false, nil
		default:
			return false, &UnexpectedAnalysisStatus{Digest: imageDigest, Status: record.Status}
		}
	})
	if err == nil {
		return last, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) && !time.Now().Before(deadline) {
		return nil, &PollingTimeoutError{Digest: imageDigest, Timeout: timeout, LastStatus: lastStatus}
	}
	return nil, err
}
