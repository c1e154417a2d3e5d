package scan

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-copacetic/anchore-scan/pkg/anchore"
	"github.com/project-copacetic/anchore-scan/pkg/report"
	"github.com/project-copacetic/anchore-scan/pkg/types"
	"github.com/project-copacetic/anchore-scan/pkg/utils"
)

// Service is the part of the analysis service API a scan run uses.
type Service interface {
	AddImage(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisRecord, error)
	WaitForAnalysis(ctx context.Context, imageDigest string, interval, timeout time.Duration) (*types.AnalysisRecord, error)
	report.Fetcher
}

// For testing.
var (
	newService = func(opts *types.Options) (Service, error) {
		return anchore.NewClient(opts.URL, opts.Username, opts.Password,
			anchore.WithRequestTimeout(opts.RequestTimeout),
			anchore.WithInsecureSkipTLSVerify(opts.InsecureSkipTLSVerify),
		)
	}
	newWriter = func() report.Writer { return report.FileWriter{} }
)

func validateOptions(opts *types.Options) error {
	if opts.URL == "" {
		return errors.New("service url is required")
	}
	u, err := url.Parse(opts.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("service url %q must include scheme and host", opts.URL)
	}
	if opts.Username == "" || opts.Password == "" {
		return errors.New("service username and password are required")
	}
	if opts.Image == "" {
		return errors.New("image reference is required")
	}
	if opts.Timeout <= 0 {
		return errors.Errorf("analysis timeout must be positive, got %s", opts.Timeout)
	}
	if opts.PollInterval <= 0 {
		return errors.Errorf("poll interval must be positive, got %s", opts.PollInterval)
	}
	return nil
}

// Run submits opts.Image for analysis, waits for the analysis to finish and
// saves every report. Submission and polling failures are returned as soon as
// they happen; report failures are returned together once all reports were
// attempted.
func Run(ctx context.Context, opts *types.Options) (*types.RunResult, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	image, err := utils.NormalizeImageRef(opts.Image)
	if err != nil {
		return nil, errors.Wrap(err, "invalid image reference")
	}

	svc, err := newService(opts)
	if err != nil {
		return nil, err
	}
	return run(ctx, svc, newWriter(), opts, image)
}

func run(ctx context.Context, svc Service, w report.Writer, opts *types.Options, image string) (*types.RunResult, error) {
	result := &types.RunResult{RunID: uuid.New().String()}

	fields := log.Fields{"run": result.RunID, "image": image}
	if registry, repository, err := utils.ImageFields(image); err == nil {
		fields["registry"] = registry
		fields["repository"] = repository
	}
	logger := log.WithFields(fields)
	logger.Info("starting image scan")

	record, err := svc.AddImage(ctx, types.AnalysisRequest{ImageReference: image})
	if err != nil {
		return result, err
	}
	result.Digest = record.Digest
	result.FinalStatus = record.Status
	logger = logger.WithField("digest", record.Digest)

	logger.Infof("waiting up to %s for analysis", opts.Timeout)
	record, err = svc.WaitForAnalysis(ctx, result.Digest, opts.PollInterval, opts.Timeout)
	if err != nil {
		return result, err
	}
	result.FinalStatus = record.Status

	requests := report.Requests(result.Digest, image, opts.PolicyBundleID, opts.OutputDir, opts.Outputs)
	result.ReportOutcomes = report.Collect(ctx, svc, requests, w)

	if err := report.Aggregate(result.ReportOutcomes); err != nil {
		return result, err
	}
	result.OverallSuccess = true
	logger.Infof("all %d reports saved", len(result.ReportOutcomes))
	return result, nil
}
