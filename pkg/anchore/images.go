package anchore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/project-copacetic/anchore-scan/pkg/types"
)

const imagesPath = "/images"

// imageRecord is the subset of the service's image object this tool reads.
type imageRecord struct {
	ImageDigest    *string `json:"imageDigest"`
	AnalysisStatus *string `json:"analysis_status"`
}

func decodeAnalysisRecord(body []byte) (*types.AnalysisRecord, error) {
	var records []imageRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, errors.Wrap(err, "response is not a JSON list of images")
	}
	if len(records) == 0 {
		return nil, errors.New("response contains no images")
	}

	first := records[0]
	if first.ImageDigest == nil || *first.ImageDigest == "" {
		return nil, errors.New("response image has no imageDigest")
	}
	if first.AnalysisStatus == nil {
		return nil, errors.New("response image has no analysis_status")
	}
	return &types.AnalysisRecord{
		Digest: *first.ImageDigest,
		Status: types.AnalysisStatus(*first.AnalysisStatus),
	}, nil
}

// AddImage registers an image for analysis and returns the record assigned to it.
func (c *Client) AddImage(ctx context.Context, req types.AnalysisRequest) (*types.AnalysisRecord, error) {
	query := url.Values{"autosubscribe": []string{"false"}}

	resp, err := c.Post(ctx, imagesPath, query, req)
	if err != nil {
		return nil, &SubmissionError{Image: req.ImageReference, Cause: err}
	}
	if !resp.Accepted() {
		return nil, &SubmissionError{Image: req.ImageReference, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	record, err := decodeAnalysisRecord(resp.Body)
	if err != nil {
		return nil, &SubmissionError{Image: req.ImageReference, StatusCode: resp.StatusCode, Body: string(resp.Body), Cause: err}
	}
	if _, err := digest.Parse(record.Digest); err != nil {
		return nil, &SubmissionError{
			Image:      req.ImageReference,
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Cause:      errors.Wrapf(err, "invalid image digest %q", record.Digest),
		}
	}

	log.WithFields(log.Fields{
		"image":  req.ImageReference,
		"digest": record.Digest,
		"status": record.Status,
	}).Info("image submitted for analysis")
	return record, nil
}

// GetImage returns the current analysis record of digest.
func (c *Client) GetImage(ctx context.Context, imageDigest string) (*types.AnalysisRecord, error) {
	resp, err := c.Get(ctx, imagePath(imageDigest), nil)
	if err != nil {
		return nil, &PollingTransportError{Digest: imageDigest, Cause: err}
	}
	if !resp.Accepted() {
		return nil, &PollingTransportError{Digest: imageDigest, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	record, err := decodeAnalysisRecord(resp.Body)
	if err != nil {
		return nil, &PollingTransportError{Digest: imageDigest, StatusCode: resp.StatusCode, Body: string(resp.Body), Cause: err}
	}
	// The digest handed out at submission stays authoritative for the run.
	record.Digest = imageDigest
	return record, nil
}

func imagePath(imageDigest string) string {
	return fmt.Sprintf("%s/%s", imagesPath, imageDigest)
}
