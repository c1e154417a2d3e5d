package scan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-copacetic/anchore-scan/pkg/anchore"
	"github.com/project-copacetic/anchore-scan/pkg/report"
	"github.com/project-copacetic/anchore-scan/pkg/types"
)

const testDigest = "sha256:02892826401a9d18f0ea01f8a2f35d328ef039db4e1edcc45c630314a0457d5b"

// fakeEngine scripts the analysis service API.
type fakeEngine struct {
	t            *testing.T
	submitStatus int
	statuses     []string
	failReports  map[string]int

	mu        sync.Mutex
	submitted []string
	polls     int
	reports   []string
}

func (e *fakeEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v1")
	switch {
	case r.Method == http.MethodPost && path == "/images":
		e.submitted = append(e.submitted, r.URL.RawQuery)
		if e.submitStatus != http.StatusOK {
			w.WriteHeader(e.submitStatus)
			_, _ = w.Write([]byte(`{"message":"rejected"}`))
			return
		}
		fmt.Fprintf(w, `[{"imageDigest":%q,"analysis_status":"not_analyzed"}]`, testDigest)

	case path == "/images/"+testDigest:
		i := e.polls
		if i >= len(e.statuses) {
			i = len(e.statuses) - 1
		}
		e.polls++
		fmt.Fprintf(w, `[{"imageDigest":%q,"analysis_status":%q}]`, testDigest, e.statuses[i])

	case strings.HasPrefix(path, "/images/"+testDigest+"/"):
		sub := strings.TrimPrefix(path, "/images/"+testDigest+"/")
		e.reports = append(e.reports, sub)
		if code, ok := e.failReports[sub]; ok {
			w.WriteHeader(code)
			_, _ = w.Write([]byte("failed " + sub))
			return
		}
		_, _ = w.Write([]byte(`{"path":"` + sub + `"}`))

	default:
		e.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	}
}

func newEngine(t *testing.T, e *fakeEngine) *types.Options {
	t.Helper()
	e.t = t
	if e.submitStatus == 0 {
		e.submitStatus = http.StatusOK
	}
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &types.Options{
		URL:          srv.URL + "/v1",
		Username:     "admin",
		Password:     "foobar",
		Image:        "alpine:3.19",
		Timeout:      5 * time.Second,
		PollInterval: 10 * time.Millisecond,
		OutputDir:    t.TempDir(),
	}
}

func TestRunSuccess(t *testing.T) {
	e := &fakeEngine{statuses: []string{"analyzing", "analyzed"}}
	opts := newEngine(t, e)

	result, err := Run(context.Background(), opts)
	require.NoError(t, err)

	assert.True(t, result.OverallSuccess)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, testDigest, result.Digest)
	assert.Equal(t, types.StatusAnalyzed, result.FinalStatus)
	assert.Equal(t, []string{"autosubscribe=false"}, e.submitted)
	assert.Equal(t, 2, e.polls)
	assert.Equal(t, []string{
		"vuln/all", "check", "content/os", "content/files",
		"content/npm", "content/gem", "content/python", "content/java",
	}, e.reports)

	require.Len(t, result.ReportOutcomes, len(types.ReportKinds))
	for _, o := range result.ReportOutcomes {
		assert.True(t, o.Succeeded, "report %s", o.Kind)
		_, err := os.Stat(filepath.Join(opts.OutputDir, report.DefaultOutputs[o.Kind]))
		assert.NoError(t, err)
	}

	data, err := os.ReadFile(filepath.Join(opts.OutputDir, "anchore_content_npm.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"path":"content/npm"}`, string(data))
}

func TestRunSubmissionRejected(t *testing.T) {
	for _, code := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			e := &fakeEngine{submitStatus: code, statuses: []string{"analyzed"}}
			opts := newEngine(t, e)

			result, err := Run(context.Background(), opts)

			var subErr *anchore.SubmissionError
			require.True(t, errors.As(err, &subErr), "expected SubmissionError, got %v", err)
			assert.Equal(t, code, subErr.StatusCode)
			assert.Contains(t, err.Error(), "rejected")
			assert.False(t, result.OverallSuccess)
			assert.Zero(t, e.polls, "no polling after a failed submission")
			assert.Empty(t, e.reports)
		})
	}
}

func TestRunPollingFailureSkipsReports(t *testing.T) {
	e := &fakeEngine{statuses: []string{"analyzing", "analysis_failed"}}
	opts := newEngine(t, e)

	result, err := Run(context.Background(), opts)

	var statusErr *anchore.UnexpectedAnalysisStatus
	require.True(t, errors.As(err, &statusErr), "expected UnexpectedAnalysisStatus, got %v", err)
	assert.Equal(t, testDigest, result.Digest)
	assert.Empty(t, result.ReportOutcomes)
	assert.Empty(t, e.reports)
}

func TestRunPollingTimeoutSkipsReports(t *testing.T) {
	e := &fakeEngine{statuses: []string{"analyzing"}}
	opts := newEngine(t, e)
	opts.Timeout = 100 * time.Millisecond

	_, err := Run(context.Background(), opts)

	var timeoutErr *anchore.PollingTimeoutError
	require.True(t, errors.As(err, &timeoutErr), "expected PollingTimeoutError, got %v", err)
	assert.Empty(t, e.reports)
}

func TestRunReportFailuresAreAggregated(t *testing.T) {
	e := &fakeEngine{
		statuses:    []string{"analyzed"},
		failReports: map[string]int{"check": http.StatusBadRequest, "content/java": http.StatusNotFound},
	}
	opts := newEngine(t, e)
	opts.PolicyBundleID = "default"

	result, err := Run(context.Background(), opts)

	var fetchErr *report.ReportFetchError
	require.True(t, errors.As(err, &fetchErr), "expected ReportFetchError, got %v", err)
	assert.Equal(t, []types.ReportKind{types.KindPolicyEvaluation, types.KindContentJava}, fetchErr.Kinds())
	assert.Contains(t, err.Error(), "failed check")
	assert.Contains(t, err.Error(), "failed content/java")

	assert.Len(t, e.reports, len(types.ReportKinds), "every report is attempted")
	assert.False(t, result.OverallSuccess)
	assert.Len(t, result.ReportOutcomes, len(types.ReportKinds))
	assert.Equal(t, 1, e.polls, "an analyzed image needs a single status check")
}

func TestRunInvalidOptions(t *testing.T) {
	valid := func() *types.Options {
		return &types.Options{
			URL:          "http://anchore:8228/v1",
			Username:     "admin",
			Password:     "foobar",
			Image:        "alpine",
			Timeout:      time.Minute,
			PollInterval: time.Second,
		}
	}
	tests := []struct {
		name   string
		mutate func(*types.Options)
	}{
		{"missing url", func(o *types.Options) { o.URL = "" }},
		{"url without scheme", func(o *types.Options) { o.URL = "anchore:8228" }},
		{"missing user", func(o *types.Options) { o.Username = "" }},
		{"missing password", func(o *types.Options) { o.Password = "" }},
		{"missing image", func(o *types.Options) { o.Image = "" }},
		{"invalid image", func(o *types.Options) { o.Image = "Alpine:Latest:Bad" }},
		{"zero timeout", func(o *types.Options) { o.Timeout = 0 }},
		{"negative interval", func(o *types.Options) { o.PollInterval = -time.Second }},
	}

	orig := newService
	defer func() { newService = orig }()
	newService = func(*types.Options) (Service, error) {
		t.Fatal("service must not be contacted with invalid options")
		return nil, nil
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := valid()
			tc.mutate(opts)
			_, err := Run(context.Background(), opts)
			assert.Error(t, err)
		})
	}
}
