package types

import (
	"net/url"
	"time"
)

// AnalysisStatus is the processing stage the service reports for a digest.
type AnalysisStatus string

const (
	StatusNotAnalyzed    AnalysisStatus = "not_analyzed"
	StatusAnalyzing      AnalysisStatus = "analyzing"
	StatusAnalyzed       AnalysisStatus = "analyzed"
	StatusAnalysisFailed AnalysisStatus = "analysis_failed"
	StatusUnknown        AnalysisStatus = "unknown"
)

// Pending reports whether the service is still working on the image.
func (s AnalysisStatus) Pending() bool {
	return s == StatusNotAnalyzed || s == StatusAnalyzing
}

type AnalysisRequest struct {
	ImageReference string `json:"tag"`
}

type AnalysisRecord struct {
	Digest string         `json:"imageDigest"`
	Status AnalysisStatus `json:"analysis_status"`
}

type ReportKind string

const (
	KindVulnerabilities  ReportKind = "vulnerabilities"
	KindPolicyEvaluation ReportKind = "policy_evaluation"
	KindContentOS        ReportKind = "content_os"
	KindContentFiles     ReportKind = "content_files"
	KindContentNpm       ReportKind = "content_npm"
	KindContentGem       ReportKind = "content_gem"
	KindContentPython    ReportKind = "content_python"
	KindContentJava      ReportKind = "content_java"
)

// ReportKinds lists every report in fetch order.
var ReportKinds = []ReportKind{
	KindVulnerabilities,
	KindPolicyEvaluation,
	KindContentOS,
	KindContentFiles,
	KindContentNpm,
	KindContentGem,
	KindContentPython,
	KindContentJava,
}

type ReportRequest struct {
	Kind         ReportKind
	EndpointPath string
	Query        url.Values
	OutputTarget string
}

type ReportOutcome struct {
	Kind       ReportKind
	HTTPStatus int
	Succeeded  bool
	ErrorBody  string
}

type RunResult struct {
	RunID          string
	Digest         string
	FinalStatus    AnalysisStatus
	ReportOutcomes []ReportOutcome
	OverallSuccess bool
}

// Options holds everything a scan run needs.
type Options struct {
	URL                   string
	Username              string
	Password              string
	Image                 string
	PolicyBundleID        string
	Timeout               time.Duration
	PollInterval          time.Duration
	RequestTimeout        time.Duration
	InsecureSkipTLSVerify bool
	OutputDir             string
	// Outputs maps a report kind to its file name; missing kinds use defaults.
	Outputs map[ReportKind]string
}
