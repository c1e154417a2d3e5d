package report

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/project-copacetic/anchore-scan/pkg/types"
)

// DefaultOutputs are the artifact file names used when none is configured.
var DefaultOutputs = map[types.ReportKind]string{
	types.KindVulnerabilities:  "anchore_vulnerabilities.json",
	types.KindPolicyEvaluation: "anchore_policy_evaluation.json",
	types.KindContentOS:        "anchore_content_os.json",
	types.KindContentFiles:     "anchore_content_files.json",
	types.KindContentNpm:       "anchore_content_npm.json",
	types.KindContentGem:       "anchore_content_gem.json",
	types.KindContentPython:    "anchore_content_python.json",
	types.KindContentJava:      "anchore_content_java.json",
}

var contentTypes = map[types.ReportKind]string{
	types.KindContentOS:     "os",
	types.KindContentFiles:  "files",
	types.KindContentNpm:    "npm",
	types.KindContentGem:    "gem",
	types.KindContentPython: "python",
	types.KindContentJava:   "java",
}

// Requests builds the report requests for digest in types.ReportKinds order.
func Requests(imageDigest, image, bundleID, outputDir string, outputs map[types.ReportKind]string) []types.ReportRequest {
	requests := make([]types.ReportRequest, 0, len(types.ReportKinds))
	for _, kind := range types.ReportKinds {
		name := outputs[kind]
		if name == "" {
			name = DefaultOutputs[kind]
		}
		target := name
		if outputDir != "" && !filepath.IsAbs(name) {
			target = filepath.Join(outputDir, name)
		}

		req := types.ReportRequest{Kind: kind, OutputTarget: target}
		switch kind {
		case types.KindVulnerabilities:
			req.EndpointPath = fmt.Sprintf("/images/%s/vuln/all", imageDigest)
		case types.KindPolicyEvaluation:
			req.EndpointPath = fmt.Sprintf("/images/%s/check", imageDigest)
			req.Query = policyQuery(image, bundleID)
		default:
			req.EndpointPath = fmt.Sprintf("/images/%s/content/%s", imageDigest, contentTypes[kind])
		}
		requests = append(requests, req)
	}
	return requests
}

// policyQuery leaves bundle_id out entirely when no bundle is configured so
// the service falls back to its active bundle.
func policyQuery(image, bundleID string) url.Values {
	q := url.Values{}
	if bundleID != "" {
		q.Set("bundle_id", bundleID)
	}
	q.Set("tag", image)
	q.Set("detail", "true")
	return q
}
