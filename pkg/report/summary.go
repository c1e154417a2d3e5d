package report

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/project-copacetic/anchore-scan/pkg/types"
)

type vulnerabilityReport struct {
	ImageDigest     string `json:"imageDigest"`
	Vulnerabilities []struct {
		Vuln     string `json:"vuln"`
		Severity string `json:"severity"`
	} `json:"vulnerabilities"`
}

type contentReport struct {
	ContentType string            `json:"content_type"`
	Content     []json.RawMessage `json:"content"`
}

// policyCheck mirrors the check response: digest -> tag -> evaluations.
type policyCheck []map[string]map[string][]struct {
	Status   string `json:"status"`
	PolicyID string `json:"policyId"`
}

// summarize logs a short digest of a saved report. Bodies that do not match
// the expected shape are only noted at debug level.
func summarize(kind types.ReportKind, body []byte) {
	entry := log.WithField("report", kind)

	switch kind {
	case types.KindVulnerabilities:
		var r vulnerabilityReport
		if err := json.Unmarshal(body, &r); err != nil {
			entry.Debugf("could not summarize vulnerability report: %v", err)
			return
		}
		bySeverity := map[string]int{}
		for _, v := range r.Vulnerabilities {
			bySeverity[v.Severity]++
		}
		entry.WithField("bySeverity", bySeverity).Infof("found %d vulnerabilities", len(r.Vulnerabilities))

	case types.KindPolicyEvaluation:
		var r policyCheck
		if err := json.Unmarshal(body, &r); err != nil {
			entry.Debugf("could not summarize policy evaluation: %v", err)
			return
		}
		status, policyID := policyStatus(r)
		if status == "" {
			entry.Debug("policy evaluation carries no status")
			return
		}
		entry.WithField("policyId", policyID).Infof("policy evaluation status: %s", status)

	default:
		var r contentReport
		if err := json.Unmarshal(body, &r); err != nil {
			entry.Debugf("could not summarize content report: %v", err)
			return
		}
		entry.Infof("found %d %s content entries", len(r.Content), r.ContentType)
	}
}

func policyStatus(r policyCheck) (status, policyID string) {
	for _, byDigest := range r {
		for _, byTag := range byDigest {
			for _, evals := range byTag {
				for _, e := range evals {
					if e.Status != "" {
						return e.Status, e.PolicyID
					}
				}
			}
		}
	}
	return "", ""
}
