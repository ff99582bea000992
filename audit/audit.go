// Package audit checks documents for citations to superseded law. It
// extracts citation-shaped strings, resolves each against the knowledge
// graph, and flags provisions replaced across the legacy/current regime
// bridge.
package audit

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/dharmasetu/setu/kg"
)

// Finding statuses and severities. Citations that resolve to a current
// provision produce no finding at all.
const (
	StatusOutdated = "OUTDATED"
	StatusWarning  = "WARNING"

	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
)

// Finding flags one citation as outdated or warranting review.
type Finding struct {
	Citation   string `json:"citation"`
	Status     string `json:"status"`
	Suggestion string `json:"suggestion"`
	Reasoning  string `json:"reasoning"`
	Severity   string `json:"severity"`
}

// Report is the audit result for one document.
type Report struct {
	Filename       string    `json:"filename"`
	Findings       []Finding `json:"findings"`
	TotalCitations int       `json:"total_citations"`
}

// citationPattern is the high-precision citation shape used for audit.
// Deliberately wider than the extractor's shapes: it captures the code
// qualifier ("Section 302 IPC") the fuzzy node match relies on.
var citationPattern = regexp.MustCompile(
	`(?i)(?:Section|Article|Order|Rule)\s+\d+[A-Z]?(?:\s+(?:of|under|read with))?\s*(?:IPC|BNS|Constitution|Code|Act)?`)

// maxCitationLen guards against pathological over-matches.
const maxCitationLen = 50

// Auditor audits documents against a loaded knowledge graph. Read-only
// with respect to the graph; one Auditor serves all requests.
type Auditor struct {
	graph *kg.Graph
}

// New creates an Auditor over g.
func New(g *kg.Graph) *Auditor {
	return &Auditor{graph: g}
}

// ExtractCitations returns the distinct citation candidates in text, in
// first-match order. Matches of 50 characters or more are discarded.
func (a *Auditor) ExtractCitations(text string) []string {
	var citations []string
	seen := make(map[string]bool)
	for _, m := range citationPattern.FindAllString(text, -1) {
		m = strings.TrimSpace(m)
		if len(m) >= maxCitationLen || seen[m] {
			continue
		}
		seen[m] = true
		citations = append(citations, m)
	}
	return citations
}

// Audit runs the two-stage check over a document's text: extract
// citations, then classify each against the graph.
func (a *Auditor) Audit(text, filename string) Report {
	citations := a.ExtractCitations(text)
	slog.Info("audit: citations extracted", "filename", filename, "count", len(citations))

	var findings []Finding
	for _, citation := range citations {
		if f, ok := a.checkCitation(citation); ok {
			findings = append(findings, f)
		}
	}

	return Report{
		Filename:       filename,
		Findings:       findings,
		TotalCitations: len(citations),
	}
}

// checkCitation classifies one citation. A citation matching a legacy
// node with a legacy-to-current equivalence edge is OUTDATED; an
// unmatched citation naming the IPC without its year is a WARNING;
// anything else produces no finding.
func (a *Auditor) checkCitation(citation string) (Finding, bool) {
	citationUpper := strings.ToUpper(citation)

	matched, ok := a.matchNode(citationUpper)
	if !ok {
		if strings.Contains(citationUpper, "IPC") && !strings.Contains(citationUpper, "1860") {
			return Finding{
				Citation:   citation,
				Status:     StatusWarning,
				Suggestion: "Check BNS Equivalent",
				Reasoning:  "Legacy IPC reference detected.",
				Severity:   SeverityMedium,
			}, true
		}
		return Finding{}, false
	}

	// At most one OUTDATED finding per citation: stop at the first
	// qualifying equivalence edge.
	for _, edge := range a.graph.OutEdges(matched) {
		if edge.Relation != kg.RelEquivalentTo {
			continue
		}
		src, _ := a.graph.Node(edge.Source)
		tgt, _ := a.graph.Node(edge.Target)
		if src.Regime == kg.RegimeLegacy && tgt.Regime == kg.RegimeCurrent {
			return Finding{
				Citation:   citation,
				Status:     StatusOutdated,
				Suggestion: edge.Target,
				Reasoning:  "Provision " + edge.Source + " replaced by " + edge.Target + ".",
				Severity:   SeverityHigh,
			}, true
		}
	}
	return Finding{}, false
}

// matchNode resolves a citation to a graph node by containment: a node
// matches if its upper-cased label (longer than 5 characters, to avoid
// matching on bare numbers) is a substring of the citation. The longest
// matching label wins; ties resolve to the earliest-inserted node.
func (a *Auditor) matchNode(citationUpper string) (string, bool) {
	var best string
	bestLen := 0
	for _, node := range a.graph.AllNodes() {
		label := strings.ToUpper(node.Label)
		if len(label) <= 5 || len(label) <= bestLen {
			continue
		}
		if strings.Contains(citationUpper, label) {
			best = node.Label
			bestLen = len(label)
		}
	}
	return best, bestLen > 0
}
