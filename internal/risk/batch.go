package risk

import (
	"fmt"
	"sort"
	"strings"
)

// summaryTopFactors bounds how many factors the ranked summary prints per
// entity; the full list stays in the report.
const summaryTopFactors = 3

// Rank sorts reports by descending score, breaking ties by entity name so
// batch output is stable. The input slice is sorted in place and returned.
func Rank(reports []Report) []Report {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].RiskScore != reports[j].RiskScore {
			return reports[i].RiskScore > reports[j].RiskScore
		}
		return reports[i].Entity < reports[j].Entity
	})
	return reports
}

// RankedSummary renders the dashboard view of a batch: one line per entity
// in descending score order, with its top factors indented beneath.
func RankedSummary(reports []Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%-8s | %-5s | %s\n", "RISK", "SCORE", "ENTITY"))
	b.WriteString(strings.Repeat("-", 60) + "\n")

	for _, r := range Rank(reports) {
		b.WriteString(fmt.Sprintf("%-8s | %5.0f | %s\n", r.RiskLevel, r.RiskScore, r.Entity))
		limit := len(r.Factors)
		if limit > summaryTopFactors {
			limit = summaryTopFactors
		}
		for _, factor := range r.Factors[:limit] {
			b.WriteString("   - " + factor + "\n")
		}
		if len(r.Factors) > summaryTopFactors {
			b.WriteString(fmt.Sprintf("   ... y %d factores más\n", len(r.Factors)-summaryTopFactors))
		}
	}

	return b.String()
}
