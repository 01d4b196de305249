package risk

import (
	"sort"
	"strings"

	"vigia/internal/identity"
)

// Target is a representative whose company portfolio warrants a manual
// review: enough companies, at least one in a sector of interest.
type Target struct {
	PersonID     string   `json:"person_id"`
	PersonName   string   `json:"person_name"`
	CompanyCount int      `json:"company_count"`
	Companies    []string `json:"companies"`
	Sectors      []string `json:"sectors"`
}

// PriorityTargets scans the resolved persons for representatives worth a
// manual review: linked to at least cfg.TargetMinCompanies companies, or
// holding a company in a configured sector of interest. Results are sorted
// by descending company count, then person name.
func (e *Engine) PriorityTargets() []Target {
	var targets []Target

	for pid, person := range e.persons {
		companies := e.idx.PersonToCompanies[pid]
		sectors := e.matchSectors(person)
		if len(companies) < e.cfg.TargetMinCompanies && len(sectors) == 0 {
			continue
		}

		names := make([]string, 0, len(person.Companies))
		for _, ref := range person.Companies {
			names = append(names, ref.RazonSocial)
		}

		targets = append(targets, Target{
			PersonID:     pid,
			PersonName:   person.Name,
			CompanyCount: len(companies),
			Companies:    names,
			Sectors:      sectors,
		})
	}

	sort.Slice(targets, func(i, j int) bool {
		if targets[i].CompanyCount != targets[j].CompanyCount {
			return targets[i].CompanyCount > targets[j].CompanyCount
		}
		return targets[i].PersonName < targets[j].PersonName
	})
	return targets
}

// matchSectors returns the keywords that appear in any of the person's
// company names, in configured order.
func (e *Engine) matchSectors(person *identity.Person) []string {
	var matched []string
	for _, keyword := range e.cfg.TargetKeywords {
		upper := strings.ToUpper(keyword)
		for _, ref := range person.Companies {
			if strings.Contains(strings.ToUpper(ref.RazonSocial), upper) {
				matched = append(matched, keyword)
				break
			}
		}
	}
	return matched
}
