package risk

import (
	"vigia/internal/intel"
	"vigia/internal/registry"
)

// Level is the ordinal risk category derived from the final score.
type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelHigh     Level = "HIGH"
	LevelMedium   Level = "MEDIUM"
	LevelLow      Level = "LOW"

	// LevelNotFound marks the sentinel report returned when the requested
	// entity is absent from the loaded supplier snapshot. The engine never
	// produces it; the service layer does, so downstream consumers always
	// receive a well-formed report.
	LevelNotFound Level = "NOT_FOUND"
)

// Report is the immutable outcome of scoring one supplier. Factors are
// de-duplicated human-readable sentences; Evidence carries the structured
// breakdown per signal source.
type Report struct {
	Entity       string   `json:"entity"`
	RPE          string   `json:"rpe"`
	Address      string   `json:"address,omitempty"`
	RiskScore    float64  `json:"risk_score"`
	RiskLevel    Level    `json:"risk_level"`
	VeracityRank int      `json:"veracity_rank"`
	Factors      []string `json:"factors"`
	Evidence     Evidence `json:"evidence"`
}

// Evidence is the per-signal structured breakdown backing a report.
type Evidence struct {
	News        []intel.Hit              `json:"news"`
	Social      []intel.Hit              `json:"social"`
	Forensics   []registry.ForensicHit   `json:"forensics"`
	PhysicalHub PhysicalHub              `json:"physical_hub"`
	PEP         []registry.PEPRecord     `json:"pep,omitempty"`
	Payroll     []registry.PayrollRecord `json:"payroll,omitempty"`
	Network     []NetworkDetail          `json:"network,omitempty"`
}

// PhysicalHub describes the address-cluster evidence for a supplier.
type PhysicalHub struct {
	Address          string `json:"address,omitempty"`
	UniqueOwnerCount int    `json:"unique_owner_count"`
}

// NetworkDetail records one representative's company concentration.
type NetworkDetail struct {
	Type       string `json:"type"`
	PersonID   string `json:"person_id"`
	PersonName string `json:"person"`
	Count      int    `json:"count"`
}

// NotFoundReport is the sentinel returned for unknown entities.
func NotFoundReport(entityID string) Report {
	return Report{
		Entity:    entityID,
		RPE:       entityID,
		RiskScore: 0,
		RiskLevel: LevelNotFound,
		Factors:   []string{},
	}
}
