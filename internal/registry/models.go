// Package registry loads the auxiliary reference datasets the scoring
// engine matches against: politically exposed persons, the active public
// payroll, and forensic contract-pattern signals. Each registry is loaded
// once per scoring batch through an ordered source chain and treated as a
// read-only snapshot afterwards.
package registry

// PEPStatusOmiso marks officials who failed to file their sworn asset
// declaration; it carries the heaviest PEP weighting.
const PEPStatusOmiso = "OMISO"

// PEPRecord is one politically-exposed-person entry, keyed by normalized
// name in the loaded registry.
type PEPRecord struct {
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	Institution    string `json:"institution"`
	Position       string `json:"position"`
	Status         string `json:"status"`
	ReportSource   string `json:"report_source"`
}

// PayrollRecord is one active public-payroll entry.
type PayrollRecord struct {
	FullName    string  `json:"full_name"`
	Institution string  `json:"institution"`
	Position    string  `json:"position"`
	Salary      float64 `json:"salary"`
	Status      string  `json:"status"`
}

// Forensic signal types.
const (
	ForensicVersatility     = "VERSATILITY"
	ForensicActivationSpike = "ACTIVATION_SPIKE"
)

// ForensicHit is one pre-computed contract-pattern flag for a supplier.
// Factor is the human-readable sentence built at the load boundary so the
// engine only sums scores and appends text.
type ForensicHit struct {
	RPE    string  `json:"rpe"`
	Score  float64 `json:"score"`
	Factor string  `json:"factor"`
	Type   string  `json:"type"`
}

// Registries is the per-batch snapshot handed to the scoring engine. Empty
// maps mean "no match found", never an error.
type Registries struct {
	PEP      map[string]PEPRecord
	Payroll  map[string]PayrollRecord
	Forensic map[string][]ForensicHit
}

// Empty returns a snapshot with all registries present but unpopulated.
func Empty() *Registries {
	return &Registries{
		PEP:      map[string]PEPRecord{},
		Payroll:  map[string]PayrollRecord{},
		Forensic: map[string][]ForensicHit{},
	}
}
