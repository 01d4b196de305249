package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vigia/internal/identity"
	"vigia/internal/supplier"
	"vigia/pkg/platform/sentinel"
)

// Snapshot file locations under the data directory. The ingestion layer
// owns these names; the loaders only read.
const (
	pepSnapshotSubdir   = "raw/ccrd"
	pepSnapshotPattern  = "pep_extraction_*.json"
	payrollSnapshotFile = "raw/public_officials_dump.json"
	versatilityFile     = "versatility_hits.json"
	activationFile      = "activation_spikes.json"
)

// activationHighConcentration splits activation spikes into high and medium
// scoring bands, matching the detector's empirical tuning.
const (
	activationHighConcentration = 80
	activationHighScore         = 40
	activationMediumScore       = 20
)

// pepFromFile loads the newest PEP extraction snapshot.
func pepFromFile(dataDir string) Source[map[string]PEPRecord] {
	return Source[map[string]PEPRecord]{
		Name: "file",
		Load: func(ctx context.Context) (map[string]PEPRecord, error) {
			path, err := supplier.LatestMatch(filepath.Join(dataDir, pepSnapshotSubdir), pepSnapshotPattern)
			if err != nil {
				return nil, err
			}
			var records []PEPRecord
			if err := readJSON(path, &records); err != nil {
				return nil, err
			}
			out := make(map[string]PEPRecord, len(records))
			for _, r := range records {
				key := r.NormalizedName
				if key == "" {
					key = r.Name
				}
				key = identity.NormalizeName(key)
				if key == "" {
					continue
				}
				out[key] = r
			}
			return out, nil
		},
	}
}

// payrollFromFile loads the public officials dump.
func payrollFromFile(dataDir string) Source[map[string]PayrollRecord] {
	return Source[map[string]PayrollRecord]{
		Name: "file",
		Load: func(ctx context.Context) (map[string]PayrollRecord, error) {
			var records []PayrollRecord
			if err := readJSON(filepath.Join(dataDir, payrollSnapshotFile), &records); err != nil {
				return nil, err
			}
			out := make(map[string]PayrollRecord, len(records))
			for _, r := range records {
				key := identity.NormalizeName(r.FullName)
				if key == "" {
					continue
				}
				out[key] = r
			}
			return out, nil
		},
	}
}

// versatilityHit is the detector's export shape for versatility flags.
type versatilityHit struct {
	RPE       string  `json:"rpe"`
	RiskScore float64 `json:"risk_score"`
	Reason    string  `json:"reason"`
}

// activationHit is the detector's export shape for activation spikes.
type activationHit struct {
	RPE           string  `json:"rpe"`
	SpikeIn30d    int     `json:"spike_in_30d"`
	Concentration float64 `json:"concentration"`
}

// forensicFromFiles merges the versatility and activation-spike exports.
// Either file may be missing; both missing means the source is unavailable.
func forensicFromFiles(dataDir string) Source[map[string][]ForensicHit] {
	return Source[map[string][]ForensicHit]{
		Name: "file",
		Load: func(ctx context.Context) (map[string][]ForensicHit, error) {
			out := make(map[string][]ForensicHit)
			loaded := 0

			var versatility []versatilityHit
			if err := readJSON(filepath.Join(dataDir, versatilityFile), &versatility); err == nil {
				loaded++
				for _, h := range versatility {
					if h.RPE == "" {
						continue
					}
					out[h.RPE] = append(out[h.RPE], ForensicHit{
						RPE:    h.RPE,
						Score:  h.RiskScore,
						Factor: forensicFactor(ForensicVersatility, h.Reason),
						Type:   ForensicVersatility,
					})
				}
			}

			var activation []activationHit
			if err := readJSON(filepath.Join(dataDir, activationFile), &activation); err == nil {
				loaded++
				for _, h := range activation {
					if h.RPE == "" {
						continue
					}
					score := float64(activationMediumScore)
					if h.Concentration > activationHighConcentration {
						score = activationHighScore
					}
					out[h.RPE] = append(out[h.RPE], ForensicHit{
						RPE:    h.RPE,
						Score:  score,
						Factor: fmt.Sprintf("Activación Súbita: %d contratos en 30 días (%.0f%% del total)", h.SpikeIn30d, h.Concentration),
						Type:   ForensicActivationSpike,
					})
				}
			}

			if loaded == 0 {
				return nil, fmt.Errorf("no forensic exports present: %w", sentinel.ErrUnavailable)
			}
			return out, nil
		},
	}
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w: %w", path, err, sentinel.ErrUnavailable)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w: %w", path, err, sentinel.ErrUnavailable)
	}
	return nil
}
