package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadAll_FallsBackToFilesWhenLakeIsDown(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "raw/ccrd/pep_extraction_20250601.json"), `[
		{"name": "Pedro Santana", "normalized_name": "PEDRO SANTANA",
		 "institution": "MOPC", "position": "Director", "status": "OMISO",
		 "report_source": "omisos_2024.pdf"}
	]`)
	writeFile(t, filepath.Join(dir, "raw/public_officials_dump.json"), `[
		{"full_name": "maria   Rodriguez", "institution": "Salud Publica",
		 "position": "Encargada", "salary": 95000, "status": "ACTIVO"}
	]`)
	writeFile(t, filepath.Join(dir, "versatility_hits.json"), `[
		{"rpe": "R1", "risk_score": 25, "reason": "ferreteria que vende medicamentos"}
	]`)
	writeFile(t, filepath.Join(dir, "activation_spikes.json"), `[
		{"rpe": "R1", "spike_in_30d": 12, "concentration": 90},
		{"rpe": "R2", "spike_in_30d": 4, "concentration": 40}
	]`)

	// nil db: the postgres sources report unavailable and the chain falls
	// through to the file snapshots.
	loader := NewLoader(nil, dir, nil, nil)
	reg := loader.LoadAll(context.Background())

	require.Contains(t, reg.PEP, "PEDRO SANTANA")
	assert.Equal(t, PEPStatusOmiso, reg.PEP["PEDRO SANTANA"].Status)

	require.Contains(t, reg.Payroll, "MARIA RODRIGUEZ", "payroll keys are normalized names")

	require.Len(t, reg.Forensic["R1"], 2)
	assert.Equal(t, 25.0, reg.Forensic["R1"][0].Score)
	assert.Contains(t, reg.Forensic["R1"][0].Factor, "Versatilidad Sospechosa")
	assert.Equal(t, 40.0, reg.Forensic["R1"][1].Score, "concentration above 80 scores high")
	assert.Equal(t, 20.0, reg.Forensic["R2"][0].Score)
}

func TestLoadAll_TotalFailureYieldsEmptySnapshot(t *testing.T) {
	loader := NewLoader(nil, t.TempDir(), nil, nil)
	reg := loader.LoadAll(context.Background())

	require.NotNil(t, reg)
	assert.Empty(t, reg.PEP)
	assert.Empty(t, reg.Payroll)
	assert.Empty(t, reg.Forensic)
}

func TestPEPFile_PicksNewestExtraction(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "raw/ccrd/pep_extraction_20240101.json")
	current := filepath.Join(dir, "raw/ccrd/pep_extraction_20250601.json")
	writeFile(t, old, `[{"name": "Old Entry"}]`)
	writeFile(t, current, `[{"name": "Current Entry"}]`)

	info, err := os.Stat(current)
	require.NoError(t, err)
	past := info.ModTime().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	pep, err := pepFromFile(dir).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, pep, 1)
	assert.Contains(t, pep, "CURRENT ENTRY")
}
