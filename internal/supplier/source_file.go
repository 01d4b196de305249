package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"vigia/pkg/platform/sentinel"
)

// SnapshotPattern matches the full-registry export files the ingestion layer
// drops into the data directory.
const SnapshotPattern = "proveedores_full_*.json"

// FileSource loads the most recently modified registry snapshot from the
// data directory. Upstream exports arrive in two shapes, a bare array or a
// `{"payload":{"content":[...]}}` wrapper (sometimes an array of wrappers);
// this source flattens all of them so nothing downstream branches on payload
// shape.
type FileSource struct {
	dir string
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(ctx context.Context) ([]Record, error) {
	path, err := LatestMatch(s.dir, SnapshotPattern)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", path, err, sentinel.ErrUnavailable)
	}

	records, err := DecodeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", path, err, sentinel.ErrUnavailable)
	}
	return records, nil
}

// LatestMatch returns the most recently modified file matching pattern under
// dir, or sentinel.ErrUnavailable when none exists. Registry file sources
// share this to pick "the current snapshot".
func LatestMatch(dir, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("glob %s: %w: %w", pattern, err, sentinel.ErrUnavailable)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no files match %s: %w", pattern, sentinel.ErrUnavailable)
	}

	latest := ""
	var latestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().UnixNano() > latestMod {
			latest = m
			latestMod = info.ModTime().UnixNano()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no readable files match %s: %w", pattern, sentinel.ErrUnavailable)
	}
	return latest, nil
}

// payloadWrapper is the portal's envelope shape.
type payloadWrapper struct {
	Payload struct {
		Content []rawRecord `json:"content"`
	} `json:"payload"`
}

// rawRecord tolerates the portal emitting rpe as either string or number.
type rawRecord struct {
	RPE                  json.RawMessage `json:"rpe"`
	RazonSocial          string          `json:"razon_social"`
	Direccion            string          `json:"direccion"`
	Contacto             string          `json:"contacto"`
	CorreoContacto       string          `json:"correo_contacto"`
	TelefonoContacto     string          `json:"telefono_contacto"`
	CelularContacto      string          `json:"celular_contacto"`
	PosicionContacto     string          `json:"posicion_contacto"`
	FechaCreacionEmpresa string          `json:"fecha_creacion_empresa"`
}

func (r rawRecord) toRecord() Record {
	return Record{
		RPE:                  coerceString(r.RPE),
		RazonSocial:          r.RazonSocial,
		Direccion:            r.Direccion,
		Contacto:             r.Contacto,
		CorreoContacto:       r.CorreoContacto,
		TelefonoContacto:     r.TelefonoContacto,
		CelularContacto:      r.CelularContacto,
		PosicionContacto:     r.PosicionContacto,
		FechaCreacionEmpresa: r.FechaCreacionEmpresa,
	}
}

func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// DecodeSnapshot flattens any known export shape into typed records.
func DecodeSnapshot(raw []byte) ([]Record, error) {
	// Shape 1: single payload wrapper.
	var wrapped payloadWrapper
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Payload.Content) > 0 {
		return convert(wrapped.Payload.Content), nil
	}

	// Shape 2: array, either of records or of wrappers.
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unrecognized snapshot shape: %w", err)
	}

	var records []Record
	for _, item := range items {
		var w payloadWrapper
		if err := json.Unmarshal(item, &w); err == nil && len(w.Payload.Content) > 0 {
			records = append(records, convert(w.Payload.Content)...)
			continue
		}
		var r rawRecord
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, fmt.Errorf("decode supplier record: %w", err)
		}
		records = append(records, r.toRecord())
	}
	return records, nil
}

func convert(raws []rawRecord) []Record {
	records := make([]Record, 0, len(raws))
	for _, r := range raws {
		records = append(records, r.toRecord())
	}
	return records
}
