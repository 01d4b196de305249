package registry

import (
	"context"
	"database/sql"
	"fmt"

	"vigia/internal/identity"
	"vigia/pkg/platform/sentinel"
)

// pepFromPostgres loads the PEP registry from the data lake, keyed by
// normalized name.
func pepFromPostgres(db *sql.DB) Source[map[string]PEPRecord] {
	return Source[map[string]PEPRecord]{
		Name: "postgres",
		Load: func(ctx context.Context) (map[string]PEPRecord, error) {
			if db == nil {
				return nil, fmt.Errorf("postgres not configured: %w", sentinel.ErrUnavailable)
			}
			rows, err := db.QueryContext(ctx, `
				SELECT COALESCE(name, ''),
				       COALESCE(normalized_name, ''),
				       COALESCE(institution, ''),
				       COALESCE(position, ''),
				       COALESCE(status, ''),
				       COALESCE(report_source, '')
				  FROM pep_registry
			`)
			if err != nil {
				return nil, fmt.Errorf("query pep_registry: %w: %w", err, sentinel.ErrUnavailable)
			}
			defer rows.Close()

			out := make(map[string]PEPRecord)
			for rows.Next() {
				var r PEPRecord
				if err := rows.Scan(&r.Name, &r.NormalizedName, &r.Institution, &r.Position, &r.Status, &r.ReportSource); err != nil {
					return nil, fmt.Errorf("scan pep row: %w: %w", err, sentinel.ErrUnavailable)
				}
				key := r.NormalizedName
				if key == "" {
					key = identity.NormalizeName(r.Name)
				}
				if key == "" {
					continue
				}
				out[identity.NormalizeName(key)] = r
			}
			if err := rows.Err(); err != nil {
				return nil, fmt.Errorf("iterate pep rows: %w: %w", err, sentinel.ErrUnavailable)
			}
			if len(out) == 0 {
				return nil, fmt.Errorf("pep_registry is empty: %w", sentinel.ErrUnavailable)
			}
			return out, nil
		},
	}
}

// payrollFromPostgres loads the active public payroll, keyed by normalized
// full name.
func payrollFromPostgres(db *sql.DB) Source[map[string]PayrollRecord] {
	return Source[map[string]PayrollRecord]{
		Name: "postgres",
		Load: func(ctx context.Context) (map[string]PayrollRecord, error) {
			if db == nil {
				return nil, fmt.Errorf("postgres not configured: %w", sentinel.ErrUnavailable)
			}
			rows, err := db.QueryContext(ctx, `
				SELECT COALESCE(full_name, ''),
				       COALESCE(institution, ''),
				       COALESCE(position, ''),
				       COALESCE(salary, 0),
				       COALESCE(status, '')
				  FROM public_officials
			`)
			if err != nil {
				return nil, fmt.Errorf("query public_officials: %w: %w", err, sentinel.ErrUnavailable)
			}
			defer rows.Close()

			out := make(map[string]PayrollRecord)
			for rows.Next() {
				var r PayrollRecord
				if err := rows.Scan(&r.FullName, &r.Institution, &r.Position, &r.Salary, &r.Status); err != nil {
					return nil, fmt.Errorf("scan payroll row: %w: %w", err, sentinel.ErrUnavailable)
				}
				key := identity.NormalizeName(r.FullName)
				if key == "" {
					continue
				}
				out[key] = r
			}
			if err := rows.Err(); err != nil {
				return nil, fmt.Errorf("iterate payroll rows: %w: %w", err, sentinel.ErrUnavailable)
			}
			if len(out) == 0 {
				return nil, fmt.Errorf("public_officials is empty: %w", sentinel.ErrUnavailable)
			}
			return out, nil
		},
	}
}

// forensicFromPostgres loads pre-computed contract-pattern signals, grouped
// by rpe.
func forensicFromPostgres(db *sql.DB) Source[map[string][]ForensicHit] {
	return Source[map[string][]ForensicHit]{
		Name: "postgres",
		Load: func(ctx context.Context) (map[string][]ForensicHit, error) {
			if db == nil {
				return nil, fmt.Errorf("postgres not configured: %w", sentinel.ErrUnavailable)
			}
			rows, err := db.QueryContext(ctx, `
				SELECT COALESCE(rpe, ''),
				       COALESCE(risk_score, 0),
				       COALESCE(reason, ''),
				       COALESCE(type, '')
				  FROM forensic_signals
			`)
			if err != nil {
				return nil, fmt.Errorf("query forensic_signals: %w: %w", err, sentinel.ErrUnavailable)
			}
			defer rows.Close()

			out := make(map[string][]ForensicHit)
			for rows.Next() {
				var (
					rpe, reason, hitType string
					score                float64
				)
				if err := rows.Scan(&rpe, &score, &reason, &hitType); err != nil {
					return nil, fmt.Errorf("scan forensic row: %w: %w", err, sentinel.ErrUnavailable)
				}
				if rpe == "" {
					continue
				}
				out[rpe] = append(out[rpe], ForensicHit{
					RPE:    rpe,
					Score:  score,
					Factor: forensicFactor(hitType, reason),
					Type:   hitType,
				})
			}
			if err := rows.Err(); err != nil {
				return nil, fmt.Errorf("iterate forensic rows: %w: %w", err, sentinel.ErrUnavailable)
			}
			if len(out) == 0 {
				return nil, fmt.Errorf("forensic_signals is empty: %w", sentinel.ErrUnavailable)
			}
			return out, nil
		},
	}
}

// forensicFactor renders the stored reason as the sentence the report
// carries. Activation-spike reasons arrive pre-formed from the detector.
func forensicFactor(hitType, reason string) string {
	switch hitType {
	case ForensicVersatility:
		return fmt.Sprintf("Versatilidad Sospechosa: %s", reason)
	default:
		return reason
	}
}
