package supplier

import (
	"context"
	"database/sql"
	"fmt"

	"vigia/pkg/platform/sentinel"
)

// PostgresSource reads the supplier registry from the data lake.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Load(ctx context.Context) ([]Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("postgres not configured: %w", sentinel.ErrUnavailable)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rpe,
		       COALESCE(razon_social, ''),
		       COALESCE(direccion, ''),
		       COALESCE(contacto, ''),
		       COALESCE(correo_contacto, ''),
		       COALESCE(telefono_contacto, ''),
		       COALESCE(celular_contacto, ''),
		       COALESCE(posicion_contacto, ''),
		       COALESCE(fecha_creacion_empresa::text, '')
		  FROM dgcp_proveedores
	`)
	if err != nil {
		return nil, fmt.Errorf("query dgcp_proveedores: %w: %w", err, sentinel.ErrUnavailable)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.RPE,
			&r.RazonSocial,
			&r.Direccion,
			&r.Contacto,
			&r.CorreoContacto,
			&r.TelefonoContacto,
			&r.CelularContacto,
			&r.PosicionContacto,
			&r.FechaCreacionEmpresa,
		); err != nil {
			return nil, fmt.Errorf("scan supplier row: %w: %w", err, sentinel.ErrUnavailable)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supplier rows: %w: %w", err, sentinel.ErrUnavailable)
	}
	if len(records) == 0 {
		// An empty table means the lake has never been populated; let the
		// chain fall through to the file snapshot.
		return nil, fmt.Errorf("dgcp_proveedores is empty: %w", sentinel.ErrUnavailable)
	}

	return records, nil
}
