// Package supplier models the procurement supplier registry consumed by the
// resolution and scoring pipeline. Records are read-only input; the upstream
// portal owns them.
package supplier

// Record is one supplier registry entity, keyed by RPE. JSON field names
// follow the upstream portal schema.
type Record struct {
	RPE                  string `json:"rpe"`
	RazonSocial          string `json:"razon_social"`
	Direccion            string `json:"direccion"`
	Contacto             string `json:"contacto"`
	CorreoContacto       string `json:"correo_contacto"`
	TelefonoContacto     string `json:"telefono_contacto"`
	CelularContacto      string `json:"celular_contacto"`
	PosicionContacto     string `json:"posicion_contacto"`
	FechaCreacionEmpresa string `json:"fecha_creacion_empresa"`
}
