package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"

	"vigia/internal/supplier"
)

// InvalidEmailSentinel is the placeholder the supplier portal fills in when
// no real contact email exists. It must never become a primary contact or
// every placeholder record would collapse into one person.
const InvalidEmailSentinel = "CORREOINVALIDO@PROVEEDORES.COM"

// Resolver maps raw supplier contact records to stable canonical persons.
// A resolution pass is a pure re-derivation: running it twice over the same
// records yields byte-identical output.
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// PersonID derives the stable identity for a contact. Two records resolve to
// the same id exactly when they share a normalized name and a non-empty
// primary contact; same name alone is not enough.
func PersonID(name, email, phone string) string {
	composite := NormalizeName(name) + "|" + PrimaryContact(email, phone)
	sum := sha256.Sum256([]byte(composite))
	return hex.EncodeToString(sum[:])[:16]
}

// PrimaryContact picks the strongest contact key: the normalized email
// unless it is the portal's invalid-email placeholder, else the normalized
// phone, else empty.
func PrimaryContact(email, phone string) string {
	e := NormalizeContact(email)
	if e != "" && !strings.EqualFold(e, InvalidEmailSentinel) {
		return e
	}
	return NormalizeContact(phone)
}

// Resolve processes a batch of supplier records into canonical persons and
// representative relationships. Records without a contact name are skipped
// silently; nothing in this pass can fail the batch.
func (r *Resolver) Resolve(records []supplier.Record) *Resolution {
	res := &Resolution{
		Persons:    make(map[string]*Person),
		Collisions: make(map[string][]string),
	}
	nameRegistry := make(map[string]map[string]struct{})

	for _, rec := range records {
		if !r.resolveOne(rec, res, nameRegistry) {
			res.Skipped++
		}
	}

	for name, ids := range nameRegistry {
		if len(ids) < 2 {
			continue
		}
		collided := make([]string, 0, len(ids))
		for id := range ids {
			collided = append(collided, id)
		}
		sort.Strings(collided)
		res.Collisions[name] = collided
	}

	if r.logger != nil {
		r.logger.Info("resolution pass complete",
			"persons", len(res.Persons),
			"relationships", len(res.Relationships),
			"collisions", len(res.Collisions),
			"skipped", res.Skipped,
		)
		if len(res.Collisions) > 0 {
			r.logger.Warn("name collisions kept as distinct persons",
				"names", len(res.Collisions),
			)
		}
	}

	return res
}

func (r *Resolver) resolveOne(rec supplier.Record, res *Resolution, nameRegistry map[string]map[string]struct{}) bool {
	name := strings.TrimSpace(rec.Contacto)
	if name == "" {
		return false
	}

	email := strings.TrimSpace(rec.CorreoContacto)
	phone := strings.TrimSpace(rec.TelefonoContacto)
	celular := strings.TrimSpace(rec.CelularContacto)
	position := strings.TrimSpace(rec.PosicionContacto)

	id := PersonID(name, email, phone)
	normName := NormalizeName(name)

	if nameRegistry[normName] == nil {
		nameRegistry[normName] = make(map[string]struct{})
	}
	nameRegistry[normName][id] = struct{}{}

	person, ok := res.Persons[id]
	if !ok {
		person = &Person{
			ID:             id,
			Name:           name,
			NormalizedName: normName,
			Emails:         make(map[string]struct{}),
			Phones:         make(map[string]struct{}),
			Positions:      make(map[string]struct{}),
		}
		res.Persons[id] = person
	}

	if email != "" && !strings.EqualFold(email, InvalidEmailSentinel) {
		person.Emails[email] = struct{}{}
	}
	if phone != "" {
		person.Phones[phone] = struct{}{}
	}
	if celular != "" {
		person.Phones[celular] = struct{}{}
	}
	if position != "" {
		person.Positions[position] = struct{}{}
	}

	// A relationship needs both sides of the edge; a person with no
	// resolvable company is still a person.
	if rec.RPE == "" || rec.RazonSocial == "" {
		return true
	}

	person.Companies = append(person.Companies, CompanyRef{
		RPE:         rec.RPE,
		RazonSocial: rec.RazonSocial,
		Position:    position,
	})

	relEmail := ""
	if email != "" && !strings.EqualFold(email, InvalidEmailSentinel) {
		relEmail = email
	}
	relPhone := phone
	if relPhone == "" {
		relPhone = celular
	}

	res.Relationships = append(res.Relationships, Relationship{
		PersonID:         id,
		PersonName:       name,
		RPE:              rec.RPE,
		CompanyName:      rec.RazonSocial,
		RelationshipType: RelationshipRepresentative,
		Position:         position,
		Email:            relEmail,
		Phone:            relPhone,
	})

	return true
}
