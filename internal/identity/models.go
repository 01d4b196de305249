package identity

import (
	"encoding/json"

	pstrings "vigia/pkg/platform/strings"
)

// RelationshipRepresentative is the only relationship type the resolver
// emits today; the field exists so graph consumers do not have to change
// when ownership or board relationships are added.
const RelationshipRepresentative = "REPRESENTATIVE_FOR"

// Person is a canonical identity derived from supplier contact data.
// Emails, phones, and positions are true sets in memory so re-processing
// the same records is idempotent; they become sorted slices only at the
// JSON boundary.
type Person struct {
	ID             string
	Name           string
	NormalizedName string
	Emails         map[string]struct{}
	Phones         map[string]struct{}
	Positions      map[string]struct{}
	Companies      []CompanyRef
}

// CompanyRef is one observed person-to-company association, in observation
// order.
type CompanyRef struct {
	RPE         string `json:"rpe"`
	RazonSocial string `json:"razon_social"`
	Position    string `json:"position,omitempty"`
}

// personJSON is the serialized shape of Person. Set-typed fields are
// rendered as sorted slices for stable output.
type personJSON struct {
	PersonID       string       `json:"person_id"`
	Name           string       `json:"name"`
	NormalizedName string       `json:"normalized_name"`
	Emails         []string     `json:"emails"`
	Phones         []string     `json:"phones"`
	Positions      []string     `json:"positions"`
	Companies      []CompanyRef `json:"companies"`
}

// MarshalJSON renders sets as sorted slices.
func (p *Person) MarshalJSON() ([]byte, error) {
	companies := p.Companies
	if companies == nil {
		companies = []CompanyRef{}
	}
	return json.Marshal(personJSON{
		PersonID:       p.ID,
		Name:           p.Name,
		NormalizedName: p.NormalizedName,
		Emails:         pstrings.SortedKeys(p.Emails),
		Phones:         pstrings.SortedKeys(p.Phones),
		Positions:      pstrings.SortedKeys(p.Positions),
		Companies:      companies,
	})
}

// Relationship is a directed "person represents company" edge. Immutable
// after creation.
type Relationship struct {
	PersonID         string `json:"person_id"`
	PersonName       string `json:"person_name"`
	RPE              string `json:"rpe"`
	CompanyName      string `json:"company_name"`
	RelationshipType string `json:"relationship_type"`
	Position         string `json:"position,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
}

// Resolution is the output of one resolution pass over a supplier batch.
// It is a fresh derivation from source data, not an incremental update.
type Resolution struct {
	Persons       map[string]*Person
	Relationships []Relationship

	// Collisions maps a normalized name to the distinct person ids that
	// share it. Only names with two or more ids appear; same name without
	// a shared contact deliberately stays split, and this index is the
	// audit trail for that policy.
	Collisions map[string][]string

	// Skipped counts records dropped for having no contact name.
	Skipped int
}
