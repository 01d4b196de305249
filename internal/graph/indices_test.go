package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vigia/internal/identity"
	"vigia/internal/supplier"
)

func rel(pid, rpe string) identity.Relationship {
	return identity.Relationship{
		PersonID:         pid,
		PersonName:       "Person " + pid,
		RPE:              rpe,
		CompanyName:      "Company " + rpe,
		RelationshipType: identity.RelationshipRepresentative,
	}
}

const longAddress = "CALLE DUARTE 42, SANTO DOMINGO"

func TestBuild_Adjacency(t *testing.T) {
	res := &identity.Resolution{
		Relationships: []identity.Relationship{
			rel("P1", "R1"),
			rel("P1", "R2"),
			rel("P2", "R1"),
		},
	}

	idx := Build(res, nil, nil)

	assert.Equal(t, []string{"P1", "P2"}, idx.CompanyToPeople["R1"])
	assert.Equal(t, 2, idx.CompanyCount("P1"))
	assert.Equal(t, 1, idx.CompanyCount("P2"))
	assert.Equal(t, 0, idx.CompanyCount("unknown"))
}

func TestBuild_HubDensityCountsDistinctOwnersNotCompanies(t *testing.T) {
	// One person controls three shell companies at the same address: the
	// hub counts one owner, not three companies.
	res := &identity.Resolution{
		Relationships: []identity.Relationship{
			rel("P1", "R1"),
			rel("P1", "R2"),
			rel("P1", "R3"),
			rel("P2", "R3"),
		},
	}
	suppliers := []supplier.Record{
		{RPE: "R1", Direccion: longAddress},
		{RPE: "R2", Direccion: "  calle duarte 42, santo domingo "},
		{RPE: "R3", Direccion: longAddress},
	}

	idx := Build(res, suppliers, nil)

	require.Contains(t, idx.HubDensity, longAddress)
	assert.Equal(t, 2, idx.HubDensity[longAddress])
	assert.Equal(t, longAddress, idx.RPEToAddress["R2"], "address normalization unifies spellings")
}

func TestBuild_DuplicateRelationshipDoesNotInflateDensity(t *testing.T) {
	res := &identity.Resolution{
		Relationships: []identity.Relationship{
			rel("P1", "R1"),
			rel("P1", "R1"),
		},
	}
	suppliers := []supplier.Record{{RPE: "R1", Direccion: longAddress}}

	idx := Build(res, suppliers, nil)
	assert.Equal(t, 1, idx.HubDensity[longAddress])
}

func TestBuild_ShortOrMissingAddressesNotIndexed(t *testing.T) {
	suppliers := []supplier.Record{
		{RPE: "R1", Direccion: "SANTO DGO"}, // too short
		{RPE: "R2", Direccion: ""},
		{RPE: "R3"},
	}

	idx := Build(&identity.Resolution{}, suppliers, nil)
	assert.Empty(t, idx.RPEToAddress)
	assert.Empty(t, idx.HubDensity)
}

func TestBuild_Idempotent(t *testing.T) {
	res := &identity.Resolution{
		Relationships: []identity.Relationship{
			rel("P1", "R1"),
			rel("P2", "R1"),
			rel("P1", "R2"),
		},
	}
	suppliers := []supplier.Record{
		{RPE: "R1", Direccion: longAddress},
		{RPE: "R2", Direccion: longAddress},
	}

	first := Build(res, suppliers, nil)
	second := Build(res, suppliers, nil)

	assert.Equal(t, first.CompanyToPeople, second.CompanyToPeople)
	assert.Equal(t, first.PersonToCompanies, second.PersonToCompanies)
	assert.Equal(t, first.HubDensity, second.HubDensity)
	assert.Equal(t, first.RPEToAddress, second.RPEToAddress)
}

func TestDistinctPeople(t *testing.T) {
	res := &identity.Resolution{
		Relationships: []identity.Relationship{
			rel("P1", "R1"),
			rel("P2", "R1"),
			rel("P1", "R1"),
		},
	}

	idx := Build(res, nil, nil)
	assert.Equal(t, []string{"P1", "P2"}, idx.DistinctPeople("R1"))
	assert.Empty(t, idx.DistinctPeople("unknown"))
}
