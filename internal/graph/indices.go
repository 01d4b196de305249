// Package graph derives in-memory adjacency and density indices from
// resolved identities and the supplier registry. Indices are rebuilt per
// batch and frozen: nothing mutates them once scoring starts, which is what
// makes concurrent scoring reads safe without locks.
package graph

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"vigia/internal/identity"
	"vigia/internal/supplier"
)

// minAddressLength excludes placeholder addresses ("N/A", "SANTO DGO") from
// hub analysis. Counted in runes after normalization.
const minAddressLength = 10

// highDensityMark is only used for the build log line; scoring thresholds
// live in config.
const highDensityMark = 2

// Indices are the frozen per-batch lookup structures the scoring engine
// reads. All lookups are O(1).
type Indices struct {
	// CompanyToPeople maps rpe to the person ids observed representing it,
	// in relationship order. May contain duplicates when the same person
	// appears on multiple records for one company; consumers that need
	// distinct people must dedupe.
	CompanyToPeople map[string][]string

	// PersonToCompanies maps a person id to the set of companies they
	// represent.
	PersonToCompanies map[string]map[string]struct{}

	// RPEToAddress maps rpe to its normalized address. Only addresses
	// longer than minAddressLength runes are indexed.
	RPEToAddress map[string]string

	// HubDensity maps a normalized address to the number of distinct
	// persons reachable through any company registered there. One person
	// controlling twenty shell companies at an address counts as one.
	HubDensity map[string]int
}

// NormalizeAddress canonicalizes an address for hub clustering: trimmed and
// uppercased. Internal whitespace is preserved; addresses are compared as
// the registry spells them.
func NormalizeAddress(addr string) string {
	return strings.ToUpper(strings.TrimSpace(addr))
}

// Build constructs all indices in two passes over the relationships and one
// over the supplier registry. Absent or short addresses are simply not
// indexed; partial data never fails the build.
func Build(res *identity.Resolution, suppliers []supplier.Record, logger *slog.Logger) *Indices {
	idx := &Indices{
		CompanyToPeople:   make(map[string][]string),
		PersonToCompanies: make(map[string]map[string]struct{}),
		RPEToAddress:      make(map[string]string),
		HubDensity:        make(map[string]int),
	}

	// Pass 1: adjacency, plus the per-company distinct owner sets the hub
	// pass needs.
	owners := make(map[string]map[string]struct{})
	for _, rel := range res.Relationships {
		idx.CompanyToPeople[rel.RPE] = append(idx.CompanyToPeople[rel.RPE], rel.PersonID)

		if idx.PersonToCompanies[rel.PersonID] == nil {
			idx.PersonToCompanies[rel.PersonID] = make(map[string]struct{})
		}
		idx.PersonToCompanies[rel.PersonID][rel.RPE] = struct{}{}

		if owners[rel.RPE] == nil {
			owners[rel.RPE] = make(map[string]struct{})
		}
		owners[rel.RPE][rel.PersonID] = struct{}{}
	}

	// Pass 2: union each company's owner set into its address bucket, then
	// collapse buckets to counts.
	density := make(map[string]map[string]struct{})
	for _, s := range suppliers {
		if s.RPE == "" {
			continue
		}
		addr := NormalizeAddress(s.Direccion)
		if utf8.RuneCountInString(addr) <= minAddressLength {
			continue
		}
		idx.RPEToAddress[s.RPE] = addr
		if density[addr] == nil {
			density[addr] = make(map[string]struct{})
		}
		for pid := range owners[s.RPE] {
			density[addr][pid] = struct{}{}
		}
	}
	for addr, set := range density {
		idx.HubDensity[addr] = len(set)
	}

	if logger != nil {
		high := 0
		for _, n := range idx.HubDensity {
			if n > highDensityMark {
				high++
			}
		}
		logger.Info("graph indices built",
			"companies", len(idx.CompanyToPeople),
			"persons", len(idx.PersonToCompanies),
			"addresses", len(idx.HubDensity),
			"high_density_hubs", high,
		)
	}

	return idx
}

// DistinctPeople returns the deduplicated representative ids for a company,
// preserving first-occurrence order.
func (idx *Indices) DistinctPeople(rpe string) []string {
	pids := idx.CompanyToPeople[rpe]
	if len(pids) <= 1 {
		return pids
	}
	seen := make(map[string]struct{}, len(pids))
	out := make([]string, 0, len(pids))
	for _, pid := range pids {
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		out = append(out, pid)
	}
	return out
}

// CompanyCount returns how many companies a person represents.
func (idx *Indices) CompanyCount(personID string) int {
	return len(idx.PersonToCompanies[personID])
}
