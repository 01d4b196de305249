package risk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vigia/internal/graph"
	"vigia/internal/identity"
	"vigia/internal/intel"
	"vigia/internal/platform/config"
	"vigia/internal/platform/metrics"
	"vigia/internal/registry"
	"vigia/internal/supplier"
	pstrings "vigia/pkg/platform/strings"
)

// veracityBeyondDoubt is the tier above which the payroll+press multiplier
// engages: 3 means independently corroborated press coverage.
const veracityBeyondDoubt = 2

// IntelGatherer is what the engine needs from the intelligence layer.
type IntelGatherer interface {
	Gather(ctx context.Context, name string) intel.Result
}

// Engine scores suppliers against the frozen per-batch state: graph indices,
// registry snapshot, resolved persons, and the intelligence adapter. It is
// the explicit batch context object; construct one per batch and discard it.
//
// Analyze is deterministic for fixed state and side-effect-free except
// logging and metrics, so scoring different suppliers concurrently is safe.
type Engine struct {
	cfg        *config.RiskConfig
	idx        *graph.Indices
	registries *registry.Registries
	persons    map[string]*identity.Person
	gatherer   IntelGatherer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewEngine builds a scoring engine over frozen batch state. cfg is held by
// reference: thresholds are read at scoring time, not captured at build
// time. registries may be nil (treated as empty); gatherer may be nil
// (intelligence signal disabled).
func NewEngine(
	cfg *config.RiskConfig,
	idx *graph.Indices,
	registries *registry.Registries,
	persons map[string]*identity.Person,
	gatherer IntelGatherer,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Engine {
	if registries == nil {
		registries = registry.Empty()
	}
	return &Engine{
		cfg:        cfg,
		idx:        idx,
		registries: registries,
		persons:    persons,
		gatherer:   gatherer,
		logger:     logger,
		metrics:    m,
	}
}

// Analyze scores one supplier. The contract is "always returns a Report":
// no signal failure escapes as an error.
func (e *Engine) Analyze(ctx context.Context, supplierName string, rec supplier.Record) Report {
	rpe := rec.RPE

	var (
		score   float64
		factors []string
	)
	evidence := Evidence{
		News:      []intel.Hit{},
		Social:    []intel.Hit{},
		Forensics: []registry.ForensicHit{},
	}

	// Static: recently incorporated companies.
	if e.isNewCompany(rec.FechaCreacionEmpresa) {
		score += e.cfg.NewCompanyScore
		factors = append(factors, "Empresa de reciente creación (Riesgo de maletín)")
	}

	// Physical hub density.
	addr := e.idx.RPEToAddress[rpe]
	density := 0
	if addr != "" {
		density = e.idx.HubDensity[addr]
		if density > e.cfg.HubDensityHigh {
			score += e.cfg.HubHighScore
			factors = append(factors, fmt.Sprintf("Hub de Alta Densidad: %d propietarios únicos registrados aquí (Riesgo de Camuflaje)", density))
		} else if density > e.cfg.HubDensityMedium {
			score += e.cfg.HubMediumScore
			factors = append(factors, fmt.Sprintf("Hub compartido identificado: %d propietarios en este bloque", density))
		}
	}
	evidence.PhysicalHub = PhysicalHub{Address: addr, UniqueOwnerCount: density}

	// Forensic contract-pattern flags.
	for _, hit := range e.registries.Forensic[rpe] {
		score += hit.Score
		factors = append(factors, hit.Factor)
		evidence.Forensics = append(evidence.Forensics, hit)
	}

	// Network concentration.
	network := e.networkRisk(rpe)
	score += network.points
	factors = append(factors, network.factors...)
	evidence.Network = network.details

	// PEP status of representatives.
	pep := e.checkPEP(rpe)
	if pep.matched {
		score += pep.points
		factors = append(factors, pep.factors...)
		evidence.PEP = pep.details
	}

	// Conflict of interest with the active public payroll. Points are
	// allocated here, exactly once.
	payroll := e.checkPayroll(rpe)
	if payroll.matched {
		score += e.cfg.PayrollScore
		factors = append(factors, payroll.factors...)
		evidence.Payroll = payroll.details
	}

	// External intelligence.
	intelSignal := e.intelligence(ctx, supplierName)
	score += intelSignal.points
	factors = append(factors, intelSignal.factors...)
	evidence.News = intelSignal.news
	evidence.Social = intelSignal.social
	veracity := intelSignal.veracity

	// Non-linear combination: conflict of interest amplifies everything
	// else. The branches are mutually exclusive; the strongest wins.
	multiplier := 1.0
	switch {
	case payroll.matched && pep.matched:
		multiplier = 1.5
		factors = append(factors, "ALERTA MÁXIMA: Funcionario Activo + PEP + Proveedor.")
	case payroll.matched && veracity > veracityBeyondDoubt:
		multiplier = 1.3
		factors = append(factors, "ALERTA ALTA: Funcionario Activo con Noticias Negativas.")
	}

	final := score * multiplier
	if final > 100 {
		final = 100
	}
	if final < 0 {
		final = 0
	}

	level := e.levelFor(final)
	e.metrics.RecordReport(string(level))

	if e.logger != nil {
		e.logger.Debug("supplier scored",
			"rpe", rpe,
			"entity", supplierName,
			"score", final,
			"level", level,
			"multiplier", multiplier,
		)
	}

	return Report{
		Entity:       supplierName,
		RPE:          rpe,
		Address:      addr,
		RiskScore:    final,
		RiskLevel:    level,
		VeracityRank: veracity,
		Factors:      pstrings.DedupeAndTrim(factors),
		Evidence:     evidence,
	}
}

func (e *Engine) isNewCompany(date string) bool {
	if date == "" {
		return false
	}
	for _, year := range e.cfg.NewCompanyYears {
		if strings.Contains(date, year) {
			return true
		}
	}
	return false
}

// levelFor reads the thresholds at scoring time; they are configuration,
// not constants.
func (e *Engine) levelFor(score float64) Level {
	switch {
	case score >= e.cfg.ThresholdCritical:
		return LevelCritical
	case score >= e.cfg.ThresholdHigh:
		return LevelHigh
	case score >= e.cfg.ThresholdMedium:
		return LevelMedium
	default:
		return LevelLow
	}
}

type networkSignal struct {
	points  float64
	factors []string
	details []NetworkDetail
}

// networkRisk scores representatives who sit on many companies. Each
// distinct person contributes min(companies*unit, per-person cap); the
// whole signal is capped.
func (e *Engine) networkRisk(rpe string) networkSignal {
	var sig networkSignal

	for _, pid := range e.idx.DistinctPeople(rpe) {
		linked := e.idx.CompanyCount(pid)
		if linked <= e.cfg.ConcentrationMin {
			continue
		}
		weight := float64(linked) * e.cfg.ConcentrationUnit
		if weight > e.cfg.ConcentrationCap {
			weight = e.cfg.ConcentrationCap
		}
		sig.points += weight

		name := pid
		if p, ok := e.persons[pid]; ok {
			name = p.Name
		}
		sig.factors = append(sig.factors, fmt.Sprintf("Representante en múltiples empresas (%d): %s", linked, name))
		sig.details = append(sig.details, NetworkDetail{
			Type:       "CONCENTRATION_RISK",
			PersonID:   pid,
			PersonName: name,
			Count:      linked,
		})
	}

	if sig.points > e.cfg.NetworkCap {
		sig.points = e.cfg.NetworkCap
	}
	return sig
}

type pepSignal struct {
	matched bool
	points  float64
	factors []string
	details []registry.PEPRecord
}

// checkPEP matches every representative's normalized name against the PEP
// registry. Non-filer status (OMISO) weighs heaviest.
func (e *Engine) checkPEP(rpe string) pepSignal {
	var sig pepSignal

	for _, pid := range e.idx.DistinctPeople(rpe) {
		person, ok := e.persons[pid]
		if !ok {
			continue
		}
		match, ok := e.registries.PEP[person.NormalizedName]
		if !ok {
			continue
		}
		sig.matched = true
		if match.Status == registry.PEPStatusOmiso {
			sig.points += e.cfg.PEPOmisoScore
			sig.factors = append(sig.factors, fmt.Sprintf("ALERTA CRÍTICA: Representante %s es FUNCIONARIO OMISO (no declaró patrimonio) en %s.", person.Name, match.Institution))
		} else {
			sig.points += e.cfg.PEPScore
			sig.factors = append(sig.factors, fmt.Sprintf("PEP Detectado: Representante %s ocupa el cargo de %s en %s.", person.Name, match.Position, match.Institution))
		}
		sig.details = append(sig.details, match)
	}

	if sig.points > e.cfg.PEPCap {
		sig.points = e.cfg.PEPCap
	}
	return sig
}

type payrollSignal struct {
	matched bool
	factors []string
	details []registry.PayrollRecord
}

// checkPayroll flags representatives on the active public payroll. The
// signal only reports the match; the engine adds the points once.
func (e *Engine) checkPayroll(rpe string) payrollSignal {
	var sig payrollSignal

	for _, pid := range e.idx.DistinctPeople(rpe) {
		person, ok := e.persons[pid]
		if !ok {
			continue
		}
		official, ok := e.registries.Payroll[person.NormalizedName]
		if !ok {
			continue
		}
		sig.matched = true
		sig.factors = append(sig.factors, fmt.Sprintf("CONFLICTO DE INTERÉS: Representante %s figura en nómina de %s como %s.", person.Name, official.Institution, official.Position))
		sig.details = append(sig.details, official)
	}

	return sig
}

type intelSignal struct {
	points   float64
	factors  []string
	veracity int
	news     []intel.Hit
	social   []intel.Hit
}

// intelligence scores external news and social hits. News headlines naming
// configured investigative outlets get a veracity-5 boost; social mentions
// matching whistleblower channels raise veracity to tier 3. Each tier and
// the combined signal are capped.
func (e *Engine) intelligence(ctx context.Context, name string) intelSignal {
	sig := intelSignal{news: []intel.Hit{}, social: []intel.Hit{}}
	if e.gatherer == nil {
		return sig
	}

	result := e.gatherer.Gather(ctx, name)
	sig.news = result.News
	sig.social = result.Social

	if len(result.News) > 0 {
		var total float64
		for _, h := range result.News {
			hitScore := h.RiskScore
			title := strings.ToLower(h.Title)
			for _, giant := range e.cfg.InvestigativeNames {
				if strings.Contains(title, giant) {
					hitScore += e.cfg.GiantHeadlineBoost
					sig.veracity = 5
					sig.factors = append(sig.factors, fmt.Sprintf("Investigación de alto perfil detectada (%s)", strings.ToUpper(giant)))
				}
			}
			total += hitScore
		}
		if total > e.cfg.NewsCap {
			total = e.cfg.NewsCap
		}
		sig.points += total
		sig.factors = append(sig.factors, fmt.Sprintf("Menciones en prensa dominicana (%d artículos)", len(result.News)))
		if sig.veracity < 3 {
			sig.veracity = 3
		}
	}

	if len(result.Social) > 0 {
		total := e.cfg.SocialBase
		for _, s := range result.Social {
			title := strings.ToLower(s.Title)
			for _, wb := range e.cfg.WhistleblowerNames {
				if strings.Contains(title, wb) {
					total += e.cfg.SocialBoost
					if sig.veracity < 3 {
						sig.veracity = 3
					}
					sig.factors = append(sig.factors, fmt.Sprintf("Alerta de denunciante social detectada (%s)", strings.ToUpper(wb)))
				}
			}
		}
		if total > e.cfg.SocialCap {
			total = e.cfg.SocialCap
		}
		sig.points += total
		sig.factors = append(sig.factors, fmt.Sprintf("Actividad en redes sociales (%d posts)", len(result.Social)))
		if sig.veracity < 1 {
			sig.veracity = 1
		}
	}

	if sig.points > e.cfg.IntelCap {
		sig.points = e.cfg.IntelCap
	}
	return sig
}
