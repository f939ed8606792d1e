package service

import (
	"sort"
	"time"

	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/core/slots"
	"slotwatch/internal/services/harvest/domain"
	regdomain "slotwatch/internal/services/registry/domain"
)

// ClinicInput is one clinic's raw harvest joined with its rules
type ClinicInput struct {
	Clinic       regdomain.Clinic
	Rules        regdomain.Ruleset
	HasRules     bool
	Observations scrape.Observations
}

// AggregateConfig tunes the aggregation pass
type AggregateConfig struct {
	// MinBlocks is the global availability minimum
	MinBlocks int

	// LegacyInterval is the default slot spacing for legacy grids when
	// detection has nothing to work with
	LegacyInterval int
}

// Aggregate joins raw observations with staff classification and produces
// the run artifact.
//
// Clinics without a ruleset classify everyone unknown at the default
// threshold. A non-empty web-booking allow-list restricts the details to its
// members before totals; an empty allow-list (with a ruleset present)
// excludes the clinic from the availability tally while keeping its details.
// Clinics follow the canonical order; names outside it sort last,
// alphabetically
func Aggregate(inputs []ClinicInput, order []string, cfg AggregateConfig,
	checkDate string, checkedAt time.Time) domain.Artifact {
	if cfg.MinBlocks <= 0 {
		cfg.MinBlocks = 1
	}
	if cfg.LegacyInterval <= 0 {
		cfg.LegacyInterval = 5
	}

	results := make([]domain.ClinicResult, 0, len(inputs))
	for _, in := range inputs {
		results = append(results, aggregateClinic(in, cfg))
	}
	sortResults(results, order)

	art := domain.Artifact{
		CheckDate: checkDate,
		CheckedAt: checkedAt,
		Results:   results,
	}
	art.Tally()
	return art
}

func aggregateClinic(in ClinicInput, cfg AggregateConfig) domain.ClinicResult {
	defaultInterval := cfg.LegacyInterval
	if in.Clinic.Backend == scrape.BackendSPA {
		defaultInterval = 15
	}

	staff := make([]string, 0, len(in.Observations))
	for name := range in.Observations {
		staff = append(staff, name)
	}
	sort.Strings(staff)

	details := make([]slots.Analysis, 0, len(staff))
	for _, name := range staff {
		if in.HasRules && in.Rules.IsDisabled(name) {
			continue
		}
		threshold := regdomain.DefaultThreshold
		if in.HasRules {
			threshold = in.Rules.Threshold(in.Rules.Classify(name))
		}
		details = append(details, slots.AnalyzeStaff(name, in.Observations[name], defaultInterval, threshold))
	}

	tallied := details
	excluded := false
	if in.HasRules {
		if len(in.Rules.WebBooking) > 0 {
			tallied = tallied[:0:0]
			for _, d := range details {
				if in.Rules.WebBookable(d.Staff) {
					tallied = append(tallied, d)
				}
			}
			details = tallied
		} else {
			excluded = true
		}
	}

	total := 0
	for _, d := range tallied {
		total += d.Blocks
	}

	return domain.ClinicResult{
		Clinic:      in.Clinic.Name,
		System:      in.Clinic.Backend,
		Available:   !excluded && total >= cfg.MinBlocks,
		TotalBlocks: total,
		Details:     details,
	}
}

// sortResults orders clinics by the canonical sequence, unknowns last
// alphabetically
func sortResults(results []domain.ClinicResult, order []string) {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	unknown := len(order)
	sort.SliceStable(results, func(i, j int) bool {
		ri, iKnown := rank[results[i].Clinic]
		rj, jKnown := rank[results[j].Clinic]
		if !iKnown {
			ri = unknown
		}
		if !jKnown {
			rj = unknown
		}
		if ri != rj {
			return ri < rj
		}
		return results[i].Clinic < results[j].Clinic
	})
}

// Recalculate rebuilds every detail from its raw slot times under a new
// threshold, then recomputes totals and availability. The round trip relies
// on artifacts carrying raw_slot_times and slot_interval
func Recalculate(art domain.Artifact, thresholdMinutes, minBlocks int) domain.Artifact {
	if minBlocks <= 0 {
		minBlocks = 1
	}
	out := art
	out.Results = make([]domain.ClinicResult, len(art.Results))
	for ri, r := range art.Results {
		total := 0
		details := make([]slots.Analysis, len(r.Details))
		for di, d := range r.Details {
			details[di] = slots.AnalyzeStaff(d.Staff, d.RawSlotTimes, d.SlotInterval, thresholdMinutes)
			total += details[di].Blocks
		}
		r.Details = details
		r.TotalBlocks = total
		r.Available = total >= minBlocks
		out.Results[ri] = r
	}
	out.Tally()
	return out
}
