package rules

import (
	"sort"
	"strconv"
	"strings"
)

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RunChecks evaluates medications (and optionally foods) against the rule
// table. Pure: no I/O, no mutation, identical input yields identical output
// sets. Matching is case-insensitive exact string equality after trim;
// malformed entries (empty names, zero doses) simply fail their comparisons.
func RunChecks(t *Table, meds []MedInput, foods []string) []Message {
	messages := []Message{}
	seen := map[string]struct{}{}

	// interactions (pairwise, deduped on sorted pair + severity)
	for i := 0; i < len(meds); i++ {
		for j := i + 1; j < len(meds); j++ {
			a, b := norm(meds[i].Drug), norm(meds[j].Drug)
			for _, r := range t.Interactions {
				rA, rB := norm(r.A), norm(r.B)
				if !((a == rA && b == rB) || (a == rB && b == rA)) {
					continue
				}
				pair := []string{a, b}
				sort.Strings(pair)
				key := pair[0] + "+" + pair[1] + ":" + r.Severity
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				messages = append(messages, Message{
					Type:     TypeInteraction,
					Severity: r.Severity,
					Message:  r.Message,
					Pair:     pair,
				})
			}
		}
	}

	// overdose: sum doseMg x frequencyPerDay per normalized drug name
	totals := map[string]float64{}
	for _, m := range meds {
		totals[norm(m.Drug)] += m.DoseMg * m.FrequencyPerDay
	}
	for _, r := range t.Overdose {
		k := norm(r.Drug)
		total := totals[k]
		if total > r.MaxDailyMg {
			messages = append(messages, Message{
				Type:       TypeOverdose,
				Severity:   "high",
				Message:    r.Message + " You entered ~" + strconv.FormatFloat(total, 'f', -1, 64) + " mg/day.",
				Drug:       k,
				MaxDailyMg: r.MaxDailyMg,
				TotalMg:    total,
			})
		}
	}

	// food triggers
	foodsNorm := make(map[string]struct{}, len(foods))
	for _, f := range foods {
		foodsNorm[norm(f)] = struct{}{}
	}
	for _, r := range t.Food {
		d := norm(r.Drug)
		taken := false
		for _, m := range meds {
			if norm(m.Drug) == d {
				taken = true
				break
			}
		}
		if !taken {
			continue
		}
		if _, ok := foodsNorm[norm(r.Trigger)]; ok {
			messages = append(messages, Message{
				Type:     TypeFood,
				Severity: "moderate",
				Message:  r.Message,
				Drug:     d,
				Trigger:  r.Trigger,
			})
		}
	}

	return messages
}
