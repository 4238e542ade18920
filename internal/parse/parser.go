package parse

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Guardrail thresholds: recognized text below any of these never reaches
// extraction.
const (
	MinTextLength = 12
	MinWordsCount = 3
	MinConfidence = 55
)

// Short-circuit reasons.
const (
	ReasonLowConfidence = "low_confidence"
	ReasonNoRxSignals   = "no_rx_signals"
	ReasonNoStrongParse = "no_strong_parse"
)

// words that suggest a legit prescription label
var rxKeywords = []string{
	"mg", "tablet", "capsule", "take", "rx", "dosage", "dose", "every",
	"daily", "twice", "bid", "tid", "qid", "refill", "quantity", "prescribed",
}

// very basic drug name whitelist (expand over time)
var commonDrugs = map[string]struct{}{
	"ibuprofen":     {},
	"acetaminophen": {},
	"paracetamol":   {},
	"warfarin":      {},
	"aspirin":       {},
	"simvastatin":   {},
	"metformin":     {},
	"amoxicillin":   {},
	"atorvastatin":  {},
	"omeprazole":    {},
}

var (
	reSpaces    = regexp.MustCompile(`[^\S\n]+`)
	reNewlines  = regexp.MustCompile(`\n+`)
	reMgPattern = regexp.MustCompile(`(?i)\b\d{1,4}\s*mg\b`)
	reMed       = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z\-']{2,})[^\n]*?(\d{1,4})\s*mg\b([^\n]*)`)
	reDoseOnly  = regexp.MustCompile(`(?i)(\d{1,4})\s*mg\b`)
	reDrugNear  = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z\-']{2,})\s*(\d{1,4})\s*mg\b`)

	reOnceDaily  = regexp.MustCompile(`(?i)once (?:daily|a day)`)
	reTwice      = regexp.MustCompile(`(?i)twice|bid|2x|2 times`)
	reThrice     = regexp.MustCompile(`(?i)three times|tid|3x`)
	reFour       = regexp.MustCompile(`(?i)four times|qid|4x`)
	reEveryHours = regexp.MustCompile(`(?i)every\s+(\d{1,2})\s*(?:hours|hrs|h)`)

	reBeforeMeals = regexp.MustCompile(`(?i)before meals?`)
	reAfterMeals  = regexp.MustCompile(`(?i)after meals?`)
	reWithFood    = regexp.MustCompile(`(?i)with food`)
)

// Flags annotates a medication record with independent provenance and
// quality signals. The vocabulary is closed.
type Flags struct {
	LowConfidence   bool   `json:"lowConfidence,omitempty"`
	UnknownDrug     bool   `json:"unknownDrug,omitempty"`
	GeminiVision    bool   `json:"geminiVision,omitempty"`
	GeminiUncertain bool   `json:"geminiUncertain,omitempty"`
	GeminiError     bool   `json:"geminiError,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// Medication is one structured record extracted from recognized label text.
type Medication struct {
	Drug            *string  `json:"drug"`
	DoseMg          *float64 `json:"doseMg"`
	FrequencyPerDay *int     `json:"frequencyPerDay"`
	Timing          *string  `json:"timing"`
	Flags           Flags    `json:"flags"`
}

// Result is the parser outcome. A guardrail short-circuit yields zero
// medications with LowConfidence set and Reason naming the tripped gate.
type Result struct {
	Medications   []Medication `json:"medications"`
	LowConfidence bool         `json:"lowConfidence,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

// Text parses recognized text with guardrails: insufficient signal is a
// first-class outcome, never an error.
func Text(rawText string, confidence float64, wordsCount int) Result {
	cleaned := normalizeWhitespace(rawText)

	// HARD STOP: not enough recognized content to trust
	if utf8.RuneCountInString(cleaned) < MinTextLength || wordsCount < MinWordsCount || confidence < MinConfidence {
		return Result{LowConfidence: true, Reason: ReasonLowConfidence}
	}
	if !hasRxSignals(cleaned) {
		return Result{LowConfidence: true, Reason: ReasonNoRxSignals}
	}

	meds := extractPerLine(cleaned)
	if len(meds) == 0 {
		meds = extractWhole(cleaned)
	}
	if len(meds) == 0 {
		// nothing strong enough: emit a single flagged placeholder record
		return Result{Medications: []Medication{{
			Flags: Flags{LowConfidence: true, Reason: ReasonNoStrongParse},
		}}}
	}
	return Result{Medications: meds}
}

func normalizeWhitespace(s string) string {
	s = reSpaces.ReplaceAllString(s, " ")
	s = reNewlines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

func hasRxSignals(text string) bool {
	t := strings.ToLower(text)
	for _, k := range rxKeywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return reMgPattern.MatchString(text)
}

// instruction words that the name capture must never mistake for a drug
var nameStopwords = map[string]struct{}{
	"take": {}, "takes": {}, "give": {}, "use": {},
	"tablet": {}, "tablets": {}, "capsule": {}, "capsules": {},
	"pill": {}, "pills": {}, "oral": {},
}

// findMed locates "(name) ... (dose) mg" in a candidate line, skipping
// leading instruction words so "Take Ibuprofen 200mg" names ibuprofen.
func findMed(line string) (drug string, doseMg float64, ok bool) {
	rest := line
	for {
		m := reMed.FindStringSubmatchIndex(rest)
		if m == nil {
			return "", 0, false
		}
		name := rest[m[2]:m[3]]
		if _, stop := nameStopwords[strings.ToLower(name)]; !stop {
			return strings.ToLower(name), float64(atoi(rest[m[4]:m[5]])), true
		}
		rest = rest[m[3]:]
	}
}

// extractPerLine splits into candidate lines and runs the medication regex
// against each.
func extractPerLine(cleaned string) []Medication {
	var meds []Medication
	for _, line := range strings.FieldsFunc(cleaned, func(r rune) bool {
		return r == '\n' || r == ',' || r == ';'
	}) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		drug, dose, ok := findMed(line)
		if !ok {
			continue
		}
		freq := frequencyPerDay(line)
		var flags Flags
		if !IsCommonDrug(drug) {
			flags.UnknownDrug = true
		}
		meds = append(meds, Medication{
			Drug:            &drug,
			DoseMg:          &dose,
			FrequencyPerDay: &freq,
			Timing:          timing(line),
			Flags:           flags,
		})
	}
	return meds
}

// extractWhole retries extraction over the whole text as one candidate.
// Unlike the per-line pass, a non-whitelisted name is dropped rather than
// flagged: without line structure the name capture is too speculative.
func extractWhole(cleaned string) []Medication {
	var drug *string
	if m := reDrugNear.FindStringSubmatch(cleaned); m != nil {
		d := strings.ToLower(m[1])
		if IsCommonDrug(d) {
			drug = &d
		}
	}
	var dose *float64
	if m := reDoseOnly.FindStringSubmatch(cleaned); m != nil {
		v := float64(atoi(m[1]))
		dose = &v
	}
	if drug == nil && dose == nil {
		return nil
	}
	freq := frequencyPerDay(cleaned)
	return []Medication{{
		Drug:            drug,
		DoseMg:          dose,
		FrequencyPerDay: &freq,
		Timing:          timing(cleaned),
	}}
}

// frequencyPerDay maps dosing keywords to times-per-day; "every N hours"
// becomes max(1, round(24/N)). Defaults to 1.
func frequencyPerDay(s string) int {
	switch {
	case reOnceDaily.MatchString(s):
		return 1
	case reTwice.MatchString(s):
		return 2
	case reThrice.MatchString(s):
		return 3
	case reFour.MatchString(s):
		return 4
	}
	if m := reEveryHours.FindStringSubmatch(s); m != nil {
		h := atoi(m[1])
		if h > 0 && h <= 24 {
			f := (24 + h/2) / h // round(24/h)
			if f < 1 {
				f = 1
			}
			return f
		}
	}
	return 1
}

func timing(s string) *string {
	var t string
	switch {
	case reBeforeMeals.MatchString(s):
		t = "before meals"
	case reAfterMeals.MatchString(s):
		t = "after meals"
	case reWithFood.MatchString(s):
		t = "with food"
	default:
		return nil
	}
	return &t
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// IsCommonDrug reports whitelist membership for a normalized drug name.
func IsCommonDrug(name string) bool {
	_, ok := commonDrugs[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
