package rules

// Table is the static safety rule set, loaded once and immutable for the
// process lifetime.
type Table struct {
	Interactions []InteractionRule `json:"interactions"`
	Overdose     []OverdoseRule    `json:"overdose"`
	Food         []FoodRule        `json:"food"`
}

// InteractionRule flags an unordered drug pair.
type InteractionRule struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// OverdoseRule caps the cumulative daily dose of one drug.
type OverdoseRule struct {
	Drug       string  `json:"drug"`
	MaxDailyMg float64 `json:"maxDailyMg"`
	Message    string  `json:"message"`
}

// FoodRule flags a drug taken together with a trigger food.
type FoodRule struct {
	Drug    string `json:"drug"`
	Trigger string `json:"trigger"`
	Message string `json:"message"`
}

// Message types.
const (
	TypeInteraction = "interaction"
	TypeOverdose    = "overdose"
	TypeFood        = "food"
)

// Message is one safety finding. Context fields are populated per type.
type Message struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`

	Pair       []string `json:"pair,omitempty"`       // interaction
	Drug       string   `json:"drug,omitempty"`       // overdose, food
	MaxDailyMg float64  `json:"maxDailyMg,omitempty"` // overdose
	TotalMg    float64  `json:"totalMg,omitempty"`    // overdose
	Trigger    string   `json:"trigger,omitempty"`    // food
}

// MedInput is the minimal medication shape the rule engine evaluates.
type MedInput struct {
	Drug            string  `json:"drug"`
	DoseMg          float64 `json:"doseMg"`
	FrequencyPerDay float64 `json:"frequencyPerDay"`
}
