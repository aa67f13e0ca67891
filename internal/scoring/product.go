package scoring

import "strings"

// EvidenceLevel is the externally supplied grade of scientific support for an ingredient.
type EvidenceLevel string

const (
	EvidenceA EvidenceLevel = "A"
	EvidenceB EvidenceLevel = "B"
	EvidenceC EvidenceLevel = "C"
)

// Form is the physical dosage form of a product.
type Form string

const (
	FormCapsule Form = "capsule"
	FormSoftgel Form = "softgel"
	FormTablet  Form = "tablet"
	FormGummy   Form = "gummy"
	FormLiquid  Form = "liquid"
	FormPowder  Form = "powder"
)

// Ingredient is one entry of a product's ingredient list.
type Ingredient struct {
	Name               string        `json:"name" yaml:"name"`
	Category           string        `json:"category,omitempty" yaml:"category,omitempty"`
	EvidenceLevel      EvidenceLevel `json:"evidence_level,omitempty" yaml:"evidence_level,omitempty"`
	SafetyNotes        []string      `json:"safety_notes,omitempty" yaml:"safety_notes,omitempty"`
	AmountMgPerServing *float64      `json:"amount_mg_per_serving,omitempty" yaml:"amount_mg_per_serving,omitempty"`
}

// Product is the immutable input to the scoring engine. Optional numeric
// fields are nil when the source did not provide them.
type Product struct {
	ID                   string       `json:"id,omitempty" yaml:"id,omitempty"`
	Name                 string       `json:"name" yaml:"name"`
	Brand                string       `json:"brand,omitempty" yaml:"brand,omitempty"`
	Ingredients          []Ingredient `json:"ingredients,omitempty" yaml:"ingredients,omitempty"`
	PriceJPY             *float64     `json:"price_jpy,omitempty" yaml:"price_jpy,omitempty"`
	ServingsPerContainer *float64     `json:"servings_per_container,omitempty" yaml:"servings_per_container,omitempty"`
	ServingsPerDay       *float64     `json:"servings_per_day,omitempty" yaml:"servings_per_day,omitempty"`
	Form                 Form         `json:"form,omitempty" yaml:"form,omitempty"`
	Warnings             []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	ThirdPartyTested     bool         `json:"third_party_tested" yaml:"third_party_tested"`
}

// Labels reported in ScoreResult.MissingData.
const (
	MissingIngredients          = "成分情報"
	MissingPrice                = "価格"
	MissingServingsPerDay       = "1日の摂取回数"
	MissingServingsPerContainer = "内容量"
	MissingEvidenceLevel        = "エビデンスレベル"
	MissingAmount               = "成分量"
	MissingForm                 = "剤形"
	MissingCalculationError     = "計算エラーが発生"
)

// positive returns the value behind v when it is a usable positive finite number.
func positive(v *float64) (float64, bool) {
	if v == nil || !isFinite(*v) || *v <= 0 {
		return 0, false
	}
	return *v, true
}

func normalizeForm(f Form) Form {
	return Form(strings.ToLower(strings.TrimSpace(string(f))))
}

func normalizeLevel(l EvidenceLevel) EvidenceLevel {
	return EvidenceLevel(strings.ToUpper(strings.TrimSpace(string(l))))
}
