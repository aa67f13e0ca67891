package scoring

import (
	"fmt"
	"math"
	"strings"
)

// Factor captures one input's contribution to a component score.
type Factor struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// ComponentScore is the output of a single component calculator.
type ComponentScore struct {
	Score       float64  `json:"score"`
	Factors     []Factor `json:"factors"`
	Explanation string   `json:"explanation"`
	Missing     []string `json:"-"`
}

const (
	fallbackScore       = 50.0
	safetyUnknownScore  = 75.0
	insufficientDataTag = "データ不足"

	// DefaultReferenceCostPerMg is the market reference price in JPY per mg per day.
	DefaultReferenceCostPerMg = 0.02
)

var evidenceTable = map[EvidenceLevel]float64{
	EvidenceA: 90,
	EvidenceB: 75,
	EvidenceC: 60,
}

var formTable = map[Form]float64{
	FormCapsule: 100,
	FormSoftgel: 95,
	FormTablet:  85,
	FormGummy:   75,
	FormLiquid:  75,
	FormPowder:  60,
}

// highSeverityMarkers force the lowest safety bracket when any warning or
// safety note contains one of them.
var highSeverityMarkers = []string{
	"重篤", "禁忌", "死亡", "肝障害",
	"serious", "fatal", "contraindicated", "liver damage",
}

// containerDaysCeiling is the days-per-container at which the duration factor saturates.
const containerDaysCeiling = 60.0

// --- Component calculators ---

// EvidenceScore averages the fixed-table score of each graded ingredient.
func EvidenceScore(p *Product) ComponentScore {
	if len(p.Ingredients) == 0 {
		return ComponentScore{
			Score:       fallbackScore,
			Factors:     []Factor{{Name: insufficientDataTag, Value: fallbackScore, Weight: 1, Description: "成分情報がありません"}},
			Explanation: "成分情報がないため、エビデンススコアは暫定値です",
			Missing:     []string{MissingIngredients},
		}
	}

	var graded []Factor
	var sum float64
	for _, ing := range p.Ingredients {
		level := normalizeLevel(ing.EvidenceLevel)
		v, ok := evidenceTable[level]
		if !ok {
			continue
		}
		sum += v
		graded = append(graded, Factor{
			Name:        ing.Name,
			Value:       v,
			Description: "エビデンスレベル" + string(level),
		})
	}
	if len(graded) == 0 {
		return ComponentScore{
			Score:       fallbackScore,
			Factors:     []Factor{{Name: insufficientDataTag, Value: fallbackScore, Weight: 1, Description: "エビデンスレベルが不明です"}},
			Explanation: "エビデンスレベルが不明なため、エビデンススコアは暫定値です",
			Missing:     []string{MissingEvidenceLevel},
		}
	}

	share := 1.0 / float64(len(graded))
	for i := range graded {
		graded[i].Weight = share
	}
	score := sum / float64(len(graded))
	return ComponentScore{
		Score:       clampScore(score),
		Factors:     graded,
		Explanation: fmt.Sprintf("%d成分のエビデンスレベルの平均です", len(graded)),
	}
}

// SafetyScore maps the number of risk indicators through a fixed table.
// Without an ingredient list the result is capped at the conservative
// unknown-risk value.
func SafetyScore(p *Product) ComponentScore {
	count := len(p.Warnings)
	high := containsHighMarker(p.Warnings)
	for _, ing := range p.Ingredients {
		count += len(ing.SafetyNotes)
		if containsHighMarker(ing.SafetyNotes) {
			high = true
		}
	}

	score := safetyTable(count, high)
	factors := []Factor{
		{Name: "リスク指標", Value: score, Weight: 1, Description: fmt.Sprintf("注意事項 %d件", count)},
		{Name: "第三者機関検査", Value: boolScore(p.ThirdPartyTested), Weight: 0, Description: thirdPartyDescription(p.ThirdPartyTested)},
	}
	explanation := fmt.Sprintf("注意事項が%d件あります", count)
	if high {
		explanation = "重大な注意事項が含まれています"
	}

	if len(p.Ingredients) == 0 {
		score = math.Min(score, safetyUnknownScore)
		factors[0].Value = score
		factors = append(factors, Factor{Name: insufficientDataTag, Value: safetyUnknownScore, Weight: 0, Description: "成分情報がないためリスクは不明です"})
		explanation += "（成分情報がないため安全性は不明として評価）"
		return ComponentScore{Score: score, Factors: factors, Explanation: explanation, Missing: []string{MissingIngredients}}
	}
	return ComponentScore{Score: score, Factors: factors, Explanation: explanation}
}

func safetyTable(count int, high bool) float64 {
	switch {
	case high || count >= 10:
		return 40
	case count >= 3:
		return 70
	case count >= 1:
		return 85
	default:
		return 100
	}
}

// CostScore compares the product's cost per mg per day with the reference.
func CostScore(p *Product, referenceCostPerMg float64) ComponentScore {
	var missing []string
	if _, ok := positive(p.PriceJPY); !ok {
		missing = append(missing, MissingPrice)
	}
	if _, ok := positive(p.ServingsPerContainer); !ok {
		missing = append(missing, MissingServingsPerContainer)
	}
	if _, ok := positive(p.ServingsPerDay); !ok {
		missing = append(missing, MissingServingsPerDay)
	}

	costPerDay, ok := CostPerDay(p)
	if !ok {
		return costFallback("価格または摂取量の情報が不足しています", missing)
	}

	spd, _ := positive(p.ServingsPerDay)
	var totalMg float64
	for _, ing := range p.Ingredients {
		if mg, ok := positive(ing.AmountMgPerServing); ok {
			totalMg += mg * spd
		}
	}
	if !isFinite(totalMg) || totalMg <= 0 {
		if len(p.Ingredients) > 0 {
			missing = append(missing, MissingAmount)
		}
		return costFallback("成分量の情報が不足しています", missing)
	}

	costPerMg := costPerDay / totalMg
	if !isFinite(costPerMg) || costPerMg <= 0 || !isFinite(referenceCostPerMg) || referenceCostPerMg <= 0 {
		return costFallback("コストを計算できません", missing)
	}

	score := clampScore(math.Min(100, 100*referenceCostPerMg/costPerMg))
	return ComponentScore{
		Score: score,
		Factors: []Factor{
			{Name: "1日あたりの価格", Value: costPerDay, Weight: 0, Description: fmt.Sprintf("%.1f円/日", costPerDay)},
			{Name: "1日あたりの成分量", Value: totalMg, Weight: 0, Description: fmt.Sprintf("%.0fmg/日", totalMg)},
			{Name: "mgあたりの価格", Value: costPerMg, Weight: 1, Description: fmt.Sprintf("%.4f円/mg（基準 %.4f円/mg）", costPerMg, referenceCostPerMg)},
		},
		Explanation: fmt.Sprintf("1日あたり%.1f円、成分量%.0fmgです", costPerDay, totalMg),
	}
}

func costFallback(reason string, missing []string) ComponentScore {
	return ComponentScore{
		Score:       fallbackScore,
		Factors:     []Factor{{Name: insufficientDataTag, Value: fallbackScore, Weight: 1, Description: reason}},
		Explanation: reason + "（暫定値）",
		Missing:     missing,
	}
}

// CostPerDay returns (priceJPY / servingsPerContainer) * servingsPerDay. The
// second result is false when any input is missing or unusable.
func CostPerDay(p *Product) (float64, bool) {
	price, ok := positive(p.PriceJPY)
	if !ok {
		return 0, false
	}
	spc, ok := positive(p.ServingsPerContainer)
	if !ok {
		return 0, false
	}
	spd, ok := positive(p.ServingsPerDay)
	if !ok {
		return 0, false
	}
	v := price / spc * spd
	if !isFinite(v) {
		return 0, false
	}
	return v, true
}

// PracticalityScore blends dosing burden, form and container duration 0.4/0.3/0.3.
func PracticalityScore(p *Product) ComponentScore {
	var missing []string

	dosing := fallbackScore
	dosingDesc := "摂取回数が不明です"
	spd, spdOK := positive(p.ServingsPerDay)
	if spdOK {
		dosing = 100 - clamp((spd-1)*15, 0, 40)
		dosingDesc = fmt.Sprintf("1日%g回", spd)
	} else {
		missing = append(missing, MissingServingsPerDay)
	}

	form := normalizeForm(p.Form)
	formValue, ok := formTable[form]
	formDesc := string(form)
	if !ok {
		formValue = fallbackScore
		formDesc = "剤形が不明です"
		if form == "" {
			missing = append(missing, MissingForm)
		}
	}

	duration := fallbackScore
	durationDesc := "内容量が不明です"
	spc, spcOK := positive(p.ServingsPerContainer)
	if !spcOK {
		missing = append(missing, MissingServingsPerContainer)
	}
	if spcOK && spdOK {
		days := spc / spd
		if n, err := Normalize(days, 0, containerDaysCeiling); err == nil {
			duration = n
		}
		durationDesc = fmt.Sprintf("約%.0f日分", days)
	}

	score := clampScore(dosing*0.4 + formValue*0.3 + duration*0.3)
	return ComponentScore{
		Score: score,
		Factors: []Factor{
			{Name: "摂取回数", Value: dosing, Weight: 0.4, Description: dosingDesc},
			{Name: "剤形", Value: formValue, Weight: 0.3, Description: formDesc},
			{Name: "容量日数", Value: duration, Weight: 0.3, Description: durationDesc},
		},
		Explanation: fmt.Sprintf("摂取回数%.0f点・剤形%.0f点・容量日数%.0f点の加重平均です", dosing, formValue, duration),
		Missing:     missing,
	}
}

func containsHighMarker(notes []string) bool {
	for _, n := range notes {
		lower := strings.ToLower(n)
		for _, m := range highSeverityMarkers {
			if strings.Contains(lower, m) {
				return true
			}
		}
	}
	return false
}

func boolScore(b bool) float64 {
	if b {
		return 100
	}
	return 0
}

func thirdPartyDescription(tested bool) string {
	if tested {
		return "第三者機関による検査済み"
	}
	return "第三者機関による検査情報なし"
}
