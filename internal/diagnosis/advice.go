package diagnosis

import (
	"fmt"
	"math"
	"strings"

	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

const daysPerMonth = 30

// Component thresholds for canned recommendations.
const (
	evidenceThreshold     = 80
	safetyThreshold       = 85
	costThreshold         = 75
	practicalityThreshold = 80
)

// purposeIngredients lists ingredient keywords suited to each purpose.
var purposeIngredients = map[string][]string{
	PurposeFatigue:  {"ビタミンb", "coq10", "コエンザイムq10", "クエン酸", "イミダゾールジペプチド"},
	PurposeBeauty:   {"コラーゲン", "ビタミンc", "ヒアルロン酸", "セラミド", "ビオチン"},
	PurposeImmunity: {"ビタミンd", "亜鉛", "ビタミンc", "乳酸菌", "エルダーベリー"},
	PurposeMuscle:   {"プロテイン", "クレアチン", "bcaa", "hmb", "eaa"},
	PurposeSleep:    {"gaba", "グリシン", "マグネシウム", "テアニン", "メラトニン"},
	PurposeWellness: {"マルチビタミン", "ビタミン", "ミネラル", "オメガ3", "dha"},
	PurposeDiet:     {"食物繊維", "カルニチン", "難消化性デキストリン", "キトサン"},
	PurposeFocus:    {"dha", "イチョウ葉", "テアニン", "ホスファチジルセリン"},
}

// purposeOrder fixes the output order of purpose-based recommendations.
var purposeOrder = []string{
	PurposeFatigue, PurposeBeauty, PurposeImmunity, PurposeMuscle,
	PurposeSleep, PurposeWellness, PurposeDiet, PurposeFocus,
}

// allergenKeywords maps an allergy answer to ingredient-name keywords.
var allergenKeywords = map[string][]string{
	"大豆": {"大豆", "ソイ", "soy"},
	"乳":  {"乳", "ホエイ", "カゼイン", "whey", "casein", "milk"},
	"魚介": {"魚", "フィッシュ", "クリル", "エビ", "カニ", "fish", "krill", "shellfish"},
	"小麦": {"小麦", "グルテン", "wheat", "gluten"},
	"卵":  {"卵", "エッグ", "egg"},
}

const allergyPrefix = "アレルギー:"

// BuildRecommendations produces positive explanation sentences.
func BuildRecommendations(p scoring.Product, base scoring.ScoreResult, answers DiagnosisAnswers, costPerDay float64) []string {
	recs := []string{}
	c := base.Components
	if c.Evidence >= evidenceThreshold {
		recs = append(recs, "科学的根拠が豊富な成分で構成されています")
	}
	if c.Safety >= safetyThreshold {
		recs = append(recs, "安全性の懸念が少ない製品です")
	}
	if c.Cost >= costThreshold {
		recs = append(recs, "コストパフォーマンスに優れています")
	}
	if c.Practicality >= practicalityThreshold {
		recs = append(recs, "毎日続けやすい製品です")
	}
	if p.ThirdPartyTested {
		recs = append(recs, "第三者機関による品質検査を受けています")
	}

	selected := make(map[string]bool)
	for _, a := range answers.Purpose {
		selected[label(a)] = true
	}
	for _, purpose := range purposeOrder {
		if !selected[purpose] {
			continue
		}
		if ing, ok := findIngredient(p, purposeIngredients[purpose]); ok {
			recs = append(recs, fmt.Sprintf("「%s」は%sの目的に適しています", ing, purpose))
		}
	}

	if b, ok := budgetFor(answers); ok && costPerDay > 0 {
		monthly := monthlyCost(costPerDay)
		if b.maxMonthlyJPY == 0 || monthly <= b.maxMonthlyJPY {
			recs = append(recs, fmt.Sprintf("1ヶ月あたり約%.0f円で、ご予算内に収まります", monthly))
		}
	}
	return recs
}

// BuildWarnings produces cautionary sentences from alerts and answers.
func BuildWarnings(p scoring.Product, base scoring.ScoreResult, answers DiagnosisAnswers, alerts []DangerAlert, costPerDay float64) []string {
	warnings := []string{}
	if len(alerts) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d件の注意が必要な成分が含まれています", len(alerts)))
	}

	for _, allergen := range allergies(answers) {
		keywords, ok := allergenKeywords[allergen]
		if !ok {
			keywords = []string{allergen}
		}
		if ing, found := findIngredient(p, keywords); found {
			warnings = append(warnings, fmt.Sprintf("アレルギー物質「%s」を含む可能性があります（%s）", allergen, ing))
		}
	}

	if hasAnswer(answers.Constitution, ConstitutionMedication) {
		warnings = append(warnings, "服薬中の方は、摂取前に医師または薬剤師にご相談ください")
	}

	if b, ok := budgetFor(answers); ok && b.maxMonthlyJPY > 0 && costPerDay > 0 {
		if monthly := monthlyCost(costPerDay); monthly > b.maxMonthlyJPY {
			warnings = append(warnings, fmt.Sprintf("1ヶ月あたり約%.0f円で、ご予算を超える可能性があります", monthly))
		}
	}

	if !base.IsComplete {
		warnings = append(warnings, "一部のデータが不足しているため、スコアは参考値です")
	}
	return warnings
}

// allergies extracts allergen names from "アレルギー: X" constitution answers.
// Answers are width-folded first, so the fullwidth "アレルギー：X" form counts.
func allergies(answers DiagnosisAnswers) []string {
	var out []string
	for _, c := range answers.Constitution {
		c = foldWidth(c)
		if !strings.HasPrefix(c, allergyPrefix) {
			continue
		}
		if a := strings.TrimSpace(strings.TrimPrefix(c, allergyPrefix)); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// findIngredient returns the first ingredient whose name contains any keyword.
func findIngredient(p scoring.Product, keywords []string) (string, bool) {
	for _, ing := range p.Ingredients {
		name := strings.ToLower(ing.Name)
		for _, k := range keywords {
			if k != "" && strings.Contains(name, strings.ToLower(k)) {
				return ing.Name, true
			}
		}
	}
	return "", false
}

func hasAnswer(answers []string, want string) bool {
	for _, a := range answers {
		if label(a) == want {
			return true
		}
	}
	return false
}

func monthlyCost(costPerDay float64) float64 {
	return math.Round(costPerDay * daysPerMonth)
}
