package diagnosis

import (
	"strings"

	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

// Severity of a danger alert.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Constitution answers that act as contraindication triggers.
const (
	ConstitutionPregnant     = "妊娠中・授乳中"
	ConstitutionHypertension = "高血圧"
	ConstitutionHeart        = "心臓疾患"
	ConstitutionAnxiety      = "不安障害"
	ConstitutionMedication   = "服薬中"
	ConstitutionCaffeine     = "カフェインに敏感"
	ConstitutionLiver        = "肝臓疾患"
	ConstitutionKidney       = "腎臓疾患"
	ConstitutionDiabetes     = "糖尿病"
)

// DangerAlert flags an ingredient that needs the user's attention.
type DangerAlert struct {
	Ingredient     string   `json:"ingredient"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
	Reason         string   `json:"reason"`
}

type dangerEntry struct {
	key            string
	aliases        []string
	exclusions     []string
	severity       Severity
	description    string
	recommendation string
	triggers       []string
}

var dangerTable = []dangerEntry{
	{
		key:            "caffeine",
		aliases:        []string{"カフェイン", "caffeine", "ガラナ", "guarana"},
		exclusions:     []string{"ノンカフェイン", "カフェインレス", "カフェインフリー", "デカフェ", "caffeine-free", "caffeine free", "decaffeinated", "decaf"},
		severity:       SeverityMedium,
		description:    "カフェインは不眠・動悸・血圧上昇を引き起こすことがあります",
		recommendation: "1日の摂取量を確認し、コーヒー等との重複摂取を避けてください",
		triggers:       []string{ConstitutionPregnant, ConstitutionHypertension, ConstitutionHeart, ConstitutionAnxiety, ConstitutionCaffeine},
	},
	{
		key:            "ephedra",
		aliases:        []string{"エフェドラ", "麻黄", "ephedra", "ephedrine", "エフェドリン"},
		severity:       SeverityHigh,
		description:    "エフェドラは心血管系への重大な副作用が報告されています",
		recommendation: "摂取を避けてください",
		triggers:       []string{ConstitutionHypertension, ConstitutionHeart, ConstitutionPregnant},
	},
	{
		key:            "yohimbine",
		aliases:        []string{"ヨヒンビン", "yohimbine", "ヨヒンベ", "yohimbe"},
		severity:       SeverityHigh,
		description:    "ヨヒンビンは血圧上昇・不安・頻脈を引き起こすことがあります",
		recommendation: "摂取を避け、必要な場合は医師に相談してください",
		triggers:       []string{ConstitutionHypertension, ConstitutionAnxiety, ConstitutionHeart},
	},
	{
		key:            "dmaa",
		aliases:        []string{"dmaa", "ジメチルアミルアミン", "1,3-dimethylamylamine"},
		severity:       SeverityHigh,
		description:    "DMAAは多くの国で禁止されている刺激物質です",
		recommendation: "摂取しないでください",
	},
	{
		key:            "synephrine",
		aliases:        []string{"シネフリン", "synephrine", "ビターオレンジ", "bitter orange"},
		severity:       SeverityMedium,
		description:    "シネフリンはカフェインと併用すると心拍数・血圧を上げることがあります",
		recommendation: "カフェインを含む製品との併用を避けてください",
		triggers:       []string{ConstitutionHypertension, ConstitutionHeart, ConstitutionCaffeine},
	},
	{
		key:            "st_johns_wort",
		aliases:        []string{"セントジョーンズワート", "セイヨウオトギリソウ", "st. john's wort", "st john's wort"},
		severity:       SeverityMedium,
		description:    "セントジョーンズワートは多くの医薬品の効果を弱めることがあります",
		recommendation: "服薬中の方は医師・薬剤師に相談してください",
		triggers:       []string{ConstitutionMedication, ConstitutionPregnant},
	},
	{
		key:            "kava",
		aliases:        []string{"カバ", "kava"},
		exclusions:     []string{"カバノアナタケ", "カバノキ"},
		severity:       SeverityMedium,
		description:    "カバは肝機能への影響が報告されています",
		recommendation: "肝臓に不安のある方は摂取を控えてください",
		triggers:       []string{ConstitutionLiver, ConstitutionMedication},
	},
	{
		key:            "vitamin_a",
		aliases:        []string{"ビタミンa", "vitamin a", "レチノール", "retinol"},
		severity:       SeverityLow,
		description:    "妊娠中のビタミンAの過剰摂取は胎児に影響することがあります",
		recommendation: "妊娠中・授乳中は摂取量に注意してください",
		triggers:       []string{ConstitutionPregnant},
	},
	{
		key:            "ginkgo",
		aliases:        []string{"イチョウ葉", "ginkgo"},
		severity:       SeverityLow,
		description:    "イチョウ葉は抗凝固薬との併用で出血リスクを高めることがあります",
		recommendation: "服薬中の方は医師・薬剤師に相談してください",
		triggers:       []string{ConstitutionMedication},
	},
	{
		key:            "green_tea_extract",
		aliases:        []string{"緑茶エキス", "緑茶抽出物", "green tea extract"},
		severity:       SeverityLow,
		description:    "高濃度の緑茶エキスは肝機能に影響することがあります",
		recommendation: "空腹時の摂取を避けてください",
		triggers:       []string{ConstitutionLiver},
	},
	{
		key:            "potassium",
		aliases:        []string{"カリウム", "potassium"},
		severity:       SeverityLow,
		description:    "腎機能が低下している場合、カリウムが体内に蓄積することがあります",
		recommendation: "腎臓に不安のある方は医師に相談してください",
		triggers:       []string{ConstitutionKidney},
	},
	{
		key:            "chromium",
		aliases:        []string{"クロム", "chromium"},
		severity:       SeverityLow,
		description:    "クロムは血糖降下薬の作用に影響することがあります",
		recommendation: "糖尿病治療中の方は医師に相談してください",
		triggers:       []string{ConstitutionDiabetes},
	},
}

// DetectDangerAlerts cross-references the product's ingredients against the
// danger table. An alert is raised when the entry is high severity or one of
// its triggers appears in the constitution answers. Each table entry alerts
// at most once per product; output follows ingredient order.
func DetectDangerAlerts(p scoring.Product, answers DiagnosisAnswers) []DangerAlert {
	constitution := make(map[string]bool, len(answers.Constitution))
	for _, c := range answers.Constitution {
		constitution[label(c)] = true
	}

	alerts := []DangerAlert{}
	seen := make(map[string]bool)
	for _, ing := range p.Ingredients {
		for _, entry := range dangerTable {
			if seen[entry.key] || !matchesAny(ing.Name, entry.aliases, entry.exclusions) {
				continue
			}
			var hits []string
			for _, t := range entry.triggers {
				if constitution[t] {
					hits = append(hits, t)
				}
			}
			if entry.severity != SeverityHigh && len(hits) == 0 {
				continue
			}
			seen[entry.key] = true
			alerts = append(alerts, DangerAlert{
				Ingredient:     ing.Name,
				Severity:       entry.severity,
				Description:    entry.description,
				Recommendation: entry.recommendation,
				Reason:         alertReason(entry.severity, hits),
			})
		}
	}
	return alerts
}

func alertReason(sev Severity, hits []string) string {
	if len(hits) > 0 {
		return "回答（" + strings.Join(hits, "、") + "）に該当する注意成分です"
	}
	if sev == SeverityHigh {
		return "高リスク成分のため、体質に関わらず注意が必要です"
	}
	return ""
}
