package scoring

// ScoreComponents holds the four component scores, each in [0, 100].
type ScoreComponents struct {
	Evidence     float64 `json:"evidence"`
	Safety       float64 `json:"safety"`
	Cost         float64 `json:"cost"`
	Practicality float64 `json:"practicality"`
}

// ApplyWeights combines components into a single total rounded to one decimal.
// Invalid weights are a configuration error and are returned as *WeightError.
func ApplyWeights(c ScoreComponents, w ScoreWeights) (float64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	total := clampScore(c.Evidence)*w.Evidence +
		clampScore(c.Safety)*w.Safety +
		clampScore(c.Cost)*w.Cost +
		clampScore(c.Practicality)*w.Practicality
	return clamp(RoundTenth(total), 0, 100), nil
}
