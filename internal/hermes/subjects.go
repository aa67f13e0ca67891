package hermes

const (
	StreamName   = "SUPPSCORE_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// SubjectProductUpdatedAll matches the update subject of every product.
const SubjectProductUpdatedAll = "supplement.product.*.updated"

var streamSubjects = []string{"supplement.score.>", "supplement.diagnosis.>", "supplement.alert.>", "supplement.product.>"}

func SubjectScoreComputed(productID string) string {
	return "supplement.score." + subjectToken(productID) + ".computed"
}

func SubjectDiagnosisCompleted(productID string) string {
	return "supplement.diagnosis." + subjectToken(productID) + ".completed"
}

func SubjectDangerAlert(productID string) string {
	return "supplement.alert." + subjectToken(productID) + ".danger"
}

func SubjectProductUpdated(productID string) string {
	return "supplement.product." + subjectToken(productID) + ".updated"
}

// subjectToken keeps a product ID from splitting or wildcarding a subject.
func subjectToken(id string) string {
	if id == "" {
		return "adhoc"
	}
	b := []byte(id)
	for i, c := range b {
		switch c {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			b[i] = '_'
		}
	}
	return string(b)
}
