package hermes

import (
	"strings"
	"testing"
)

func TestSubjects(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"score", SubjectScoreComputed("p1"), "supplement.score.p1.computed"},
		{"diagnosis", SubjectDiagnosisCompleted("p1"), "supplement.diagnosis.p1.completed"},
		{"alert", SubjectDangerAlert("p1"), "supplement.alert.p1.danger"},
		{"product updated", SubjectProductUpdated("p1"), "supplement.product.p1.updated"},
		{"empty id", SubjectScoreComputed(""), "supplement.score.adhoc.computed"},
		{"unsafe id", SubjectDangerAlert("a.b*c>d e"), "supplement.alert.a_b_c_d_e.danger"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestNewEventsCarryIDs(t *testing.T) {
	a := NewScoreComputedEvent("p1", 80, true, nil)
	b := NewScoreComputedEvent("p1", 80, true, nil)
	if a.EventID == "" || a.EventID == b.EventID {
		t.Errorf("expected unique event IDs, got %q and %q", a.EventID, b.EventID)
	}
	if a.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}
	d := NewDangerAlertEvent("p1", "ヨヒンビン", "high", "高リスク成分")
	if d.Severity != "high" || d.Ingredient != "ヨヒンビン" {
		t.Errorf("unexpected alert event: %+v", d)
	}
}

// matchesSubject applies NATS single-token wildcard matching.
func matchesSubject(pattern, subject string) bool {
	p, s := strings.Split(pattern, "."), strings.Split(subject, ".")
	if len(p) != len(s) {
		return false
	}
	for i := range p {
		if p[i] != "*" && p[i] != s[i] {
			return false
		}
	}
	return true
}

func TestProductUpdatedWildcard(t *testing.T) {
	for _, id := range []string{"vitc", "3f2a9c1e-0000-4000-8000-000000000000", "a.b*c", ""} {
		if subject := SubjectProductUpdated(id); !matchesSubject(SubjectProductUpdatedAll, subject) {
			t.Errorf("%s does not match %s", subject, SubjectProductUpdatedAll)
		}
	}
	if matchesSubject(SubjectProductUpdatedAll, SubjectScoreComputed("vitc")) {
		t.Error("wildcard must not match score subjects")
	}
	e := NewProductUpdatedEvent("vitc", "created")
	if e.EventID == "" || e.ProductID != "vitc" || e.Action != "created" {
		t.Errorf("unexpected product event: %+v", e)
	}
}
