package hermes

import (
	"time"

	"github.com/google/uuid"
)

type ScoreComputedEvent struct {
	EventID     string    `json:"event_id"`
	ProductID   string    `json:"product_id"`
	Total       float64   `json:"total"`
	IsComplete  bool      `json:"is_complete"`
	MissingData []string  `json:"missing_data,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type DiagnosisCompletedEvent struct {
	EventID           string    `json:"event_id"`
	ProductID         string    `json:"product_id"`
	BaseTotal         float64   `json:"base_total"`
	PersonalizedScore float64   `json:"personalized_score"`
	AlertCount        int       `json:"alert_count"`
	Timestamp         time.Time `json:"timestamp"`
}

type DangerAlertEvent struct {
	EventID    string    `json:"event_id"`
	ProductID  string    `json:"product_id"`
	Ingredient string    `json:"ingredient"`
	Severity   string    `json:"severity"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// ProductUpdatedEvent announces that a catalog entry was created or changed.
// Action is "created" or "updated".
type ProductUpdatedEvent struct {
	EventID   string    `json:"event_id"`
	ProductID string    `json:"product_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewScoreComputedEvent(productID string, total float64, complete bool, missing []string) ScoreComputedEvent {
	return ScoreComputedEvent{
		EventID:     uuid.NewString(),
		ProductID:   productID,
		Total:       total,
		IsComplete:  complete,
		MissingData: missing,
		Timestamp:   time.Now().UTC(),
	}
}

func NewDiagnosisCompletedEvent(productID string, base, personalized float64, alerts int) DiagnosisCompletedEvent {
	return DiagnosisCompletedEvent{
		EventID:           uuid.NewString(),
		ProductID:         productID,
		BaseTotal:         base,
		PersonalizedScore: personalized,
		AlertCount:        alerts,
		Timestamp:         time.Now().UTC(),
	}
}

func NewDangerAlertEvent(productID, ingredient, severity, reason string) DangerAlertEvent {
	return DangerAlertEvent{
		EventID:    uuid.NewString(),
		ProductID:  productID,
		Ingredient: ingredient,
		Severity:   severity,
		Reason:     reason,
		Timestamp:  time.Now().UTC(),
	}
}

func NewProductUpdatedEvent(productID, action string) ProductUpdatedEvent {
	return ProductUpdatedEvent{
		EventID:   uuid.NewString(),
		ProductID: productID,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}
