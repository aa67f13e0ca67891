// Package export renders score and diagnosis results as flat tables.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/MikeSquared-Agency/Suppscore/internal/diagnosis"
	"github.com/MikeSquared-Agency/Suppscore/internal/scoring"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat defaults to JSON when s is empty.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Row is one line of an exported report.
type Row struct {
	ProductID   string  `json:"product_id"`
	Section     string  `json:"section"`
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

var csvHeader = []string{"product_id", "section", "name", "value", "weight", "description"}

// Report is the JSON export document.
type Report struct {
	Product   scoring.Product            `json:"product"`
	Score     scoring.ScoreResult        `json:"score"`
	Diagnosis *diagnosis.DiagnosisResult `json:"diagnosis,omitempty"`
	Rows      []Row                      `json:"rows"`
}

// ScoreRows flattens a score into a total row, one row per component and one
// row per factor.
func ScoreRows(p scoring.Product, r scoring.ScoreResult) []Row {
	rows := []Row{{ProductID: p.ID, Section: "total", Name: p.Name, Value: r.Total, Weight: 1,
		Description: completeness(r)}}

	components := []struct {
		name      string
		value     float64
		weight    float64
		breakdown scoring.ComponentBreakdown
	}{
		{"evidence", r.Components.Evidence, r.Weights.Evidence, r.Breakdown.Evidence},
		{"safety", r.Components.Safety, r.Weights.Safety, r.Breakdown.Safety},
		{"cost", r.Components.Cost, r.Weights.Cost, r.Breakdown.Cost},
		{"practicality", r.Components.Practicality, r.Weights.Practicality, r.Breakdown.Practicality},
	}
	for _, c := range components {
		rows = append(rows, Row{ProductID: p.ID, Section: "component", Name: c.name,
			Value: c.value, Weight: c.weight, Description: c.breakdown.Explanation})
		for _, f := range c.breakdown.Factors {
			rows = append(rows, Row{ProductID: p.ID, Section: c.name, Name: f.Name,
				Value: f.Value, Weight: f.Weight, Description: f.Description})
		}
	}
	return rows
}

// DiagnosisRows appends the personalized outcome to the base score rows.
func DiagnosisRows(p scoring.Product, d diagnosis.DiagnosisResult) []Row {
	rows := ScoreRows(p, d.BaseScore)
	rows = append(rows,
		Row{ProductID: p.ID, Section: "diagnosis", Name: "personalized_score", Value: d.PersonalizedScore, Weight: 1},
		Row{ProductID: p.ID, Section: "diagnosis", Name: "cost_per_day", Value: d.CostPerDay},
	)
	for _, a := range d.DangerAlerts {
		rows = append(rows, Row{ProductID: p.ID, Section: "alert", Name: a.Ingredient,
			Description: string(a.Severity) + ": " + a.Description})
	}
	for _, s := range d.Recommendations {
		rows = append(rows, Row{ProductID: p.ID, Section: "recommendation", Description: s})
	}
	for _, s := range d.Warnings {
		rows = append(rows, Row{ProductID: p.ID, Section: "warning", Description: s})
	}
	return rows
}

func completeness(r scoring.ScoreResult) string {
	if r.IsComplete {
		return "complete"
	}
	return fmt.Sprintf("missing: %v", r.MissingData)
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.ProductID, r.Section, r.Name,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			strconv.FormatFloat(r.Weight, 'f', -1, 64),
			r.Description,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteJSON(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Write renders the report in the requested format.
func Write(w io.Writer, format Format, report Report) error {
	if format == FormatCSV {
		return WriteCSV(w, report.Rows)
	}
	return WriteJSON(w, report)
}
