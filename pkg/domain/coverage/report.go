// Package coverage describes the per-feature coverage report written by `specs coverage`.
package coverage

import "time"

// Status of a feature in the report.
type Status string

const (
	StatusPending Status = "pending"
	StatusCovered Status = "covered"
)

// Item is a single feature in the report.
type Item struct {
	SpecID      string `json:"specId"`
	FeatureID   string `json:"featureId"`
	Status      Status `json:"status"`
	IssueNumber int    `json:"issueNumber,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Summary totals the report.
type Summary struct {
	TotalSpecs      int `json:"totalSpecs"`
	TotalFeatures   int `json:"totalFeatures"`
	CoveredFeatures int `json:"coveredFeatures"`
}

// Report is the persisted coverage report.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	PRNumber    int       `json:"prNumber,omitempty"`
	Summary     Summary   `json:"summary"`
	Items       []Item    `json:"items"`
}

// Recount recomputes the summary from the items.
func (r *Report) Recount(totalSpecs int) {
	r.Summary = Summary{TotalSpecs: totalSpecs, TotalFeatures: len(r.Items)}
	for _, it := range r.Items {
		if it.Status == StatusCovered {
			r.Summary.CoveredFeatures++
		}
	}
}

// Percent returns covered features as a percentage of all features.
func (r *Report) Percent() float64 {
	if r.Summary.TotalFeatures == 0 {
		return 0
	}
	return float64(r.Summary.CoveredFeatures) / float64(r.Summary.TotalFeatures) * 100
}
