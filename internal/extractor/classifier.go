package extractor

import (
	"strings"

	"github.com/deped/expenditure-matrix/internal/models"
)

// ClassifyInput is the raw expense line handed to the classifier
type ClassifyInput struct {
	Label    string
	Quantity float64
	Freq     float64
	UnitCost float64
	Venue    string
	Travel   bool // row comes from a travel block
	Pooled   bool // row is a regional travel allowance bound for the PSF
}

// Classification routes an expense line to its accounting buckets
type Classification struct {
	ExpenseGroup   string
	GAAObject      string
	HasPPMP        bool
	HasAPPSupplies bool
	HasAPPTicket   bool
}

// Classifier decides expense group, GAA object and procurement flags
type Classifier struct {
	airOnly map[string]struct{}
}

// NewClassifier creates a classifier; airOnly lists venues reachable only by plane
func NewClassifier(airOnly []string) *Classifier {
	m := make(map[string]struct{}, len(airOnly))
	for _, v := range airOnly {
		m[normalize(v)] = struct{}{}
	}
	return &Classifier{airOnly: m}
}

// Classify returns the classification of one expense line
func (c *Classifier) Classify(in ClassifyInput) Classification {
	out := Classification{
		ExpenseGroup: models.ExpenseGroupTraining,
		GAAObject:    models.GAAObjectTraining,
	}

	if strings.Contains(strings.ToLower(in.Label), "supplies") {
		out.ExpenseGroup = models.ExpenseGroupSupplies
		out.GAAObject = models.GAAObjectSupplies
		out.HasAPPSupplies = true
		out.HasPPMP = true
	}

	if in.Travel && !in.Pooled && c.IsAirOnly(in.Venue) {
		out.HasAPPTicket = true
		out.HasPPMP = true
	}

	return out
}

// IsAirOnly reports whether venue is on the air-only destination list
func (c *Classifier) IsAirOnly(venue string) bool {
	_, ok := c.airOnly[normalize(venue)]
	return ok
}

// IsTravelPool reports whether a composed label names a participants' travel allowance
func IsTravelPool(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "travel") && strings.Contains(l, "participants")
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
