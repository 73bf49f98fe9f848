package model

import "fmt"

// InsightType is the discrete category of a Detective finding.
type InsightType string

const (
	InsightCorrelation InsightType = "correlation"
	InsightTrend       InsightType = "trend"
	InsightAnomaly     InsightType = "anomaly"
	InsightPattern     InsightType = "pattern"
)

// SupportingData backs an insight with concrete evidence. An insight without
// it is invalid and must be rejected at the validation boundary.
type SupportingData struct {
	Evidence   string `json:"evidence"`
	Statistics string `json:"statistics,omitempty"`
}

// Insight is one discrete Detective finding with a bounded confidence score.
type Insight struct {
	Type           InsightType    `json:"type"`
	Description    string         `json:"description"`
	Confidence     float64        `json:"confidence"`
	SupportingData SupportingData `json:"supportingData"`
}

// Validate checks the structural invariants of an insight as returned by the
// model: known type, non-empty description, confidence in [0,1], evidence present.
func (i Insight) Validate() error {
	switch i.Type {
	case InsightCorrelation, InsightTrend, InsightAnomaly, InsightPattern:
	default:
		return fmt.Errorf("unknown insight type %q", i.Type)
	}
	if i.Description == "" {
		return fmt.Errorf("insight description is empty")
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return fmt.Errorf("insight confidence %v out of [0,1]", i.Confidence)
	}
	if i.SupportingData.Evidence == "" {
		return fmt.Errorf("insight lacks supporting evidence")
	}
	return nil
}
