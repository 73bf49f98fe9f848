package model

// AdditionalContext is one external event the Additional-Context stage tied
// to the analyzed dataset, with a justification of its relevance.
type AdditionalContext struct {
	Type            string `json:"type"`
	Date            string `json:"date"`
	Event           string `json:"event"`
	RelevanceToData string `json:"relevanceToData"`
}

// AnalysisResult is the externally visible output of one pipeline run.
type AnalysisResult struct {
	Profile            DatasetProfile      `json:"profile"`
	Insights           []Insight           `json:"insights"`
	Narrative          string              `json:"narrative"`
	AdditionalContexts []AdditionalContext `json:"additionalContexts"`
}

// AnalysisState is an AnalysisResult plus the raw records it was computed
// from. The original data is retained for sampling and reanalysis and is
// preserved byte-for-byte across refinement cycles; the rest is superseded
// wholesale by the next successful run.
type AnalysisState struct {
	AnalysisResult
	OriginalData []Record `json:"originalData"`
}

// StageOverrides carries free-text instructions appended to each stage's
// default instructions during a reanalysis run. Empty fields mean defaults.
type StageOverrides struct {
	Profiler    string `json:"profilerPrompt,omitempty"`
	Detective   string `json:"detectivePrompt,omitempty"`
	Storyteller string `json:"storytellerPrompt,omitempty"`
}

// Empty reports whether no stage override is set.
func (o StageOverrides) Empty() bool {
	return o.Profiler == "" && o.Detective == "" && o.Storyteller == ""
}
