package model

// CandidateFact is an unreviewed value the pattern extractor pulled out of
// raw text. It carries the matched snippet (plus surrounding context) as
// provenance and a fixed per-category confidence.
type CandidateFact struct {
	FieldKey   string  `json:"field_key"`
	Value      string  `json:"value"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	SourceText string  `json:"source_text"`
	Source     string  `json:"source"`
}
