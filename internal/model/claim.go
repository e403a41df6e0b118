package model

// Claim represents a factual assertion or question to gather evidence for
type Claim struct {
	ID    string   `json:"id,omitempty"`    // Dataset identifier (uid)
	Text  string   `json:"text"`            // The claim text itself
	Label string   `json:"label,omitempty"` // SUPPORTED / NOT_SUPPORTED, carried for reporting only
	Gold  []string `json:"gold,omitempty"`  // Gold evidence titles, consumed only by the evaluator
}
