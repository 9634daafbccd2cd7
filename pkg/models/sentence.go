package models

type Sentence struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Progress summarizes how far one annotator has gotten through the dataset.
type Progress struct {
	AnnotatorID string `json:"annotator_id"`
	Done        int    `json:"done"`
	Total       int    `json:"total"`
	Remaining   int    `json:"remaining"`
	Exhausted   bool   `json:"exhausted"`
}
