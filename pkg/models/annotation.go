package models

import "time"

// Label values accepted for an annotation.
const (
	LabelPositive = "Positive"
	LabelNegative = "Negative"
)

// AnnotationHeader is the column order used by every tabular backend and export.
var AnnotationHeader = []string{"annotator_id", "sentence_id", "label", "timestamp", "label_order_first"}

type Annotation struct {
	AnnotatorID string `json:"annotator_id"`
	SentenceID  string `json:"sentence_id"`
	Label       string `json:"label"`
	// Timestamp is RFC3339 in UTC, assigned at submit time
	Timestamp string `json:"timestamp"`
	// LabelOrderFirst records which label was shown first to the annotator
	LabelOrderFirst string `json:"label_order_first,omitempty"`
}

// ValidLabel reports whether s is one of the accepted label values.
func ValidLabel(s string) bool {
	return s == LabelPositive || s == LabelNegative
}

// Now returns the canonical timestamp string for an annotation created now.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Row flattens the annotation into the canonical column order.
func (a Annotation) Row() []string {
	return []string{a.AnnotatorID, a.SentenceID, a.Label, a.Timestamp, a.LabelOrderFirst}
}

// FromRow rebuilds an annotation from a tabular row. Short rows are tolerated
// so sheets written before the label_order_first column still load.
func FromRow(row []string) Annotation {
	var a Annotation
	if len(row) > 0 {
		a.AnnotatorID = row[0]
	}
	if len(row) > 1 {
		a.SentenceID = row[1]
	}
	if len(row) > 2 {
		a.Label = row[2]
	}
	if len(row) > 3 {
		a.Timestamp = row[3]
	}
	if len(row) > 4 {
		a.LabelOrderFirst = row[4]
	}
	return a
}
