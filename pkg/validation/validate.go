// Package validation checks user-supplied annotation inputs before they
// reach the session or the store.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"framelabel/pkg/models"
)

// MaxAnnotatorIDLen bounds the id so a pasted paragraph cannot become a
// CSV column.
const MaxAnnotatorIDLen = 128

var (
	ErrAnnotatorIDEmpty   = errors.New("annotator id is empty")
	ErrAnnotatorIDTooLong = fmt.Errorf("annotator id exceeds %d characters", MaxAnnotatorIDLen)
	ErrAnnotatorIDControl = errors.New("annotator id contains control characters")
)

// AnnotatorID trims the submitted id and validates it. It returns the
// normalized id or the first violated rule.
func AnnotatorID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrAnnotatorIDEmpty
	}
	if utf8.RuneCountInString(id) > MaxAnnotatorIDLen {
		return "", ErrAnnotatorIDTooLong
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return "", ErrAnnotatorIDControl
		}
	}
	return id, nil
}

// Annotation checks a complete record before it is appended. Records
// come from trusted handler code, so a failure here is a bug, not bad
// user input.
func Annotation(a models.Annotation) error {
	if _, err := AnnotatorID(a.AnnotatorID); err != nil {
		return err
	}
	if strings.TrimSpace(a.SentenceID) == "" {
		return errors.New("sentence id is empty")
	}
	if !models.ValidLabel(a.Label) {
		return fmt.Errorf("invalid label %q", a.Label)
	}
	if a.Timestamp == "" {
		return errors.New("timestamp is empty")
	}
	if a.LabelOrderFirst != "" && !models.ValidLabel(a.LabelOrderFirst) {
		return fmt.Errorf("invalid label order %q", a.LabelOrderFirst)
	}
	return nil
}
