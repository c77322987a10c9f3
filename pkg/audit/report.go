package audit

import (
	"encoding/json"
	"fmt"
	"io"
)

// reportLine is one JSONL record in a written report. Type is "summary",
// "fuzzy_match" or "failure".
type reportLine struct {
	Type    string      `json:"type"`
	Summary *Summary    `json:"summary,omitempty"`
	Fuzzy   *FuzzyMatch `json:"fuzzy_match,omitempty"`
	Failure *Failure    `json:"failure,omitempty"`
}

// WriteReport streams the run as JSON lines: one summary line first, then
// every accepted fuzzy match, then every failure. The format is append-
// friendly and greppable by reason.
func (l *Log) WriteReport(w io.Writer) error {
	enc := json.NewEncoder(w)

	summary := l.Summarize()
	if err := enc.Encode(reportLine{Type: "summary", Summary: &summary}); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}

	for _, m := range l.FuzzyMatches() {
		m := m
		if err := enc.Encode(reportLine{Type: "fuzzy_match", Fuzzy: &m}); err != nil {
			return fmt.Errorf("write fuzzy match: %w", err)
		}
	}

	for _, f := range l.Failures() {
		f := f
		if err := enc.Encode(reportLine{Type: "failure", Failure: &f}); err != nil {
			return fmt.Errorf("write failure: %w", err)
		}
	}

	return nil
}
