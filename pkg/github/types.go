package github

import (
	"encoding/json"
	"fmt"
)

// RepositorySummary is the reduced view of a GitHub repository printed by ghtool.
// Each field holds the upstream JSON value as sent, null included. A nil
// field was not sent and is left out of the output.
type RepositorySummary struct {
	ID       json.RawMessage `json:"id,omitempty"`
	FullName json.RawMessage `json:"full_name,omitempty"`
	HTMLURL  json.RawMessage `json:"html_url,omitempty"`
	PushedAt json.RawMessage `json:"pushed_at,omitempty"`
	Language json.RawMessage `json:"language,omitempty"`
}

// Columns returns the summary fields as display text, in output order
func (s RepositorySummary) Columns() []string {
	return []string{
		FieldText(s.ID),
		FieldText(s.FullName),
		FieldText(s.HTMLURL),
		FieldText(s.PushedAt),
		FieldText(s.Language),
	}
}

// FieldText renders one summary field: strings unquoted, other values as
// sent, empty when the field is absent or null.
func FieldText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

// SearchResult is the envelope returned by the repository search endpoint
type SearchResult struct {
	TotalCount        int               `json:"total_count"`
	IncompleteResults bool              `json:"incomplete_results"`
	Items             []json.RawMessage `json:"items"`
}

// Summarize projects a raw repository object onto a RepositorySummary.
// A field is kept when its key is present upstream, whatever its value.
func Summarize(raw json.RawMessage) (RepositorySummary, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return RepositorySummary{}, fmt.Errorf("failed to decode repository: %w", err)
	}
	if object == nil {
		return RepositorySummary{}, fmt.Errorf("failed to decode repository: not an object")
	}

	return RepositorySummary{
		ID:       object["id"],
		FullName: object["full_name"],
		HTMLURL:  object["html_url"],
		PushedAt: object["pushed_at"],
		Language: object["language"],
	}, nil
}

// SummarizeAll projects every raw object, stopping at the first that fails to decode
func SummarizeAll(raws []json.RawMessage) ([]RepositorySummary, error) {
	summaries := make([]RepositorySummary, 0, len(raws))
	for i, raw := range raws {
		summary, err := Summarize(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// DecodeSearchResult decodes a search payload
func DecodeSearchResult(payload json.RawMessage) (*SearchResult, error) {
	var result SearchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode search result: %w", err)
	}
	return &result, nil
}
