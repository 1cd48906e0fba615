package core

import "strings"

// MatchKind says which part of a table a search hit landed in.
type MatchKind string

const (
	MatchTitle  MatchKind = "title"
	MatchHeader MatchKind = "header"
	MatchCell   MatchKind = "cell"
)

// Match is one search hit with enough coordinates for the UI to scroll to
// and highlight it. Row and Col are -1 when they do not apply.
type Match struct {
	TableID string    `json:"tableId"`
	Kind    MatchKind `json:"kind"`
	Row     int       `json:"row"`
	Col     int       `json:"col"`
	Value   string    `json:"value"`
}

// SearchPage finds case-insensitive substring matches of query across table
// titles, headers and cells of a page, in table order. An empty or
// whitespace-only query matches nothing.
func SearchPage(p Page, query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var matches []Match
	for _, t := range p.Tables {
		if strings.Contains(strings.ToLower(t.Title), query) {
			matches = append(matches, Match{TableID: t.ID, Kind: MatchTitle, Row: -1, Col: -1, Value: t.Title})
		}
		for c, h := range t.Columns {
			if strings.Contains(strings.ToLower(h), query) {
				matches = append(matches, Match{TableID: t.ID, Kind: MatchHeader, Row: -1, Col: c, Value: h})
			}
		}
		for r, row := range t.Rows {
			for c, cell := range row {
				if strings.Contains(strings.ToLower(cell), query) {
					matches = append(matches, Match{TableID: t.ID, Kind: MatchCell, Row: r, Col: c, Value: cell})
				}
			}
		}
	}
	return matches
}
