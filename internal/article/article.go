// Package article holds the search result records returned by the backend and
// the pure functions that order them for display.
// All functions are simple: []Record in, []Record out. No side effects.
package article

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Record is one article in a completed search payload.
// Records are immutable once decoded; ordering works on copies.
type Record struct {
	PMID        string  `json:"pmid,omitempty" yaml:"pmid"`
	Title       string  `json:"title" yaml:"title"`
	URL         string  `json:"url" yaml:"url"`
	Authors     string  `json:"authors_str" yaml:"authors"`
	Abstract    string  `json:"abstract_text" yaml:"abstract"`
	Journal     string  `json:"journal" yaml:"journal"`
	Year        Year    `json:"year" yaml:"year"`
	Citations   int     `json:"citations" yaml:"citations"`
	ImpactScore float64 `json:"impact_score" yaml:"impact_score"`
}

// Year is a publication year. The backend sends it either as a number or as
// the raw PubMed string ("2019", "N/A"); anything non-numeric decodes to 0.
type Year int

// UnmarshalJSON accepts numbers, numeric strings and null.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = parseYear(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*y = Year(f)
	return nil
}

func parseYear(s string) Year {
	s = strings.TrimSpace(s)
	// MedlineDate values look like "2019 Jan-Feb"; the year is the first token.
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return Year(n)
}

// String renders the year, or "N/A" when unknown.
func (y Year) String() string {
	if y <= 0 {
		return "N/A"
	}
	return strconv.Itoa(int(y))
}

// TrendSeries maps a year key ("2019") to the number of matching articles.
type TrendSeries map[string]int

// Years returns the keys in ascending year order. Integer keys sort
// numerically and come before any other key; the rest sort as strings.
func (t TrendSeries) Years() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Total returns the sum of all counts.
func (t TrendSeries) Total() int {
	total := 0
	for _, n := range t {
		total += n
	}
	return total
}
