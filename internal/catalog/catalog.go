// Package catalog is the offline paper source behind the development
// backend. A catalog is a YAML fixture of papers and journal quartiles;
// searches match papers by text and score them the way the production
// backend scores PubMed records.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/abelbrown/pubtrend/internal/article"
)

//go:embed default.yaml
var defaultFixture []byte

// DefaultTrendYears is the trend window when the caller passes zero.
const DefaultTrendYears = 20

// noAbstract replaces empty abstracts in search results.
const noAbstract = "No abstract available."

// Journal is a journal title and its best SJR quartile.
type Journal struct {
	Title    string `yaml:"title"`
	Quartile string `yaml:"quartile"`
}

// Paper is one fixture entry.
type Paper struct {
	PMID             string   `yaml:"pmid"`
	Title            string   `yaml:"title"`
	Authors          []string `yaml:"authors"`
	Journal          string   `yaml:"journal"`
	Year             string   `yaml:"year"`
	Abstract         string   `yaml:"abstract"`
	Keywords         []string `yaml:"keywords"`
	PublicationTypes []string `yaml:"publication_types"`
	Citations        int      `yaml:"citations"`
}

type fixture struct {
	Journals []Journal `yaml:"journals"`
	Papers   []Paper   `yaml:"papers"`
}

// Catalog answers searches from an in-memory fixture. Immutable after
// construction and safe for concurrent use.
type Catalog struct {
	papers   []Paper
	journals map[string]float64 // lowercased title -> quartile score
	now      func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock fixes "now" for year arithmetic (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// Default returns the catalog built into the binary.
func Default(opts ...Option) (*Catalog, error) {
	return Parse(defaultFixture, opts...)
}

// Load reads a fixture file.
func Load(path string, opts ...Option) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data, opts...)
}

// Parse builds a catalog from fixture YAML.
func Parse(data []byte, opts ...Option) (*Catalog, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		papers:   f.Papers,
		journals: make(map[string]float64, len(f.Journals)),
		now:      time.Now,
	}
	for _, j := range f.Journals {
		key := strings.ToLower(strings.TrimSpace(j.Title))
		if _, dup := c.journals[key]; dup {
			continue
		}
		c.journals[key] = quartileScore(j.Quartile)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Len returns the number of papers in the catalog.
func (c *Catalog) Len() int { return len(c.papers) }

// Search returns up to maxResults records matching query, most relevant
// first. Relevance is the number of matched fields; ties keep fixture order.
func (c *Catalog) Search(ctx context.Context, query string, maxResults int) ([]article.Record, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []article.Record{}, nil
	}

	type hit struct {
		paper Paper
		score int
	}
	var hits []hit
	for _, p := range c.papers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if score := matchScore(p, terms); score > 0 {
			hits = append(hits, hit{paper: p, score: score})
		}
	}

	// Ties keep fixture order.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	if maxResults > 0 && len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	now := c.now()
	records := make([]article.Record, len(hits))
	for i, h := range hits {
		records[i] = c.record(h.paper, now)
	}
	return records, nil
}

// Trend counts matching papers per year over the last years years, ending
// with the current year. Every year in the window is present.
func (c *Catalog) Trend(ctx context.Context, query string, years int) (article.TrendSeries, error) {
	if years <= 0 {
		years = DefaultTrendYears
	}
	current := c.now().Year()
	first := current - years + 1

	trend := make(article.TrendSeries, years)
	for y := first; y <= current; y++ {
		trend[strconv.Itoa(y)] = 0
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return trend, nil
	}
	for _, p := range c.papers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if matchScore(p, terms) == 0 {
			continue
		}
		y, err := strconv.Atoi(strings.TrimSpace(p.Year))
		if err != nil || y < first || y > current {
			continue
		}
		trend[strconv.Itoa(y)]++
	}
	return trend, nil
}

// matchScore returns how many of title, abstract and keywords mention a
// query term, or 0 unless every term appears somewhere.
func matchScore(p Paper, terms []string) int {
	fields := []string{
		strings.ToLower(p.Title),
		strings.ToLower(p.Abstract),
		strings.ToLower(strings.Join(p.Keywords, " ")),
	}

	for _, t := range terms {
		found := false
		for _, f := range fields {
			if strings.Contains(f, t) {
				found = true
				break
			}
		}
		if !found {
			return 0
		}
	}

	score := 0
	for _, f := range fields {
		for _, t := range terms {
			if strings.Contains(f, t) {
				score++
				break
			}
		}
	}
	return score
}

func (c *Catalog) record(p Paper, now time.Time) article.Record {
	abstract := p.Abstract
	if strings.TrimSpace(abstract) == "" {
		abstract = noAbstract
	}
	year, _ := strconv.Atoi(strings.TrimSpace(p.Year))
	return article.Record{
		PMID:        p.PMID,
		Title:       p.Title,
		URL:         fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", p.PMID),
		Authors:     strings.Join(p.Authors, ", "),
		Abstract:    abstract,
		Journal:     p.Journal,
		Year:        article.Year(year),
		Citations:   p.Citations,
		ImpactScore: c.ImpactScore(p.Citations, p.Journal, p.Year, p.PublicationTypes, now),
	}
}

// ImpactScore combines citation count, citation velocity, journal quartile
// and publication type into one score rounded to two decimals.
func (c *Catalog) ImpactScore(citations int, journal, year string, pubTypes []string, now time.Time) float64 {
	if citations < 0 {
		citations = 0
	}
	current := now.Year()
	pubYear, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		pubYear = current
	}
	yearsSince := current - pubYear
	if yearsSince < 1 {
		yearsSince = 1
	}

	citationScore := math.Log1p(float64(citations)) * 15
	velocityScore := math.Log1p(float64(citations)/float64(yearsSince)) * 10
	typeScore := (pubTypeWeight(pubTypes) - 1.0) * 20

	score := citationScore + c.journalScore(journal) + velocityScore + typeScore
	return math.Round(score*100) / 100
}

// journalScore is the quartile score times five. Journals missing from the
// catalog, and empty titles, score 5.
func (c *Catalog) journalScore(title string) float64 {
	if strings.TrimSpace(title) == "" {
		return 5.0
	}
	q, ok := c.journals[strings.ToLower(strings.TrimSpace(title))]
	if !ok {
		return 5.0
	}
	return q * 5
}

func quartileScore(q string) float64 {
	switch strings.ToUpper(strings.TrimSpace(q)) {
	case "Q1":
		return 4.0
	case "Q2":
		return 2.5
	case "Q3":
		return 1.5
	case "Q4":
		return 0.5
	default:
		return 1.0
	}
}

var pubTypeWeights = map[string]float64{
	"Review":          1.2,
	"Journal Article": 1.0,
	"Clinical Trial":  1.3,
	"Meta-Analysis":   1.5,
}

// pubTypeWeight is the highest weight among pubTypes, 1.0 when none are known.
func pubTypeWeight(pubTypes []string) float64 {
	best := 1.0
	seen := false
	for _, pt := range pubTypes {
		w, ok := pubTypeWeights[pt]
		if !ok {
			w = 1.0
		}
		if !seen || w > best {
			best = w
			seen = true
		}
	}
	return best
}
