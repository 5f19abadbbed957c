package trend

import (
	"reflect"
	"strings"
	"testing"

	"github.com/abelbrown/pubtrend/internal/article"
)

func TestDescribeOrdersYearsAscending(t *testing.T) {
	d := Describe(article.TrendSeries{"2020": 3, "2019": 5}, "cancer")

	if want := []string{"2019", "2020"}; !reflect.DeepEqual(d.Categories, want) {
		t.Errorf("categories = %v, want %v", d.Categories, want)
	}
	if want := []int{5, 3}; !reflect.DeepEqual(d.Values, want) {
		t.Errorf("values = %v, want %v", d.Values, want)
	}
	if d.Title != `Publication Trend for "cancer"` {
		t.Errorf("title = %q", d.Title)
	}
	if !d.BeginAtZero {
		t.Error("y axis should begin at zero")
	}
	if d.Type != "bar" {
		t.Errorf("type = %q, want bar", d.Type)
	}
}

func TestDescribeTitleEmbedsQueryLiterally(t *testing.T) {
	d := Describe(nil, `"BRCA1" & ovarian`)
	if d.Title != `Publication Trend for ""BRCA1" & ovarian"` {
		t.Errorf("title = %q", d.Title)
	}
	if len(d.Categories) != 0 || len(d.Values) != 0 {
		t.Errorf("nil series should give empty chart, got %v / %v", d.Categories, d.Values)
	}
}

func TestDescribeNumericYearOrder(t *testing.T) {
	d := Describe(article.TrendSeries{"2001": 1, "999": 2, "1999": 3}, "q")
	if want := []string{"999", "1999", "2001"}; !reflect.DeepEqual(d.Categories, want) {
		t.Errorf("categories = %v, want %v", d.Categories, want)
	}
}

func TestConfigShape(t *testing.T) {
	cfg := Describe(article.TrendSeries{"2019": 5}, "q").Config()

	if cfg["type"] != "bar" {
		t.Errorf("type = %v", cfg["type"])
	}
	data := cfg["data"].(map[string]any)
	if !reflect.DeepEqual(data["labels"], []string{"2019"}) {
		t.Errorf("labels = %v", data["labels"])
	}
	ds := data["datasets"].([]map[string]any)
	if ds[0]["label"] != "Number of Articles" {
		t.Errorf("dataset label = %v", ds[0]["label"])
	}
	y := cfg["options"].(map[string]any)["scales"].(map[string]any)["y"].(map[string]any)
	if y["beginAtZero"] != true {
		t.Error("beginAtZero not set")
	}
}

// countingSurface records live instances.
type countingSurface struct {
	live  int
	drawn int
}

type countingInstance struct {
	s    *countingSurface
	view string
	dead bool
}

func (s *countingSurface) Draw(d Descriptor) Instance {
	s.live++
	s.drawn++
	return &countingInstance{s: s, view: d.Title}
}

func (i *countingInstance) View() string { return i.view }

func (i *countingInstance) Destroy() {
	if i.dead {
		panic("destroyed twice")
	}
	i.dead = true
	i.s.live--
}

func TestChartDisposesBeforeReplace(t *testing.T) {
	s := &countingSurface{}
	c := NewChart(s)

	for _, q := range []string{"a", "b", "c"} {
		c.Render(article.TrendSeries{"2020": 1}, q)
		if s.live != 1 {
			t.Fatalf("after render %q: %d live instances, want 1", q, s.live)
		}
	}
	if s.drawn != 3 {
		t.Errorf("drawn = %d, want 3", s.drawn)
	}
	if got := c.View(); got != `Publication Trend for "c"` {
		t.Errorf("view = %q", got)
	}

	c.Close()
	if s.live != 0 {
		t.Errorf("after close: %d live instances", s.live)
	}
	if c.View() != "" {
		t.Error("closed chart should have empty view")
	}
	if _, ok := c.Descriptor(); ok {
		t.Error("closed chart should report no descriptor")
	}
	c.Close()
}

func TestBarSurfaceNegativeCountDrawsEmptyBar(t *testing.T) {
	c := NewChart(NewBarSurface(40))
	d := c.Render(article.TrendSeries{"2019": 5, "2020": -3}, "cancer")
	if strings.Join(d.Categories, ",") != "2019,2020" {
		t.Fatalf("categories = %v", d.Categories)
	}

	lines := strings.Split(c.View(), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), c.View())
	}
	if strings.Count(lines[1], "█") != 40 {
		t.Errorf("2019 should fill the bar: %q", lines[1])
	}
	if !strings.Contains(lines[2], "2020") || strings.Count(lines[2], "█") != 0 || !strings.Contains(lines[2], "-3") {
		t.Errorf("2020 should draw no bar and keep its count: %q", lines[2])
	}
}

func TestBarSurfaceDraw(t *testing.T) {
	s := NewBarSurface(10)
	inst := s.Draw(Describe(article.TrendSeries{"2019": 5, "2020": 0, "2021": 10}, "q"))
	view := inst.View()

	lines := strings.Split(view, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), view)
	}
	if !strings.Contains(lines[1], "2019") || strings.Count(lines[1], "█") != 5 {
		t.Errorf("2019 row = %q", lines[1])
	}
	if strings.Count(lines[2], "█") != 0 {
		t.Errorf("2020 row should have no bar: %q", lines[2])
	}
	if strings.Count(lines[3], "█") != 10 {
		t.Errorf("2021 row should be full width: %q", lines[3])
	}

	inst.Destroy()
	if inst.View() != "" {
		t.Error("destroyed instance should render nothing")
	}
}

func TestBarSurfaceEmpty(t *testing.T) {
	view := NewBarSurface(10).Draw(Describe(nil, "q")).View()
	if !strings.Contains(view, "(no data)") {
		t.Errorf("empty chart view = %q", view)
	}
}
