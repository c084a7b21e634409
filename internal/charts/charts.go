// Package charts renders the dashboard's trend and comparison charts as PNG
// images.
//
// Chart text comes from the i18n table. The default go-chart font has no
// CJK glyphs, so Japanese titles render as boxes unless a font is set.
package charts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"kpidash/internal/dataprocessing"
	"kpidash/internal/i18n"
	"kpidash/pkg/contracts/domain"
)

// ErrNoChartData is returned when there is nothing to plot
var ErrNoChartData = errors.New("no data to chart")

// Kind identifies one of the dashboard charts
type Kind string

const (
	KindDailyOutput     Kind = "daily-output"
	KindOutputByMachine Kind = "output-by-machine"
	KindDefectsTrend    Kind = "defects-trend"
)

// Kinds lists every chart in display order
var Kinds = []Kind{KindDailyOutput, KindOutputByMachine, KindDefectsTrend}

// ParseKind validates a chart name
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

var (
	outputColor  = drawing.ColorFromHex("1F77B4")
	machineColor = drawing.ColorFromHex("5B9BD5")
	defectsColor = drawing.ColorFromHex("F44336")
)

// Renderer draws charts at a fixed size
type Renderer struct {
	Width  int
	Height int
	// Font overrides the default font, e.g. with one that has CJK glyphs
	Font *truetype.Font
}

// NewRenderer creates a renderer for width x height pixel images
func NewRenderer(width, height int) *Renderer {
	return &Renderer{Width: width, Height: height}
}

// LoadFont reads and parses a TrueType font file
func LoadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart font: %w", err)
	}
	font, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart font %s: %w", path, err)
	}
	return font, nil
}

// Render draws the chart of the given kind for records
func (r *Renderer) Render(w io.Writer, kind Kind, records []domain.ProductionRecord, lang i18n.Lang) error {
	switch kind {
	case KindDailyOutput:
		return r.DailyOutput(w, dataprocessing.DailyTotals(records, dataprocessing.MetricOutput), lang)
	case KindOutputByMachine:
		return r.OutputByMachine(w, dataprocessing.MachineTotals(records), lang)
	case KindDefectsTrend:
		return r.DefectsTrend(w, dataprocessing.DailyTotals(records, dataprocessing.MetricDefects), lang)
	default:
		return fmt.Errorf("unknown chart %q", kind)
	}
}

// DailyOutput draws the daily output trend line
func (r *Renderer) DailyOutput(w io.Writer, points []dataprocessing.DailyPoint, lang i18n.Lang) error {
	return r.renderTrend(w, points, trendLabels{
		title:  i18n.T("daily_output_trend", lang),
		xName:  i18n.T("date", lang),
		yName:  i18n.T("output", lang),
		series: i18n.T("output", lang),
	}, outputColor)
}

// DefectsTrend draws the daily defects line
func (r *Renderer) DefectsTrend(w io.Writer, points []dataprocessing.DailyPoint, lang i18n.Lang) error {
	return r.renderTrend(w, points, trendLabels{
		title:  i18n.T("defects_trend", lang),
		xName:  i18n.T("date", lang),
		yName:  i18n.T("defects", lang),
		series: i18n.T("defects", lang),
	}, defectsColor)
}

type trendLabels struct {
	title, xName, yName, series string
}

func (r *Renderer) renderTrend(w io.Writer, points []dataprocessing.DailyPoint, labels trendLabels, color drawing.Color) error {
	if len(points) == 0 {
		return ErrNoChartData
	}

	xs := make([]time.Time, 0, len(points)+1)
	ys := make([]float64, 0, len(points)+1)
	maxY := 0.0
	for _, p := range points {
		xs = append(xs, p.Date)
		ys = append(ys, float64(p.Value))
		maxY = max(maxY, float64(p.Value))
	}
	// Pad to at least two X values for go-chart
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}

	style := chart.Style{
		StrokeColor: color,
		StrokeWidth: 2,
		DotColor:    color,
		DotWidth:    3,
	}

	ch := chart.Chart{
		Title:      labels.title,
		Width:      r.Width,
		Height:     r.Height,
		Font:       r.Font,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           labels.xName,
			ValueFormatter: chart.TimeValueFormatterWithFormat(domain.DateLayout),
		},
		YAxis: chart.YAxis{
			Name:           labels.yName,
			Range:          &chart.ContinuousRange{Min: 0, Max: upperBound(maxY)},
			ValueFormatter: integerFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: labels.series, XValues: xs, YValues: ys, Style: style},
		},
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// OutputByMachine draws one bar per machine, in the order given
func (r *Renderer) OutputByMachine(w io.Writer, points []dataprocessing.MachinePoint, lang i18n.Lang) error {
	if len(points) == 0 {
		return ErrNoChartData
	}

	bars := make([]chart.Value, 0, len(points))
	maxY := 0.0
	for _, p := range points {
		bars = append(bars, chart.Value{
			Label: p.Machine,
			Value: float64(p.Value),
			Style: chart.Style{FillColor: machineColor, StrokeColor: machineColor},
		})
		maxY = max(maxY, float64(p.Value))
	}

	bc := chart.BarChart{
		Title:      i18n.T("output_by_machine", lang),
		Width:      r.Width,
		Height:     r.Height,
		Font:       r.Font,
		BarWidth:   barWidth(r.Width, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Name:           i18n.T("total_output", lang),
			Range:          &chart.ContinuousRange{Min: 0, Max: upperBound(maxY)},
			ValueFormatter: integerFormatter,
		},
		Bars: bars,
	}

	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// upperBound leaves headroom above the largest value and never yields a
// zero-height range
func upperBound(maxY float64) float64 {
	if maxY <= 0 {
		return 1
	}
	return maxY * 1.1
}

func barWidth(width, bars int) int {
	w := width / (2 * bars)
	return min(max(w, 8), 80)
}

func integerFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return ""
}
