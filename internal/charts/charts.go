// Package charts renders the interactive ECharts pages embedded in the site:
// SHAP importance, the statistical tests, the landing AUC comparison and the
// feature contributions of a prediction.
package charts

import (
	"errors"
	"fmt"
	"io"
	"sort"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/irfndi/heartguard-ai-go/internal/catalog"
	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// Chart names accepted by Render.
const (
	SHAP          = "shap"
	Chi2          = "chi2"
	Wilcoxon      = "wilcoxon"
	Comparison    = "comparison"
	Contributions = "contributions"
)

var (
	// ErrUnknownChart is returned for a name Render does not know.
	ErrUnknownChart = errors.New("unknown chart")
	// ErrNoResult is returned when the contributions chart has no prediction to draw.
	ErrNoResult = errors.New("no prediction result")
)

const (
	colorBackground    = "#0b1120"
	colorTextPrimary   = "#f1f5f9"
	colorTextSecondary = "#94a3b8"
	colorAccent        = "#ef4444"
	colorPositive      = "#f87171"
	colorNegative      = "#34d399"
	colorMuted         = "#64748b"
	colorWarning       = "#fbbf24"

	chartWidth  = "100%"
	chartHeight = "420px"

	maxContributions = 10
)

// Names lists every chart, in display order.
func Names() []string {
	return []string{SHAP, Chi2, Wilcoxon, Comparison, Contributions}
}

// Renderer builds charts from the site catalog.
type Renderer struct {
	catalog *catalog.Catalog
}

// NewRenderer creates a Renderer.
func NewRenderer(c *catalog.Catalog) *Renderer {
	return &Renderer{catalog: c}
}

// Render writes the chart page called name to w. The contributions chart
// draws result and requires it; the others ignore it.
func (r *Renderer) Render(w io.Writer, name string, result *models.PredictionResult) error {
	var bar *echarts.Bar
	switch name {
	case SHAP:
		bar = r.shap()
	case Chi2:
		bar = r.chi2()
	case Wilcoxon:
		bar = r.wilcoxon()
	case Comparison:
		bar = r.comparison()
	case Contributions:
		if result == nil || len(result.FeatureContributions) == 0 {
			return ErrNoResult
		}
		bar = contributions(result)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render %s chart: %w", name, err)
	}
	return nil
}

func baseBar(title, subtitle string) *echarts.Bar {
	bar := echarts.NewBar()
	bar.SetGlobalOptions(
		echarts.WithInitializationOpts(opts.Initialization{
			PageTitle:       title,
			Theme:           types.ThemeWesteros,
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: colorBackground,
		}),
		echarts.WithTitleOpts(opts.Title{
			Title:         title,
			Subtitle:      subtitle,
			Left:          "left",
			TitleStyle:    &opts.TextStyle{Color: colorTextPrimary, FontSize: 16},
			SubtitleStyle: &opts.TextStyle{Color: colorTextSecondary},
		}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		echarts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		echarts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)
	return bar
}

// horizontal lays out a ranking with the largest entry on top.
func horizontal(bar *echarts.Bar, labels []string, data []opts.BarData) *echarts.Bar {
	n := len(labels)
	revLabels := make([]string, n)
	revData := make([]opts.BarData, n)
	for i := range labels {
		revLabels[n-1-i] = labels[i]
		revData[n-1-i] = data[i]
	}
	bar.SetXAxis(revLabels)
	bar.AddSeries("value", revData)
	bar.XYReversal()
	return bar
}

func solid(v float64, color string) opts.BarData {
	return opts.BarData{Value: v, ItemStyle: &opts.ItemStyle{Color: color}}
}

func (r *Renderer) shap() *echarts.Bar {
	labels := make([]string, 0, len(r.catalog.SHAP))
	data := make([]opts.BarData, 0, len(r.catalog.SHAP))
	for _, imp := range r.catalog.SHAP {
		labels = append(labels, imp.Feature)
		data = append(data, solid(imp.Value, colorAccent))
	}
	return horizontal(baseBar("SHAP feature importance", "Mean |SHAP value| on the validation set"), labels, data)
}

func (r *Renderer) chi2() *echarts.Bar {
	labels := make([]string, 0, len(r.catalog.Chi2))
	data := make([]opts.BarData, 0, len(r.catalog.Chi2))
	for _, res := range r.catalog.Chi2 {
		color := colorMuted
		if res.Significant {
			color = colorAccent
		}
		labels = append(labels, res.Variable)
		data = append(data, solid(res.CramersV, color))
	}
	return horizontal(baseBar("Chi2 test", "Cramer's V of categorical variables against the target"), labels, data)
}

func (r *Renderer) wilcoxon() *echarts.Bar {
	labels := make([]string, 0, len(r.catalog.Wilcoxon))
	data := make([]opts.BarData, 0, len(r.catalog.Wilcoxon))
	for _, res := range r.catalog.Wilcoxon {
		labels = append(labels, res.Variable)
		data = append(data, solid(res.Effect, colorWarning))
	}
	return horizontal(baseBar("Wilcoxon test", "Effect size of continuous variables"), labels, data)
}

func (r *Renderer) comparison() *echarts.Bar {
	bar := baseBar("ROC-AUC comparison", "")
	labels := make([]string, 0, len(r.catalog.AUCComparison))
	data := make([]opts.BarData, 0, len(r.catalog.AUCComparison))
	for _, b := range r.catalog.AUCComparison {
		labels = append(labels, b.Label)
		data = append(data, solid(b.Value, toneColor(b.Tone)))
	}
	bar.SetGlobalOptions(echarts.WithYAxisOpts(opts.YAxis{
		Min:       0,
		Max:       1,
		AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
	}))
	bar.SetXAxis(labels)
	bar.AddSeries("AUC", data)
	return bar
}

func contributions(result *models.PredictionResult) *echarts.Bar {
	sorted := result.SortedContributions()
	// Rank by magnitude so strong protective factors are shown too.
	sort.SliceStable(sorted, func(i, j int) bool {
		return abs(sorted[i].Weight) > abs(sorted[j].Weight)
	})
	if len(sorted) > maxContributions {
		sorted = sorted[:maxContributions]
	}

	labels := make([]string, 0, len(sorted))
	data := make([]opts.BarData, 0, len(sorted))
	for _, c := range sorted {
		color := colorPositive
		if c.Weight < 0 {
			color = colorNegative
		}
		labels = append(labels, c.Feature)
		data = append(data, solid(c.Weight, color))
	}
	return horizontal(baseBar("Feature contributions", "Largest contributions to this prediction"), labels, data)
}

func toneColor(tone string) string {
	switch tone {
	case "accent":
		return colorAccent
	case "warning":
		return colorWarning
	default:
		return colorMuted
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
