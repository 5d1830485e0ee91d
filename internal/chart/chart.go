// Package chart renders the motion diagnostic of an analysis run as an
// interactive HTML line chart.
package chart

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/kikiluvv/hoopreel/internal/detect"
	"github.com/kikiluvv/hoopreel/pkg/util"
)

// MinYMax keeps quiet runs from being drawn at full height.
const MinYMax = 10.0

var palette = []string{"#e4572e", "#29335c", "#f3a712", "#669bbc"}

// YMax is 1.2x the 95th percentile of every motion value, at least MinYMax.
func YMax(samples []detect.ChartSample) float64 {
	var values []float64
	for _, s := range samples {
		values = append(values, s.Motions...)
	}
	if len(values) == 0 {
		return MinYMax
	}
	sort.Float64s(values)
	p95 := stat.Quantile(0.95, stat.Empirical, values, nil)
	return math.Max(MinYMax, math.Round(p95*1.2*100)/100)
}

func seriesCount(samples []detect.ChartSample) int {
	n := 0
	for _, s := range samples {
		n = max(n, len(s.Motions))
	}
	return n
}

// Build assembles the chart: motion and threshold per region plus a marker
// at each accepted highlight. With no regions the single series is labelled
// as the whole frame.
func Build(title string, samples []detect.ChartSample, regionCount int) *charts.Line {
	xs := make([]string, len(samples))
	for i, s := range samples {
		xs[i] = util.FormatClock(s.Time)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Motion timeline", Width: "1200px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("samples=%d", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "motion", Min: 0, Max: YMax(samples)}),
	)
	line.SetXAxis(xs)

	regions := seriesCount(samples)
	for r := 0; r < regions; r++ {
		motion := make([]opts.LineData, len(samples))
		threshold := make([]opts.LineData, len(samples))
		for i, s := range samples {
			motion[i] = opts.LineData{Value: valueAt(s.Motions, r)}
			threshold[i] = opts.LineData{Value: valueAt(s.Thresholds, r)}
		}

		color := palette[r%len(palette)]
		label := "Frame"
		if regionCount > 0 {
			label = fmt.Sprintf("Region %d", r+1)
		}
		line.AddSeries(label+" motion", motion,
			charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 1}),
		)
		line.AddSeries(label+" threshold", threshold,
			charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 1, Type: "dashed"}),
		)
	}

	detections := make([]opts.ScatterData, len(samples))
	for i, s := range samples {
		detections[i] = opts.ScatterData{Value: "-"}
		if s.Detected {
			detections[i] = opts.ScatterData{Value: peak(s.Motions), Symbol: "triangle", SymbolSize: 12}
		}
	}
	marks := charts.NewScatter()
	marks.SetXAxis(xs).AddSeries("Highlights", detections,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#2a9d8f"}),
	)
	line.Overlap(marks)

	return line
}

// Render writes the chart page to w.
func Render(w io.Writer, title string, samples []detect.ChartSample, regionCount int) error {
	if err := Build(title, samples, regionCount).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func valueAt(values []float64, i int) any {
	if i < len(values) {
		return math.Round(values[i]*100) / 100
	}
	return "-"
}

func peak(values []float64) float64 {
	p := 0.0
	for _, v := range values {
		p = math.Max(p, v)
	}
	return math.Round(p*100) / 100
}

