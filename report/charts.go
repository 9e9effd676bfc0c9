package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iobis/pacman-data-analysis/occurrence"
	"github.com/iobis/pacman-data-analysis/ordination"
	"github.com/iobis/pacman-data-analysis/summarize"
)

// A fixed qualitative palette, recycled when there are more phyla than
// colors.
var palette = []drawing.Color{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 255},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 255},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 255},
	{R: 0xd6, G: 0x27, B: 0x28, A: 255},
	{R: 0x94, G: 0x67, B: 0xbd, A: 255},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 255},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 255},
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 255},
	{R: 0xbc, G: 0xbd, B: 0x22, A: 255},
	{R: 0x17, G: 0xbe, B: 0xcf, A: 255},
}

func paletteColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

// phylumBarChart renders one stacked-bar chart of reads per phylum, one
// bar per location, for a single sample category.
func phylumBarChart(stats []summarize.PhylumStat, et occurrence.EventType) (string, error) {
	byLocation := make(map[string][]summarize.PhylumStat)
	phylumIndex := map[string]int{}
	locations := []string{}

	for _, s := range stats {
		if s.EventType != et || s.Reads <= 0 {
			continue
		}
		if _, ok := byLocation[s.LocationID]; !ok {
			locations = append(locations, s.LocationID)
		}
		byLocation[s.LocationID] = append(byLocation[s.LocationID], s)
		if _, ok := phylumIndex[s.Phylum]; !ok {
			phylumIndex[s.Phylum] = len(phylumIndex)
		}
	}

	if len(locations) == 0 {
		return "", nil
	}
	sort.Strings(locations)

	bars := make([]chart.StackedBar, 0, len(locations))
	for _, loc := range locations {
		values := []chart.Value{}
		for _, s := range byLocation[loc] {
			values = append(values, chart.Value{
				Value: s.Reads,
				Label: s.Phylum,
				Style: chart.Style{FillColor: paletteColor(phylumIndex[s.Phylum])},
			})
		}
		bars = append(bars, chart.StackedBar{Name: loc, Width: 80, Values: values})
	}

	sbc := chart.StackedBarChart{
		Title:        fmt.Sprintf("Reads per phylum (%s)", et),
		TitleStyle:   chart.Shown(),
		Width:        900,
		Height:       420,
		BarSpacing:   30,
		XAxis:        chart.Shown(),
		YAxis:        chart.Shown(),
		Bars:         bars,
		IsHorizontal: false,
	}

	buf := &bytes.Buffer{}
	if err := sbc.Render(chart.PNG, buf); err != nil {
		return "", pfx.Err(err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// eventDrawingColor converts the map's marker color for an event type to
// the chart palette, so the NMDS dots match the map legend.
func eventDrawingColor(et occurrence.EventType) drawing.Color {
	c := eventColors[et]
	return drawing.Color{R: uint8(c[0] * 255), G: uint8(c[1] * 255), B: uint8(c[2] * 255), A: 255}
}

// sampleSeries groups the sample points into one scatter series per event
// type, so the joined metadata is visible in the plot.
func sampleSeries(points []ordination.Point) []chart.Series {
	grouped := make(map[occurrence.EventType][]ordination.Point)
	for _, p := range points {
		grouped[p.EventType] = append(grouped[p.EventType], p)
	}

	series := []chart.Series{}
	for _, et := range append(append([]occurrence.EventType{}, occurrence.EventTypes...), occurrence.EventUnknown) {
		group := grouped[et]
		if len(group) == 0 {
			continue
		}

		name := string(et)
		if !et.Valid() {
			name = "unclassified"
		}

		xs := make([]float64, len(group))
		ys := make([]float64, len(group))
		for i, p := range group {
			xs[i] = p.X
			ys[i] = p.Y
		}

		series = append(series, chart.ContinuousSeries{
			Name: name,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    6,
				DotColor:    eventDrawingColor(et),
			},
			XValues: xs,
			YValues: ys,
		})
	}

	return series
}

// ordinationChart renders one joint NMDS plot: sample points as dots
// colored by event type, feature labels as annotations at their
// weighted-average positions.
func ordinationChart(result *ordination.Result, title string) (string, error) {
	if result == nil || len(result.SamplePoints) == 0 {
		return "", nil
	}

	series := sampleSeries(result.SamplePoints)

	labels := chart.AnnotationSeries{
		Style: chart.Style{
			StrokeColor: drawing.Color{R: 0x44, G: 0x44, B: 0x44, A: 255},
			FontSize:    8,
		},
	}
	for _, p := range result.FeaturePoints {
		labels.Annotations = append(labels.Annotations, chart.Value2{
			XValue: p.X,
			YValue: p.Y,
			Label:  p.Label,
		})
	}

	graph := chart.Chart{
		Title:      fmt.Sprintf("%s (stress %.3f)", title, result.Stress),
		TitleStyle: chart.Shown(),
		Width:      760,
		Height:     560,
		Series:     append(series, labels),
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return "", pfx.Err(err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
