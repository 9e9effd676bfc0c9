// Package report renders the computed tables into one self-contained
// HTML artifact: map, charts, and sortable tables, with nothing fetched
// at view time.
package report

import (
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
	"gopkg.in/guregu/null.v3"

	"github.com/iobis/pacman-data-analysis/occurrence"
	"github.com/iobis/pacman-data-analysis/ordination"
	"github.com/iobis/pacman-data-analysis/summarize"
)

// Data is everything one report run feeds the renderer.
type Data struct {
	Title       string
	GeneratedAt time.Time

	Samples     []summarize.SampleSummary
	PhylumStats []summarize.PhylumStat
	SpeciesList []summarize.SpeciesListRow
	Introduced  []summarize.SpeciesListRow
	DNA         []*occurrence.DNARecord

	AbundanceOrdination *ordination.Result
	PresenceOrdination  *ordination.Result

	// Notes lists tolerated problems (dropped ordination rows, a missing
	// checklist) so degraded sections are visibly incomplete.
	Notes             []string
	ChecklistDegraded bool
}

// view is Data plus everything precomputed for the template.
type view struct {
	*Data

	SampleCount  int
	SpeciesCount int
	TotalReads   float64
	MeanReads    float64
	MedianReads  float64

	MapPNG       template.URL
	PhylumCharts []template.URL
	AbundancePNG template.URL
	PresencePNG  template.URL
}

// Render writes the report to outPath. Chart or map failures are real
// errors: a run either produces the full artifact or no artifact.
func Render(data *Data, outPath string) error {
	v := &view{Data: data, SampleCount: len(data.Samples), SpeciesCount: len(data.SpeciesList)}

	reads := make([]float64, 0, len(data.Samples))
	for _, s := range data.Samples {
		v.TotalReads += s.Reads
		reads = append(reads, s.Reads)
	}
	if len(reads) > 0 {
		// stats only errors on empty input, which is excluded here.
		v.MeanReads, _ = stats.Mean(reads)
		v.MedianReads, _ = stats.Median(reads)
	}

	mapPNG, err := sampleMap(data.Samples)
	if err != nil {
		return err
	}
	v.MapPNG = dataURI(mapPNG)

	for _, et := range occurrence.EventTypes {
		png, err := phylumBarChart(data.PhylumStats, et)
		if err != nil {
			return err
		}
		if png != "" {
			v.PhylumCharts = append(v.PhylumCharts, dataURI(png))
		}
	}

	abundancePNG, err := ordinationChart(data.AbundanceOrdination, "NMDS, relative read abundance by phylum")
	if err != nil {
		return err
	}
	v.AbundancePNG = dataURI(abundancePNG)

	presencePNG, err := ordinationChart(data.PresenceOrdination, "NMDS, species presence/absence")
	if err != nil {
		return err
	}
	v.PresencePNG = dataURI(presencePNG)

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"pctCell":   pctCell,
		"intCell":   intCell,
		"floatCell": floatCell,
		"dateCell":  dateCell,
	}).Parse(reportTemplate)
	if err != nil {
		return pfx.Err(err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return pfx.Err(err)
	}
	defer out.Close()

	if err := tmpl.Execute(out, v); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// dataURI wraps a base64 PNG as a src attribute value the template can
// embed verbatim. Empty input stays empty so {{if}} guards skip the tag.
func dataURI(b64 string) template.URL {
	if b64 == "" {
		return ""
	}
	return template.URL("data:image/png;base64," + b64)
}

// pctCell formats an abundance percentage cell. Null means the taxon had
// no rows in that category; the cell stays empty and styled differently
// from a true 0.000%. The cell values are numeric, so emitting the <td>
// markup directly is safe.
func pctCell(f null.Float) template.HTML {
	if !f.Valid {
		return `<td class="na"></td>`
	}
	return template.HTML(fmt.Sprintf(`<td class="num">%.3f%%</td>`, f.Float64))
}

func intCell(i null.Int) template.HTML {
	if !i.Valid {
		return `<td class="na"></td>`
	}
	return template.HTML(fmt.Sprintf(`<td class="num">%d</td>`, i.Int64))
}

func floatCell(f null.Float) template.HTML {
	if !f.Valid {
		return `<td class="na"></td>`
	}
	return template.HTML(fmt.Sprintf(`<td class="num">%g</td>`, f.Float64))
}

func dateCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
