// pacmanreport builds the PacMAN metabarcoding survey report: it loads
// the occurrence and DNA extension tables produced by the bioinformatics
// pipeline, derives the per-sample and per-taxon summaries, runs both
// ordinations, flags introduced species against the checklist, and writes
// one self-contained HTML artifact.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/carbocation/pfx"

	"github.com/iobis/pacman-data-analysis/checklist"
	"github.com/iobis/pacman-data-analysis/occurrence"
	"github.com/iobis/pacman-data-analysis/ordination"
	"github.com/iobis/pacman-data-analysis/report"
	"github.com/iobis/pacman-data-analysis/summarize"
)

// Special value that is to be set using ldflags
// E.g.: go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"
var builddate string

func main() {
	var occurrencePath, dnaPath, checklistSource, outPath, title string
	var seed int64

	flag.StringVar(&occurrencePath, "occurrence", "", "Path to the tab-separated occurrence table.")
	flag.StringVar(&dnaPath, "dna", "", "Path to the tab-separated DNA derived-data extension table.")
	flag.StringVar(&checklistSource, "checklist", "", "Path or URL of the introduced-species checklist (one AphiaID per line). Optional; the report degrades gracefully without it.")
	flag.StringVar(&outPath, "out", "report.html", "Path to write the HTML report to.")
	flag.StringVar(&title, "title", "PacMAN metabarcoding report", "Report title.")
	flag.Int64Var(&seed, "seed", 42, "Random seed for the NMDS ordinations, fixed so reports are reproducible.")
	flag.Parse()

	if builddate != "" {
		fmt.Fprintf(os.Stderr, "This pacmanreport binary was built at: %s\n", builddate)
	}

	if occurrencePath == "" || dnaPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	records, err := occurrence.LoadOccurrence(occurrencePath)
	if err != nil {
		log.Fatalln("loading occurrence table:", err)
	}
	log.Println("Loaded", len(records), "occurrence records from", occurrencePath)

	dna, err := occurrence.LoadDNA(dnaPath)
	if err != nil {
		log.Fatalln("loading DNA extension table:", err)
	}
	log.Println("Loaded", len(dna), "DNA extension records from", dnaPath)

	data := &report.Data{
		Title:       title,
		GeneratedAt: time.Now(),
		DNA:         dna,
	}

	undated := 0
	for _, rec := range records {
		if rec.EventDate == nil {
			undated++
		}
	}
	if undated > 0 {
		log.Println(undated, "records have no parseable date stamp in their eventID")
		data.Notes = append(data.Notes, fmt.Sprintf("%d records have no parseable event date", undated))
	}

	data.Samples = summarize.Samples(records)
	log.Println("Summarized", len(data.Samples), "georeferenced samples")
	printReadsHistogram(data.Samples)

	data.PhylumStats = summarize.PhylumStats(records)
	log.Println("Aggregated", len(data.PhylumStats), "phylum/location/category groups")

	abundance := summarize.Abundance(records)
	data.SpeciesList = summarize.SpeciesList(records, abundance)
	log.Println("Built species list with", len(data.SpeciesList), "species")

	sampleInfo := make(map[string]ordination.SampleInfo)
	for _, s := range data.Samples {
		if _, ok := sampleInfo[s.MaterialSampleID]; !ok {
			sampleInfo[s.MaterialSampleID] = ordination.SampleInfo{LocationID: s.LocationID, EventType: s.EventType}
		}
	}

	data.AbundanceOrdination = runOrdination(ordination.ReadAbundanceMatrix(records), seed, "read-abundance", sampleInfo, data)
	data.PresenceOrdination = runOrdination(ordination.PresenceAbsenceMatrix(records), seed, "presence/absence", sampleInfo, data)

	registry := fetchChecklist(checklistSource, data)
	data.Introduced = checklist.FilterIntroduced(data.SpeciesList, registry)
	log.Println(len(data.Introduced), "species matched the introduced-species checklist")

	if err := report.Render(data, outPath); err != nil {
		log.Fatalln("rendering report:", err)
	}
	log.Println("Wrote report to", outPath)
}

// runOrdination embeds one community matrix and joins sample metadata
// onto the points, downgrading failures (too few samples) to a report
// note instead of aborting the run.
func runOrdination(m *ordination.Matrix, seed int64, name string, info map[string]ordination.SampleInfo, data *report.Data) *ordination.Result {
	result, err := ordination.Run(m, seed)
	if err != nil {
		log.Printf("Skipping %s ordination: %v\n", name, err)
		data.Notes = append(data.Notes, fmt.Sprintf("%s ordination skipped: %v", name, err))
		return nil
	}
	result.JoinMetadata(info)

	for _, sample := range result.Dropped {
		log.Printf("Sample %s has zero total in the %s matrix and was dropped from the ordination\n", sample, name)
		data.Notes = append(data.Notes, fmt.Sprintf("sample %s dropped from the %s ordination (zero row total)", sample, name))
	}
	log.Printf("Computed %s NMDS for %d samples, stress %.4f\n", name, len(result.SamplePoints), result.Stress)

	return result
}

// fetchChecklist loads the introduced-species registry. An unreachable
// checklist must never abort the run; the introduced-species section
// just renders empty and the report says why.
func fetchChecklist(source string, data *report.Data) checklist.Set {
	if source == "" {
		data.ChecklistDegraded = true
		data.Notes = append(data.Notes, "no introduced-species checklist was configured")
		return checklist.Set{}
	}

	registry, err := checklist.Fetch(source)
	if err != nil {
		log.Println("Checklist unavailable, continuing without it:", pfx.Err(err))
		data.ChecklistDegraded = true
		data.Notes = append(data.Notes, "introduced-species checklist could not be fetched")
		return checklist.Set{}
	}
	log.Println("Fetched", len(registry), "AphiaIDs from the introduced-species checklist")

	return registry
}

func printReadsHistogram(samples []summarize.SampleSummary) {
	if len(samples) < 2 {
		return
	}

	reads := make([]float64, len(samples))
	for i, s := range samples {
		reads[i] = s.Reads
	}

	log.Println("Reads per sample:")
	hist := histogram.Hist(9, reads)
	if err := histogram.Fprint(os.Stderr, hist, histogram.Linear(40)); err != nil {
		log.Println("could not print histogram:", err)
	}
}
