// Package summarize turns the loaded occurrence records into the derived
// tables the report is built from: per-sample summaries, per-phylum
// aggregates, the relative-abundance pivot, and the species list.
package summarize

import (
	"sort"
	"time"

	"github.com/iobis/pacman-data-analysis/occurrence"
)

// SampleSummary is one georeferenced sample with its ASV, read, and
// species tallies.
type SampleSummary struct {
	LocationID       string
	EventID          string
	MaterialSampleID string
	EventType        occurrence.EventType
	Longitude        float64
	Latitude         float64
	EventDate        *time.Time

	ASVs    int
	Reads   float64
	Species int
}

type sampleKey struct {
	LocationID       string
	EventID          string
	MaterialSampleID string
	EventType        occurrence.EventType
	Longitude        float64
	Latitude         float64
	EventDate        int64 // unix; -1 when the date is null
}

type sampleAccumulator struct {
	date    *time.Time
	asvs    int
	reads   float64
	species map[string]struct{}
}

// Samples groups the georeferenced occurrence records into one summary
// per sample. Records without coordinates are dropped; that is the
// documented policy for the map and sample table, not an error.
func Samples(records []*occurrence.Record) []SampleSummary {
	acc := make(map[sampleKey]*sampleAccumulator)

	for _, rec := range records {
		if !rec.HasCoordinates() {
			continue
		}

		key := sampleKey{
			LocationID:       rec.LocationID,
			EventID:          rec.EventID,
			MaterialSampleID: rec.MaterialSampleID,
			EventType:        rec.EventType,
			Longitude:        rec.Longitude.Float64,
			Latitude:         rec.Latitude.Float64,
			EventDate:        -1,
		}
		if rec.EventDate != nil {
			key.EventDate = rec.EventDate.Unix()
		}

		a, ok := acc[key]
		if !ok {
			a = &sampleAccumulator{date: rec.EventDate, species: make(map[string]struct{})}
			acc[key] = a
		}

		a.asvs++
		a.reads += rec.OrganismQuantity
		if rec.Species.Valid {
			a.species[rec.Species.String] = struct{}{}
		}
	}

	out := make([]SampleSummary, 0, len(acc))
	for key, a := range acc {
		out = append(out, SampleSummary{
			LocationID:       key.LocationID,
			EventID:          key.EventID,
			MaterialSampleID: key.MaterialSampleID,
			EventType:        key.EventType,
			Longitude:        key.Longitude,
			Latitude:         key.Latitude,
			EventDate:        a.date,
			ASVs:             a.asvs,
			Reads:            a.reads,
			Species:          len(a.species),
		})
	}

	// The report depends on this exact ordering being reproducible:
	// location, then date, then event type, then sample, nulls last.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		if c := compareDates(a.EventDate, b.EventDate); c != 0 {
			return c < 0
		}
		if a.EventType != b.EventType {
			return lessEventType(a.EventType, b.EventType)
		}
		return a.MaterialSampleID < b.MaterialSampleID
	})

	return out
}

func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1 // nulls last
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	}
	return 0
}

func lessEventType(a, b occurrence.EventType) bool {
	// Unknown sorts after every known category.
	if !a.Valid() {
		return false
	}
	if !b.Valid() {
		return true
	}
	return a < b
}
