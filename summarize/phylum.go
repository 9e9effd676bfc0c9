package summarize

import (
	"sort"

	"github.com/iobis/pacman-data-analysis/occurrence"
)

// ControlLocation marks negative-control samples, which are excluded from
// the taxonomic aggregates.
const ControlLocation = "Control"

// PhylumStat is the read and species tally for one phylum at one location
// in one sample category. It feeds the stacked-bar charts.
type PhylumStat struct {
	Phylum     string
	LocationID string
	EventType  occurrence.EventType
	Reads      float64
	Species    int
}

type phylumKey struct {
	Phylum     string
	LocationID string
	EventType  occurrence.EventType
}

// PhylumStats aggregates reads and distinct species by (phylum, location,
// event type), excluding control samples and records without a phylum.
// Output order is deterministic (sorted by key) but carries no meaning;
// the chart renderer facets and sorts independently.
func PhylumStats(records []*occurrence.Record) []PhylumStat {
	reads := make(map[phylumKey]float64)
	species := make(map[phylumKey]map[string]struct{})

	for _, rec := range records {
		if rec.LocationID == ControlLocation || !rec.Phylum.Valid {
			continue
		}

		key := phylumKey{Phylum: rec.Phylum.String, LocationID: rec.LocationID, EventType: rec.EventType}
		reads[key] += rec.OrganismQuantity

		if rec.Species.Valid {
			set, ok := species[key]
			if !ok {
				set = make(map[string]struct{})
				species[key] = set
			}
			set[rec.Species.String] = struct{}{}
		}
	}

	out := make([]PhylumStat, 0, len(reads))
	for key, r := range reads {
		out = append(out, PhylumStat{
			Phylum:     key.Phylum,
			LocationID: key.LocationID,
			EventType:  key.EventType,
			Reads:      r,
			Species:    len(species[key]),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Phylum != b.Phylum {
			return a.Phylum < b.Phylum
		}
		if a.LocationID != b.LocationID {
			return a.LocationID < b.LocationID
		}
		return a.EventType < b.EventType
	})

	return out
}
