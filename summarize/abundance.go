package summarize

import (
	"math"
	"sort"

	"gopkg.in/guregu/null.v3"

	"github.com/iobis/pacman-data-analysis/occurrence"
)

// AbundanceRow is the wide (pivoted) relative-abundance table: one row per
// taxon identifier, one nullable percentage per sample category. A null
// cell means the taxon had no rows in that category at all, which the
// renderer displays differently from a true zero.
type AbundanceRow struct {
	AphiaID  null.Int
	Plankton null.Float
	Plate    null.Float
	Water    null.Float
}

// Abundance returns the percentage cell for one category.
func (r *AbundanceRow) Abundance(et occurrence.EventType) null.Float {
	switch et {
	case occurrence.EventPlankton:
		return r.Plankton
	case occurrence.EventPlate:
		return r.Plate
	case occurrence.EventWater:
		return r.Water
	}
	return null.Float{}
}

func (r *AbundanceRow) add(et occurrence.EventType, pct float64) {
	cell := func(c *null.Float) {
		// Summing ignores null: the first value validates the cell.
		c.Float64 += pct
		c.Valid = true
	}

	switch et {
	case occurrence.EventPlankton:
		cell(&r.Plankton)
	case occurrence.EventPlate:
		cell(&r.Plate)
	case occurrence.EventWater:
		cell(&r.Water)
	}
}

// SpeciesListRow is one species with its total reads and its per-category
// abundance percentages, joined from the abundance table by taxon
// identifier.
type SpeciesListRow struct {
	Phylum  null.String
	Class   null.String
	Species string
	AphiaID null.Int
	Reads   float64

	Plankton null.Float
	Plate    null.Float
	Water    null.Float
}

// Abundance returns the percentage cell for one category.
func (r *SpeciesListRow) Abundance(et occurrence.EventType) null.Float {
	switch et {
	case occurrence.EventPlankton:
		return r.Plankton
	case occurrence.EventPlate:
		return r.Plate
	case occurrence.EventWater:
		return r.Water
	}
	return null.Float{}
}

type taxonCategoryKey struct {
	AphiaID   null.Int
	Species   null.String
	EventType occurrence.EventType
}

// Abundance computes per-taxon relative read abundance within each sample
// category, as percentages of that category's total reads rounded to
// three decimals, pivoted wide by taxon identifier. Only records with a
// classified event type participate.
func Abundance(records []*occurrence.Record) []AbundanceRow {
	// Stage 1: reads per (taxon, species, category), plus category totals.
	reads := make(map[taxonCategoryKey]float64)
	totals := make(map[occurrence.EventType]float64)
	keyOrder := []taxonCategoryKey{}

	for _, rec := range records {
		if !rec.EventType.Valid() {
			continue
		}

		key := taxonCategoryKey{AphiaID: rec.AphiaID, Species: rec.Species, EventType: rec.EventType}
		if _, ok := reads[key]; !ok {
			keyOrder = append(keyOrder, key)
		}
		reads[key] += rec.OrganismQuantity
		totals[rec.EventType] += rec.OrganismQuantity
	}

	// Stage 2: percentage, then pivot by taxon identifier. Multiple
	// species rows sharing one identifier sum within a column; a column a
	// taxon never appeared in stays null.
	rows := make(map[null.Int]*AbundanceRow)
	rowOrder := []null.Int{}

	for _, key := range keyOrder {
		total := totals[key.EventType]
		if total == 0 {
			continue
		}
		pct := round3(reads[key] / total * 100)

		row, ok := rows[key.AphiaID]
		if !ok {
			row = &AbundanceRow{AphiaID: key.AphiaID}
			rows[key.AphiaID] = row
			rowOrder = append(rowOrder, key.AphiaID)
		}
		row.add(key.EventType, pct)
	}

	out := make([]AbundanceRow, 0, len(rowOrder))
	for _, id := range rowOrder {
		out = append(out, *rows[id])
	}

	return out
}

type speciesKey struct {
	Phylum  null.String
	Class   null.String
	Species string
	AphiaID null.Int
}

// SpeciesList aggregates reads per species (records with both a species
// name and a classified event type), joins the per-category abundance
// percentages by taxon identifier, and sorts by total reads descending.
// Ties keep input order.
func SpeciesList(records []*occurrence.Record, abundance []AbundanceRow) []SpeciesListRow {
	byID := make(map[null.Int]*AbundanceRow, len(abundance))
	for i := range abundance {
		byID[abundance[i].AphiaID] = &abundance[i]
	}

	reads := make(map[speciesKey]float64)
	keyOrder := []speciesKey{}

	for _, rec := range records {
		if !rec.Species.Valid || !rec.EventType.Valid() {
			continue
		}

		key := speciesKey{Phylum: rec.Phylum, Class: rec.Class, Species: rec.Species.String, AphiaID: rec.AphiaID}
		if _, ok := reads[key]; !ok {
			keyOrder = append(keyOrder, key)
		}
		reads[key] += rec.OrganismQuantity
	}

	out := make([]SpeciesListRow, 0, len(keyOrder))
	for _, key := range keyOrder {
		row := SpeciesListRow{
			Phylum:  key.Phylum,
			Class:   key.Class,
			Species: key.Species,
			AphiaID: key.AphiaID,
			Reads:   reads[key],
		}
		if ab, ok := byID[key.AphiaID]; ok {
			row.Plankton = ab.Plankton
			row.Plate = ab.Plate
			row.Water = ab.Water
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Reads > out[j].Reads
	})

	return out
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
