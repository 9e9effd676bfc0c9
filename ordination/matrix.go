// Package ordination builds sample-by-feature community matrices from the
// occurrence records and embeds them in two dimensions with non-metric
// multidimensional scaling over Bray-Curtis dissimilarities.
package ordination

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/iobis/pacman-data-analysis/occurrence"
)

// Matrix is a dense sample-by-feature community matrix. Rows are samples
// (materialSampleID), columns are features (phylum names in read-abundance
// mode, species names in presence/absence mode).
type Matrix struct {
	Samples  []string
	Features []string
	Data     *mat.Dense
}

type cellKey struct{ sample, feature string }

// ReadAbundanceMatrix sums reads per (sample, phylum) over records with a
// phylum and a classified event type. Missing combinations are zero.
func ReadAbundanceMatrix(records []*occurrence.Record) *Matrix {
	cells := make(map[cellKey]float64)

	for _, rec := range records {
		if !rec.Phylum.Valid || !rec.EventType.Valid() {
			continue
		}
		cells[cellKey{rec.MaterialSampleID, rec.Phylum.String}] += rec.OrganismQuantity
	}

	return fill(cells)
}

// PresenceAbsenceMatrix marks each (sample, species) combination that has
// at least one record with a positive read count.
func PresenceAbsenceMatrix(records []*occurrence.Record) *Matrix {
	cells := make(map[cellKey]float64)

	for _, rec := range records {
		if !rec.Species.Valid {
			continue
		}
		key := cellKey{rec.MaterialSampleID, rec.Species.String}
		if rec.OrganismQuantity > 0 {
			cells[key] = 1
		} else if _, ok := cells[key]; !ok {
			cells[key] = 0
		}
	}

	return fill(cells)
}

func fill(cells map[cellKey]float64) *Matrix {
	sampleSet := make(map[string]struct{})
	featureSet := make(map[string]struct{})
	for key := range cells {
		sampleSet[key.sample] = struct{}{}
		featureSet[key.feature] = struct{}{}
	}

	samples := make([]string, 0, len(sampleSet))
	for s := range sampleSet {
		samples = append(samples, s)
	}
	sort.Strings(samples)

	features := make([]string, 0, len(featureSet))
	for f := range featureSet {
		features = append(features, f)
	}
	sort.Strings(features)

	data := mat.NewDense(len(samples), len(features), nil)
	for i, s := range samples {
		for j, f := range features {
			data.Set(i, j, cells[cellKey{s, f}])
		}
	}

	return &Matrix{Samples: samples, Features: features, Data: data}
}

// Normalize divides every row by its total so rows become relative
// compositions. Rows whose total is zero cannot be normalized; they are
// dropped and their sample IDs returned, so the caller can surface them
// in the report rather than placing the sample at the origin.
func (m *Matrix) Normalize() (*Matrix, []string) {
	rows, cols := m.Data.Dims()

	kept := []int{}
	dropped := []string{}
	for i := 0; i < rows; i++ {
		if mat.Sum(m.Data.RowView(i)) == 0 {
			dropped = append(dropped, m.Samples[i])
			continue
		}
		kept = append(kept, i)
	}

	samples := make([]string, len(kept))
	data := mat.NewDense(len(kept), cols, nil)
	for outRow, i := range kept {
		samples[outRow] = m.Samples[i]
		total := mat.Sum(m.Data.RowView(i))
		for j := 0; j < cols; j++ {
			data.Set(outRow, j, m.Data.At(i, j)/total)
		}
	}

	return &Matrix{Samples: samples, Features: m.Features, Data: data}, dropped
}

// BrayCurtis computes the pairwise Bray-Curtis dissimilarity between all
// rows: sum of absolute differences over sum of totals.
func (m *Matrix) BrayCurtis() *mat.SymDense {
	rows, cols := m.Data.Dims()
	dist := mat.NewSymDense(rows, nil)

	for i := 0; i < rows; i++ {
		for j := i + 1; j < rows; j++ {
			var num, den float64
			for k := 0; k < cols; k++ {
				a, b := m.Data.At(i, k), m.Data.At(j, k)
				num += abs(a - b)
				den += a + b
			}
			if den > 0 {
				dist.SetSym(i, j, num/den)
			}
		}
	}

	return dist
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
