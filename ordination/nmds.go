package ordination

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"

	"github.com/iobis/pacman-data-analysis/occurrence"
)

const (
	nmdsStarts    = 8
	nmdsMaxIter   = 300
	nmdsTolerance = 1e-6
)

// Point is one labeled 2-D coordinate in the embedding. Sample points
// additionally carry the metadata joined by JoinMetadata; feature points
// leave those fields empty.
type Point struct {
	Label string
	X, Y  float64

	LocationID string
	EventType  occurrence.EventType
}

// SampleInfo is the sample metadata joined onto sample points by sample
// identifier.
type SampleInfo struct {
	LocationID string
	EventType  occurrence.EventType
}

// Result is the joint ordination of one community matrix: a point per
// sample, a weighted-average point per feature, the final Kruskal stress,
// and the samples dropped for having no reads at all.
type Result struct {
	SamplePoints  []Point
	FeaturePoints []Point
	Stress        float64
	Dropped       []string
}

// Run row-normalizes the matrix, computes Bray-Curtis dissimilarities,
// and embeds the samples in two dimensions by non-metric multidimensional
// scaling. The embedding is deterministic for a fixed seed.
func Run(m *Matrix, seed int64) (*Result, error) {
	norm, dropped := m.Normalize()

	n := len(norm.Samples)
	if n < 3 {
		return nil, pfx.Err(fmt.Errorf("ordination needs at least 3 usable samples, have %d", n))
	}

	dist := norm.BrayCurtis()
	coords, stress := nmds(dist, seed)

	result := &Result{
		SamplePoints: make([]Point, n),
		Stress:       stress,
		Dropped:      dropped,
	}
	for i, sample := range norm.Samples {
		result.SamplePoints[i] = Point{Label: sample, X: coords.At(i, 0), Y: coords.At(i, 1)}
	}

	result.FeaturePoints = featureScores(norm, coords)

	return result, nil
}

// JoinMetadata attaches location and event type to each sample point,
// keyed by the sample identifier the matrix rows were built from. Points
// without a matching entry keep empty metadata.
func (r *Result) JoinMetadata(info map[string]SampleInfo) {
	for i := range r.SamplePoints {
		if meta, ok := info[r.SamplePoints[i].Label]; ok {
			r.SamplePoints[i].LocationID = meta.LocationID
			r.SamplePoints[i].EventType = meta.EventType
		}
	}
}

// pairEntry is one off-diagonal dissimilarity, kept in rank order for the
// monotone regression.
type pairEntry struct {
	i, j int
	dis  float64
}

// nmds is Kruskal's non-metric MDS: random starts, each refined by
// alternating isotonic regression on the ranked dissimilarities with a
// Guttman majorization step, keeping the configuration with the lowest
// stress-1.
func nmds(dist *mat.SymDense, seed int64) (*mat.Dense, float64) {
	n := dist.Symmetric()
	rng := rand.New(rand.NewSource(seed))

	pairs := make([]pairEntry, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pairEntry{i: i, j: j, dis: dist.At(i, j)})
		}
	}
	// Rank order; ties broken by index so runs are reproducible.
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].dis < pairs[b].dis
	})

	var best *mat.Dense
	bestStress := math.Inf(1)

	for start := 0; start < nmdsStarts; start++ {
		coords := mat.NewDense(n, 2, nil)
		for i := 0; i < n; i++ {
			coords.Set(i, 0, rng.Float64()-0.5)
			coords.Set(i, 1, rng.Float64()-0.5)
		}

		stress := refine(coords, pairs, n)
		if best == nil || stress < bestStress {
			bestStress = stress
			best = coords
		}
	}

	orient(best)

	return best, bestStress
}

// refine runs the isotonic-regression/majorization loop in place and
// returns the final stress.
func refine(coords *mat.Dense, pairs []pairEntry, n int) float64 {
	prev := math.Inf(1)
	stress := prev

	dhat := make([]float64, len(pairs))
	d := make([]float64, len(pairs))

	for iter := 0; iter < nmdsMaxIter; iter++ {
		for k, p := range pairs {
			d[k] = pointDistance(coords, p.i, p.j)
		}

		isotonic(d, dhat)

		var num, den float64
		for k := range d {
			num += (d[k] - dhat[k]) * (d[k] - dhat[k])
			den += d[k] * d[k]
		}
		if den == 0 {
			break
		}
		stress = math.Sqrt(num / den)

		if prev-stress < nmdsTolerance {
			break
		}
		prev = stress

		guttman(coords, pairs, d, dhat, n)
	}

	return stress
}

// isotonic fits a non-decreasing sequence dhat to d (which is ordered by
// dissimilarity rank) by pool-adjacent-violators.
func isotonic(d, dhat []float64) {
	copy(dhat, d)

	// Each block holds the mean of a pooled run of values.
	n := len(dhat)
	value := make([]float64, 0, n)
	weight := make([]float64, 0, n)

	for _, v := range dhat {
		value = append(value, v)
		weight = append(weight, 1)

		for len(value) > 1 && value[len(value)-2] > value[len(value)-1] {
			last := len(value) - 1
			pooledW := weight[last-1] + weight[last]
			pooledV := (value[last-1]*weight[last-1] + value[last]*weight[last]) / pooledW
			value = value[:last]
			weight = weight[:last]
			value[last-1] = pooledV
			weight[last-1] = pooledW
		}
	}

	k := 0
	for b := range value {
		for w := 0; w < int(weight[b]); w++ {
			dhat[k] = value[b]
			k++
		}
	}
}

// guttman applies one majorization step moving the configuration toward
// the fitted distances.
func guttman(coords *mat.Dense, pairs []pairEntry, d, dhat []float64, n int) {
	next := mat.NewDense(n, 2, nil)

	for k, p := range pairs {
		var ratio float64
		if d[k] > 0 {
			ratio = dhat[k] / d[k]
		}

		for dim := 0; dim < 2; dim++ {
			diff := coords.At(p.i, dim) - coords.At(p.j, dim)
			next.Set(p.i, dim, next.At(p.i, dim)+ratio*diff)
			next.Set(p.j, dim, next.At(p.j, dim)-ratio*diff)
		}
	}

	scale := 1 / float64(n)
	for i := 0; i < n; i++ {
		for dim := 0; dim < 2; dim++ {
			coords.Set(i, dim, next.At(i, dim)*scale)
		}
	}
}

func pointDistance(coords *mat.Dense, i, j int) float64 {
	dx := coords.At(i, 0) - coords.At(j, 0)
	dy := coords.At(i, 1) - coords.At(j, 1)
	return math.Hypot(dx, dy)
}

// orient centers the configuration and rotates it onto its principal
// axes, fixing the axis signs, so equivalent solutions always render the
// same way.
func orient(coords *mat.Dense) {
	n, _ := coords.Dims()

	var cx, cy float64
	for i := 0; i < n; i++ {
		cx += coords.At(i, 0)
		cy += coords.At(i, 1)
	}
	cx /= float64(n)
	cy /= float64(n)
	for i := 0; i < n; i++ {
		coords.Set(i, 0, coords.At(i, 0)-cx)
		coords.Set(i, 1, coords.At(i, 1)-cy)
	}

	var svd mat.SVD
	if !svd.Factorize(coords, mat.SVDThin) {
		return
	}
	var v mat.Dense
	svd.VTo(&v)

	var rotated mat.Dense
	rotated.Mul(coords, &v)
	coords.Copy(&rotated)

	// Pin each axis so its largest-magnitude coordinate is positive.
	for dim := 0; dim < 2; dim++ {
		extreme := 0.0
		for i := 0; i < n; i++ {
			if abs(coords.At(i, dim)) > abs(extreme) {
				extreme = coords.At(i, dim)
			}
		}
		if extreme < 0 {
			for i := 0; i < n; i++ {
				coords.Set(i, dim, -coords.At(i, dim))
			}
		}
	}
}

// featureScores places each feature at the abundance-weighted average of
// the sample points, the usual way species are overlaid on a sample
// ordination. Features with no weight are skipped.
func featureScores(m *Matrix, coords *mat.Dense) []Point {
	rows, cols := m.Data.Dims()

	points := make([]Point, 0, cols)
	for j := 0; j < cols; j++ {
		var wx, wy, w float64
		for i := 0; i < rows; i++ {
			weight := m.Data.At(i, j)
			wx += weight * coords.At(i, 0)
			wy += weight * coords.At(i, 1)
			w += weight
		}
		if w == 0 {
			continue
		}
		points = append(points, Point{Label: m.Features[j], X: wx / w, Y: wy / w})
	}

	return points
}
