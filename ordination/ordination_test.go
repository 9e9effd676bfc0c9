package ordination

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/guregu/null.v3"

	"github.com/iobis/pacman-data-analysis/occurrence"
)

func communityRecord(sample, phylum, species string, reads float64) *occurrence.Record {
	r := &occurrence.Record{
		MaterialSampleID: sample,
		OrganismQuantity: reads,
		EventType:        occurrence.EventWater,
		Phylum:           null.StringFrom(phylum),
	}
	if species != "" {
		r.Species = null.StringFrom(species)
	}
	return r
}

func TestReadAbundanceMatrix(t *testing.T) {
	m := ReadAbundanceMatrix([]*occurrence.Record{
		communityRecord("MS1", "Chordata", "", 10),
		communityRecord("MS1", "Chordata", "", 5),
		communityRecord("MS1", "Mollusca", "", 5),
		communityRecord("MS2", "Mollusca", "", 8),
	})

	if len(m.Samples) != 2 || len(m.Features) != 2 {
		t.Fatalf("dims = %d x %d, expected 2 x 2", len(m.Samples), len(m.Features))
	}
	// Alphabetical: features are [Chordata, Mollusca], samples [MS1, MS2].
	if got := m.Data.At(0, 0); got != 15 {
		t.Fatalf("MS1/Chordata = %f, expected 15", got)
	}
	if got := m.Data.At(1, 0); got != 0 {
		t.Fatalf("MS2/Chordata = %f, expected 0 fill", got)
	}
	if got := m.Data.At(1, 1); got != 8 {
		t.Fatalf("MS2/Mollusca = %f, expected 8", got)
	}
}

func TestPresenceAbsenceMatrix(t *testing.T) {
	m := PresenceAbsenceMatrix([]*occurrence.Record{
		communityRecord("MS1", "Chordata", "Aa bb", 10),
		communityRecord("MS1", "Chordata", "Aa bb", 3), // still 1, not 2
		communityRecord("MS2", "Chordata", "Aa bb", 0), // zero reads: absent
		communityRecord("MS2", "Mollusca", "Cc dd", 1),
	})

	// Features [Aa bb, Cc dd], samples [MS1, MS2].
	if got := m.Data.At(0, 0); got != 1 {
		t.Fatalf("MS1/Aa bb = %f, expected 1", got)
	}
	if got := m.Data.At(1, 0); got != 0 {
		t.Fatalf("MS2/Aa bb = %f, expected 0 for zero-read records", got)
	}
	if got := m.Data.At(1, 1); got != 1 {
		t.Fatalf("MS2/Cc dd = %f, expected 1", got)
	}
}

func TestNormalize(t *testing.T) {
	m := &Matrix{
		Samples:  []string{"MS1", "MS2", "MS3"},
		Features: []string{"a", "b"},
		Data:     mat.NewDense(3, 2, []float64{3, 1, 0, 0, 2, 2}),
	}

	norm, dropped := m.Normalize()

	if len(dropped) != 1 || dropped[0] != "MS2" {
		t.Fatalf("dropped = %v, expected [MS2]", dropped)
	}
	if len(norm.Samples) != 2 {
		t.Fatalf("kept %d samples, expected 2", len(norm.Samples))
	}

	rows, cols := norm.Data.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += norm.Data.At(i, j)
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Fatalf("row %d sums to %f, expected 1", i, sum)
		}
	}
}

func TestBrayCurtis(t *testing.T) {
	m := &Matrix{
		Samples:  []string{"MS1", "MS2", "MS3"},
		Features: []string{"a", "b"},
		Data:     mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 0}),
	}

	dist := m.BrayCurtis()

	// Disjoint compositions are maximally dissimilar, identical ones are 0.
	if got := dist.At(0, 1); got != 1 {
		t.Fatalf("d(MS1,MS2) = %f, expected 1", got)
	}
	if got := dist.At(0, 2); got != 0 {
		t.Fatalf("d(MS1,MS3) = %f, expected 0", got)
	}
}

// Classic pool-adjacent-violators example: the violation at 3,1 pools with
// the following 2 into a block of mean 2.
func TestIsotonic(t *testing.T) {
	d := []float64{3, 1, 2, 4}
	dhat := make([]float64, len(d))
	isotonic(d, dhat)

	want := []float64{2, 2, 2, 4}
	for i := range want {
		if math.Abs(dhat[i]-want[i]) > 1e-12 {
			t.Fatalf("dhat = %v, expected %v", dhat, want)
		}
	}
}

func clusteredRecords() []*occurrence.Record {
	// Two clear community clusters: MS1/MS2 are chordate-dominated,
	// MS3/MS4 mollusc-dominated.
	return []*occurrence.Record{
		communityRecord("MS1", "Chordata", "", 90),
		communityRecord("MS1", "Mollusca", "", 10),
		communityRecord("MS2", "Chordata", "", 85),
		communityRecord("MS2", "Mollusca", "", 15),
		communityRecord("MS3", "Chordata", "", 5),
		communityRecord("MS3", "Mollusca", "", 95),
		communityRecord("MS4", "Chordata", "", 10),
		communityRecord("MS4", "Mollusca", "", 90),
	}
}

func TestRunSeparatesClusters(t *testing.T) {
	m := ReadAbundanceMatrix(clusteredRecords())

	result, err := Run(m, 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.SamplePoints) != 4 {
		t.Fatalf("got %d points, expected 4", len(result.SamplePoints))
	}

	points := map[string]Point{}
	for _, p := range result.SamplePoints {
		points[p.Label] = p
	}

	within := pointDist(points["MS1"], points["MS2"])
	between := pointDist(points["MS1"], points["MS3"])
	if between <= within {
		t.Fatalf("between-cluster distance %f should exceed within-cluster %f", between, within)
	}

	if len(result.FeaturePoints) != 2 {
		t.Fatalf("got %d feature points, expected 2", len(result.FeaturePoints))
	}
	if result.Stress < 0 || math.IsNaN(result.Stress) {
		t.Fatalf("stress = %f", result.Stress)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	m := ReadAbundanceMatrix(clusteredRecords())

	a, err := Run(m, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(m, 42)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.SamplePoints {
		if a.SamplePoints[i] != b.SamplePoints[i] {
			t.Fatalf("run 1 point %+v differs from run 2 point %+v", a.SamplePoints[i], b.SamplePoints[i])
		}
	}
}

func TestRunDropsZeroRows(t *testing.T) {
	records := clusteredRecords()
	records = append(records, communityRecord("MS5", "Chordata", "", 0))

	m := ReadAbundanceMatrix(records)

	result, err := Run(m, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Dropped) != 1 || result.Dropped[0] != "MS5" {
		t.Fatalf("dropped = %v, expected [MS5]", result.Dropped)
	}
	for _, p := range result.SamplePoints {
		if p.Label == "MS5" {
			t.Fatal("MS5 should not receive a coordinate")
		}
	}
}

// Sample points must carry the joined sample metadata so the plot can
// distinguish event types and locations.
func TestJoinMetadata(t *testing.T) {
	m := ReadAbundanceMatrix(clusteredRecords())

	result, err := Run(m, 42)
	if err != nil {
		t.Fatal(err)
	}

	result.JoinMetadata(map[string]SampleInfo{
		"MS1": {LocationID: "USP_1", EventType: occurrence.EventWater},
		"MS2": {LocationID: "USP_1", EventType: occurrence.EventPlankton},
		"MS3": {LocationID: "USP_2", EventType: occurrence.EventWater},
		// MS4 deliberately absent.
	})

	points := map[string]Point{}
	for _, p := range result.SamplePoints {
		points[p.Label] = p
	}

	if p := points["MS1"]; p.LocationID != "USP_1" || p.EventType != occurrence.EventWater {
		t.Fatalf("MS1 metadata = %+v", p)
	}
	if p := points["MS2"]; p.EventType != occurrence.EventPlankton {
		t.Fatalf("MS2 metadata = %+v", p)
	}
	if p := points["MS4"]; p.LocationID != "" || p.EventType.Valid() {
		t.Fatalf("MS4 has no registered metadata but carries %+v", p)
	}

	// Feature points never receive sample metadata.
	for _, p := range result.FeaturePoints {
		if p.LocationID != "" || p.EventType.Valid() {
			t.Fatalf("feature point %s carries sample metadata: %+v", p.Label, p)
		}
	}
}

func TestRunTooFewSamples(t *testing.T) {
	m := ReadAbundanceMatrix([]*occurrence.Record{
		communityRecord("MS1", "Chordata", "", 5),
		communityRecord("MS2", "Chordata", "", 5),
	})

	if _, err := Run(m, 1); err == nil {
		t.Fatal("expected an error for fewer than 3 samples")
	}
}

func pointDist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
