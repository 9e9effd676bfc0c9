package occurrence

import (
	"testing"
	"time"
)

func TestParseEventDate(t *testing.T) {
	for _, v := range []struct {
		eventID string
		want    string
		ok      bool
	}{
		{"FJI_20220601_P_01", "2022-06-01", true},
		{"FJI_20210223_W_03", "2021-02-23", true},
		{"FJI_P_01", "", false},
		{"FJI_2022_P_01", "", false},        // too short to be a stamp
		{"FJI_20229999_P_01", "", false},    // not a calendar date
		{"20220601_P_01", "", false},        // stamp must be framed by underscores
		{"", "", false},
	} {
		got, ok := ParseEventDate(v.eventID)
		if ok != v.ok {
			t.Fatalf("ParseEventDate(%q): ok = %v, expected %v", v.eventID, ok, v.ok)
		}
		if ok && got.Format("2006-01-02") != v.want {
			t.Fatalf("ParseEventDate(%q) = %s, expected %s", v.eventID, got.Format("2006-01-02"), v.want)
		}
	}
}

func TestParseAphiaID(t *testing.T) {
	for _, v := range []struct {
		nameID string
		want   int64
		ok     bool
	}{
		{"urn:lsid:marinespecies.org:taxname:123456", 123456, true},
		{"urn:lsid:marinespecies.org:taxname:148899", 148899, true},
		{"no-digits-here", 0, false},
		{"", 0, false},
	} {
		got, ok := ParseAphiaID(v.nameID)
		if ok != v.ok || got != v.want {
			t.Fatalf("ParseAphiaID(%q) = (%d, %v), expected (%d, %v)", v.nameID, got, ok, v.want, v.ok)
		}
	}
}

func TestClassifyEvent(t *testing.T) {
	for _, v := range []struct {
		eventID string
		want    EventType
	}{
		{"FJI_20220601_P_01", EventPlankton},
		{"FJI_20220601_S_02", EventPlate},
		{"FJI_20220601_W_03", EventWater},
		{"FJI_20220601_X_04", EventUnknown},
		{"", EventUnknown},
	} {
		if got := ClassifyEvent(v.eventID); got != v.want {
			t.Fatalf("ClassifyEvent(%q) = %q, expected %q", v.eventID, got, v.want)
		}
	}
}

// The worked example from the pipeline documentation: every derived field
// at once.
func TestDerive(t *testing.T) {
	rec := &Record{
		EventID:          "FJI_20220601_P_01",
		TaxonRank:        "species",
		ScientificName:   "Exampleus fakus",
		ScientificNameID: "urn:lsid:marinespecies.org:taxname:123456",
		OrganismQuantity: 42,
	}
	rec.derive()

	if !rec.Species.Valid || rec.Species.String != "Exampleus fakus" {
		t.Fatalf("species = %+v, expected Exampleus fakus", rec.Species)
	}
	if rec.EventDate == nil || !rec.EventDate.Equal(time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("eventDate = %v, expected 2022-06-01", rec.EventDate)
	}
	if !rec.AphiaID.Valid || rec.AphiaID.Int64 != 123456 {
		t.Fatalf("aphiaID = %+v, expected 123456", rec.AphiaID)
	}
	if rec.EventType != EventPlankton {
		t.Fatalf("eventType = %q, expected plankton", rec.EventType)
	}
}

// Species must be null for any rank other than "species".
func TestDeriveNonSpeciesRank(t *testing.T) {
	for _, rank := range []string{"genus", "family", "", "Species"} {
		rec := &Record{TaxonRank: rank, ScientificName: "Examplea"}
		rec.derive()
		if rec.Species.Valid {
			t.Fatalf("rank %q: species should be null, got %q", rank, rec.Species.String)
		}
	}
}
