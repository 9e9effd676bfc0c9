// Package occurrence loads the two tab-separated tables produced by the
// metabarcoding pipeline (the Darwin Core occurrence table and its DNA
// derived-data extension) into typed records, applying the per-row
// derivations the downstream summaries depend on.
package occurrence

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/guregu/null.v3"
)

// EventType classifies a sampling event by the marker embedded in its
// eventID.
type EventType string

const (
	EventPlankton EventType = "plankton"
	EventPlate    EventType = "plate"
	EventWater    EventType = "water"

	// EventUnknown is the zero value, for eventIDs matching no marker.
	EventUnknown EventType = ""
)

// EventTypes lists the known categories in their reporting order.
var EventTypes = []EventType{EventPlankton, EventPlate, EventWater}

// Valid reports whether the event type matched one of the known markers.
func (e EventType) Valid() bool {
	return e != EventUnknown
}

// Record is one row of the occurrence table: a single taxon observed in a
// single sample. The trailing fields are derived at load time and carry no
// csv tag.
type Record struct {
	EventID          string      `csv:"eventID"`
	MaterialSampleID string      `csv:"materialSampleID"`
	LocationID       string      `csv:"locationID"`
	ScientificName   string      `csv:"scientificName"`
	ScientificNameID string      `csv:"scientificNameID"`
	TaxonRank        string      `csv:"taxonRank"`
	Phylum           null.String `csv:"phylum"`
	Class            null.String `csv:"class"`
	OrganismQuantity float64     `csv:"organismQuantity"`
	Longitude        null.Float  `csv:"decimalLongitude"`
	Latitude         null.Float  `csv:"decimalLatitude"`

	Species   null.String `csv:"-"`
	EventDate *time.Time  `csv:"-"`
	AphiaID   null.Int    `csv:"-"`
	EventType EventType   `csv:"-"`
}

// DNARecord is one row of the DNA derived-data extension. It is not
// transformed further; the report passes it through.
type DNARecord struct {
	EventID              string      `csv:"eventID"`
	MaterialSampleID     string      `csv:"materialSampleID"`
	TargetGene           null.String `csv:"target_gene"`
	PCRPrimerForward     null.String `csv:"pcr_primer_forward"`
	PCRPrimerReverse     null.String `csv:"pcr_primer_reverse"`
	PCRPrimerNameForward null.String `csv:"pcr_primer_name_forward"`
	PCRPrimerNameReverse null.String `csv:"pcr_primer_name_reverse"`
	Concentration        null.Float  `csv:"concentration"`
}

var (
	eventDateStamp = regexp.MustCompile(`_(\d{8})_`)
	digitRun       = regexp.MustCompile(`\d+`)
)

// ParseEventDate extracts the YYYYMMDD stamp embedded between underscores
// in an eventID. The second return is false when the stamp is absent or
// does not parse as a date; that is an expected condition, not an error.
func ParseEventDate(eventID string) (time.Time, bool) {
	m := eventDateStamp.FindStringSubmatch(eventID)
	if m == nil {
		return time.Time{}, false
	}

	t, err := dateparse.ParseAny(m[1])
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// ParseAphiaID extracts the first run of digits from a scientificNameID
// (e.g. urn:lsid:marinespecies.org:taxname:148899 => 148899).
func ParseAphiaID(scientificNameID string) (int64, bool) {
	m := digitRun.FindString(scientificNameID)
	if m == "" {
		return 0, false
	}

	// The run is all digits, so the only possible failure is overflow.
	id, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}

// eventMarkers maps eventID substrings to event types. Order matters: the
// first matching marker wins.
var eventMarkers = []struct {
	marker string
	typ    EventType
}{
	{"_P", EventPlankton},
	{"_S", EventPlate},
	{"_W", EventWater},
}

// ClassifyEvent derives the event type from an eventID. Unmatched IDs
// yield EventUnknown.
func ClassifyEvent(eventID string) EventType {
	for _, m := range eventMarkers {
		if strings.Contains(eventID, m.marker) {
			return m.typ
		}
	}

	return EventUnknown
}

// derive populates the computed fields on a freshly loaded record.
func (r *Record) derive() {
	if r.TaxonRank == "species" {
		r.Species = null.StringFrom(r.ScientificName)
	}

	if t, ok := ParseEventDate(r.EventID); ok {
		r.EventDate = &t
	}

	if id, ok := ParseAphiaID(r.ScientificNameID); ok {
		r.AphiaID = null.IntFrom(id)
	}

	r.EventType = ClassifyEvent(r.EventID)
}

// HasCoordinates reports whether both coordinates are present.
func (r *Record) HasCoordinates() bool {
	return r.Longitude.Valid && r.Latitude.Valid
}
