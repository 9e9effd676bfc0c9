package occurrence

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

func init() {
	// Both input tables are tab-delimited. LazyQuotes because the upstream
	// pipeline does not quote fields containing quotes.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})
}

// Columns that must be present in the occurrence table header. Loading is
// all-or-nothing: a missing column is a schema error, not a per-row issue.
var requiredOccurrenceColumns = []string{
	"eventID",
	"materialSampleID",
	"locationID",
	"scientificName",
	"scientificNameID",
	"taxonRank",
	"phylum",
	"class",
	"organismQuantity",
	"decimalLongitude",
	"decimalLatitude",
}

var requiredDNAColumns = []string{
	"eventID",
	"materialSampleID",
}

// LoadOccurrence reads the occurrence table and applies the load-time
// derivations (species, eventDate, aphiaID, eventType) to every record.
func LoadOccurrence(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	if err := checkHeader(f, path, requiredOccurrenceColumns); err != nil {
		return nil, err
	}

	records := []*Record{}
	if err := gocsv.Unmarshal(f, &records); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	for _, rec := range records {
		if rec.OrganismQuantity < 0 {
			return nil, pfx.Err(fmt.Errorf("%s: negative organismQuantity %f for eventID %s", path, rec.OrganismQuantity, rec.EventID))
		}
		rec.derive()
	}

	return records, nil
}

// LoadDNA reads the DNA derived-data extension table.
func LoadDNA(path string) ([]*DNARecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	if err := checkHeader(f, path, requiredDNAColumns); err != nil {
		return nil, err
	}

	records := []*DNARecord{}
	if err := gocsv.Unmarshal(f, &records); err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return records, nil
}

// checkHeader verifies the required columns before any row is decoded,
// then rewinds the file so gocsv sees the header again.
func checkHeader(f *os.File, path string, required []string) error {
	// A header-only file with no trailing newline hits io.EOF here but is
	// still a valid (empty) table.
	header, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && header != "") {
		return pfx.Err(fmt.Errorf("%s: reading header: %w", path, err))
	}

	seen := make(map[string]struct{})
	for _, col := range strings.Split(strings.TrimRight(header, "\r\n"), "\t") {
		seen[col] = struct{}{}
	}

	for _, col := range required {
		if _, ok := seen[col]; !ok {
			return pfx.Err(fmt.Errorf("%s: required column %q is missing", path, col))
		}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return pfx.Err(err)
	}

	return nil
}
