// Package checklist fetches the introduced-species registry (a list of
// AphiaIDs) and filters the species list against it. A missing or
// unreachable registry degrades the report instead of failing it, so
// every function here is tolerant by design of the calling pipeline.
package checklist

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/iobis/pacman-data-analysis/summarize"
)

// Set is the registry: membership by AphiaID.
type Set map[int64]struct{}

// Contains reports registry membership.
func (s Set) Contains(aphiaID int64) bool {
	_, ok := s[aphiaID]
	return ok
}

// Fetch reads a checklist from a local path or an http(s) URL. The file
// is one AphiaID per line; tab-separated lines use their first column,
// and a non-numeric first line is treated as a header and skipped.
func Fetch(pathOrURL string) (Set, error) {
	var r io.ReadCloser

	if strings.HasPrefix(pathOrURL, "http") {
		resp, err := http.Get(pathOrURL)
		if err != nil {
			return nil, pfx.Err(err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, pfx.Err(fmt.Errorf("checklist fetch: %s returned %s", pathOrURL, resp.Status))
		}
		r = resp.Body
	} else {
		f, err := os.Open(pathOrURL)
		if err != nil {
			return nil, pfx.Err(err)
		}
		r = f
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return parse(string(raw)), nil
}

func parse(raw string) Set {
	set := make(Set)

	for _, line := range strings.Split(raw, "\n") {
		field := strings.TrimSpace(strings.Split(line, "\t")[0])
		if field == "" {
			continue
		}

		// Non-numeric lines (headers, stray text) are skipped.
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		set[id] = struct{}{}
	}

	return set
}

// FilterIntroduced returns the species-list rows whose taxon identifier
// appears in the registry. Rows without an identifier can never match.
func FilterIntroduced(rows []summarize.SpeciesListRow, registry Set) []summarize.SpeciesListRow {
	out := []summarize.SpeciesListRow{}
	for _, row := range rows {
		if row.AphiaID.Valid && registry.Contains(row.AphiaID.Int64) {
			out = append(out, row)
		}
	}

	return out
}
