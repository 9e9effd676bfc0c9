package checklist

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/guregu/null.v3"

	"github.com/iobis/pacman-data-analysis/summarize"
)

func TestFetchFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checklist.tsv")
	content := "AphiaID\tscientificName\n123456\tExampleus fakus\n777\tCcus ddus\n\nnot-a-number\tbogus\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := Fetch(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 2 {
		t.Fatalf("got %d IDs, expected 2", len(set))
	}
	if !set.Contains(123456) || !set.Contains(777) {
		t.Fatalf("set = %v", set)
	}
}

func TestFetchFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "123456\n999\n")
	}))
	defer srv.Close()

	set, err := Fetch(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !set.Contains(123456) || !set.Contains(999) {
		t.Fatalf("set = %v", set)
	}
}

func TestFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := Fetch(srv.URL); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestFilterIntroduced(t *testing.T) {
	rows := []summarize.SpeciesListRow{
		{Species: "Exampleus fakus", AphiaID: null.IntFrom(123456), Reads: 50},
		{Species: "Nativus localis", AphiaID: null.IntFrom(42), Reads: 10},
		{Species: "Anonymus nullus", Reads: 5}, // no identifier
	}
	registry := Set{123456: {}}

	got := FilterIntroduced(rows, registry)
	if len(got) != 1 || got[0].Species != "Exampleus fakus" {
		t.Fatalf("got %+v, expected only Exampleus fakus", got)
	}

	// Empty registry (the degraded case) filters everything.
	if got := FilterIntroduced(rows, Set{}); len(got) != 0 {
		t.Fatalf("empty registry should yield an empty subset, got %+v", got)
	}
}
