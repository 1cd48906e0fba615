package csv

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

// reimport strips the BOM and runs Parse, mirroring what the import path
// does after WrapImport.
func reimport(data []byte) [][]string {
	return Parse(strings.TrimPrefix(string(data), "\uFEFF"))
}

func TestEncodeTableFormat(t *testing.T) {
	table := Table{
		Title:   "people",
		Columns: []string{"name", "note"},
		Rows:    [][]string{{"alice", `says "hi"`}},
	}

	got := EncodeTable(table)
	want := "\uFEFF" + `"name","note"` + "\n" + `"alice","says ""hi"""`
	if string(got) != want {
		t.Errorf("EncodeTable = %q, want %q", got, want)
	}
	if !bytes.HasPrefix(got, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("export must start with a UTF-8 BOM")
	}
}

func TestEncodeTablesSentinelFormat(t *testing.T) {
	tables := []Table{
		{Title: "A", Columns: []string{"h"}, Rows: [][]string{{"1"}}},
		{Title: "B", Columns: []string{"x"}, Rows: [][]string{{"9"}}},
	}

	got := string(EncodeTables(tables))
	if !strings.Contains(got, `">>> 表格：A <<<"`) {
		t.Errorf("missing sentinel row for A in %q", got)
	}
	if !strings.Contains(got, "\n\n\n") {
		t.Errorf("tables must be separated by two blank lines, got %q", got)
	}
}

func TestSingleTableRoundTrip(t *testing.T) {
	orig := Table{
		Title:   "inventory",
		Columns: []string{"item", "qty", "notes"},
		Rows: [][]string{
			{"widget", "5", "plain"},
			{"gadget, large", "2", "has \"quotes\""},
			{"doohickey", "0", "line1\nline2"},
		},
	}

	exported := EncodeTable(orig)
	assembled := Assemble(reimport(exported), orig.Title)
	if len(assembled) != 1 {
		t.Fatalf("got %d tables, want 1", len(assembled))
	}

	got := assembled[0]
	if got.Title != orig.Title {
		t.Errorf("Title = %q, want %q", got.Title, orig.Title)
	}
	if !reflect.DeepEqual(got.Columns, orig.Columns) {
		t.Errorf("Columns = %v, want %v", got.Columns, orig.Columns)
	}
	if !reflect.DeepEqual(got.Rows, orig.Rows) {
		t.Errorf("Rows = %v, want %v", got.Rows, orig.Rows)
	}
}

func TestMultiTableRoundTrip(t *testing.T) {
	orig := []Table{
		{Title: "第一", Columns: []string{"名", "值"}, Rows: [][]string{{"甲", "1"}, {"乙", "2"}}},
		{Title: "second", Columns: []string{"k"}, Rows: [][]string{{"v,with comma"}}},
	}

	exported := EncodeTables(orig)
	assembled := Assemble(reimport(exported), "fallback")
	if len(assembled) != len(orig) {
		t.Fatalf("got %d tables, want %d", len(assembled), len(orig))
	}
	for i := range orig {
		if assembled[i].Title != orig[i].Title {
			t.Errorf("table %d Title = %q, want %q", i, assembled[i].Title, orig[i].Title)
		}
		if !reflect.DeepEqual(assembled[i].Columns, orig[i].Columns) {
			t.Errorf("table %d Columns = %v, want %v", i, assembled[i].Columns, orig[i].Columns)
		}
		if !reflect.DeepEqual(assembled[i].Rows, orig[i].Rows) {
			t.Errorf("table %d Rows = %v, want %v", i, assembled[i].Rows, orig[i].Rows)
		}
	}
}

func TestEncodeParseEncodeIdempotent(t *testing.T) {
	tables := []Table{
		{
			Title:   "tricky",
			Columns: []string{"a", "b"},
			Rows: [][]string{
				{`quote " comma , both ",`, "plain"},
				{"multi\nline", ""},
			},
		},
	}

	first := EncodeTables(tables)
	reassembled := Assemble(reimport(first), "tricky")
	second := EncodeTables(reassembled)
	if !bytes.Equal(first, second) {
		t.Errorf("serialize(parse(serialize)) differs:\nfirst:  %q\nsecond: %q", first, second)
	}

	// Same property for the single-table variant.
	firstSingle := EncodeTable(tables[0])
	reassembledSingle := Assemble(reimport(firstSingle), "tricky")
	secondSingle := EncodeTable(reassembledSingle[0])
	if !bytes.Equal(firstSingle, secondSingle) {
		t.Errorf("single-table idempotence broken:\nfirst:  %q\nsecond: %q", firstSingle, secondSingle)
	}
}

func TestBackfilledRowSurvivesRoundTripAsBackfill(t *testing.T) {
	// An all-empty row exports as blank and is dropped on reimport; the
	// backfill rule then regenerates it, so the table stays functionally
	// equivalent.
	orig := Table{Title: "t", Columns: []string{"a", "b"}, Rows: [][]string{{"", ""}}}

	assembled := Assemble(reimport(EncodeTable(orig)), "t")
	if want := [][]string{{"", ""}}; !reflect.DeepEqual(assembled[0].Rows, want) {
		t.Errorf("Rows = %v, want regenerated empty row", assembled[0].Rows)
	}
}
