package core

import "testing"

func TestBuildHeaderLabels(t *testing.T) {
	table := Table{Rows: []Row{
		{"Spreadsheet ID": "Events", "JavaScript Name": "EYEAR", "Column Name": "Earliest Year"},
		{"SpreadsheetID": "Locations", "JavaScriptName": "COORD", "ColumnName": "Coordinates"},
		{"Spreadsheet ID": "Events", "JavaScript Name": "LYEAR"},
		{"Spreadsheet ID": "", "JavaScript Name": "X", "Column Name": "Y"},
	}}

	labels, diags := BuildHeaderLabels(table, nil)

	if got := labels.Label("Events", "EYEAR"); got != "Earliest Year" {
		t.Errorf("Label(Events, EYEAR) = %q, want Earliest Year", got)
	}
	if got := labels.Label("Locations", "COORD"); got != "Coordinates" {
		t.Errorf("Label(Locations, COORD) = %q, want Coordinates", got)
	}
	if got := labels.Label("Events", "LYEAR"); got != "LYEAR" {
		t.Errorf("Label for skipped row = %q, want fallback LYEAR", got)
	}
	if len(labels) != 2 {
		t.Errorf("len(labels) = %d, want 2", len(labels))
	}
	if len(diags) != 1 || diags[0].Count != 2 {
		t.Errorf("diags = %+v, want one with count 2", diags)
	}
}
