package core

import (
	"reflect"
	"testing"
)

func TestAugment_Joins(t *testing.T) {
	ds, events := fixtureDataset()

	m := ds.AugmentEvent(events[0])

	if !m.Mappable() {
		t.Fatal("EV001 not mappable")
	}
	if *m.Coordinates != (Coordinates{45.46, 9.19}) {
		t.Errorf("Coordinates = %v, want [45.46 9.19]", *m.Coordinates)
	}
	if m.PersonInfo == nil || m.PersonInfo.Name != "Josquin des Prez" {
		t.Errorf("PersonInfo = %+v, want Josquin des Prez", m.PersonInfo)
	}
	if m.InstitutionInfo["INSNAME"] != "Cathedral Chapel" {
		t.Errorf("InstitutionInfo = %v, want Cathedral Chapel", m.InstitutionInfo)
	}
	if m.LocationDisplay != "Duomo, Milan" {
		t.Errorf("LocationDisplay = %q, want %q", m.LocationDisplay, "Duomo, Milan")
	}
	if m.MarkerColor != "#440154" {
		t.Errorf("MarkerColor = %q, want #440154", m.MarkerColor)
	}
	if m.ShareID != "01" {
		t.Errorf("ShareID = %q, want 01", m.ShareID)
	}
}

func TestAugment_Citations(t *testing.T) {
	ds, events := fixtureDataset()

	m := ds.AugmentEvent(events[0])

	wantArchival := []string{"Archivio di Stato, Sforzesco cart. 1", "Archivio Capitolare"}
	if !reflect.DeepEqual(m.Archival, wantArchival) {
		t.Errorf("Archival = %#v, want %#v", m.Archival, wantArchival)
	}

	wantBib := []string{`Merkley, "Josquin in Milan," JAMS (1999): 1-40, at f. 12r`, "Sources"}
	if !reflect.DeepEqual(m.Bibliography, wantBib) {
		t.Errorf("Bibliography = %#v, want %#v", m.Bibliography, wantBib)
	}
}

func TestAugment_NotMappable(t *testing.T) {
	ds, events := fixtureDataset()

	tests := []struct {
		name         string
		event        Event
		wantLocation bool
	}{
		{"invalid coordinates", events[2], true},
		{"missing location", events[4], false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ds.AugmentEvent(tt.event)
			if m.Mappable() {
				t.Error("Mappable() = true, want false")
			}
			if (m.Location != nil) != tt.wantLocation {
				t.Errorf("Location present = %v, want %v", m.Location != nil, tt.wantLocation)
			}
		})
	}
}

func TestMappableOnly(t *testing.T) {
	ds, events := fixtureDataset()

	mapped := MappableOnly(ds.Augment(events))

	got := make([]string, len(mapped))
	for i, m := range mapped {
		got[i] = m.ID
	}
	if want := []string{"EV001", "EV002", "EV004"}; !reflect.DeepEqual(got, want) {
		t.Errorf("MappableOnly = %v, want %v", got, want)
	}
}

func TestLocationDisplay_Certainty(t *testing.T) {
	ds := NewDataset(nil, nil)
	loc := Row{"LOCNAME": "Palazzo", "CITY": "Ferrara"}

	tests := []struct {
		cert OptInt
		want string
	}{
		{OptInt{}, "Palazzo, Ferrara"},
		{Some(1), "Palazzo, Ferrara"},
		{Some(2), "Palazzo, Ferrara?"},
		{Some(3), "Palazzo, Ferrara??"},
		{Some(4), "Palazzo, Ferrara???"},
	}
	for _, tt := range tests {
		if got := ds.LocationDisplay(loc, tt.cert); got != tt.want {
			t.Errorf("LocationDisplay(%+v) = %q, want %q", tt.cert, got, tt.want)
		}
	}

	if got := ds.LocationDisplay(Row{"LOCNAME": "Duomo"}, OptInt{}); got != "Duomo" {
		t.Errorf("LocationDisplay without city = %q, want Duomo", got)
	}
}

func TestUnmappableDiagnostics(t *testing.T) {
	ds, events := fixtureDataset()

	diags := unmappableDiagnostics(ds.Augment(events))

	if len(diags) != 2 {
		t.Fatalf("len(diags) = %d, want 2", len(diags))
	}
	if diags[0].Count != 1 || diags[1].Count != 1 {
		t.Errorf("counts = %d, %d, want 1, 1", diags[0].Count, diags[1].Count)
	}
}

// TestEndToEnd follows one raw row from aliased headers through to a map marker.
func TestEndToEnd(t *testing.T) {
	sheets := Sheets{
		SheetEvents: {Rows: []Row{{
			"ID":                          "EV1",
			"Location ID (LOC)":           "LOC7",
			"Biography Musician (BMU) ID": "BMU9",
			"Earliest Year":               "1520",
			"Latest Year":                 "1525",
		}}},
		SheetLocations: {Columns: []string{"LOCID", "COORD"}, Rows: []Row{{"LOCID": "LOC7", "COORD": "45.0,9.0"}}},
		SheetMusicians: {Columns: []string{"BMUID", "BMUNAME"}, Rows: []Row{{"BMUID": "BMU9", "BMUNAME": "Josquin"}}},
	}

	opts := ComputeOptions{Schema: testSchema(), HistogramStart: 1400, HistogramEnd: 1600, HistogramStep: 10}
	snap := Compute(sheets, DefaultFilterConfig(), opts)

	if len(snap.Events) != 1 {
		t.Fatalf("len(Events) = %d, want 1", len(snap.Events))
	}
	ev := snap.Events[0]
	if ev.ID != "EV1" || ev.LocationID != "LOC7" || ev.BioID != "BMU9" {
		t.Errorf("event = %+v", ev)
	}
	if ev.EarliestYear != Some(1520) || ev.LatestYear != Some(1525) {
		t.Errorf("years = %+v, %+v, want 1520, 1525", ev.EarliestYear, ev.LatestYear)
	}

	mapped := MappableOnly(snap.Mapped)
	if len(mapped) != 1 {
		t.Fatalf("len(mappable) = %d, want 1", len(mapped))
	}
	if *mapped[0].Coordinates != (Coordinates{45.0, 9.0}) {
		t.Errorf("coordinates = %v, want [45 9]", *mapped[0].Coordinates)
	}
	if mapped[0].PersonInfo.Name != "Josquin" {
		t.Errorf("personInfo.name = %q, want Josquin", mapped[0].PersonInfo.Name)
	}
	if snap.Histogram[1520] != 1 {
		t.Errorf("histogram[1520] = %d, want 1", snap.Histogram[1520])
	}
}
