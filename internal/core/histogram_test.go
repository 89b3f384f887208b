package core

import (
	"reflect"
	"testing"
)

func yearEvents(years ...string) []Event {
	events := make([]Event, len(years))
	for i, y := range years {
		events[i] = Event{EarliestYear: ParseYear(y), RawEarliestYear: y}
	}
	return events
}

func TestBuildHistogram(t *testing.T) {
	h := BuildHistogram(yearEvents("1503", "1507", "1512"), 1500, 1520, 10)

	want := Histogram{1500: 2, 1510: 1, 1520: 0}
	if !reflect.DeepEqual(h, want) {
		t.Errorf("BuildHistogram = %v, want %v", h, want)
	}
}

func TestBuildHistogram_SkipsAndDrops(t *testing.T) {
	events := yearEvents("", "unknown", "1390", "1615", "1400", "1599")

	h := BuildHistogram(events, DefaultStartYear, DefaultEndYear, DecadeStep)

	if got := h.Total(); got != 2 {
		t.Errorf("Total() = %d, want 2", got)
	}
	if h[1400] != 1 || h[1590] != 1 {
		t.Errorf("h[1400], h[1590] = %d, %d, want 1, 1", h[1400], h[1590])
	}
	if _, ok := h[1380]; ok {
		t.Error("bucket below range initialized")
	}
	if got := len(h); got != 21 {
		t.Errorf("len(h) = %d, want 21 buckets from 1400 to 1600", got)
	}
}

func TestBuildHistogram_SingleAttribution(t *testing.T) {
	events := []Event{{EarliestYear: Some(1501), LatestYear: Some(1549)}}

	h := BuildHistogram(events, 1500, 1550, 10)

	if h[1500] != 1 || h.Total() != 1 {
		t.Errorf("histogram = %v, want only 1500:1", h)
	}
}

func TestBuildHistogram_UnalignedRange(t *testing.T) {
	h := BuildHistogram(yearEvents("1403", "1407", "1410", "1523", "1531"), 1405, 1523, 10)

	if _, ok := h[1400]; ok {
		t.Error("bucket 1400 initialized below start 1405")
	}
	if h[1410] != 1 {
		t.Errorf("h[1410] = %d, want 1", h[1410])
	}
	if h[1520] != 1 {
		t.Errorf("h[1520] = %d, want 1 for 1523", h[1520])
	}
	if got := h.Total(); got != 2 {
		t.Errorf("Total() = %d, want 2: 1403 and 1407 fall before the first boundary, 1531 after the last", got)
	}
	if got := len(h); got != 12 {
		t.Errorf("len(h) = %d, want 12 buckets from 1410 to 1520", got)
	}
}

func TestBuildHistogram_DefaultStep(t *testing.T) {
	h := BuildHistogram(yearEvents("1505"), 1500, 1510, 0)
	if want := (Histogram{1500: 1, 1510: 0}); !reflect.DeepEqual(h, want) {
		t.Errorf("BuildHistogram step 0 = %v, want %v", h, want)
	}
}

func TestHistogram_Buckets(t *testing.T) {
	h := Histogram{1520: 3, 1500: 1, 1510: 0}
	want := []Bucket{{1500, 1}, {1510, 0}, {1520, 3}}
	if got := h.Buckets(); !reflect.DeepEqual(got, want) {
		t.Errorf("Buckets() = %v, want %v", got, want)
	}
}

func TestFloorTo(t *testing.T) {
	tests := []struct{ y, step, want int }{
		{1503, 10, 1500},
		{1500, 10, 1500},
		{-5, 10, -10},
		{-10, 10, -10},
		{0, 10, 0},
	}
	for _, tt := range tests {
		if got := floorTo(tt.y, tt.step); got != tt.want {
			t.Errorf("floorTo(%d, %d) = %d, want %d", tt.y, tt.step, got, tt.want)
		}
	}
}
