package core

import "sort"

// Histogram maps a bucket start year to its event count.
type Histogram map[int]int

// Bucket is one histogram bar.
type Bucket struct {
	Start int `json:"decade"`
	Count int `json:"count"`
}

// NewHistogram returns a histogram with one zero bucket per step boundary
// in [start, end]. A non-positive step uses DecadeStep.
func NewHistogram(start, end, step int) Histogram {
	if step <= 0 {
		step = DecadeStep
	}
	h := make(Histogram)
	for y := -floorTo(-start, step); y <= end; y += step {
		h[y] = 0
	}
	return h
}

// BuildHistogram counts each event once, in the bucket containing its
// earliest year. Events without an earliest year, or whose bucket falls
// outside [start, end], are not counted.
func BuildHistogram(events []Event, start, end, step int) Histogram {
	if step <= 0 {
		step = DecadeStep
	}
	h := NewHistogram(start, end, step)
	for _, ev := range events {
		if !ev.EarliestYear.Valid {
			continue
		}
		b := floorTo(ev.EarliestYear.Int, step)
		if _, ok := h[b]; ok {
			h[b]++
		}
	}
	return h
}

// Buckets returns the bars in ascending year order.
func (h Histogram) Buckets() []Bucket {
	out := make([]Bucket, 0, len(h))
	for start, n := range h {
		out = append(out, Bucket{Start: start, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Total returns the number of counted events.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// floorTo rounds y down to a multiple of step, toward negative infinity.
func floorTo(y, step int) int {
	q := y / step
	if y%step != 0 && y < 0 {
		q--
	}
	return q * step
}
