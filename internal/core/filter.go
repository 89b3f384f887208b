package core

// PersonTypeEnabled reports whether events of type t pass the person-type
// gate. Unknown types never pass.
func PersonTypeEnabled(cfg FilterConfig, t PersonType) bool {
	switch t {
	case PersonComposer:
		return cfg.ShowComposers
	case PersonMusician:
		return cfg.ShowMusicians
	case PersonNonMusician:
		return cfg.ShowNonMusicians
	default:
		return false
	}
}

// EventInterval returns the event's year interval with missing bounds
// replaced by DefaultStartYear and DefaultEndYear.
func EventInterval(ev Event) (start, end int) {
	return ev.EarliestYear.Or(DefaultStartYear), ev.LatestYear.Or(DefaultEndYear)
}

// OverlapsRange reports whether the event's interval overlaps r, bounds
// inclusive.
func OverlapsRange(ev Event, r DateRange) bool {
	start, end := EventInterval(ev)
	return start <= r.Max && end >= r.Min
}

// IsCertain reports whether location, earliest date and range certainty are
// all at most MaxCertainCode. Missing codes count as DefaultCertainty.
func IsCertain(ev Event) bool {
	for _, c := range []OptInt{ev.CertLocation, ev.CertEarliestDate, ev.CertRange} {
		if c.Or(DefaultCertainty) > MaxCertainCode {
			return false
		}
	}
	return true
}

// Filter returns the events that pass every enabled predicate, in input
// order. The result is never nil.
func Filter(events []Event, cfg FilterConfig, idx Indices) []Event {
	return NewDataset(idx, nil).Filter(events, cfg)
}

// Filter applies cfg to events against the dataset.
func (d Dataset) Filter(events []Event, cfg FilterConfig) []Event {
	q := ParseQuery(cfg.SearchText)
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if d.accept(ev, cfg, q) {
			out = append(out, ev)
		}
	}
	return out
}

// Accept reports whether a single event passes cfg.
func (d Dataset) Accept(ev Event, cfg FilterConfig) bool {
	return d.accept(ev, cfg, ParseQuery(cfg.SearchText))
}

func (d Dataset) accept(ev Event, cfg FilterConfig, q Query) bool {
	if !PersonTypeEnabled(cfg, ev.Person.Type) {
		return false
	}
	if !OverlapsRange(ev, cfg.DateRange) {
		return false
	}
	if cfg.ShowCertainty && !IsCertain(ev) {
		return false
	}
	if cfg.InstitutionFilter != "" && ev.InstitutionID != cfg.InstitutionFilter {
		return false
	}
	if len(cfg.ActiveNames) > 0 {
		p, ok := d.ResolvePersonRef(ev.Person)
		if !ok || !cfg.ActiveNames.Has(p.Name) {
			return false
		}
	}
	if !q.Empty() && !q.Match(d.SearchCorpus(ev)) {
		return false
	}
	return true
}
