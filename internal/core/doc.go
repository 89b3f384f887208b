// Package core turns loosely structured spreadsheet sheets into a keyed,
// filterable event dataset.
//
// The package has no transport dependencies. It can be used by the web
// server, the CLI, or tests without modification.
//
// # Sheet Registry
//
// Sheets are registered at init time using [Register]. Each
// [SheetDefinition] names the sheet, marks it as the fact table or a
// dimension, and lists the key columns tried before the generic heuristic:
//
//	core.Register(core.SheetDefinition{
//	    Name:       core.SheetLocations,
//	    Label:      "Locations",
//	    KeyColumns: []string{"LOCID", "LOC_ID"},
//	})
//
// # Derived Chain
//
// A [Snapshot] is produced by [Compute] in a fixed order:
//
//  1. [BuildIndices] keys every dimension sheet by its inferred primary key
//  2. [NormalizeEvents] maps raw event rows onto [Event] through the alias table
//  3. [Dataset.Filter] applies every [FilterConfig] predicate
//  4. [Dataset.Augment] joins locations, people, institutions and citations
//  5. [BuildHistogram] counts filtered events per decade of their earliest year
//
// Nothing in the chain returns an error. Missing fields, broken joins and
// unparsable numbers resolve to absent values and are reported as
// [Diagnostic] entries on the snapshot.
//
// # Recomputation
//
// [Graph] holds the raw sheets and the filter config. Every write
// recomputes the chain and publishes the result unless a newer write
// arrived first. [Service] wraps a [SheetLoader] around the graph and is
// the entry point for the web server, the CLI and the file watcher.
package core
