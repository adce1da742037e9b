// Package catalog turns the recipe CSV into the in-memory recipe catalog.
//
// The package is split into two layers:
//
//   - Ingestion: a pure, synchronous transform from one string holding the
//     whole CSV document to an ordered slice of [Recipe] values. It never
//     fails; malformed rows are dropped and malformed fields take defaults.
//   - Store: holds the most recent ingestion result as an immutable
//     [Snapshot] and answers the read queries the HTTP layer needs.
//
// # Ingestion
//
// [Ingest] runs the three stages in order:
//
//  1. [Tokenize] scans the text once, left to right, honouring quoted spans
//     (commas, quotes and line breaks inside quotes are field content).
//  2. [Build] skips the header row, drops rows with fewer than len([Columns])
//     fields, and maps the remaining rows positionally onto [Recipe].
//  3. [ParseIngredients] splits the ingredients column, which holds a
//     rendered list such as ['Salt', 'Pepper'].
//
// Recipe IDs are 1-based positions among surviving rows. They are stable for
// a given input but change whenever rows are added or removed upstream, so
// they are only valid within the lifetime of one [Snapshot].
//
// # Store
//
// Fetching the raw text is the job of a [Fetcher] (see package source). The
// [Store] fingerprints each fetch and only re-ingests when the text changed:
//
//	store := catalog.NewStore(src, catalog.Options{MaxRows: 500})
//	if _, err := store.Reload(ctx); err != nil {
//	    return err
//	}
//	recipes := store.Filter(catalog.Query{Cuisine: "Italian", MaxTime: 30})
package catalog
