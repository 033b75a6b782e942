// Package resolver chooses which sub-record of a composite entry to read
// chapters from.
//
// A composite aggregates the same series from several providers. The current
// sub-record is authoritative, but providers go down or change URLs. One
// resolution pass:
//
//  1. Fetches chapters for the current record. Success returns it unchanged.
//  2. Otherwise marks it tried and walks the records in stored order,
//     skipping tried ids. Each candidate is promoted on the backend and then
//     fetched. The first success is returned and becomes current locally.
//  3. A candidate whose promotion or fetch fails is marked tried, as is one
//     for which the backend answers with a different record.
//  4. When no candidate is left the pass returns an
//     *library.AllSourcesExhaustedError and an empty chapter list, which the
//     UI renders with a warning.
//
// The tried set only grows and the record set is finite, so a pass always
// terminates and never revisits a failed record. Candidates are probed one
// at a time.
package resolver
