// Package library holds mantle's domain model: tracked entries, their
// released and consumed chapters, and composite entries that aggregate
// several provider-backed sub-records.
//
// # Invariants
//
// Invariants are enforced when values are built rather than when they are
// used:
//
//   - NewEntry rejects nameless entries and statuses outside 1..5.
//   - NewComposite rejects an empty sub-record set, duplicate ids, and a
//     current id that is not part of the set.
//   - Composite.Remove rejects removing the last sub-record.
//
// # Unknown dates
//
// The backend encodes "unknown" as 0001-01-01T00:00:00Z, which is the zero
// time.Time. Chapter.Known reports whether a date was confirmed; sorting code
// treats unknown dates specially.
//
// # Errors
//
// errors.go defines the error taxonomy shared by the client, the cache, the
// resolver and the sync loop. Every typed error matches a sentinel through
// errors.Is so callers can branch without type assertions.
package library
