// Package cache memoizes per-entry chapter lists.
//
// Fetching chapters goes out to a provider through the backend and can take
// seconds, while the UI asks for the same list on every re-render of an open
// dialog. Cache keeps results for a bounded time (TTL, default 600s) and a
// bounded count (default 5 entries).
//
// # Semantics
//
//   - Hit: the key is present and younger than the TTL. No fetch happens.
//   - Miss or expiry: fetch is called. Success overwrites the entry; failure
//     is returned unchanged and nothing is stored.
//   - Capacity: inserting a new key into a full cache evicts the entry that
//     was inserted first. Overwriting a key refreshes its insertion order.
//
// # Concurrency
//
// A single mutex guards the index. The fetch call runs outside the lock so a
// slow provider never blocks lookups for other keys. There is no per-key
// single flight: two concurrent misses for one key both fetch, and the later
// insert wins.
package cache
