// Package mantium provides an HTTP client for the Mantium backend API.
//
// # Overview
//
// The client reads the tracked collection, loads chapter lists from the
// providers behind each entry, and performs the few mutations mantle needs
// on composites (promoting and removing sub-records). Wire payloads live in
// types.go and are converted to internal/library types before they leave
// the package.
//
// # API Endpoints
//
//   - GET /v1/health: liveness probe used at startup
//   - GET /v1/mangas: the whole collection
//   - GET /v1/multimanga?id=: one composite with its sub-records
//   - GET /v1/manga/chapters?id=&url=&manga_internal_id=: a chapter list
//   - GET /v1/dashboard/last_update: the change token
//   - GET /v1/dashboard/last_background_error: last backend job failure
//   - GET /v1/multimanga/choose_current_manga?id=&exclude_manga_ids=: choose a sub-record
//   - DELETE /v1/multimanga/manga?id=&manga_id=: remove a sub-record
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Wait on a shared token-bucket limiter before hitting the network
//   - Set Accept, User-Agent and a fresh X-Request-ID header
//   - Are bounded by the http.Client timeout (10 seconds by default)
//
// # Error Handling
//
// Non-2xx responses become *APIError; a 404 also matches
// library.ErrNotFound. Deadline and network timeouts become
// *library.TimeoutError. FetchChapters reports every provider failure as
// *library.SourceUnavailableError so the resolver can fall back to the
// next sub-record.
//
// Example error messages:
//   - "execute request: dial tcp: connection refused"
//   - "api GET /v1/mangas returned status 500"
//   - "decode response: unexpected end of JSON input"
//
// # Timestamps
//
// Chapter dates are RFC3339. Missing, unparseable and zero-year
// ("0001-01-01T00:00:00Z") dates all decode to time.Time{}, which the rest
// of mantle treats as "unknown".
//
// # Thread Safety
//
// Client is safe for concurrent use.
package mantium
