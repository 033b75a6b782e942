package mantium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/five82/mantle/internal/library"
)

// Backend defines the operations mantle consumes from the Mantium API.
// This interface is implemented by *Client and can be used for testing.
type Backend interface {
	GetCollection(ctx context.Context) ([]library.Entry, error)
	GetCompositeEntry(ctx context.Context, id int) (*library.Composite, error)
	GetSubEntries(ctx context.Context, id int, entryURL, internalID string) ([]library.Chapter, error)
	FetchChapters(ctx context.Context, record library.SubRecord) ([]library.Chapter, error)
	GetChangeToken(ctx context.Context) (string, error)
	PromoteSubRecord(ctx context.Context, composite *library.Composite, subID int) (library.SubRecord, error)
	GetLastBackgroundError(ctx context.Context) (BackgroundError, error)
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// Client talks to the Mantium HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *log.Logger
}

// Options tune the client. Zero values use the defaults.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *log.Logger
}

const (
	defaultAPIAddress        = "127.0.0.1:8080"
	defaultUserAgent         = "mantle/0.1"
	defaultRequestTimeout    = 10 * time.Second
	defaultRequestsPerSecond = 5
)

// NewClient builds a Client for the API at apiAddress (host:port or URL).
func NewClient(apiAddress string, opts Options) (*Client, error) {
	base, err := parseBaseURL(apiAddress)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultRequestTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	burst := max(int(opts.RequestsPerSecond), 1)
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst),
		userAgent: defaultUserAgent,
		logger:    opts.Logger,
	}, nil
}

// CheckHealth verifies the API is reachable.
func (c *Client) CheckHealth(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	return c.do(ctx, http.MethodGet, "/v1/health", nil)
}

// GetCollection retrieves every tracked entry. Records that fail validation
// are skipped and logged so one bad row cannot hide the collection.
func (c *Client) GetCollection(ctx context.Context) ([]library.Entry, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload mangasResponse
	if err := c.do(ctx, http.MethodGet, "/v1/mangas", &payload); err != nil {
		return nil, err
	}
	entries := make([]library.Entry, 0, len(payload.Mangas))
	for _, m := range payload.Mangas {
		e, err := m.Entry()
		if err != nil {
			c.logger.Printf("skipping manga %d: %v", m.ID, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetCompositeEntry retrieves a composite with all of its sub-records.
func (c *Client) GetCompositeEntry(ctx context.Context, id int) (*library.Composite, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("id", strconv.Itoa(id))
	var payload multiMangaResponse
	if err := c.doQuery(ctx, http.MethodGet, "/v1/multimanga", values, &payload); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return nil, &library.NotFoundError{Kind: "composite", ID: id, Err: err}
		}
		return nil, err
	}
	if payload.MultiManga == nil {
		return nil, &library.NotFoundError{Kind: "composite", ID: id}
	}
	return payload.MultiManga.Composite()
}

// GetSubEntries retrieves the chapter list of one entry or sub-record from
// its provider.
func (c *Client) GetSubEntries(ctx context.Context, id int, entryURL, internalID string) ([]library.Chapter, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("id", strconv.Itoa(id))
	values.Set("url", entryURL)
	values.Set("manga_internal_id", internalID)
	var payload chaptersResponse
	if err := c.doQuery(ctx, http.MethodGet, "/v1/manga/chapters", values, &payload); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return nil, &library.NotFoundError{Kind: "entry", ID: id, Err: err}
		}
		return nil, err
	}
	chapters := make([]library.Chapter, 0, len(payload.Chapters))
	for _, ch := range payload.Chapters {
		chapters = append(chapters, ch.libraryChapter())
	}
	return chapters, nil
}

// FetchChapters loads a sub-record's chapters. Any failure other than the
// caller's own cancellation is reported as a SourceUnavailableError.
func (c *Client) FetchChapters(ctx context.Context, record library.SubRecord) ([]library.Chapter, error) {
	chapters, err := c.GetSubEntries(ctx, record.ID, record.URL, record.InternalID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &library.SourceUnavailableError{Source: record.Source, RecordID: record.ID, Err: err}
	}
	return chapters, nil
}

// GetChangeToken retrieves the token that changes whenever the collection
// changes on the backend.
func (c *Client) GetChangeToken(ctx context.Context) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	var payload messageResponse
	if err := c.do(ctx, http.MethodGet, "/v1/dashboard/last_update", &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

// PromoteSubRecord asks the backend to choose subID as the composite's
// current sub-record. Every other record is excluded from the choice, so a
// healthy backend answers with subID itself.
func (c *Client) PromoteSubRecord(ctx context.Context, composite *library.Composite, subID int) (library.SubRecord, error) {
	if c == nil {
		return library.SubRecord{}, fmt.Errorf("client is nil")
	}
	if composite == nil {
		return library.SubRecord{}, fmt.Errorf("promote sub-record %d: composite is nil", subID)
	}
	if _, ok := composite.Record(subID); !ok {
		return library.SubRecord{}, &library.NotFoundError{Kind: "sub-record", ID: subID}
	}

	exclude := make([]string, 0, composite.Len()-1)
	for _, r := range composite.Records() {
		if r.ID != subID {
			exclude = append(exclude, strconv.Itoa(r.ID))
		}
	}
	values := url.Values{}
	values.Set("id", strconv.Itoa(composite.ID))
	if len(exclude) > 0 {
		values.Set("exclude_manga_ids", strings.Join(exclude, ","))
	}

	var payload mangaResponse
	if err := c.doQuery(ctx, http.MethodGet, "/v1/multimanga/choose_current_manga", values, &payload); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			return library.SubRecord{}, &library.NotFoundError{Kind: "composite", ID: composite.ID, Err: err}
		}
		return library.SubRecord{}, err
	}
	if payload.Manga == nil {
		return library.SubRecord{}, fmt.Errorf("choose current manga for composite %d: empty response", composite.ID)
	}
	return payload.Manga.SubRecord(), nil
}

// RemoveSubRecord detaches a sub-record from a composite. Removing the last
// sub-record is rejected before any request is sent.
func (c *Client) RemoveSubRecord(ctx context.Context, composite *library.Composite, subID int) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if _, ok := composite.Record(subID); !ok {
		return &library.NotFoundError{Kind: "sub-record", ID: subID}
	}
	if composite.Len() == 1 {
		return &library.InvariantViolationError{Reason: fmt.Sprintf("cannot remove sub-record %d, the last of composite %d", subID, composite.ID)}
	}
	values := url.Values{}
	values.Set("id", strconv.Itoa(composite.ID))
	values.Set("manga_id", strconv.Itoa(subID))
	if err := c.doQuery(ctx, http.MethodDelete, "/v1/multimanga/manga", values, nil); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "last") {
			return &library.InvariantViolationError{Reason: apiErr.Message}
		}
		return err
	}
	return composite.Remove(subID)
}

// GetLastBackgroundError retrieves the backend's last background job error.
// A zero value means there is none.
func (c *Client) GetLastBackgroundError(ctx context.Context) (BackgroundError, error) {
	if c == nil {
		return BackgroundError{}, fmt.Errorf("client is nil")
	}
	var payload BackgroundError
	if err := c.do(ctx, http.MethodGet, "/v1/dashboard/last_background_error", &payload); err != nil {
		return BackgroundError{}, err
	}
	return payload, nil
}

// APIError is a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is matches library.ErrNotFound for 404 responses.
func (e *APIError) Is(target error) bool {
	return target == library.ErrNotFound && e.StatusCode == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	return c.doQuery(ctx, method, path, nil, dest)
}

func (c *Client) doQuery(ctx context.Context, method, path string, values url.Values, dest any) error {
	rel := &url.URL{Path: path}
	if len(values) > 0 {
		rel.RawQuery = values.Encode()
	}
	return c.doURL(ctx, method, rel, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	op := method + " " + rel.Path
	if err := c.limiter.Wait(ctx); err != nil {
		return classify(op, fmt.Errorf("rate limit: %w", err))
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(op, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Method: method, Path: rel.Path, StatusCode: resp.StatusCode}
		var body messageResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body); err == nil {
			apiErr.Message = body.Message
		}
		return apiErr
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return classify(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classify turns deadline errors into library.TimeoutError.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &library.TimeoutError{Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &library.TimeoutError{Op: op, Err: err}
	}
	return err
}

func parseBaseURL(apiAddress string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiAddress)
	if trimmed == "" {
		trimmed = defaultAPIAddress
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api address %q: %w", apiAddress, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
