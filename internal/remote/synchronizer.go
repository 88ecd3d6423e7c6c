// Package remote keeps server-backed tabs in sync: it serializes a view's
// selections into a query string, fetches the matching page from the list
// endpoint, and replaces the current page wholesale. Responses to
// superseded requests are discarded so rapid typing can never regress the
// visible page.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/campuslink/campuslink/internal/listing"
)

// State is the synchronizer's lifecycle phase. Loading is entered on any
// criterion change or page move; both success and failure return to Idle.
type State int

const (
	StateIdle State = iota
	StateLoading
)

// ErrUnableToLoad is surfaced to the UI when a fetch fails. The previous
// page is retained; nothing retries automatically.
var ErrUnableToLoad = errors.New("unable to load results")

// Page is a server-computed slice of records plus pagination metadata,
// replaced wholesale on every successful fetch.
type Page struct {
	Items       []listing.Record
	TotalCount  int
	CurrentPage int
	NumPages    int
	HasPrevious bool
	HasNext     bool
	StartIndex  int
	EndIndex    int
}

// History records query-string transitions, mirroring browser pushState.
type History interface {
	Push(query string)
}

// Mapper converts one wire item into an engine record.
type Mapper func(item map[string]any) listing.Record

// Synchronizer drives one server-backed tab.
type Synchronizer struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	history  History
	mapper   Mapper
	debounce *listing.Debouncer

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	lastState listing.ViewState
	page      Page
	state     State
	errMsg    string
}

// Option customises synchronizer construction.
type Option func(*Synchronizer)

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) Option {
	return func(s *Synchronizer) { s.client = c }
}

// WithHistory wires a history recorder for page navigation.
func WithHistory(h History) Option {
	return func(s *Synchronizer) { s.history = h }
}

// WithMapper overrides how wire items become records.
func WithMapper(m Mapper) Option {
	return func(s *Synchronizer) { s.mapper = m }
}

// WithDebounce overrides the quiet period for Schedule.
func WithDebounce(d time.Duration) Option {
	return func(s *Synchronizer) { s.debounce = listing.NewDebouncer(d) }
}

// NewSynchronizer constructs a synchronizer for one list endpoint.
func NewSynchronizer(endpoint string, logger *slog.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		mapper:   DefaultMapper("archived_at"),
		debounce: listing.NewDebouncer(350 * time.Millisecond),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// DefaultMapper builds records whose id comes from the "id" item key and
// whose date is parsed from the named field. Every scalar item value is
// kept as a string field.
func DefaultMapper(dateField string) Mapper {
	return func(item map[string]any) listing.Record {
		r := listing.Record{Fields: make(map[string]string, len(item))}
		for key, value := range item {
			switch v := value.(type) {
			case string:
				r.Fields[key] = v
			case float64:
				r.Fields[key] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				r.Fields[key] = strconv.FormatBool(v)
			case nil:
				r.Fields[key] = ""
			}
		}
		r.ID = r.Fields["id"]
		r.Date = listing.ParseRecordDate(r.Fields[dateField])
		return r
	}
}

// Query serializes a view state and page into the endpoint query string.
func Query(state listing.ViewState, page int) string {
	values := url.Values{}
	if state.Search != "" {
		values.Set("search", state.Search)
	}
	for field, value := range state.Criteria {
		if value == "" || value == "all" {
			continue
		}
		values.Set(field, value)
	}
	if state.DateMode != "" && state.DateMode != listing.DateAll {
		values.Set("date", string(state.DateMode))
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	return values.Encode()
}

// Load fetches one page and, when still the most recent request, replaces
// the current page. Stale responses are discarded; a superseded in-flight
// request is cancelled outright.
func (s *Synchronizer) Load(ctx context.Context, state listing.ViewState, page int) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.lastState = state.Clone()
	s.state = StateLoading
	s.mu.Unlock()

	result, err := s.fetch(reqCtx, state, page)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// A newer request owns the page now.
		return nil
	}
	s.state = StateIdle
	if s.cancel != nil {
		s.cancel = nil
	}
	if err != nil {
		s.errMsg = ErrUnableToLoad.Error()
		s.logger.Error("list load failed", slog.String("endpoint", s.endpoint), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrUnableToLoad, err)
	}
	s.page = result
	s.errMsg = ""
	return nil
}

// Schedule debounces a Load for free-text driven changes: only the last
// call in a burst issues a request.
func (s *Synchronizer) Schedule(state listing.ViewState, page int) {
	snapshot := state.Clone()
	s.debounce.Do(func() {
		_ = s.Load(context.Background(), snapshot, page)
	})
}

// GoToPage records the new query in history, then loads that page for the
// most recent view state. The document is never reloaded.
func (s *Synchronizer) GoToPage(ctx context.Context, page int) error {
	s.mu.Lock()
	state := s.lastState.Clone()
	history := s.history
	s.mu.Unlock()
	if history != nil {
		history.Push(Query(state, page))
	}
	return s.Load(ctx, state, page)
}

// Invalidate cancels any pending debounce or in-flight fetch, used when
// the user leaves the tab or clears its filters.
func (s *Synchronizer) Invalidate() {
	s.debounce.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateIdle
}

// Snapshot returns the current page, phase and user-visible error message.
func (s *Synchronizer) Snapshot() (Page, State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.state, s.errMsg
}

type paginationPayload struct {
	TotalCount  int  `json:"total_count"`
	CurrentPage int  `json:"current_page"`
	NumPages    int  `json:"num_pages"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
	StartIndex  int  `json:"start_index"`
	EndIndex    int  `json:"end_index"`
}

type listPayload struct {
	Success    *bool              `json:"success"`
	Error      string             `json:"error"`
	Items      []map[string]any   `json:"items"`
	Pagination *paginationPayload `json:"pagination"`
}

func (s *Synchronizer) fetch(ctx context.Context, state listing.ViewState, page int) (Page, error) {
	target := s.endpoint
	if query := Query(state, page); query != "" {
		target += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload listPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Page{}, fmt.Errorf("malformed response: %w", err)
	}
	if payload.Success != nil && !*payload.Success {
		if payload.Error != "" {
			return Page{}, errors.New(payload.Error)
		}
		return Page{}, errors.New("server reported failure")
	}
	if payload.Pagination == nil {
		return Page{}, errors.New("malformed response: missing pagination")
	}

	result := Page{
		TotalCount:  payload.Pagination.TotalCount,
		CurrentPage: payload.Pagination.CurrentPage,
		NumPages:    payload.Pagination.NumPages,
		HasPrevious: payload.Pagination.HasPrevious,
		HasNext:     payload.Pagination.HasNext,
		StartIndex:  payload.Pagination.StartIndex,
		EndIndex:    payload.Pagination.EndIndex,
	}
	result.Items = make([]listing.Record, 0, len(payload.Items))
	for _, item := range payload.Items {
		result.Items = append(result.Items, s.mapper(item))
	}
	return result, nil
}
