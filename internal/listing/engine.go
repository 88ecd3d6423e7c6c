package listing

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

// Accessor reads one filterable field off a record.
type Accessor func(Record) string

// DateAccessor resolves the timestamp used for bucket filtering and
// newest/oldest sorting. It must return the zero sentinel for records
// without a usable date, never panic.
type DateAccessor func(Record) time.Time

// FieldAccessor returns an accessor reading the named ingested field.
func FieldAccessor(name string) Accessor {
	return func(r Record) string { return r.Field(name) }
}

// ViewConfig declares, for one tab, how to read each filterable field off
// a record, which fields free-text search scans, and which field carries
// the created/archived timestamp.
type ViewConfig struct {
	Fields     map[string]Accessor
	Searchable []string
	Date       DateAccessor
}

// ViewState holds one tab's current selections. States are independent
// across tabs.
type ViewState struct {
	Search   string
	Criteria map[string]string
	DateMode DateMode
	Page     int
}

// Clone returns a deep copy so callers can hand states around without
// sharing the criteria map.
func (s ViewState) Clone() ViewState {
	out := s
	out.Criteria = make(map[string]string, len(s.Criteria))
	for k, v := range s.Criteria {
		out.Criteria[k] = v
	}
	return out
}

// Target is the render surface for a view: it hides non-matching rows and
// re-appends matching ones so container order follows the computed order.
type Target interface {
	Show(id string)
	Hide(id string)
	MoveToEnd(id string)
}

type view struct {
	cfg     ViewConfig
	state   ViewState
	records []Record
	target  Target
	search  *Debouncer
}

// Engine owns the registered views and their states. All operations are
// synchronous; the only scheduling is the per-view search debouncer.
type Engine struct {
	mu          sync.Mutex
	views       map[string]*view
	now         func() time.Time
	searchDelay time.Duration
}

// Option customises engine construction.
type Option func(*Engine)

// WithClock fixes the time source used for bucket evaluation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSearchDelay overrides the free-text debounce quiet period.
func WithSearchDelay(d time.Duration) Option {
	return func(e *Engine) { e.searchDelay = d }
}

// NewEngine constructs an empty engine. Free-text input is debounced at
// 350ms by default; discrete criteria apply immediately.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		views:       make(map[string]*view),
		now:         time.Now,
		searchDelay: 350 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterView declares a tab. Every searchable field must have an
// accessor; a missing date accessor defaults to the zero sentinel.
func (e *Engine) RegisterView(id string, cfg ViewConfig) error {
	if id == "" {
		return fmt.Errorf("listing: view id required")
	}
	if len(cfg.Fields) == 0 {
		return fmt.Errorf("listing: view %s declares no field accessors", id)
	}
	for _, name := range cfg.Searchable {
		if _, ok := cfg.Fields[name]; !ok {
			return fmt.Errorf("listing: view %s searches unknown field %s", id, name)
		}
	}
	if cfg.Date == nil {
		cfg.Date = func(Record) time.Time { return time.Time{} }
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.views[id]; ok {
		return fmt.Errorf("listing: view %s already registered", id)
	}
	e.views[id] = &view{
		cfg:    cfg,
		state:  ViewState{Criteria: make(map[string]string), DateMode: DateAll, Page: 1},
		search: NewDebouncer(e.searchDelay),
	}
	return nil
}

// SetRecords replaces a view's record set, keeping original order as the
// stable baseline for rendering.
func (e *Engine) SetRecords(id string, records []Record) error {
	e.mu.Lock()
	v, ok := e.views[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("listing: unknown view %s", id)
	}
	v.records = append([]Record(nil), records...)
	e.mu.Unlock()
	return e.renderIfAttached(id)
}

// AttachTarget wires the render surface for a view.
func (e *Engine) AttachTarget(id string, t Target) error {
	e.mu.Lock()
	v, ok := e.views[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("listing: unknown view %s", id)
	}
	v.target = t
	e.mu.Unlock()
	return e.renderIfAttached(id)
}

// SetCriterion updates one discrete filter and re-renders immediately.
// An empty or "all" value disables the predicate.
func (e *Engine) SetCriterion(id, field, value string) error {
	e.mu.Lock()
	v, ok := e.views[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("listing: unknown view %s", id)
	}
	if _, ok := v.cfg.Fields[field]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("listing: view %s has no field %s", id, field)
	}
	v.state.Criteria[field] = value
	e.mu.Unlock()
	return e.renderIfAttached(id)
}

// SetDateMode updates the date selector and re-renders immediately.
func (e *Engine) SetDateMode(id string, mode DateMode) error {
	e.mu.Lock()
	v, ok := e.views[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("listing: unknown view %s", id)
	}
	v.state.DateMode = mode
	e.mu.Unlock()
	return e.renderIfAttached(id)
}

// Search updates the free-text criterion through the view's debouncer:
// only the last keystroke in a burst triggers a render.
func (e *Engine) Search(id, text string) error {
	e.mu.Lock()
	v, ok := e.views[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("listing: unknown view %s", id)
	}
	deb := v.search
	e.mu.Unlock()
	deb.Do(func() {
		e.mu.Lock()
		if v, ok := e.views[id]; ok {
			v.state.Search = text
		}
		e.mu.Unlock()
		_ = e.renderIfAttached(id)
	})
	return nil
}

// Invalidate cancels any pending debounced search for a view, used when
// the user leaves the tab or clears its filters.
func (e *Engine) Invalidate(id string) {
	e.mu.Lock()
	v, ok := e.views[id]
	e.mu.Unlock()
	if ok {
		v.search.Stop()
	}
}

// State returns a copy of the view's current selections.
func (e *Engine) State(id string) (ViewState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.views[id]
	if !ok {
		return ViewState{}, fmt.Errorf("listing: unknown view %s", id)
	}
	return v.state.Clone(), nil
}

// Evaluate returns the ordered visible subset for a view. It is pure:
// the same state and record set always produce the same output.
func (e *Engine) Evaluate(id string) ([]Record, error) {
	e.mu.Lock()
	v, ok := e.views[id]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("listing: unknown view %s", id)
	}
	cfg, state := v.cfg, v.state.Clone()
	records := append([]Record(nil), v.records...)
	now := e.now()
	e.mu.Unlock()
	return EvaluateRecords(cfg, state, records, now), nil
}

// Render applies the computed subset to the view's target: every
// non-matching row is hidden, every matching row is shown and moved to
// the end of its container in order.
func (e *Engine) Render(id string) error {
	e.mu.Lock()
	v, ok := e.views[id]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("listing: unknown view %s", id)
	}
	target := v.target
	records := append([]Record(nil), v.records...)
	e.mu.Unlock()
	if target == nil {
		return fmt.Errorf("listing: view %s has no render target", id)
	}
	visible, err := e.Evaluate(id)
	if err != nil {
		return err
	}
	shown := make(map[string]bool, len(visible))
	for _, r := range visible {
		shown[r.ID] = true
	}
	for _, r := range records {
		if !shown[r.ID] {
			target.Hide(r.ID)
		}
	}
	for _, r := range visible {
		target.Show(r.ID)
		target.MoveToEnd(r.ID)
	}
	return nil
}

func (e *Engine) renderIfAttached(id string) error {
	e.mu.Lock()
	v, ok := e.views[id]
	attached := ok && v.target != nil
	e.mu.Unlock()
	if !attached {
		return nil
	}
	return e.Render(id)
}

// EvaluateRecords is the engine core: conjunction of the free-text
// predicate (OR across searchable fields), every active discrete
// predicate, and the bucket predicate when the date mode is a bucket.
// Sort directives skip the bucket predicate and reorder the surviving
// subset instead; ties keep original relative order.
func EvaluateRecords(cfg ViewConfig, state ViewState, records []Record, now time.Time) []Record {
	fold := cases.Fold()
	query := fold.String(state.Search)
	date := cfg.Date
	if date == nil {
		date = func(Record) time.Time { return time.Time{} }
	}

	visible := make([]Record, 0, len(records))
	for _, r := range records {
		if !matchesSearch(fold, cfg, r, query) {
			continue
		}
		if !matchesCriteria(fold, cfg, r, state.Criteria) {
			continue
		}
		if state.DateMode.IsBucket() && !state.DateMode.Matches(date(r), now) {
			continue
		}
		visible = append(visible, r)
	}

	switch state.DateMode {
	case SortNewest:
		sort.SliceStable(visible, func(i, j int) bool {
			return date(visible[i]).After(date(visible[j]))
		})
	case SortOldest:
		sort.SliceStable(visible, func(i, j int) bool {
			return date(visible[i]).Before(date(visible[j]))
		})
	}
	return visible
}

func matchesSearch(fold cases.Caser, cfg ViewConfig, r Record, query string) bool {
	if query == "" {
		return true
	}
	for _, name := range cfg.Searchable {
		accessor := cfg.Fields[name]
		if accessor == nil {
			continue
		}
		if containsFold(fold, accessor(r), query) {
			return true
		}
	}
	return false
}

func matchesCriteria(fold cases.Caser, cfg ViewConfig, r Record, criteria map[string]string) bool {
	for field, value := range criteria {
		if value == "" || value == "all" {
			continue
		}
		accessor, ok := cfg.Fields[field]
		if !ok {
			continue
		}
		if fold.String(accessor(r)) != fold.String(value) {
			return false
		}
	}
	return true
}

func containsFold(fold cases.Caser, haystack, foldedNeedle string) bool {
	return strings.Contains(fold.String(haystack), foldedNeedle)
}
