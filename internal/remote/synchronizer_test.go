package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslink/campuslink/internal/listing"
)

func pageBody(page, total int) string {
	return fmt.Sprintf(`{
		"success": true,
		"items": [{"id": "org-%d", "name": "Org %d", "status": "active", "archived_at": "2024-03-10"}],
		"pagination": {"total_count": %d, "current_page": %d, "num_pages": 3, "has_previous": %t, "has_next": true, "start_index": 1, "end_index": 10}
	}`, page, page, total, page, page > 1)
}

func TestLoadReplacesPageWholesale(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.Equal(t, "alpha", r.URL.Query().Get("search"))
		assert.Equal(t, "academic", r.URL.Query().Get("category"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(pageBody(1, 25)))
	}))
	defer server.Close()

	syncr := NewSynchronizer(server.URL, nil)
	state := listing.ViewState{
		Search:   "alpha",
		Criteria: map[string]string{"category": "academic", "status": "all"},
	}
	require.NoError(t, syncr.Load(context.Background(), state, 1))

	page, phase, errMsg := syncr.Snapshot()
	assert.Equal(t, StateIdle, phase)
	assert.Empty(t, errMsg)
	assert.Equal(t, 25, page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "org-1", page.Items[0].ID)
	assert.Equal(t, "Org 1", page.Items[0].Field("name"))
	assert.Equal(t, 2024, page.Items[0].Date.Year())
}

func TestStaleResponseNeverWinsOverNewerRequest(t *testing.T) {
	firstStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "" {
			close(firstStarted)
			select {
			case <-releaseFirst:
			case <-r.Context().Done():
				return
			}
			_, _ = w.Write([]byte(pageBody(1, 25)))
			return
		}
		_, _ = w.Write([]byte(pageBody(2, 25)))
	}))
	defer server.Close()

	syncr := NewSynchronizer(server.URL, nil)
	state := listing.ViewState{}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = syncr.Load(context.Background(), state, 1)
	}()
	<-firstStarted

	require.NoError(t, syncr.Load(context.Background(), state, 2))
	close(releaseFirst)
	wg.Wait()

	page, _, errMsg := syncr.Snapshot()
	assert.Equal(t, 2, page.CurrentPage)
	assert.Empty(t, errMsg)
}

func TestMalformedResponseKeepsPreviousPage(t *testing.T) {
	malformed := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if malformed {
			_, _ = w.Write([]byte(`{"items": []}`))
			return
		}
		_, _ = w.Write([]byte(pageBody(1, 25)))
	}))
	defer server.Close()

	syncr := NewSynchronizer(server.URL, nil)
	require.NoError(t, syncr.Load(context.Background(), listing.ViewState{}, 1))

	malformed = true
	err := syncr.Load(context.Background(), listing.ViewState{}, 2)
	require.ErrorIs(t, err, ErrUnableToLoad)

	page, phase, errMsg := syncr.Snapshot()
	assert.Equal(t, StateIdle, phase)
	assert.Equal(t, ErrUnableToLoad.Error(), errMsg)
	assert.Equal(t, 1, page.CurrentPage, "previous page must survive a bad response")
}

func TestServerErrorSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	syncr := NewSynchronizer(server.URL, nil)
	err := syncr.Load(context.Background(), listing.ViewState{}, 1)
	require.ErrorIs(t, err, ErrUnableToLoad)

	_, _, errMsg := syncr.Snapshot()
	assert.NotEmpty(t, errMsg)
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []string
}

func (h *fakeHistory) Push(query string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, query)
}

func TestGoToPagePushesHistoryThenLoads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pageBody(2, 25)))
	}))
	defer server.Close()

	history := &fakeHistory{}
	syncr := NewSynchronizer(server.URL, nil, WithHistory(history))
	state := listing.ViewState{Search: "chess", Criteria: map[string]string{"status": "active"}}
	require.NoError(t, syncr.Load(context.Background(), state, 1))

	require.NoError(t, syncr.GoToPage(context.Background(), 2))

	require.Len(t, history.entries, 1)
	assert.Equal(t, "page=2&search=chess&status=active", history.entries[0])
	page, _, _ := syncr.Snapshot()
	assert.Equal(t, 2, page.CurrentPage)
}

func TestScheduleDebouncesBursts(t *testing.T) {
	var mu sync.Mutex
	searches := []string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		searches = append(searches, r.URL.Query().Get("search"))
		mu.Unlock()
		_, _ = w.Write([]byte(pageBody(1, 25)))
	}))
	defer server.Close()

	syncr := NewSynchronizer(server.URL, nil, WithDebounce(20*time.Millisecond))
	for _, text := range []string{"c", "ch", "che", "chess"} {
		syncr.Schedule(listing.ViewState{Search: text}, 1)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(searches) == 1 && searches[0] == "chess"
	}, time.Second, 5*time.Millisecond)
}

func TestInvalidateDropsPendingWork(t *testing.T) {
	requests := make(chan struct{}, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- struct{}{}
		_, _ = w.Write([]byte(pageBody(1, 25)))
	}))
	defer server.Close()

	syncr := NewSynchronizer(server.URL, nil, WithDebounce(20*time.Millisecond))
	syncr.Schedule(listing.ViewState{Search: "chess"}, 1)
	syncr.Invalidate()

	select {
	case <-requests:
		t.Fatal("invalidated schedule still issued a request")
	case <-time.After(80 * time.Millisecond):
	}
	_, phase, _ := syncr.Snapshot()
	assert.Equal(t, StateIdle, phase)
}

func TestQuerySkipsDisabledCriteria(t *testing.T) {
	state := listing.ViewState{
		Search:   "a b",
		Criteria: map[string]string{"status": "all", "category": ""},
		DateMode: listing.DateWeek,
	}
	assert.Equal(t, "date=week&search=a+b", Query(state, 1))
	assert.Equal(t, "", Query(listing.ViewState{}, 1))
}

func TestDefaultMapperCoercesScalars(t *testing.T) {
	mapper := DefaultMapper("created_at")
	record := mapper(map[string]any{
		"id":         float64(42),
		"name":       "Chess Guild",
		"active":     true,
		"note":       nil,
		"created_at": "2023-06-01",
	})
	assert.Equal(t, "42", record.ID)
	assert.Equal(t, "Chess Guild", record.Field("name"))
	assert.Equal(t, "true", record.Field("active"))
	assert.Equal(t, "", record.Field("note"))
	assert.Equal(t, 2023, record.Date.Year())
}
