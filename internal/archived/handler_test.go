package archived

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	records   map[int64]Detail
	retrieved []int64
}

func (s *stubStore) GetArchived(ctx context.Context, id int64) (Detail, error) {
	d, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *stubStore) Retrieve(ctx context.Context, actor string, id int64) error {
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	s.retrieved = append(s.retrieved, id)
	delete(s.records, id)
	return nil
}

func newTestRouter(t *testing.T, store *stubStore) http.Handler {
	t.Helper()
	svc := NewService()
	require.NoError(t, svc.RegisterStore("organization", store))
	handler := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/api/archived", handler.MountRoutes)
	return r
}

func TestDetailKeyedByTypeName(t *testing.T) {
	store := &stubStore{records: map[int64]Detail{7: {"name": "Chess Guild", "archived_at": "2024-01-05"}}}
	router := newTestRouter(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/archived/organization/7/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	org := body["organization"].(map[string]any)
	assert.Equal(t, "Chess Guild", org["name"])
}

func TestDetailUnknownTypeIs404(t *testing.T) {
	router := newTestRouter(t, &stubStore{records: map[int64]Detail{}})

	req := httptest.NewRequest(http.MethodGet, "/api/archived/scholarship/1/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestRetrieveRestoresRecord(t *testing.T) {
	store := &stubStore{records: map[int64]Detail{7: {"name": "Chess Guild"}}}
	router := newTestRouter(t, store)

	req := httptest.NewRequest(http.MethodPost, "/api/archived/organization/7/retrieve/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int64{7}, store.retrieved)

	// A second retrieve finds nothing to restore.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/archived/organization/7/retrieve/", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRegisterStoreRejectsDuplicates(t *testing.T) {
	svc := NewService()
	require.NoError(t, svc.RegisterStore("organization", &stubStore{}))
	assert.Error(t, svc.RegisterStore("organization", &stubStore{}))
	assert.Equal(t, []string{"organization"}, svc.Types())
}
