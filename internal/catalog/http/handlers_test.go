package cataloghttp

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/catalog"
)

type mappingKey struct {
	catalogID   int64
	componentID int64
}

type mockStore struct {
	catalogs map[int64]int64 // companyID -> catalogID
	owners   map[int64]int64 // accountID -> catalogID
	mappings map[mappingKey]*int64
	defs     []catalog.RatioDefinition
}

func (m *mockStore) Definitions(context.Context) ([]catalog.RatioDefinition, error) {
	return m.defs, nil
}

func (m *mockStore) Definition(_ context.Context, ratioID int64) (catalog.RatioDefinition, error) {
	for _, d := range m.defs {
		if d.ID == ratioID {
			return d, nil
		}
	}
	return catalog.RatioDefinition{}, catalog.ErrNotFound
}

func (m *mockStore) CatalogID(_ context.Context, companyID int64) (int64, error) {
	id, ok := m.catalogs[companyID]
	if !ok {
		return 0, catalog.ErrNoCatalog
	}
	return id, nil
}

func (m *mockStore) UpsertMapping(_ context.Context, catalogID, componentID int64, accountID *int64) error {
	if accountID != nil {
		owner, ok := m.owners[*accountID]
		if !ok {
			return catalog.ErrNotFound
		}
		if owner != catalogID {
			return catalog.ErrForeignAccount
		}
	}
	if m.mappings == nil {
		m.mappings = map[mappingKey]*int64{}
	}
	m.mappings[mappingKey{catalogID, componentID}] = accountID
	return nil
}

func newTestRouter(store *mockStore) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), store)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func putMapping(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/mappings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpsertMappingBindsAccount(t *testing.T) {
	store := &mockStore{
		catalogs: map[int64]int64{10: 100},
		owners:   map[int64]int64{7: 100},
	}
	rec := putMapping(t, newTestRouter(store), `{"company_id":10,"component_id":3,"account_id":7}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	bound := store.mappings[mappingKey{100, 3}]
	require.NotNil(t, bound)
	assert.Equal(t, int64(7), *bound)
}

func TestUpsertMappingAllowsUnmapped(t *testing.T) {
	store := &mockStore{catalogs: map[int64]int64{10: 100}}
	rec := putMapping(t, newTestRouter(store), `{"company_id":10,"component_id":3,"account_id":null}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	key := mappingKey{100, 3}
	_, exists := store.mappings[key]
	assert.True(t, exists)
	assert.Nil(t, store.mappings[key])
}

func TestUpsertMappingRejectsForeignAccount(t *testing.T) {
	store := &mockStore{
		catalogs: map[int64]int64{10: 100},
		owners:   map[int64]int64{7: 999},
	}
	rec := putMapping(t, newTestRouter(store), `{"company_id":10,"component_id":3,"account_id":7}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, store.mappings)
}

func TestUpsertMappingWithoutCatalog(t *testing.T) {
	store := &mockStore{catalogs: map[int64]int64{}}
	rec := putMapping(t, newTestRouter(store), `{"company_id":10,"component_id":3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpsertMappingValidation(t *testing.T) {
	store := &mockStore{catalogs: map[int64]int64{10: 100}}
	rec := putMapping(t, newTestRouter(store), `{"company_id":0,"component_id":3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, store.mappings)
}

func TestGetDefinitionNotFound(t *testing.T) {
	router := newTestRouter(&mockStore{})
	req := httptest.NewRequest(http.MethodGet, "/ratios/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
