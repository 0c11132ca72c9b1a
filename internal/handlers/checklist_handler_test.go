package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/models"
)

type fakeChecklistStore struct {
	checklist  *models.Checklist
	loadErr    error
	replaceErr error

	replacedRegion  models.Region
	replacedContent []byte
}

func (f *fakeChecklistStore) Load(region models.Region) (*models.Checklist, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.checklist, nil
}

func (f *fakeChecklistStore) Replace(region models.Region, content []byte) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replacedRegion = region
	f.replacedContent = content
	return nil
}

func (f *fakeChecklistStore) Path(region models.Region) string {
	return "/app/checklists/" + strings.ToLower(string(region)) + "_checklist.json"
}

func TestHandleChecklistRoutes_Get(t *testing.T) {
	store := &fakeChecklistStore{checklist: &models.Checklist{
		Version: "1.2.0",
		Region:  models.RegionAU,
		Categories: map[string]models.ChecklistCategory{
			"header": {Name: "Header Checks"},
		},
	}}
	h := NewChecklistHandler(store, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/checklist/au", nil)
	rec := httptest.NewRecorder()
	h.HandleChecklistRoutes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.0"`)
	assert.Contains(t, rec.Body.String(), `"region":"AU"`)
}

func TestHandleChecklistRoutes_GetMissing(t *testing.T) {
	store := &fakeChecklistStore{loadErr: errors.New("open au_checklist.json: no such file")}
	h := NewChecklistHandler(store, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/checklist/AU", nil)
	rec := httptest.NewRecorder()
	h.HandleChecklistRoutes(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "checklist not available")
}

func TestHandleChecklistRoutes_Put(t *testing.T) {
	store := &fakeChecklistStore{}
	h := NewChecklistHandler(store, arbor.NewLogger())

	body := `{"version":"2.0.0","region":"NZ","categories":{}}`
	req := httptest.NewRequest("PUT", "/api/checklist/nz", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleChecklistRoutes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RegionNZ, store.replacedRegion)
	assert.Equal(t, body, string(store.replacedContent))
	assert.Contains(t, rec.Body.String(), "replaced")
}

func TestHandleChecklistRoutes_PutRejected(t *testing.T) {
	store := &fakeChecklistStore{replaceErr: errors.New("region mismatch: checklist declares AU")}
	h := NewChecklistHandler(store, arbor.NewLogger())

	req := httptest.NewRequest("PUT", "/api/checklist/nz", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	h.HandleChecklistRoutes(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "checklist rejected")
}

func TestHandleChecklistRoutes_InvalidRegion(t *testing.T) {
	h := NewChecklistHandler(&fakeChecklistStore{}, arbor.NewLogger())

	req := httptest.NewRequest("GET", "/api/checklist/uk", nil)
	rec := httptest.NewRecorder()
	h.HandleChecklistRoutes(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported region")
}

func TestHandleChecklistRoutes_BadPath(t *testing.T) {
	h := NewChecklistHandler(&fakeChecklistStore{}, arbor.NewLogger())

	for _, path := range []string{"/api/checklist/", "/api/checklist/au/extra"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		h.HandleChecklistRoutes(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestHandleChecklistRoutes_MethodNotAllowed(t *testing.T) {
	h := NewChecklistHandler(&fakeChecklistStore{}, arbor.NewLogger())

	req := httptest.NewRequest("DELETE", "/api/checklist/au", nil)
	rec := httptest.NewRecorder()
	h.HandleChecklistRoutes(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
