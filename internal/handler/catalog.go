package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modelhub/portal/internal/catalog"
	"github.com/modelhub/portal/internal/model"
)

// Catalog is the read-only marketplace listing.
type Catalog interface {
	Landing() model.Landing
	Models(q catalog.Query) []model.CatalogModel
	Model(id string) (*model.CatalogModel, error)
	ModelDocs(id string) (*model.ModelAPIDoc, error)
	Datasets(q catalog.Query) []model.Dataset
	Dataset(id string) (*model.Dataset, error)
	Categories() []string
}

// CatalogHandler serves the public landing and catalog pages.
type CatalogHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

// ModelList is the catalog models page.
type ModelList struct {
	Models     []model.CatalogModel `json:"models"`
	Total      int                  `json:"total"`
	Categories []string             `json:"categories"`
}

// DatasetList is the catalog datasets page.
type DatasetList struct {
	Datasets   []model.Dataset `json:"datasets"`
	Total      int             `json:"total"`
	Categories []string        `json:"categories"`
}

// Landing handles GET /
func (h *CatalogHandler) Landing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Landing())
}

// ListModels handles GET /api/v1/catalog/models
func (h *CatalogHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models := h.catalog.Models(parseCatalogQuery(r))
	writeJSON(w, http.StatusOK, ModelList{
		Models:     models,
		Total:      len(models),
		Categories: h.catalog.Categories(),
	})
}

// GetModel handles GET /api/v1/catalog/models/{id}
func (h *CatalogHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.Model(chi.URLParam(r, "id"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ModelDocs handles GET /api/v1/catalog/models/{id}/docs
func (h *CatalogHandler) ModelDocs(w http.ResponseWriter, r *http.Request) {
	docs, err := h.catalog.ModelDocs(chi.URLParam(r, "id"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// ListDatasets handles GET /api/v1/catalog/datasets
func (h *CatalogHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := h.catalog.Datasets(parseCatalogQuery(r))
	writeJSON(w, http.StatusOK, DatasetList{
		Datasets:   datasets,
		Total:      len(datasets),
		Categories: h.catalog.Categories(),
	})
}

// GetDataset handles GET /api/v1/catalog/datasets/{id}
func (h *CatalogHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.Dataset(chi.URLParam(r, "id"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *CatalogHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found in the catalog")
		return
	}
	writeInternalError(w, r, h.logger, "catalog lookup", err)
}

func parseCatalogQuery(r *http.Request) catalog.Query {
	q := r.URL.Query()
	return catalog.Query{
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Text:     q.Get("q"),
	}
}
