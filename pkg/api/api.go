// Package api exposes the read-only JSON surface under /v1: stored
// annotations, per-annotator progress, dataset stats and per-sentence
// coverage. The gateway requires a backend or admin key for these
// routes; handlers re-check the resolved role header.
package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"framelabel/pkg/dataset"
	"framelabel/pkg/logger"
	"framelabel/pkg/models"
	"framelabel/pkg/progress"
	"framelabel/pkg/store"
)

// Handlers serves the /v1 routes.
type Handlers struct {
	data *dataset.Catalog
	st   store.Store
}

func New(data *dataset.Catalog, st store.Store) *Handlers {
	return &Handlers{data: data, st: st}
}

// Register registers all /v1 routes to the provided router.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/v1/annotations", h.listAnnotations).Methods(http.MethodGet)
	r.HandleFunc("/v1/annotators/{id}/progress", h.annotatorProgress).Methods(http.MethodGet)
	r.HandleFunc("/v1/dataset/stats", h.datasetStats).Methods(http.MethodGet)
	r.HandleFunc("/v1/coverage", h.coverage).Methods(http.MethodGet)
	logger.Info("api_routes_registered")
}

// listAnnotations handles GET /v1/annotations. Optional query parameters:
//   - "annotator": keep only this annotator's records.
//   - "limit": keep only the most recent n records.
func (h *Handlers) listAnnotations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !authorized(r) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}

	anns, err := h.st.ListAll(r.Context())
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]models.Annotation, 0, len(anns))
	annotatorQ := r.URL.Query().Get("annotator")
	for _, a := range anns {
		if annotatorQ != "" && a.AnnotatorID != annotatorQ {
			continue
		}
		out = append(out, a)
	}

	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		if limit, err := strconv.Atoi(limStr); err == nil && limit >= 0 && limit < len(out) {
			out = out[len(out)-limit:]
		}
	}

	_ = json.NewEncoder(w).Encode(struct {
		Annotations []models.Annotation `json:"annotations"`
	}{Annotations: out})
}

// annotatorProgress handles GET /v1/annotators/{id}/progress. Done counts
// distinct sentence ids, so duplicate submissions do not inflate it.
func (h *Handlers) annotatorProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !authorized(r) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}

	vars := mux.Vars(r)
	idEnc, ok := vars["id"]
	if !ok {
		http.Error(w, `{"error":"missing annotator id"}`, http.StatusBadRequest)
		return
	}
	// URL path variables are not automatically unescaped by gorilla/mux,
	// so use PathUnescape to recover the original id string.
	id, err := url.PathUnescape(idEnc)
	if err != nil {
		http.Error(w, `{"error":"invalid annotator id encoding"}`, http.StatusBadRequest)
		return
	}

	p, err := progress.ForAnnotator(r.Context(), h.st, h.data, id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

// datasetStats handles GET /v1/dataset/stats.
func (h *Handlers) datasetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !authorized(r) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}

	idCol, textCol := h.data.Columns()
	_ = json.NewEncoder(w).Encode(struct {
		Sentences  int    `json:"sentences"`
		IDColumn   string `json:"id_column"`
		TextColumn string `json:"text_column"`
		Path       string `json:"path"`
	}{Sentences: h.data.Len(), IDColumn: idCol, TextColumn: textCol, Path: h.data.Path()})
}

// coverage handles GET /v1/coverage: how many records each dataset
// sentence has, in dataset order, including zeros.
func (h *Handlers) coverage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !authorized(r) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return
	}

	out, err := progress.Coverage(r.Context(), h.st, h.data)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(struct {
		Coverage []progress.SentenceCoverage `json:"coverage"`
	}{Coverage: out})
}

// authorized checks the role resolved by the gateway.
func authorized(r *http.Request) bool {
	role := r.Header.Get("X-Role-Name")
	return role == "admin" || role == "backend"
}
