package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"datalens/domain/core"
	"datalens/domain/profile"
	"datalens/internal/errors"
	"datalens/ports"
)

const maxUploadBytes = 64 << 20

// handleUpload accepts a multipart upload under the "file" field and
// registers the parsed dataset. CSV, Excel and JSON are dispatched on the
// file extension.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, errors.InvalidInput("invalid multipart form: "+err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.InvalidInput("missing 'file' field"))
		return
	}
	defer file.Close()

	var loader ports.DatasetLoader = s.fileReader
	if strings.ToLower(filepath.Ext(header.Filename)) == ".json" {
		loader = s.jsonReader
	}

	ds, err := loader.Load(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	s.store.Put(ds)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      ds.ID,
		"name":    ds.Name,
		"rows":    ds.Rows(),
		"columns": ds.ColumnNames(),
	})
}

type sqlImportRequest struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

// handleSQLImport runs a read-only query against the configured database and
// registers the result set as a dataset.
func (s *Server) handleSQLImport(w http.ResponseWriter, r *http.Request) {
	if s.sqlReader == nil {
		writeError(w, errors.InvalidInput("no database configured; set DATABASE_URL"))
		return
	}

	var req sqlImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, errors.InvalidInput("query is required"))
		return
	}
	if req.Name == "" {
		req.Name = "query_result"
	}

	ds, err := s.sqlReader.Query(r.Context(), req.Name, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	s.store.Put(ds)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":      ds.ID,
		"name":    ds.Name,
		"rows":    ds.Rows(),
		"columns": ds.ColumnNames(),
	})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"datasets": s.store.List()})
}

// handleOverview returns the lightweight per-column summary shown before a
// full profile has been run.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(core.DatasetID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	ds := entry.Dataset

	type columnOverview struct {
		Name     string            `json:"name"`
		DType    profile.ValueType `json:"dtype"`
		Nulls    int               `json:"nulls"`
		Distinct int               `json:"distinct"`
	}

	overview := make([]columnOverview, len(ds.Columns))
	totalNulls, totalDistinct := 0, 0
	for i := range ds.Columns {
		col := &ds.Columns[i]
		overview[i] = columnOverview{
			Name:     col.Name,
			DType:    col.Type,
			Nulls:    col.NullCount(),
			Distinct: col.DistinctNonNull(),
		}
		totalNulls += overview[i].Nulls
		totalDistinct += overview[i].Distinct
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":             ds.ID,
		"name":           ds.Name,
		"rows":           ds.Rows(),
		"columns":        len(ds.Columns),
		"total_nulls":    totalNulls,
		"total_distinct": totalDistinct,
		"columns_detail": overview,
		"profiled":       entry.Profile != nil,
	})
}

// handleProfile runs the profiling engine. Concurrent runs are capped by the
// server semaphore; waiting respects the request context.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	id := core.DatasetID(chi.URLParam(r, "id"))
	entry, err := s.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, errors.Wrapf(err, "profiling queue wait cancelled for dataset %s", id))
		return
	}
	defer s.sem.Release(1)

	prof, err := s.profiler.ProfileDataset(r.Context(), entry.Dataset)
	if err != nil {
		writeError(w, errors.ProfileError("profiling failed", err))
		return
	}
	if err := s.store.SetProfile(id, prof); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prof)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(core.DatasetID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	if entry.Profile == nil {
		writeError(w, errors.NotFound("profile for dataset "+chi.URLParam(r, "id")))
		return
	}
	writeJSON(w, http.StatusOK, entry.Profile)
}

// handleExportProfile streams the column overview as a downloadable JSON
// document.
func (s *Server) handleExportProfile(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(core.DatasetID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	if entry.Profile == nil {
		writeError(w, errors.NotFound("profile for dataset "+chi.URLParam(r, "id")))
		return
	}

	data, err := entry.Profile.ExportJSON()
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to export profile"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", entry.Dataset.Name+"_profile.json"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleColumnRules generates the single-dataset rule list for one column.
func (s *Server) handleColumnRules(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(core.DatasetID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}

	colName := chi.URLParam(r, "column")
	col, ok := entry.Dataset.Column(colName)
	if !ok {
		writeError(w, errors.NotFound("column "+colName))
		return
	}

	writeJSON(w, http.StatusOK, s.rules.GenerateRules(col))
}

type referenceRulesRequest struct {
	ReferenceID string                   `json:"reference_id"`
	Mapping     profile.ReferenceMapping `json:"mapping"`
}

// handleReferenceRules derives rules for the mapped columns of a target
// dataset against a previously uploaded reference dataset.
func (s *Server) handleReferenceRules(w http.ResponseWriter, r *http.Request) {
	target, err := s.store.Get(core.DatasetID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}

	var req referenceRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	if req.ReferenceID == "" {
		writeError(w, errors.InvalidInput("reference_id is required"))
		return
	}
	if len(req.Mapping) == 0 {
		writeError(w, errors.InvalidInput("mapping must include at least one column"))
		return
	}

	reference, err := s.store.Get(core.DatasetID(req.ReferenceID))
	if err != nil {
		writeError(w, err)
		return
	}

	ruleSets := s.refRules.DeriveForMapping(target.Dataset, reference.Dataset, req.Mapping)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"target_id":    target.Dataset.ID,
		"reference_id": reference.Dataset.ID,
		"rule_sets":    ruleSets,
	})
}

type chatRequest struct {
	Question string `json:"question"`
}

// handleChat answers a natural-language question about the dataset. The
// answer comes back twice, as markdown text and rendered HTML.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.Get(core.DatasetID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, errors.InvalidInput("question is required"))
		return
	}

	answer := s.agent.Ask(r.Context(), req.Question, entry.Dataset, entry.Profile)
	writeJSON(w, http.StatusOK, map[string]string{
		"answer":      answer,
		"answer_html": renderMarkdown(answer),
	})
}

// renderMarkdown converts a markdown answer to HTML. Parsers are stateful,
// so each call builds fresh ones.
func renderMarkdown(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}
