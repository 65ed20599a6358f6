package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// xlsxContentType is the media type of downloaded workbooks.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type healthResponse struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
}

type sheetResponse struct {
	Name   string   `json:"name"`
	Source string   `json:"source"`
	Metric bool     `json:"metric"`
	Codes  []string `json:"codes,omitempty"`
}

// handleHealth reports liveness and whether an export is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Running: s.runner.Running(),
	})
}

// handleListSheets returns the workbook sheets in export order.
func (s *Server) handleListSheets(w http.ResponseWriter, r *http.Request) {
	defs := s.runner.Sheets()
	out := make([]sheetResponse, len(defs))
	for i, def := range defs {
		out[i] = sheetResponse{Name: def.Name, Source: def.Source, Metric: def.Metric}
		for _, c := range def.Codes {
			out[i].Codes = append(out[i].Codes, c.Column)
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleRunExport runs the pipeline and returns the run summary.
// The run is detached from client cancellation.
func (s *Server) handleRunExport(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.Run(context.WithoutCancel(r.Context()))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusCreated, result)
}

// handleListExports lists workbooks in the output directory, newest first.
func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.List()
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, files)
}

// handleDownloadExport streams one workbook as an attachment.
func (s *Server) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	path, err := s.store.Path(name)
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
	http.ServeFile(w, r, path)
}
