package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/nem12ingest/internal/core"
	"github.com/JonMunkholm/nem12ingest/internal/export"
	"github.com/JonMunkholm/nem12ingest/internal/store"
	"github.com/JonMunkholm/nem12ingest/internal/web/templates"
)

// multipartOverhead is added to the file size limit for form boundaries and
// headers.
const multipartOverhead = 1 << 20

var errNoFile = errors.New("no file provided")

// handleIngest streams the multipart "file" part straight into the parser.
// The body is never buffered to disk.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Ingest.MaxFileSize+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			s.respondError(w, r, errNoFile, http.StatusBadRequest)
			return
		}
		if err != nil {
			s.respondError(w, r, fmt.Errorf("read upload: %w", err), statusOrBadRequest(err))
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		fileName := part.FileName()
		if fileName == "" {
			part.Close()
			s.respondError(w, r, errNoFile, http.StatusBadRequest)
			return
		}

		result, err := s.service.IngestStream(r.Context(), fileName, part, -1)
		part.Close()
		s.writeIngestResult(w, r, result, err)
		return
	}
}

// writeIngestResult reports an ingest. A failed run still returns its result
// so the client gets the run id.
func (s *Server) writeIngestResult(w http.ResponseWriter, r *http.Request, result *core.IngestResult, err error) {
	if err == nil {
		writeJSONStatus(w, http.StatusCreated, result)
		return
	}
	if result == nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	status := statusFor(err)
	resp := newErrorResponse(err)
	s.logRequestError(r, err, status, resp.Code)
	writeJSONStatus(w, status, struct {
		*core.IngestResult
		ErrorDetail ErrorResponse `json:"error_detail"`
	}{result, resp})
}

// handleListRuns returns recent runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r, store.DefaultRunLimit)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	runs, err := s.service.ListRuns(r.Context(), limit, offset)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, runs)
}

// handleGetRun returns one run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}

	run, err := s.service.GetRun(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, run)
}

// handleRunErrors returns a page of a run's error events.
func (s *Server) handleRunErrors(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}
	limit, offset, err := pageParams(r, maxPageSize)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	rows, err := s.service.ListRunErrors(r.Context(), id, limit, offset)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if rows == nil {
		rows = []store.ErrorRow{}
	}
	writeJSON(w, rows)
}

// handleRunErrorsXLSX downloads the run audit and every error event as a
// workbook.
func (s *Server) handleRunErrorsXLSX(w http.ResponseWriter, r *http.Request) {
	id, ok := s.runID(w, r)
	if !ok {
		return
	}

	run, err := s.service.GetRun(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	rows, err := s.service.ListRunErrors(r.Context(), id, 0, 0)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRun(&buf, run, rows); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(run)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.logRequestError(r, err, http.StatusOK, "")
	}
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Health(r.Context()); err != nil {
		s.logRequestError(r, err, http.StatusServiceUnavailable, "")
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleStatus returns ingest slot usage.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.LimiterStatus())
}

type formatResponse struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Extensions []string `json:"extensions"`
}

// handleListFormats returns the accepted file formats.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	defs := s.service.Formats()
	out := make([]formatResponse, len(defs))
	for i, def := range defs {
		out[i] = formatResponse{Key: def.Key, Label: def.Label, Extensions: def.Extensions}
	}
	writeJSON(w, out)
}

// handleDashboard renders recent runs and an upload form.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := templates.DashboardData{
		Formats: s.service.Formats(),
		Status:  s.service.LimiterStatus(),
	}

	runs, err := s.service.ListRuns(r.Context(), 20, 0)
	if err != nil {
		s.logRequestError(r, err, http.StatusOK, "")
		data.Notice = newErrorResponse(err).Message
	}
	data.Runs = runs

	if err := templates.Dashboard(data).Render(r.Context(), w); err != nil {
		s.logRequestError(r, err, http.StatusOK, "")
	}
}

// runID parses the {runID} path parameter, answering 400 when malformed.
func (s *Server) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("invalid run id: %w", err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
