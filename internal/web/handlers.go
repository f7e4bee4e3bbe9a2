package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/dbroute/internal/core"
	"github.com/JonMunkholm/dbroute/internal/normalize"
	"github.com/JonMunkholm/dbroute/internal/web/templates"
)

// maxRowErrors caps the row errors echoed back in a response.
const maxRowErrors = 100

// multipartMemory is the part of a form kept in memory before spilling
// to temp files.
const multipartMemory = 32 << 20

// IngestResponse is the JSON body of a finished ingest.
type IngestResponse struct {
	*core.Outcome
	RowErrors []RowErrorResponse `json:"row_errors,omitempty"`
	Truncated bool               `json:"row_errors_truncated,omitempty"`
}

// RowErrorResponse is one rejected row.
type RowErrorResponse struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

func newIngestResponse(o *core.Outcome) IngestResponse {
	resp := IngestResponse{Outcome: o}
	for i, re := range o.Errors {
		if i == maxRowErrors {
			resp.Truncated = true
			break
		}
		resp.RowErrors = append(resp.RowErrors, RowErrorResponse{Row: re.Row, Error: re.Err.Error()})
	}
	return resp
}

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, formValue(r, "db_type"), templates.Flash{})
}

// handleUpload accepts the form post and answers with the page plus a
// result banner, or with JSON when the client asks for it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.ingest(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, newIngestResponse(outcome))
		return
	}

	flash := templates.Flash{Kind: "success", Message: outcome.Message}
	if outcome.Failed > 0 {
		flash.Kind = "warning"
	}
	s.renderPage(w, r, http.StatusOK, formValue(r, "db_type"), flash)
}

// handleAPIIngest is the JSON form of handleUpload.
func (s *Server) handleAPIIngest(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.ingest(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, newIngestResponse(outcome))
}

// handleTargets lists the stores and whether each one is configured.
func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"targets": s.service.Targets(r.Context())})
}

// handleHealth reports liveness and ingest slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"limiter": s.service.LimiterStatus(),
	})
}

// ingest reads the multipart request and runs it through the service.
func (s *Server) ingest(w http.ResponseWriter, r *http.Request) (*core.Outcome, error) {
	req, err := s.readIngestRequest(w, r)
	if err != nil {
		return nil, err
	}
	return s.service.Ingest(withClient(r.Context(), r), req)
}

// readIngestRequest parses the form fields file, db_type, table_name and
// the optional format override.
func (s *Server) readIngestRequest(w http.ResponseWriter, r *http.Request) (core.Request, error) {
	var req core.Request

	// Leave headroom for the other fields and the multipart framing
	if limit := s.cfg.Upload.MaxFileSize; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return req, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, mbe.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return req, errNoFile
		}
		return req, fmt.Errorf("parse form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, errNoFile
		}
		return req, fmt.Errorf("read form file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return req, fmt.Errorf("read upload: %w", err)
	}

	req = core.Request{
		FileName: header.Filename,
		Data:     data,
		Target:   r.FormValue("db_type"),
		Name:     r.FormValue("table_name"),
	}
	if f := r.FormValue("format"); f != "" {
		kind, err := normalize.ParseSourceKind(f)
		if err != nil {
			return req, err
		}
		req.SourceKind = kind
	}
	return req, nil
}

// renderPage writes the upload page with the given banner.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, selected string, flash templates.Flash) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := templates.UploadPage(s.targetOptions(r.Context()), selected, flash)
	if err := page.Render(r.Context(), w); err != nil {
		slog.Error("render page", "error", err)
	}
}

// targetOptions builds the target picker from the service's store list.
func (s *Server) targetOptions(ctx context.Context) []templates.Option {
	infos := s.service.Targets(ctx)
	opts := make([]templates.Option, 0, len(infos))
	for _, info := range infos {
		if !info.Available {
			continue
		}
		opts = append(opts, templates.Option{Value: info.Label, Label: info.Label, Configured: info.Configured})
	}
	return opts
}

// formValue reads an already parsed form field without triggering a
// body read.
func formValue(r *http.Request, key string) string {
	if r.MultipartForm != nil {
		if v := r.MultipartForm.Value[key]; len(v) > 0 {
			return v[0]
		}
	}
	return r.URL.Query().Get(key)
}
