package web

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/unfold/internal/core"
	"github.com/JonMunkholm/unfold/internal/logging"
	"github.com/JonMunkholm/unfold/internal/web/templates"
)

const unfoldIDHeader = "X-Unfold-ID"

const (
	formatCSV  = "csv"
	formatJSON = "json"
	formatHTML = "html"
)

// unfoldResponse is the JSON rendering of a result.
type unfoldResponse struct {
	ID     string     `json:"id"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Groups int        `json:"groups"`
	Width  int        `json:"width"`
}

// unfoldParams are read from the query string:
//
//	POST /api/unfold?pivot=question&payload=answer&constant=questionType&names=userId&filler=NA
type unfoldParams struct {
	pivot     string
	payload   string
	constants []string
	names     string
	filler    string
}

func (s *Server) parseUnfoldParams(r *http.Request) unfoldParams {
	q := r.URL.Query()
	p := unfoldParams{
		pivot:     q.Get("pivot"),
		payload:   q.Get("payload"),
		constants: q["constant"],
		names:     q.Get("names"),
		filler:    s.cfg.Unfold.Filler,
	}
	if q.Has("filler") {
		p.filler = q.Get("filler")
	}
	return p
}

func (p unfoldParams) options() []core.Option {
	opts := []core.Option{core.WithFiller(p.filler), core.WithSink(core.ToSequence())}
	if len(p.constants) > 0 {
		opts = append(opts, core.WithConstantColumns(p.constants...))
	}
	if p.names != "" {
		opts = append(opts, core.WithNewColumnNamesFrom(p.names))
	}
	return opts
}

// handleUnfold runs one unfold job over the uploaded table.
// The table is either the "file" part of a multipart form or the raw body.
func (s *Server) handleUnfold(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set(unfoldIDHeader, id)

	ctx := r.Context()
	logger := logging.WithFields(ctx, "unfold_id", id)
	params := s.parseUnfoldParams(r)

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Unfold.MaxUploadSize)
	body, err := uploadBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger.Info("unfold started", "pivot", params.pivot, "payload", params.payload,
		"constants", params.constants, "names", params.names)

	res, err := core.Unfold(ctx, core.FromReader(body), params.pivot, params.payload, params.options()...)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	records := res.Rows.Collect()
	header, rows := records[0], records[1:]
	logger.Info("unfold finished", "groups", res.Groups, "width", res.PayloadWidth,
		"rows_read", res.RowsRead, "bytes_read", res.BytesRead)

	switch responseFormat(r) {
	case formatJSON:
		writeJSON(w, http.StatusOK, unfoldResponse{
			ID:     id,
			Header: header,
			Rows:   rows,
			Groups: res.Groups,
			Width:  res.PayloadWidth,
		})
	case formatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ResultTable(id, header, rows).Render(ctx, w); err != nil {
			logger.Error("render result table", "error", err)
		}
	default:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="unfolded.csv"`)
		if err := core.WriteCSV(w, header, rows); err != nil {
			logger.Error("write csv response", "error", err)
		}
	}
}

// uploadBody returns the table stream: the "file" part of a multipart form,
// or the request body for any other content type.
func uploadBody(r *http.Request) (io.Reader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, &core.ArgumentError{Param: "file", Reason: err.Error()}
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, &core.ArgumentError{Param: "file", Reason: `multipart form has no "file" part`}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read multipart form: %w", core.ErrInvalidArgument, err)
		}
		if part.FormName() == "file" {
			return part, nil
		}
	}
}

// responseFormat negotiates on Accept. CSV is the default; HTMX requests
// get HTML fragments.
func responseFormat(r *http.Request) string {
	accept := r.Header.Get("Accept")
	switch {
	case strings.Contains(accept, "application/json"):
		return formatJSON
	case r.Header.Get("HX-Request") == "true", strings.Contains(accept, "text/html"):
		return formatHTML
	default:
		return formatCSV
	}
}
