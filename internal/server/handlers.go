package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/matzehuels/quillribbon/pkg/archive"
	"github.com/matzehuels/quillribbon/pkg/buildinfo"
	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/pipeline"
	"github.com/matzehuels/quillribbon/pkg/ribbon"
	"github.com/matzehuels/quillribbon/pkg/scene"
	"github.com/matzehuels/quillribbon/pkg/sink"
)

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	opts, err := s.convertOptions(r.URL.Query())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	opts.Logger = s.logger.With("request_id", RequestID(r.Context()))

	data, err := s.readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), data, opts)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	format := opts.Formats[0]
	cacheStatus := "miss"
	if result.CacheInfo.GeometryHit {
		cacheStatus = "hit"
	}
	w.Header().Set("Content-Type", sink.ContentType(format))
	w.Header().Set(HeaderErrors, strconv.Itoa(len(result.Errors)))
	w.Header().Set(HeaderCache, cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	summary, err := s.runner.Inspect(r.Context(), data)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "dot"
	}
	if err := errors.ValidateOneOf("format", format, "dot", "svg"); err != nil {
		writeErr(w, r, err)
		return
	}
	detailed, err := boolParam(q, "detailed")
	if err != nil {
		writeErr(w, r, err)
		return
	}

	data, err := s.readBody(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	a, err := archive.Open(data)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	doc, err := scene.Parse(a.Metadata())
	if err != nil {
		writeErr(w, r, err)
		return
	}

	dot := scene.ToDOT(doc, scene.DOTOptions{Detailed: detailed})
	if format == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = io.WriteString(w, dot)
		return
	}
	svg, err := scene.RenderSVG(r.Context(), dot)
	if err != nil {
		writeErr(w, r, errors.Wrap(errors.ErrCodeInternal, err, "render scene"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// convertOptions applies query parameters on top of the server defaults.
func (s *Server) convertOptions(q url.Values) (pipeline.Options, error) {
	opts := s.defaults
	opts.Formats = []string{pipeline.DefaultFormat}
	if len(s.defaults.Formats) > 0 {
		opts.Formats = []string{s.defaults.Formats[0]}
	}
	if v := q.Get("format"); v != "" {
		opts.Formats = []string{v}
	}
	if v := q.Get("batch"); v != "" {
		opts.Build.Grouping = ribbon.Grouping(v)
	}
	if v := q.Get("orientation"); v != "" {
		opts.Build.Orientation = ribbon.Orientation(v)
	}
	if v := q.Get("primitive"); v != "" {
		opts.Build.Primitive = ribbon.Primitive(v)
	}
	if q.Has("half_width") {
		b, err := boolParam(q, "half_width")
		if err != nil {
			return opts, err
		}
		opts.Build.HalfWidth = b
	}
	refresh, err := boolParam(q, "refresh")
	if err != nil {
		return opts, err
	}
	opts.Refresh = refresh
	opts.Source = q.Get("source")
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// boolParam parses an optional boolean query parameter.
func boolParam(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidOption, "invalid %s: %q", name, v)
	}
	return b, nil
}

// readBody reads the request body up to the upload limit.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errTooLarge{limit: tooLarge.Limit}
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty request body")
	}
	return data, nil
}

type errTooLarge struct{ limit int64 }

func (e errTooLarge) Error() string {
	return "request body exceeds " + strconv.FormatInt(e.limit, 10) + " bytes"
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// writeErr maps err to a status code and writes it as JSON.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	writeError(w, r, status, code, errors.UserMessage(err))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     errorBody{Code: code, Message: msg},
		RequestID: RequestID(r.Context()),
	})
}

// classify returns the HTTP status and error code for err.
func classify(err error) (int, string) {
	var tooLarge errTooLarge
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE"
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "TIMEOUT"
	}
	if stderrors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable, "CANCELED"
	}

	code := errors.GetCode(err)
	switch {
	case code == "":
		return http.StatusInternalServerError, string(errors.ErrCodeInternal)
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest, string(code)
	}
	switch code {
	case errors.ErrCodeOutOfBounds, errors.ErrCodeMalformedOffset,
		errors.ErrCodeMissingField, errors.ErrCodeCorruptData:
		return http.StatusUnprocessableEntity, string(code)
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound, string(code)
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented, string(code)
	}
	return http.StatusInternalServerError, string(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}
