package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
	"github.com/kirillkom/virtual-tryon/internal/core/ports"
	"github.com/kirillkom/virtual-tryon/internal/observability/metrics"
)

const (
	defaultMaxUploadBytes = 20 << 20
	defaultMaxInFlight    = 32
	backpressureWait      = 250 * time.Millisecond
	busyRetryAfterSeconds = "2"
)

type RouterOptions struct {
	MaxUploadBytes int64
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	// Metrics, when set, instruments every request and serves /metrics.
	Metrics *metrics.HTTPServerMetrics
	Service string
}

// Router exposes the single try-on session over HTTP.
type Router struct {
	session ports.TryOnSession
	catalog ports.CatalogReader
	results ports.ResultImageStore
	opts    RouterOptions

	savedMu  sync.Mutex
	savedRef string
}

func NewRouter(
	session ports.TryOnSession,
	catalog ports.CatalogReader,
	results ports.ResultImageStore,
	opts RouterOptions,
) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = defaultMaxInFlight
	}
	if opts.Service == "" {
		opts.Service = "tryon-api"
	}
	return &Router{
		session: session,
		catalog: catalog,
		results: results,
		opts:    opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /v1/catalog", rt.listCatalog)
	mux.HandleFunc("GET /v1/session", rt.getSession)
	mux.HandleFunc("POST /v1/session/subject", rt.uploadSubject)
	mux.HandleFunc("POST /v1/session/garment", rt.uploadGarment)
	mux.HandleFunc("POST /v1/session/garment/catalog", rt.selectCatalogGarment)
	mux.HandleFunc("POST /v1/session/tryon", rt.tryOn)
	mux.HandleFunc("POST /v1/session/feedback", rt.requestFeedback)
	mux.HandleFunc("POST /v1/session/reset", rt.reset)
	mux.HandleFunc("GET /v1/session/result/image", rt.resultImage)
	if rt.opts.Metrics != nil {
		mux.Handle("GET /metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(rt.opts.Service, handler)
	}
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := rt.catalog.List(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (rt *Router) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newSessionResponse(rt.session.ID(), rt.session.Snapshot()))
}

func (rt *Router) uploadSubject(w http.ResponseWriter, r *http.Request) {
	photo, ok := rt.readPhoto(w, r)
	if !ok {
		return
	}
	height, err := parseMetric(r.FormValue("height"), "height")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	weight, err := parseMetric(r.FormValue("weight"), "weight")
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	state, err := rt.session.UploadSubject(r.Context(), domain.SubjectPhoto{
		Photo:   photo,
		Metrics: domain.BodyMetrics{HeightCm: height, WeightKg: weight},
	})
	rt.writeSession(w, r, state, err)
}

func (rt *Router) uploadGarment(w http.ResponseWriter, r *http.Request) {
	photo, ok := rt.readPhoto(w, r)
	if !ok {
		return
	}
	state, err := rt.session.UploadGarment(r.Context(), domain.ManualGarment{
		Photo:            photo,
		MeasurementsText: r.FormValue("measurements"),
	})
	rt.writeSession(w, r, state, err)
}

func (rt *Router) selectCatalogGarment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GarmentID int    `json:"garment_id"`
		Size      string `json:"size"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Size) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "size is required"})
		return
	}

	state, err := rt.session.SelectCatalogGarment(r.Context(), req.GarmentID, req.Size)
	rt.writeSession(w, r, state, err)
}

func (rt *Router) tryOn(w http.ResponseWriter, r *http.Request) {
	state, err := rt.session.TryOn(r.Context())
	rt.writeSession(w, r, state, err)
}

func (rt *Router) requestFeedback(w http.ResponseWriter, r *http.Request) {
	state, err := rt.session.RequestFeedback(r.Context())
	rt.writeSession(w, r, state, err)
}

func (rt *Router) reset(w http.ResponseWriter, r *http.Request) {
	state := rt.session.Reset(r.Context())
	writeJSON(w, http.StatusOK, newSessionResponse(rt.session.ID(), state))
}

// resultImage streams the inline composite. The first request for a given
// result also persists it under the session id.
func (rt *Router) resultImage(w http.ResponseWriter, r *http.Request) {
	state := rt.session.Snapshot()
	if state.TryOn == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no try-on result yet"})
		return
	}

	ref := state.TryOn.ResultImagePath
	img, err := domain.DecodeResultImage(ref)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":        "try-on result is not an inline image",
			"tryon_result": ref,
		})
		return
	}
	rt.persistResult(r, ref)

	filename := rt.session.ID() + img.Extension()
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		slog.WarnContext(r.Context(), "result_image_stream_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
	}
}

func (rt *Router) persistResult(r *http.Request, ref string) {
	if rt.results == nil {
		return
	}
	rt.savedMu.Lock()
	defer rt.savedMu.Unlock()
	if rt.savedRef == ref {
		return
	}
	path, err := rt.results.SaveResultImage(r.Context(), rt.session.ID(), ref)
	if err != nil {
		slog.WarnContext(r.Context(), "result_image_persist_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		return
	}
	rt.savedRef = ref
	slog.InfoContext(r.Context(), "result_image_persisted",
		"request_id", requestIDFromContext(r.Context()),
		"path", path,
	)
}

// readPhoto parses the multipart body and returns the "file" part as a
// photo. It writes the error response itself when it returns false.
func (rt *Router) readPhoto(w http.ResponseWriter, r *http.Request) (domain.Photo, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(rt.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload exceeds size limit"})
			return domain.Photo{}, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return domain.Photo{}, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return domain.Photo{}, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload: " + err.Error()})
		return domain.Photo{}, false
	}
	photo, err := domain.NewPhotoWithType(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		rt.writeError(w, r, err)
		return domain.Photo{}, false
	}
	return photo, true
}

func parseMetric(raw, field string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, field, fmt.Errorf("%s is required", field))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, field, fmt.Errorf("%s must be a number", field))
	}
	return v, nil
}

// writeSession answers a trigger. Rejected triggers leave the session
// untouched and carry no snapshot; failed remote steps include it.
func (rt *Router) writeSession(w http.ResponseWriter, r *http.Request, state domain.State, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, newSessionResponse(rt.session.ID(), state))
		return
	}
	if isRejection(err) {
		rt.writeError(w, r, err)
		return
	}

	status := mapErrorToHTTPStatus(err)
	logRequestError(r, status, err)
	writeJSON(w, status, map[string]any{
		"error":   state.Error,
		"session": newSessionResponse(rt.session.ID(), state),
	})
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if domain.IsKind(err, domain.ErrBusy) {
		w.Header().Set("Retry-After", busyRetryAfterSeconds)
	}
	logRequestError(r, status, err)
	writeJSON(w, status, map[string]string{"error": errorMessage(err)})
}

func isRejection(err error) bool {
	return domain.IsKind(err, domain.ErrBusy) ||
		domain.IsKind(err, domain.ErrPrecondition) ||
		domain.IsKind(err, domain.ErrInvalidInput) ||
		domain.IsKind(err, domain.ErrNotFound) ||
		domain.IsKind(err, domain.ErrIllegalTransition)
}

func logRequestError(r *http.Request, status int, err error) {
	attrs := []any{
		"request_id", requestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"error", err,
	}
	if status >= 500 {
		slog.ErrorContext(r.Context(), "http_request_failed", attrs...)
		return
	}
	slog.WarnContext(r.Context(), "http_request_rejected", attrs...)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
