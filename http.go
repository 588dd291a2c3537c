package svgmin

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tdewolff/minify/v2"

	"github.com/tinywasm/svgmin/export"
)

// request bodies may carry a little more than the validator accepts so the
// oversize case is reported by validation rather than cut off
const maxBodySize = MaxFileSize + 64<<10

// Handler serves the tool's API. Results are memoized per input and settings.
type Handler struct {
	cfg      *Config
	pipeline *Pipeline
	cache    *lru.Cache[string, *Result]
	min      *minify.M
	session  *Session
	log      *log.Logger
}

func NewHandler(cfg *Config) (*Handler, error) {
	cfg = cfg.withDefaults()
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger()
	}
	cache, err := lru.New[string, *Result](cfg.CacheSize)
	if err != nil {
		return nil, errors.New("NewHandler cache " + err.Error())
	}
	return &Handler{
		cfg:      cfg,
		pipeline: NewPipeline(logger),
		cache:    cache,
		min:      newMinifier(),
		log:      logger,
	}, nil
}

// AttachSession exposes a watched editing session under GET /api/session.
func (h *Handler) AttachSession(s *Session) {
	h.session = s
}

// Router returns a chi router with every route mounted.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the HTTP handlers of the tool.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/validate", h.serveValidate)
		r.Post("/process", h.serveProcess)
		r.Post("/jsx", h.serveJSX)
		r.Post("/colors", h.serveColors)
		r.Post("/recolor", h.serveRecolor)
		r.Post("/download", h.serveDownload)
		r.Post("/export/{format}", h.serveExport)
		r.Get("/session", h.serveSession)
	})
	r.Post("/preview", h.servePreview)
}

// settingsFrom reads level, optimize, strict, deep and name from the query,
// falling back to the configured defaults.
func (h *Handler) settingsFrom(r *http.Request) (Settings, error) {
	s := h.cfg.Settings()
	q := r.URL.Query()
	if v := q.Get("level"); v != "" {
		level, err := ParseLevel(v)
		if err != nil {
			return s, err
		}
		s.Level = level
	}
	for name, dst := range map[string]*bool{"optimize": &s.Optimize, "strict": &s.Strict, "deep": &s.DeepMinify} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return s, errors.New("invalid " + name + " value: " + v)
			}
			*dst = b
		}
	}
	if v := q.Get("name"); v != "" {
		s.ComponentName = v
	}
	return s, nil
}

func readBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return "", false
	}
	return string(body), true
}

// process runs the pipeline through the cache.
func (h *Handler) process(ctx context.Context, input string, s Settings) (*Result, error) {
	key := cacheKey(input, s)
	if res, ok := h.cache.Get(key); ok {
		return res, nil
	}
	res, err := h.pipeline.Process(ctx, input, s)
	if err != nil {
		return nil, err
	}
	h.cache.Add(key, res)
	return res, nil
}

func cacheKey(input string, s Settings) string {
	sum := sha256.New()
	sum.Write([]byte(input))
	sum.Write([]byte{0, byte(s.Level)})
	for _, b := range []bool{s.Optimize, s.Strict, s.DeepMinify} {
		if b {
			sum.Write([]byte{1})
		} else {
			sum.Write([]byte{0})
		}
	}
	sum.Write([]byte(s.ComponentName))
	return hex.EncodeToString(sum.Sum(nil))
}

func (h *Handler) serveValidate(w http.ResponseWriter, r *http.Request) {
	input, ok := readBody(w, r)
	if !ok {
		return
	}
	strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))
	writeJSON(w, http.StatusOK, Validate(input, strict || h.cfg.Strict))
}

func (h *Handler) serveProcess(w http.ResponseWriter, r *http.Request) {
	res, ok := h.processRequest(w, r)
	if !ok {
		return
	}
	status := http.StatusOK
	if !res.Report.IsValid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (h *Handler) processRequest(w http.ResponseWriter, r *http.Request) (*Result, bool) {
	s, err := h.settingsFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	input, ok := readBody(w, r)
	if !ok {
		return nil, false
	}
	res, err := h.process(r.Context(), input, s)
	if err != nil {
		h.log.Warn("process request aborted", "err", err, "request_id", middleware.GetReqID(r.Context()))
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return res, true
}

func (h *Handler) serveJSX(w http.ResponseWriter, r *http.Request) {
	res, ok := h.processRequest(w, r)
	if !ok {
		return
	}
	if !res.Report.IsValid {
		writeError(w, http.StatusUnprocessableEntity, res.Report.Error)
		return
	}
	w.Header().Set("Content-Type", "text/typescript; charset=utf-8")
	_, _ = w.Write([]byte(res.Outputs.JSX))
}

type colorsResponse struct {
	Bindings []ColorBinding `json:"bindings"`
	Distinct []string       `json:"distinct"`
}

func (h *Handler) serveColors(w http.ResponseWriter, r *http.Request) {
	input, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, err := ParseDocument(input)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	cs := ExtractColorBindings(doc)
	writeJSON(w, http.StatusOK, colorsResponse{Bindings: cs.Bindings, Distinct: cs.Distinct()})
}

type recolorRequest struct {
	SVG     string            `json:"svg"`
	ByValue map[string]string `json:"byValue"` // original color -> new color, every sharing element
	ByID    map[string]string `json:"byId"`    // binding id -> new color
}

type recolorResponse struct {
	SVG      string         `json:"svg"`
	Changed  int            `json:"changed"`
	Bindings []ColorBinding `json:"bindings"`
}

func (h *Handler) serveRecolor(w http.ResponseWriter, r *http.Request) {
	var req recolorRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid recolor request: "+err.Error())
		return
	}
	doc, err := ParseDocument(req.SVG)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	cs := ExtractColorBindings(doc)
	changed := 0
	for original, color := range req.ByValue {
		changed += cs.Recolor(original, color)
	}
	for id, color := range req.ByID {
		if cs.SetColor(id, color) {
			changed++
		}
	}
	writeJSON(w, http.StatusOK, recolorResponse{SVG: doc.String(), Changed: changed, Bindings: cs.Bindings})
}

// serveDownload returns one artifact as an attachment.
// ?format=svg|url-css|base64-css|jsx&filename=icon.svg
func (h *Handler) serveDownload(w http.ResponseWriter, r *http.Request) {
	res, ok := h.processRequest(w, r)
	if !ok {
		return
	}
	if !res.Report.IsValid {
		writeError(w, http.StatusUnprocessableEntity, res.Report.Error)
		return
	}
	artifacts := Artifacts(res, r.URL.Query().Get("filename"))
	idx := map[string]int{"svg": 0, "url-css": 1, "base64-css": 2, "jsx": 3}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "svg"
	}
	i, found := idx[format]
	if !found {
		writeError(w, http.StatusBadRequest, "unknown download format: "+format)
		return
	}
	_ = httpSink{w}.Download(artifacts[i].Name, artifacts[i].MediaType, artifacts[i].Data)
}

func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := h.processRequest(w, r)
	if !ok {
		return
	}
	if !res.Report.IsValid {
		writeError(w, http.StatusUnprocessableEntity, res.Report.Error)
		return
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	var buf bytes.Buffer
	if err := export.Render(&buf, format, BackfillViewBox(res.Active), size); err != nil {
		h.log.Warn("export failed", "format", format, "err", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	name := "image" + format.Extension()
	_ = httpSink{w}.Download(name, format.MediaType(), buf.Bytes())
}

func (h *Handler) serveSession(w http.ResponseWriter, _ *http.Request) {
	if h.session == nil {
		writeError(w, http.StatusNotFound, "no watched session")
		return
	}
	res := h.session.Result()
	if res == nil {
		writeError(w, http.StatusNotFound, "session has no result yet")
		return
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeJSON(w, http.StatusOK, res)
}

// httpSink turns a download into an attachment response.
type httpSink struct {
	w http.ResponseWriter
}

func (s httpSink) Download(name, mediatype string, data []byte) error {
	s.w.Header().Set("Content-Type", mediatype)
	s.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	s.w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, err := s.w.Write(data)
	return err
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
