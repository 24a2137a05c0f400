// Package server exposes disease prediction over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"go.uber.org/zap"

	"github.com/inodb/vibe-snv/internal/catalog"
	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/predict"
	"github.com/inodb/vibe-snv/internal/variant"
)

// MaxUploadBytes caps the size of a prediction request body.
const MaxUploadBytes = 32 << 20

const (
	msgUnsupportedGene = "Unsupported gene selected."
	msgNoMatches       = "No matching pathogenic variants found."
)

type handler struct {
	pred   *predict.Predictor
	logger *zap.Logger
}

// New returns the API handler with logging and CORS middleware applied.
func New(pred *predict.Predictor, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{pred: pred, logger: logger}

	router := mux.NewRouter()
	POST := router.Methods("POST").Subrouter()
	GET := router.Methods("GET", "HEAD").Subrouter()

	POST.HandleFunc("/predict/", h.Predict)
	POST.HandleFunc("/predict", h.Predict)
	GET.HandleFunc("/genes", h.Genes)
	GET.HandleFunc("/healthz", h.Health)

	standard := alice.New(
		requestLogger(logger),
		recoverer(logger),
		cors,
	)
	return standard.Then(router)
}

func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type geneInfo struct {
	Gene   gene.Gene `json:"gene"`
	Chrom  string    `json:"chrom"`
	Offset int64     `json:"offset"`
	Table  string    `json:"table"`
}

func (h *handler) Genes(w http.ResponseWriter, r *http.Request) {
	reg := h.pred.Registry()
	var out []geneInfo
	for _, g := range reg.Genes() {
		c, err := reg.Lookup(g)
		if err != nil {
			continue
		}
		out = append(out, geneInfo{Gene: g, Chrom: c.Chrom, Offset: c.Offset, Table: c.Table})
	}
	writeJSON(w, http.StatusOK, map[string]any{"genes": out})
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, gene.ErrUnsupportedGene):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, variant.ErrMalformedAlignment):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	if errors.Is(err, gene.ErrUnsupportedGene) {
		detail = msgUnsupportedGene
	}
	if status >= 500 {
		h.logger.Error("request failed",
			zap.String("request_id", requestID(r)),
			zap.Int("status", status),
			zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
