package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/inodb/vibe-snv/internal/catalog"
	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/predict"
)

var errMissingFile = errors.New("fasta_file is required")

type predictResponse struct {
	PredictedDiseases []string                 `json:"predicted_diseases,omitzero"`
	Message           string                   `json:"message,omitempty"`
	Status            predict.Status           `json:"status"`
	Matches           []catalog.MatchedVariant `json:"matches"`
}

// Predict handles a multipart form with fields "gene" and "fasta_file".
func (h *handler) Predict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: fmt.Sprintf("invalid form: %v", err)})
		return
	}
	defer r.MultipartForm.RemoveAll()

	g, err := gene.Parse(r.FormValue("gene"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	file, _, err := r.FormFile("fasta_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: errMissingFile.Error()})
		return
	}
	defer file.Close()

	samplePath, err := spool(file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer os.Remove(samplePath)

	res, err := h.pred.Predict(r.Context(), g, samplePath)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Debug("prediction complete",
		zap.String("request_id", requestID(r)),
		zap.String("gene", string(g)),
		zap.String("status", string(res.Status)),
		zap.Int("matches", len(res.Matches)))

	resp := predictResponse{Status: res.Status, Matches: res.Matches}
	if resp.Matches == nil {
		resp.Matches = []catalog.MatchedVariant{}
	}
	if len(res.Matches) > 0 {
		resp.PredictedDiseases = append([]string{}, res.Diseases()...)
	} else {
		resp.Message = msgNoMatches
	}
	writeJSON(w, http.StatusOK, resp)
}

// spool copies an uploaded sample to a temporary file for the aligner.
func spool(src io.Reader) (string, error) {
	f, err := os.CreateTemp("", "vibe-snv-upload-*.fasta")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return f.Name(), nil
}
