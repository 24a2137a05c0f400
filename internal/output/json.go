package output

import (
	"encoding/json"
	"io"

	"github.com/inodb/vibe-snv/internal/predict"
)

// JSONWriter writes one JSON object per prediction (JSON Lines).
type JSONWriter struct {
	enc *json.Encoder
}

// NewJSONWriter creates a new JSON Lines writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(w)}
}

// WriteHeader is a no-op.
func (w *JSONWriter) WriteHeader() error { return nil }

// WriteResult writes one prediction.
func (w *JSONWriter) WriteResult(r *predict.Result) error {
	return w.enc.Encode(r)
}

// Flush is a no-op; the encoder writes through.
func (w *JSONWriter) Flush() error { return nil }
