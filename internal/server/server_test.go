package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-snv/internal/align"
	"github.com/inodb/vibe-snv/internal/catalog"
	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/predict"
)

// contentAligner maps the uploaded sample's content to canned records.
type contentAligner struct {
	records map[string][]align.AlignmentRecord
	err     error
}

func (a *contentAligner) Align(_ context.Context, queryPath, _ string) ([]align.AlignmentRecord, error) {
	if a.err != nil {
		return nil, a.err
	}
	b, err := os.ReadFile(queryPath)
	if err != nil {
		return nil, err
	}
	return a.records[string(b)], nil
}

type staticCatalog struct {
	rows []catalog.PathogenicVariantRecord
	err  error
}

func (c *staticCatalog) PathogenicSNVs(context.Context, gene.Gene, string) ([]catalog.PathogenicVariantRecord, error) {
	return c.rows, c.err
}

const (
	mutantSample = ">patient\nACGTA\n"
	normalSample = ">patient\nACTTA\n"
	benignSample = ">patient\nACTTC\n"
)

func newTestServer(t *testing.T, al *contentAligner, cat *staticCatalog) (http.Handler, *observer.ObservedLogs) {
	t.Helper()
	reg, err := gene.NewRegistry(gene.Config{
		Gene: gene.BRCA1, Chrom: "17", Offset: 100, Reference: "/refs/brca1.fasta", Table: "brca1_variants",
	})
	require.NoError(t, err)
	if al.records == nil {
		rec := func(q string) []align.AlignmentRecord {
			return []align.AlignmentRecord{{
				QueryID: "patient", SubjectID: "ref",
				QueryStart: 1, QueryEnd: 5, SubjectStart: 1, SubjectEnd: 5,
				QuerySeq: q, SubjectSeq: "ACTTA",
			}}
		}
		al.records = map[string][]align.AlignmentRecord{
			mutantSample: rec("ACGTA"),
			normalSample: rec("ACTTA"),
			benignSample: rec("ACTTC"),
		}
	}
	core, logs := observer.New(zap.DebugLevel)
	return New(predict.New(reg, al, cat), zap.New(core)), logs
}

var brca1Rows = []catalog.PathogenicVariantRecord{{
	Position: 103, Ref: "T", Alt: "G",
	ClinicalSignificance: "Pathogenic",
	Disease:              "Breast-ovarian cancer, familial 1",
	VariantType:          catalog.VariantTypeSNV,
}}

func predictRequest(t *testing.T, geneField, sample string, withFile bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("gene", geneField))
	if withFile {
		fw, err := mw.CreateFormFile("fasta_file", "sample.fasta")
		require.NoError(t, err)
		_, err = fw.Write([]byte(sample))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/predict/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestPredict_PathogenicFound(t *testing.T) {
	h, logs := newTestServer(t, &contentAligner{}, &staticCatalog{rows: brca1Rows})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, predictRequest(t, "BRCA1", mutantSample, true))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	body := decode(t, rr)
	assert.Equal(t, []any{"Breast-ovarian cancer, familial 1"}, body["predicted_diseases"])
	assert.Equal(t, "pathogenic_found", body["status"])
	assert.NotContains(t, body, "message")
	assert.Len(t, body["matches"], 1)

	assert.Equal(t, 1, logs.FilterMessage("http request").Len())
}

func TestPredict_NoMatches(t *testing.T) {
	for name, sample := range map[string]string{
		"no mutations":  normalSample,
		"no pathogenic": benignSample,
	} {
		t.Run(name, func(t *testing.T) {
			h, _ := newTestServer(t, &contentAligner{}, &staticCatalog{rows: brca1Rows})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, predictRequest(t, "BRCA1", sample, true))

			require.Equal(t, http.StatusOK, rr.Code)
			body := decode(t, rr)
			assert.Equal(t, "No matching pathogenic variants found.", body["message"])
			assert.NotContains(t, body, "predicted_diseases")
			assert.Equal(t, []any{}, body["matches"])
		})
	}
}

func TestPredict_BlankDiseases(t *testing.T) {
	rows := []catalog.PathogenicVariantRecord{brca1Rows[0]}
	rows[0].Disease = ""
	h, _ := newTestServer(t, &contentAligner{}, &staticCatalog{rows: rows})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, predictRequest(t, "BRCA1", mutantSample, true))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "pathogenic_found", body["status"])
	assert.Equal(t, []any{}, body["predicted_diseases"])
	assert.NotContains(t, body, "message")
	assert.Len(t, body["matches"], 1)
}

type panicAligner struct{}

func (panicAligner) Align(context.Context, string, string) ([]align.AlignmentRecord, error) {
	panic("aligner exploded")
}

func TestRecoverer_LogsRequest(t *testing.T) {
	reg, err := gene.NewRegistry(gene.Config{
		Gene: gene.BRCA1, Chrom: "17", Offset: 100, Reference: "/refs/brca1.fasta", Table: "brca1_variants",
	})
	require.NoError(t, err)
	core, logs := observer.New(zap.DebugLevel)
	h := New(predict.New(reg, panicAligner{}, &staticCatalog{}), zap.New(core))

	req := predictRequest(t, "BRCA1", mutantSample, true)
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))

	panics := logs.FilterMessage("panic serving request").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "req-42", panics[0].ContextMap()["request_id"])

	access := logs.FilterMessage("http request").All()
	require.Len(t, access, 1)
	assert.Equal(t, "req-42", access[0].ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusInternalServerError), access[0].ContextMap()["status"])
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name     string
		gene     string
		withFile bool
		aligner  *contentAligner
		catalog  *staticCatalog
		status   int
		detail   string
	}{
		{"unsupported gene", "KRAS", true, &contentAligner{}, &staticCatalog{}, http.StatusBadRequest, "Unsupported gene selected."},
		{"gene without registry entry", "TP53", true, &contentAligner{}, &staticCatalog{}, http.StatusBadRequest, "Unsupported gene selected."},
		{"lower-case gene", "brca1", true, &contentAligner{}, &staticCatalog{}, http.StatusBadRequest, "Unsupported gene selected."},
		{"missing file", "BRCA1", false, &contentAligner{}, &staticCatalog{}, http.StatusBadRequest, "fasta_file is required"},
		{"malformed alignment", "BRCA1", true, &contentAligner{records: map[string][]align.AlignmentRecord{
			mutantSample: {{QuerySeq: "ACGT", SubjectSeq: "ACG", SubjectStart: 1, SubjectEnd: 3}},
		}}, &staticCatalog{}, http.StatusUnprocessableEntity, ""},
		{"catalog unavailable", "BRCA1", true, &contentAligner{}, &staticCatalog{err: errors.New("no such table")}, http.StatusServiceUnavailable, ""},
		{"aligner failure", "BRCA1", true, &contentAligner{err: errors.New("blastn not found")}, &staticCatalog{}, http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestServer(t, tt.aligner, tt.catalog)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, predictRequest(t, tt.gene, mutantSample, tt.withFile))

			assert.Equal(t, tt.status, rr.Code)
			body := decode(t, rr)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, body["detail"])
			} else {
				assert.NotEmpty(t, body["detail"])
			}
		})
	}
}

func TestPredict_NotMultipart(t *testing.T) {
	h, _ := newTestServer(t, &contentAligner{}, &staticCatalog{})
	req := httptest.NewRequest(http.MethodPost, "/predict/", strings.NewReader("gene=BRCA1"))
	req.Header.Set("Content-Type", "text/plain")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPredict_TooLarge(t *testing.T) {
	h, _ := newTestServer(t, &contentAligner{}, &staticCatalog{})
	big := ">patient\n" + strings.Repeat("ACGT", (MaxUploadBytes/4)+1024) + "\n"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, predictRequest(t, "BRCA1", big, true))
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}, rr.Code)
}

func TestPreflight(t *testing.T) {
	h, _ := newTestServer(t, &contentAligner{}, &staticCatalog{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/predict/", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenesAndHealth(t *testing.T) {
	h, _ := newTestServer(t, &contentAligner{}, &staticCatalog{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/genes", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	genes := decode(t, rr)["genes"].([]any)
	require.Len(t, genes, 1)
	assert.Equal(t, "BRCA1", genes[0].(map[string]any)["gene"])
	assert.Equal(t, "brca1_variants", genes[0].(map[string]any)["table"])
}

func TestRequestIDPropagated(t *testing.T) {
	h, _ := newTestServer(t, &contentAligner{}, &staticCatalog{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(gene.ErrUnsupportedGene))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("x")))
}
