package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colsense/colsense/internal/classify"
	"github.com/colsense/colsense/internal/gemini"
	"github.com/colsense/colsense/internal/logging"
	"github.com/colsense/colsense/internal/session"
	"github.com/colsense/colsense/internal/types"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubProvider struct{ answer string }

func (s *stubProvider) Ping(context.Context, string) error { return nil }

func (s *stubProvider) Generate(context.Context, string, string) (*gemini.Response, error) {
	return &gemini.Response{Candidates: []gemini.Candidate{{
		Content:      gemini.Content{Parts: []gemini.Part{{Text: s.answer}}},
		FinishReason: "STOP",
	}}}, nil
}

const modelAnswer = "```json\n" + `[
  {"column_name": "email", "sensitivity_level": "PII", "confidence": 5, "reasoning": "Personal email."},
  {"column_name": "salary", "sensitivity_level": "Confidential", "confidence": 4, "reasoning": "Pay data."}
]` + "\n```"

func newTestServer(t *testing.T, key string) (*Server, *session.Session) {
	t.Helper()
	log := logging.Discard()
	sess := session.New(5, session.WithLogger(log))
	srv := New(Config{
		Classifier: classify.New(classify.WithProvider(&stubProvider{answer: modelAnswer}), classify.WithLogger(log)),
		Session:    sess,
		APIKey:     func() string { return key },
		Logger:     log,
	})
	return srv, sess
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClassify_JSONBody(t *testing.T) {
	srv, sess := newTestServer(t, "AIzaServerKey")
	body := `{"filename":"schema.json","columns":[
		{"name":"email","type":"string","sample_values":["a@b.com"]},
		{"name":"salary","type":"integer","sample_values":[100, 200]}]}`
	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodPost, "/api/v1/classify", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Failed)
	assert.Equal(t, "schema.json", got.Filename)
	require.Len(t, got.Results, 2)
	assert.Equal(t, types.LevelPII, got.Results[0].SensitivityLevel)
	assert.Equal(t, 2, got.Summary.SensitiveColumnsCount)
	assert.Equal(t, 1, sess.Len())

	// integer samples survive as integers
	assert.Equal(t, []any{float64(100), float64(200)}, got.Columns[1].SampleValues)
	e, err := sess.Get(got.ID)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(100), int64(200)}, e.ColumnMetadata[1].SampleValues)
}

func TestClassify_BadCredentialIsInBand(t *testing.T) {
	srv, sess := newTestServer(t, "")
	body := `{"columns":[{"name":"email","type":"string","sample_values":["a@b.com"]}]}`
	rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodPost, "/api/v1/classify", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var got classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Failed)
	require.Len(t, got.Results, 1)
	assert.Equal(t, types.LevelError, got.Results[0].SensitivityLevel)
	assert.Equal(t, "api_request.json", got.Filename)
	assert.Equal(t, 1, sess.Len())
}

func TestClassify_BadRequests(t *testing.T) {
	srv, _ := newTestServer(t, "AIzaServerKey")
	for name, body := range map[string]string{
		"not json":   `{`,
		"no columns": `{"columns":[]}`,
		"bad glob":   `{"columns":[{"name":"a"}],"select":["["]}`,
	} {
		rec := do(t, srv.Handler(), httptest.NewRequest(http.MethodPost, "/api/v1/classify", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Contains(t, rec.Body.String(), `"error"`, name)
	}
}

func upload(t *testing.T, name, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestClassify_UploadAndExport(t *testing.T) {
	srv, _ := newTestServer(t, "AIzaServerKey")
	h := srv.Handler()
	csvBody := "email,salary,city\na@x.com,100,Oslo\nb@x.com,200,Rome\n"
	rec := do(t, h, upload(t, "people.csv", csvBody, map[string]string{"columns": "email, salary", "samples": "1"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Columns, 2)
	assert.Len(t, got.Columns[0].SampleValues, 1)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+got.ID+"/export?format=csv", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="classified_people.csv"`, rec.Header().Get("Content-Disposition"))
	recs, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "salary", "city", "sensitivity_level", "confidence", "reasoning"}, recs[0])
	assert.Equal(t, "PII", recs[1][3])
	assert.Equal(t, "Confidential", recs[2][3])

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+got.ID+"/export?format=md", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "**Original File:** `people.csv`")
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+got.ID+"/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sensitive_columns_count": 2`)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+got.ID+"/export?format=xlsx", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport_CSVRejectedForSchemaInput(t *testing.T) {
	srv, _ := newTestServer(t, "AIzaServerKey")
	h := srv.Handler()
	rec := do(t, h, upload(t, "schema.json", `[{"name":"email","type":"string"}]`, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+got.ID+"/export?format=csv", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryRoutes(t *testing.T) {
	srv, sess := newTestServer(t, "AIzaServerKey")
	h := srv.Handler()
	body := `{"columns":[{"name":"email","type":"string"}]}`
	for i := 0; i < 2; i++ {
		rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/v1/classify", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var hist []session.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist, 2)
	assert.Equal(t, hist[1].ID, hist[0].PreviousID)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/history/"+hist[0].ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/history/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/v1/history", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, sess.Len())
}

func TestLevelsHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, "AIzaServerKey")
	h := srv.Handler()

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/levels", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var levels []levelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &levels))
	require.Len(t, levels, 5)
	assert.Equal(t, types.LevelPublic, levels[0].Level)
	assert.Equal(t, "#22C55E", levels[0].Color)
	assert.NotEmpty(t, levels[3].Description)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "colsense_http_requests_total")
}
