package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/JonMunkholm/unfold/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const surveyCSV = "userId,question,questionType,answer\n" +
	"10,DOB,pullDown,1983\n" +
	"10,gender,radio,F\n" +
	"20,DOB,pullDown,1980\n" +
	"20,gender,radio,M\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Unfold: config.UnfoldConfig{
			MaxUploadSize: 1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   20 * time.Millisecond,
			Timeout:       10 * time.Second,
			Filler:        "0",
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	s := NewServer(testConfig())
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["active"])
	assert.Equal(t, float64(2), body["available"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestUnfold_RawBodyCSV(t *testing.T) {
	s := NewServer(testConfig())
	req := httptest.NewRequest(http.MethodPost,
		"/api/unfold?pivot=question&payload=answer&constant=questionType", strings.NewReader(surveyCSV))
	req.Header.Set("Content-Type", "text/csv")

	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "question,questionType,v0,v1\r\nDOB,pullDown,1983,1980\r\ngender,radio,F,M\r\n", rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "unfolded.csv")

	_, err := uuid.Parse(rec.Header().Get(unfoldIDHeader))
	assert.NoError(t, err, "every run carries a job id")
}

func TestUnfold_MultipartJSON(t *testing.T) {
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	require.NoError(t, mpw.WriteField("note", "ignored"))
	fw, err := mpw.CreateFormFile("file", "survey.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(surveyCSV))
	require.NoError(t, err)
	require.NoError(t, mpw.Close())

	s := NewServer(testConfig())
	req := httptest.NewRequest(http.MethodPost,
		"/api/unfold?pivot=question&payload=answer&names=userId", &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body unfoldResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, rec.Header().Get(unfoldIDHeader), body.ID)
	assert.Equal(t, []string{"question", "10", "20"}, body.Header)
	assert.Equal(t, [][]string{{"DOB", "1983", "1980"}, {"gender", "F", "M"}}, body.Rows)
	assert.Equal(t, 2, body.Groups)
	assert.Equal(t, 2, body.Width)
}

func TestUnfold_HTMLPreview(t *testing.T) {
	s := NewServer(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/unfold?pivot=question&payload=answer",
		strings.NewReader("question,answer\nq1,<b>\nq1,x\nq2,y\n"))
	req.Header.Set("HX-Request", "true")

	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<td>q2</td><td>y</td><td>0</td>")
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;")
}

func TestUnfold_FillerParameter(t *testing.T) {
	s := NewServer(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/unfold?pivot=q&payload=a&filler=",
		strings.NewReader("q,a\nx,1\nx,2\ny,3\n"))

	rec := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "q,v0,v1\r\nx,1,2\r\ny,3,\r\n", rec.Body.String())
}

func TestUnfold_Errors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   string
	}{
		{
			name:   "missing pivot",
			query:  "payload=answer",
			body:   surveyCSV,
			status: http.StatusBadRequest,
			code:   "ARG001",
		},
		{
			name:   "unknown column",
			query:  "pivot=question&payload=reply",
			body:   surveyCSV,
			status: http.StatusBadRequest,
			code:   "COL001",
		},
		{
			name:   "row longer than header",
			query:  "pivot=q&payload=a",
			body:   "q,a\nx,1,extra\n",
			status: http.StatusBadRequest,
			code:   "ROW001",
		},
		{
			name:   "inconsistent constant",
			query:  "pivot=q&payload=a&constant=t",
			body:   "q,t,a\nx,radio,1\nx,pullDown,2\n",
			status: http.StatusUnprocessableEntity,
			code:   "CON001",
		},
		{
			name:   "malformed csv",
			query:  "pivot=q&payload=a",
			body:   "q,a\n\"x,1\n",
			status: http.StatusBadRequest,
			code:   "IO001",
		},
		{
			name:   "empty body",
			query:  "pivot=q&payload=a",
			body:   "",
			status: http.StatusInternalServerError,
			code:   "IO001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(testConfig())
			req := httptest.NewRequest(http.MethodPost, "/api/unfold?"+tt.query, strings.NewReader(tt.body))

			rec := do(t, s, req)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.NotEmpty(t, rec.Header().Get(unfoldIDHeader))
		})
	}
}

func TestUnfold_MultipartWithoutFile(t *testing.T) {
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	require.NoError(t, mpw.WriteField("pivot", "question"))
	require.NoError(t, mpw.Close())

	s := NewServer(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/unfold?pivot=question&payload=answer", &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())

	rec := do(t, s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ARG001", decodeError(t, rec).Code)
}

func TestUnfold_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Unfold.MaxUploadSize = 16
	s := NewServer(cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/unfold?pivot=question&payload=answer",
		strings.NewReader(surveyCSV))

	rec := do(t, s, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "IO001", decodeError(t, rec).Code)
}

func TestUnfold_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Unfold.MaxConcurrent = 1
	s := NewServer(cfg)

	require.NoError(t, s.limiter.Acquire(context.Background()))
	defer s.limiter.Release()

	req := httptest.NewRequest(http.MethodPost, "/api/unfold?pivot=question&payload=answer",
		strings.NewReader(surveyCSV))
	rec := do(t, s, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SVC001", decodeError(t, rec).Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
}

func TestUnfold_HTMLError(t *testing.T) {
	s := NewServer(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/unfold?pivot=nope&payload=answer",
		strings.NewReader(surveyCSV))
	req.Header.Set("Accept", "text/html")

	rec := do(t, s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), "Code: COL001")
}

func TestUnfold_RequiresAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := NewServer(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/unfold?pivot=question&payload=answer",
		strings.NewReader(surveyCSV))
	assert.Equal(t, http.StatusUnauthorized, do(t, s, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/unfold?pivot=question&payload=answer",
		strings.NewReader(surveyCSV))
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, do(t, s, req).Code)

	// health stays public
	assert.Equal(t, http.StatusOK, do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestShutdown_NotStarted(t *testing.T) {
	assert.NoError(t, NewServer(testConfig()).Shutdown(context.Background()))
}
