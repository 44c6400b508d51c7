package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"student_risk_backend/internal/config"
	"student_risk_backend/internal/forecasting"
	"student_risk_backend/internal/middleware"
	"student_risk_backend/internal/service"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type stubChat struct{}

func (stubChat) Chat(ctx context.Context, prompt string) (string, error) {
	return "", &service.RemoteError{Kind: service.FailureNetwork, Err: context.DeadlineExceeded}
}

type offlineForecaster struct{}

func (offlineForecaster) Predict(ctx context.Context, series []float64, horizon int) (*service.ForecastResponse, error) {
	return nil, &service.RemoteError{Kind: service.FailureNetwork, Err: context.DeadlineExceeded}
}

func (offlineForecaster) Health(ctx context.Context) service.ForecastHealth {
	return service.ForecastDisconnected
}

type testServer struct {
	router *gin.Engine
	auth   *service.AuthService
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	gin.SetMode(gin.TestMode)

	hash, err := service.HashPassword("pw")
	require.NoError(t, err)
	auth := service.NewAuthService(
		config.AuthConfig{Enabled: authEnabled, Username: "counselor", PasswordHash: hash},
		config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	)

	store := service.NewCohortStore()
	ingestion := service.NewIngestionService(store, nil, nil)
	session := service.NewAnalysisSession(store,
		service.NewForecastService(offlineForecaster{}),
		service.NewInsightService(stubChat{}),
		nil, 5)

	authCtl := NewAuthController(auth)
	cohortCtl := NewCohortController(ingestion, store, 1)
	sessionCtl := NewSessionController(session)
	forecastCtl := NewForecastController(forecasting.NewForecaster(0, 1))
	healthCtl := NewHealthController(nil, nil, offlineForecaster{})

	r := gin.New()
	r.GET("/api/health", healthCtl.HealthCheck)
	r.POST("/api/login", authCtl.Login)
	r.POST("/forecast", forecastCtl.Forecast)
	r.GET("/health", forecastCtl.Health)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(auth))
	api.POST("/cohort/upload", cohortCtl.Upload)
	api.GET("/cohort/students", cohortCtl.ListStudents)
	api.GET("/cohort/students/:id", cohortCtl.GetStudent)
	api.GET("/cohort/at-risk", cohortCtl.AtRisk)
	api.GET("/uploads", cohortCtl.ListUploads)
	api.GET("/session", sessionCtl.Get)
	api.POST("/session/select", sessionCtl.Select)

	return &testServer{router: r, auth: auth}
}

func (s *testServer) do(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var env envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	part.Write([]byte(content))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/cohort/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

const cohortCSV = `student_id,student_name,subject,date,present,exam_number,exam_score
S1,Ann,Math,2024-01-01,100,1,95
S2,Bob,Math,2024-01-01,0,1,10
S2,Bob,Math,2024-01-02,0,,
`

func TestCohortFlow(t *testing.T) {
	s := newTestServer(t, false)

	w, _ := s.do(httptest.NewRequest(http.MethodGet, "/api/cohort/students", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := s.do(uploadRequest(t, "cohort.csv", cohortCSV))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result UploadResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Stats.Students)
	require.Len(t, result.AtRisk, 1)
	assert.Equal(t, "S2", result.AtRisk[0].Student.ID)

	w, env = s.do(httptest.NewRequest(http.MethodGet, "/api/cohort/students", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		UploadID string           `json:"uploadId"`
		Students []StudentSummary `json:"students"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, result.UploadID, list.UploadID)
	require.Len(t, list.Students, 2)
	assert.Equal(t, "S1", list.Students[0].ID)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/api/cohort/students/S2", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/api/cohort/students/S9", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/api/uploads", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadRejectsBadInput(t *testing.T) {
	s := newTestServer(t, false)

	w, env := s.do(uploadRequest(t, "cohort.csv", "student_id,student_name\nS1,Ann\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env.Data), "missingColumns")

	w, _ = s.do(uploadRequest(t, "cohort.xlsx", cohortCSV))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(uploadRequest(t, "cohort.csv", "student_id,student_name,subject,date,present\n,,,,\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionSelectFallsBackWhenOffline(t *testing.T) {
	s := newTestServer(t, false)
	w, _ := s.do(uploadRequest(t, "cohort.csv", cohortCSV))
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := s.do(jsonRequest(http.MethodPost, "/api/session/select", gin.H{"studentId": "S2"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var snap struct {
		SelectedStudentID string `json:"selectedStudentId"`
		Forecast          struct {
			Points []float64 `json:"points"`
			Method string    `json:"method"`
		} `json:"forecast"`
		Insight struct {
			Source    string `json:"source"`
			RiskLevel string `json:"riskLevel"`
		} `json:"insight"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "S2", snap.SelectedStudentID)
	assert.Equal(t, "fallback_average", snap.Forecast.Method)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, snap.Forecast.Points)
	assert.Equal(t, "fallback_network", snap.Insight.Source)
	assert.Equal(t, "high", snap.Insight.RiskLevel)

	w, _ = s.do(jsonRequest(http.MethodPost, "/api/session/select", gin.H{"studentId": "nobody"}))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequiredWhenEnabled(t *testing.T) {
	s := newTestServer(t, true)

	w, _ := s.do(httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(jsonRequest(http.MethodPost, "/api/login", gin.H{"username": "counselor", "password": "bad"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(jsonRequest(http.MethodPost, "/api/login", gin.H{"username": "counselor", "password": "pw"}))
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w, _ = s.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginDisabled(t *testing.T) {
	s := newTestServer(t, false)
	w, _ := s.do(jsonRequest(http.MethodPost, "/api/login", gin.H{"username": "counselor", "password": "pw"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForecastEndpoint(t *testing.T) {
	s := newTestServer(t, false)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, jsonRequest(http.MethodPost, "/forecast", gin.H{"attendance_data": []float64{1, 0.5}}))
	require.Equal(t, http.StatusOK, w.Code)
	var resp service.ForecastResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Forecast, 30)
	assert.Equal(t, forecasting.MethodSimpleAverage, resp.Method)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, jsonRequest(http.MethodPost, "/forecast", gin.H{"attendance_data": []float64{}, "periods": 3}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, jsonRequest(http.MethodPost, "/forecast", gin.H{"attendance_data": []float64{0.5}, "periods": int64(1) << 62}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp = service.ForecastResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "periods out of range")
	assert.Empty(t, resp.Forecast)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestHealthCheckIgnoresForecastOutage(t *testing.T) {
	s := newTestServer(t, false)
	w, env := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "disconnected")
	assert.Contains(t, string(env.Data), "disabled")
}
