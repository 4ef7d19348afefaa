package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/catalog"
	"github.com/cleberrangel/caregiver-fit-api/internal/client"
	"github.com/cleberrangel/caregiver-fit-api/internal/middleware"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/cleberrangel/caregiver-fit-api/internal/repository"
	"github.com/cleberrangel/caregiver-fit-api/internal/service"
	"github.com/cleberrangel/caregiver-fit-api/internal/websocket"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testToken = "token-teste"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAnalyzer struct {
	gate chan struct{}
	err  error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, _ client.AnalysisRequest) (*model.Analysis, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &model.Analysis{
		Scores:            model.Scores{Emotional: 85, Medical: 70, Admin: 55, Living: 60, Activity: 90},
		SuitabilityAdvice: "具備良好的陪伴能力。",
		AIAssistance:      "推薦工具\n- ChatGPT：整理照護紀錄",
		Model:             "model-pro",
	}, nil
}

type stubSyncer struct {
	mu  sync.Mutex
	err error
	got []model.SyncConfig
}

func (s *stubSyncer) Sync(_ context.Context, cfg model.SyncConfig, _ *model.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, cfg)
	return s.err
}

type testServer struct {
	router   *gin.Engine
	svc      *service.AssessmentService
	hub      *websocket.Hub
	analyzer *stubAnalyzer
	syncer   *stubSyncer
}

func newTestServer(t *testing.T, withAnalyzer bool) *testServer {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	ts := &testServer{
		hub:      websocket.NewHub(),
		analyzer: &stubAnalyzer{},
		syncer:   &stubSyncer{},
	}
	go ts.hub.Run()

	var analyzer service.Analyzer
	if withAnalyzer {
		analyzer = ts.analyzer
	}
	ts.svc = service.NewAssessmentService(cat, repository.NewMemoryStore(), analyzer, ts.syncer, ts.hub)
	t.Cleanup(ts.svc.Wait)

	drafts := service.NewDraftService(cat, time.Minute)
	t.Cleanup(drafts.Stop)

	ts.router = NewRouter(testToken, Handlers{
		Health:     NewHealthHandler(nil, ts.hub, withAnalyzer, "test"),
		Catalog:    NewCatalogHandler(cat),
		Assessment: NewAssessmentHandler(ts.svc, WSPath),
		Draft:      NewDraftHandler(drafts),
		WebSocket:  NewWebSocketHandler(ts.hub),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// decode lê model.Response e devolve o campo data em out
func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
}

func sampleBody() map[string]interface{} {
	return map[string]interface{}{
		"tasks": []map[string]interface{}{
			{"name": "陪伴就醫", "hours": 2},
			{"name": "房務打掃", "hours": 1},
		},
		"other_tasks":  "陪伴聊天，1.5小時",
		"period_total": 10,
		"interests":    []string{"高齡體智能與運動"},
	}
}

func TestAPIRequiresToken(t *testing.T) {
	ts := newTestServer(t, true)

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalog(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cat catalog.Catalog
	decode(t, w, &cat)
	assert.Len(t, cat.Quadrants, 4)
	assert.NotEmpty(t, cat.Tasks)
	assert.Equal(t, catalog.PolicyReject, cat.UnmatchedPolicy)
}

func TestScore(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodPost, "/api/v1/assessments/score", sampleBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report struct {
		Composite    int     `json:"composite_score"`
		TrackedHours float64 `json:"tracked_hours"`
		IdleHours    float64 `json:"idle_hours"`
	}
	decode(t, w, &report)
	assert.Equal(t, 35, report.Composite)
	assert.Equal(t, 4.5, report.TrackedHours)
	assert.Equal(t, 5.5, report.IdleHours)
}

func TestScoreValidation(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"json inválido", "not-json", http.StatusBadRequest},
		{"sem tarefas", map[string]interface{}{"period_total": 10}, http.StatusBadRequest},
		{"horas negativas", map[string]interface{}{
			"tasks": []map[string]interface{}{{"name": "陪伴就醫", "hours": -1}},
		}, http.StatusBadRequest},
		{"horas acima do teto", map[string]interface{}{
			"tasks": []map[string]interface{}{
				{"name": "陪伴就醫", "hours": 1e308},
				{"name": "長輩引導", "hours": 1e308},
			},
			"period_total": 8,
		}, http.StatusBadRequest},
		{"período acima do teto", map[string]interface{}{
			"tasks":        []map[string]interface{}{{"name": "陪伴就醫", "hours": 1}},
			"period_total": 1e308,
		}, http.StatusBadRequest},
		{"tarefa fora do catálogo", map[string]interface{}{
			"tasks": []map[string]interface{}{{"name": "不存在", "hours": 1}},
		}, http.StatusBadRequest},
		{"webhook inválido", map[string]interface{}{
			"tasks": []map[string]interface{}{{"name": "陪伴就醫", "hours": 1}},
			"sync":  map[string]interface{}{"mode": "webhook", "webhook_url": "ftp://x"},
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/assessments/score", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			var resp model.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreateWithoutAnalyzer(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodPost, "/api/v1/assessments", sampleBody())
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCreateAndRead(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodPost, "/api/v1/assessments", sampleBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.Assessment
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusCompleted, created.Status)
	require.NotNil(t, created.Report)
	assert.Equal(t, 35, created.Report.Composite)
	assert.Len(t, created.Radar, 5)

	w = ts.do(t, http.MethodGet, "/api/v1/assessments/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.Assessment
	decode(t, w, &got)
	assert.Equal(t, created.ID, got.ID)

	w = ts.do(t, http.MethodGet, "/api/v1/assessments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.AssessmentSummary
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 35, list[0].Composite)

	w = ts.do(t, http.MethodGet, "/api/v1/assessments/"+created.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown"))
	assert.Contains(t, w.Body.String(), "綜合分數：35")

	w = ts.do(t, http.MethodGet, "/api/v1/assessments/"+created.ID+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.XLSXMime, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "caregiver-assessment-"+created.ID+".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{service.SheetQuadrants, service.SheetHours, service.SheetRadar, service.SheetAdvice}, f.GetSheetList())
}

func TestGetErrors(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodGet, "/api/v1/assessments/nao-e-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/assessments/7f8c2d4e-0000-4000-8000-000000000009", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/assessments/7f8c2d4e-0000-4000-8000-000000000009/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAnalysisErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"cota esgotada", model.ErrQuotaExhausted, http.StatusTooManyRequests},
		{"chave inválida", model.ErrInvalidAPIKey, http.StatusBadGateway},
		{"timeout", model.ErrTimeout, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, true)
			ts.analyzer.err = tt.err

			w := ts.do(t, http.MethodPost, "/api/v1/assessments", sampleBody())
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			// A avaliação fica guardada como failed
			w = ts.do(t, http.MethodGet, "/api/v1/assessments", nil)
			var list []model.AssessmentSummary
			decode(t, w, &list)
			require.Len(t, list, 1)
			assert.Equal(t, model.StatusFailed, list[0].Status)
		})
	}
}

func TestSyncEndpoint(t *testing.T) {
	ts := newTestServer(t, true)

	w := ts.do(t, http.MethodPost, "/api/v1/assessments", sampleBody())
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Assessment
	decode(t, w, &created)

	path := "/api/v1/assessments/" + created.ID + "/sync"

	w = ts.do(t, http.MethodPost, path, map[string]interface{}{"mode": "notion", "api_key": "k"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, path, map[string]interface{}{"mode": "webhook", "webhook_url": "https://hooks.example.com/x"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var synced model.Assessment
	decode(t, w, &synced)
	assert.Equal(t, model.SyncDone, synced.SyncStatus)

	ts.syncer.err = model.ErrSyncFailed
	w = ts.do(t, http.MethodPost, path, map[string]interface{}{"mode": "webhook", "webhook_url": "https://hooks.example.com/x"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/assessments/"+created.ID, nil)
	var got model.Assessment
	decode(t, w, &got)
	assert.Equal(t, model.SyncFailed, got.SyncStatus)
}

func TestDraftEndpoints(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodPost, "/api/v1/drafts", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var d service.Draft
	decode(t, w, &d)
	base := "/api/v1/drafts/" + d.ID

	w = ts.do(t, http.MethodPost, base+"/tasks/toggle", map[string]string{"name": "陪伴就醫"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, base+"/tasks/adjust", map[string]interface{}{"name": "陪伴就醫", "delta": 1})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &d)
	require.Len(t, d.Tasks, 1)
	assert.Equal(t, 1.5, d.Tasks[0].Hours)

	w = ts.do(t, http.MethodPost, base+"/interests/toggle", map[string]string{"label": "高齡體智能與運動"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &d)
	assert.Equal(t, []string{"高齡體智能與運動"}, d.Interests)

	w = ts.do(t, http.MethodPost, base+"/tasks/toggle", map[string]string{"name": "不存在"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, base+"/tasks/toggle", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var hc struct {
		Status     string                       `json:"status"`
		Components map[string]map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hc))
	assert.Equal(t, "in-memory", hc.Components["storage"]["message"])
	assert.Equal(t, "degraded", hc.Components["analyzer"]["status"])

	w = ts.do(t, http.MethodGet, "/metrics/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"assessments"`)
}

func TestAsyncCreateStreamsStatus(t *testing.T) {
	ts := newTestServer(t, true)
	ts.analyzer.gate = make(chan struct{})

	body := sampleBody()
	body["async"] = true
	w := ts.do(t, http.MethodPost, "/api/v1/assessments", body)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var created CreateResponse
	decode(t, w, &created)
	require.NotNil(t, created.Assessment)
	assert.Equal(t, model.StatusAnalyzing, created.Assessment.Status)
	assert.Equal(t, WSPath+"?assessment_id="+created.Assessment.ID, created.WSURL)

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + created.WSURL + "&token=" + testToken
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var welcome websocket.Message
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "connection", welcome.Type)

	close(ts.analyzer.gate)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var update websocket.StatusUpdate
		require.NoError(t, conn.ReadJSON(&update))
		if update.Stage == websocket.StageCompleted {
			assert.Equal(t, created.Assessment.ID, update.AssessmentID)
			break
		}
	}

	ts.svc.Wait()
	w = ts.do(t, http.MethodGet, "/api/v1/assessments/"+created.Assessment.ID, nil)
	var got model.Assessment
	decode(t, w, &got)
	assert.Equal(t, model.StatusCompleted, got.Status)
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	ts := newTestServer(t, true)

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, WSPath+"?assessment_id=x&token=errado", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, middleware.CodeTokenInvalid, resp.Code)

	// Na API o token só vale pelo header
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog?token="+testToken, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
