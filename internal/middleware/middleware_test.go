package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/metrics"
	"github.com/cleberrangel/caregiver-fit-api/internal/model"
	"github.com/cleberrangel/caregiver-fit-api/internal/scoring"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBearerAuth(t *testing.T) {
	newRouter := func(cfg AuthConfig) *gin.Engine {
		router := gin.New()
		router.Use(BearerAuth(cfg))
		router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}
	api := newRouter(AuthConfig{TokenAPI: "segredo"})
	ws := newRouter(AuthConfig{TokenAPI: "segredo", AllowQuery: true})

	tests := []struct {
		name     string
		router   *gin.Engine
		url      string
		header   string
		want     int
		wantCode string
	}{
		{"sem header", api, "/x", "", http.StatusUnauthorized, CodeTokenNotFound},
		{"formato inválido", api, "/x", "Token segredo", http.StatusUnauthorized, CodeTokenMalformed},
		{"bearer sem token", api, "/x", "Bearer ", http.StatusUnauthorized, CodeTokenMalformed},
		{"token errado", api, "/x", "Bearer outro", http.StatusUnauthorized, CodeTokenInvalid},
		{"prefixo do token", api, "/x", "Bearer segred", http.StatusUnauthorized, CodeTokenInvalid},
		{"query ignorada na API", api, "/x?token=segredo", "", http.StatusUnauthorized, CodeTokenNotFound},
		{"token correto", api, "/x", "Bearer segredo", http.StatusOK, ""},
		{"esquema minúsculo", api, "/x", "bearer segredo", http.StatusOK, ""},
		{"query no websocket", ws, "/x?token=segredo", "", http.StatusOK, ""},
		{"query errada no websocket", ws, "/x?token=outro", "", http.StatusUnauthorized, CodeTokenInvalid},
		{"header no websocket", ws, "/x", "Bearer segredo", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			tt.router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)

			if tt.wantCode == "" {
				return
			}
			var resp model.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestBearerAuthEmptyConfiguredToken(t *testing.T) {
	router := gin.New()
	router.Use(BearerAuth(AuthConfig{}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer x")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) {
		seen = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 8)
	assert.Equal(t, generated, seen)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc-123<script>")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123script", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "abc-123script", seen)
}

func TestAuditMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger.InitWithWriter("info", true, &buf)
	t.Cleanup(func() { logger.Init("info", true) })

	router := gin.New()
	router.Use(AuditMiddleware())
	router.POST("/api/v1/assessments/score", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/assessments", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/assessments", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Empty(t, buf.String())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/assessments/score", nil))
	out := buf.String()
	assert.Contains(t, out, `"action":"API_REQUEST"`)
	assert.Contains(t, out, `"path":"/api/v1/assessments/score"`)
}

func TestMetricsMiddleware(t *testing.T) {
	before := metrics.Get().Snapshot()

	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/api/v1/assessments/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/assessments/abc", nil))

	snap := metrics.Get().Snapshot()
	assert.Equal(t, before.Requests.Total+1, snap.Requests.Total)
	assert.Equal(t, before.Requests.Failed+1, snap.Requests.Failed)

	ep, ok := snap.Endpoints["GET /api/v1/assessments/:id"]
	require.True(t, ok, "endpoints: %v", snap.Endpoints)
	assert.Equal(t, before.Endpoints["GET /api/v1/assessments/:id"].Errors+1, ep.Errors)
}

func TestSanitizeString(t *testing.T) {
	got := SanitizeString("  a\x00b\x07<b>  ", DefaultSanitizeConfig())
	assert.Equal(t, "ab&lt;b&gt;", got)

	got = SanitizeString(strings.Repeat("長", 10), SanitizeConfig{MaxStringLength: 3, AllowHTML: true})
	assert.Equal(t, "長長長", got)
}

func TestSanitizeFreeTextKeepsNewlines(t *testing.T) {
	assert.Equal(t, "陪伴聊天，1.5小時\n備餐 2h", SanitizeFreeText(" 陪伴聊天，1.5小時\n備餐 2h \x00"))
}

func TestSanitizeAssessmentRequest(t *testing.T) {
	req := &model.AssessmentRequest{
		Tasks: []scoring.SelectedTask{
			{Name: " 陪伴就醫 ", Hours: 2},
			{Name: "\x00\x01", Hours: 1},
		},
		Interests: []string{"  ", "高齡體智能與運動"},
		Sync: &model.SyncConfig{
			Mode:       " Notion ",
			APIKey:     " secret_abc\n",
			DatabaseID: "db-1/../x",
		},
	}

	SanitizeAssessmentRequest(req)

	assert.Equal(t, []scoring.SelectedTask{{Name: "陪伴就醫", Hours: 2}}, req.Tasks)
	assert.Equal(t, []string{"高齡體智能與運動"}, req.Interests)
	assert.Equal(t, model.SyncModeNotion, req.Sync.Mode)
	assert.Equal(t, "secret_abc", req.Sync.APIKey)
	assert.Equal(t, "db-1x", req.Sync.DatabaseID)
}

func TestValidateWebhookURL(t *testing.T) {
	assert.True(t, ValidateWebhookURL("https://hooks.example.com/x"))
	assert.True(t, ValidateWebhookURL("http://localhost:9000"))
	assert.False(t, ValidateWebhookURL("ftp://example.com"))
	assert.False(t, ValidateWebhookURL("/relative"))
	assert.False(t, ValidateWebhookURL("::"))
}
