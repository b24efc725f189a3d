package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"registro-ponto/config"
	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/core/models"
	"registro-ponto/internal/i18n"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idleStation struct{}

func (idleStation) Start(string) (*capture.Session, error) { return nil, capture.ErrSessionActive }
func (idleStation) RequestStop() bool                      { return false }
func (idleStation) Status() capture.Status                 { return capture.Status{} }

type previewStub struct{}

func (previewStub) RegisterRoutes(router gin.IRouter) {
	router.GET("/preview/latest.jpg", func(c *gin.Context) { c.Status(http.StatusNotFound) })
}

type noRecords struct{}

func (noRecords) ListPersons(context.Context) ([]models.Person, error) { return nil, nil }
func (noRecords) RecentEvents(context.Context, int) ([]models.AttendanceEvent, error) {
	return []models.AttendanceEvent{}, nil
}

func testRouter(t *testing.T, cfg config.ServerConfig, gatherer prometheus.Gatherer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(cfg, Dependencies{
		Station:         idleStation{},
		Records:         noRecords{},
		Previews:        previewStub{},
		Languages:       i18n.MustNew(""),
		Gatherer:        gatherer,
		SessionWindow:   5 * time.Second,
		DefaultLanguage: "pt-BR",
	})
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "ponto_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	r := testRouter(t, config.ServerConfig{SessionSecret: "s", Metrics: true}, reg)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ponto_test_total 1")

	w = serve(r, httptest.NewRequest(http.MethodPost, "/api/capture", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/attendance", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/preview/latest.jpg", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Ohne Hub gibt es keinen Event-Stream
	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterWithoutMetrics(t *testing.T) {
	r := testRouter(t, config.ServerConfig{SessionSecret: "s", Metrics: false}, prometheus.NewRegistry())
	w := serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	r := testRouter(t, config.ServerConfig{SessionSecret: "s", CORSOrigins: []string{"http://kiosk.local"}}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/capture", nil)
	req.Header.Set("Origin", "http://kiosk.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://kiosk.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/capture", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSConfig(t *testing.T) {
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)
	assert.True(t, corsConfig(nil).AllowAllOrigins)

	c := corsConfig([]string{"http://a", "http://b"})
	assert.False(t, c.AllowAllOrigins)
	assert.Equal(t, []string{"http://a", "http://b"}, c.AllowOrigins)
	assert.True(t, c.AllowCredentials)
}

func TestServerRunStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	srv := New(addr, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusTeapot
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerRunReportsListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	err = New(l.Addr().String(), http.NotFoundHandler()).Run(context.Background())
	assert.Error(t, err)
}
