package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"registro-ponto/internal/i18n"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLanguageRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Sessions("test-secret"), Language(i18n.MustNew("")))
	r.GET("/lang", func(c *gin.Context) {
		c.String(http.StatusOK, LanguageFrom(c, "none"))
	})
	return r
}

func get(r http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLanguageDefaultsToPortuguese(t *testing.T) {
	w := get(newLanguageRouter(t), "/lang", nil)
	assert.Equal(t, "pt-BR", w.Body.String())
}

func TestLanguageQueryIsStoredInSession(t *testing.T) {
	r := newLanguageRouter(t)

	w := get(r, "/lang?lang=en", nil)
	assert.Equal(t, "en", w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, SessionName, cookies[0].Name)

	header := http.Header{"Cookie": {cookies[0].Name + "=" + cookies[0].Value}}
	w = get(r, "/lang", header)
	assert.Equal(t, "en", w.Body.String())
}

func TestLanguageIgnoresUnsupportedQuery(t *testing.T) {
	w := get(newLanguageRouter(t), "/lang?lang=fr", nil)
	assert.Equal(t, "pt-BR", w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

func TestLanguageFromAcceptLanguage(t *testing.T) {
	w := get(newLanguageRouter(t), "/lang", http.Header{"Accept-Language": {"en-GB,en;q=0.8"}})
	assert.Equal(t, "en", w.Body.String())
}

func TestLanguageFromFallback(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "en", LanguageFrom(c, "en"))
}
