// Package server baut den gin-Router des Kiosks und betreibt den HTTP-Server
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"registro-ponto/config"
	"registro-ponto/internal/api/handlers"
	"registro-ponto/internal/api/middleware"
	"registro-ponto/internal/server/sse"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Station ist alles, was die HTTP-Schicht von *capture.Station braucht
type Station interface {
	handlers.Station
}

// RouteRegistrar ergänzt optionale Routen, z.B. den Preview-Store
type RouteRegistrar interface {
	RegisterRoutes(router gin.IRouter)
}

// Dependencies sind die Komponenten, die per HTTP bereitgestellt werden
type Dependencies struct {
	Station         Station
	Records         handlers.Records
	Hub             *sse.Hub
	Previews        RouteRegistrar // optional
	Languages       middleware.Languages
	Gatherer        prometheus.Gatherer // optional
	SessionWindow   time.Duration
	DefaultLanguage string
}

// NewRouter baut die gin-Engine mit allen API-Routen
func NewRouter(cfg config.ServerConfig, deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger("/metrics", "/api/events", "/api/preview/latest.jpg"))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.Sessions(cfg.SessionSecret))
	r.Use(middleware.Language(deps.Languages))

	if cfg.Metrics && deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	handlers.NewAPIHandler(deps.Station, deps.Records, deps.SessionWindow, deps.DefaultLanguage).RegisterRoutes(api)
	handlers.NewSystemHandler(deps.Station).RegisterRoutes(api)
	if deps.Hub != nil {
		handlers.NewEventHandler(deps.Hub).RegisterRoutes(api)
	}
	if deps.Previews != nil {
		deps.Previews.RegisterRoutes(api)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	c.AllowCredentials = true
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			c.AllowCredentials = false
			return c
		}
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}

// Server umhüllt den http.Server des Kiosks
type Server struct {
	srv *http.Server
}

// New erstellt einen Server für handler auf addr
func New(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

// Run bedient Anfragen, bis ctx abgebrochen wird, und fährt dann geordnet herunter.
// WriteTimeout bleibt ungesetzt, /api/events streamt unbegrenzt
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
