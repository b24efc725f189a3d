package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"registro-ponto/internal/api/middleware"
	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/core/models"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Station ist der Teil von *capture.Station, den die API braucht
type Station interface {
	Start(lang string) (*capture.Session, error)
	RequestStop() bool
	Status() capture.Status
}

// Records liefert Stammdaten und Pontos für die API, implementiert von *repository.Repository
type Records interface {
	ListPersons(ctx context.Context) ([]models.Person, error)
	RecentEvents(ctx context.Context, limit int) ([]models.AttendanceEvent, error)
}

// APIHandler behandelt API-Anfragen für das Terminal
type APIHandler struct {
	station         Station
	records         Records
	window          time.Duration
	defaultLanguage string
	now             func() time.Time
}

// NewAPIHandler erstellt einen neuen API-Handler. window ist das Zeitfenster einer Sitzung.
func NewAPIHandler(station Station, records Records, window time.Duration, defaultLanguage string) *APIHandler {
	return &APIHandler{
		station:         station,
		records:         records,
		window:          window,
		defaultLanguage: defaultLanguage,
		now:             time.Now,
	}
}

// RegisterRoutes registriert alle API-Routen
func (h *APIHandler) RegisterRoutes(router *gin.RouterGroup) {
	// Erfassungs-Endpunkte
	router.POST("/capture", h.StartCapture)
	router.DELETE("/capture", h.StopCapture)
	router.GET("/capture", h.CaptureStatus)

	// Stammdaten und Pontos
	router.GET("/persons", h.ListPersons)
	router.GET("/attendance", h.ListAttendance)
}

// StartCapture startet eine Erfassungssitzung in der Sprache der Anfrage
func (h *APIHandler) StartCapture(c *gin.Context) {
	lang := middleware.LanguageFrom(c, h.defaultLanguage)

	s, err := h.station.Start(lang)
	if errors.Is(err, capture.ErrSessionActive) {
		c.JSON(http.StatusConflict, gin.H{"error": "a capture session is already running"})
		return
	}
	if err != nil {
		log.Errorf("Failed to start capture session: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	// Die genaue Deadline steht erst nach dem Öffnen der Kamera fest
	c.JSON(http.StatusAccepted, gin.H{
		"session_id":     s.ID,
		"language":       s.Language,
		"deadline":       h.now().Add(h.window),
		"window_seconds": int(h.window / time.Second),
	})
}

// StopCapture fordert das Ende der laufenden Sitzung an. Ohne Sitzung passiert nichts.
func (h *APIHandler) StopCapture(c *gin.Context) {
	stopped := h.station.RequestStop()
	c.JSON(http.StatusOK, gin.H{"stop_requested": stopped})
}

// CaptureStatus liefert den Zustand der Station
func (h *APIHandler) CaptureStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.station.Status())
}

// ListPersons liefert alle registrierten Mitarbeiter
func (h *APIHandler) ListPersons(c *gin.Context) {
	persons, err := h.records.ListPersons(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to list persons: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list persons"})
		return
	}
	c.JSON(http.StatusOK, persons)
}

// ListAttendance liefert die letzten Pontos, ?limit= begrenzt die Anzahl
func (h *APIHandler) ListAttendance(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	events, err := h.records.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("Failed to list attendance events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attendance events"})
		return
	}
	c.JSON(http.StatusOK, events)
}
