package handlers

import (
	"net/http"

	"registro-ponto/internal/utils"

	"github.com/gin-gonic/gin"
)

// SystemHandler liefert System- und Stationsstatistiken
type SystemHandler struct {
	station utils.StationStatus
}

// NewSystemHandler erstellt einen neuen System-Handler
func NewSystemHandler(station utils.StationStatus) *SystemHandler {
	return &SystemHandler{station: station}
}

// RegisterRoutes registriert die System-Routen
func (h *SystemHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)
}

// GetStatus gibt den Systemstatus zurück
func (h *SystemHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetSystemStats(h.station))
}
