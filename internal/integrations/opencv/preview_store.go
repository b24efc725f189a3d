package opencv

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"registro-ponto/internal/core/capture"

	"github.com/gin-gonic/gin"
)

// PreviewImage ist ein kodiertes Vorschaubild mit Metadaten
type PreviewImage struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Size      int       `json:"size"`
	Data      []byte    `json:"-"`
}

// PreviewStore hält die letzten Vorschaubilder im Speicher. Er ist eine capture.Bridge,
// die nur Vorschaubilder entgegennimmt.
type PreviewStore struct {
	capture.NopBridge

	mutex     sync.RWMutex
	images    []*PreviewImage // älteste zuerst
	maxImages int
	nextID    uint64
	now       func() time.Time
}

// NewPreviewStore erstellt einen Speicher für bis zu maxImages Bilder
func NewPreviewStore(maxImages int) *PreviewStore {
	if maxImages <= 0 {
		maxImages = 10
	}
	return &PreviewStore{
		images:    make([]*PreviewImage, 0, maxImages),
		maxImages: maxImages,
		now:       time.Now,
	}
}

// OnPreviewFrame speichert ein neues Vorschaubild und verdrängt das älteste
func (s *PreviewStore) OnPreviewFrame(jpeg []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.nextID++
	img := &PreviewImage{ID: s.nextID, Timestamp: s.now(), Size: len(jpeg), Data: jpeg}
	s.images = append(s.images, img)
	if len(s.images) > s.maxImages {
		s.images = s.images[1:]
	}
}

// Latest gibt das neueste Bild zurück oder nil
func (s *PreviewStore) Latest() *PreviewImage {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if len(s.images) == 0 {
		return nil
	}
	return s.images[len(s.images)-1]
}

// List gibt die gespeicherten Bilder zurück, neueste zuerst
func (s *PreviewStore) List() []*PreviewImage {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]*PreviewImage, len(s.images))
	for i, img := range s.images {
		out[len(s.images)-1-i] = img
	}
	return out
}

// Get sucht ein Bild anhand seiner ID
func (s *PreviewStore) Get(id uint64) *PreviewImage {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, img := range s.images {
		if img.ID == id {
			return img
		}
	}
	return nil
}

// RegisterRoutes registriert die API-Routen für die Vorschau
func (s *PreviewStore) RegisterRoutes(router gin.IRouter) {
	router.GET("/api/preview", s.handleList)
	router.GET("/api/preview/latest.jpg", s.handleLatest)
	router.GET("/api/preview/:id", s.handleGet)
}

func (s *PreviewStore) handleList(c *gin.Context) {
	images := s.List()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(images),
		"images": images,
	})
}

func (s *PreviewStore) handleLatest(c *gin.Context) {
	s.serve(c, s.Latest())
}

func (s *PreviewStore) handleGet(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preview id"})
		return
	}
	s.serve(c, s.Get(id))
}

func (s *PreviewStore) serve(c *gin.Context, img *PreviewImage) {
	if img == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview not found"})
		return
	}
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "image/jpeg", img.Data)
}
