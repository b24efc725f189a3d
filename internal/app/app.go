// Package app verdrahtet Konfiguration, Speicher und Erfassungspipeline für die ponto-Befehle
package app

import (
	"context"
	"errors"
	"fmt"

	"registro-ponto/config"
	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/db"
	"registro-ponto/internal/db/repository"
	"registro-ponto/internal/i18n"
	"registro-ponto/internal/integrations/imagedir"
	"registro-ponto/internal/integrations/opencv"
	"registro-ponto/internal/logger"
	"registro-ponto/internal/queue"
	"registro-ponto/internal/util/timezone"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App hält die langlebigen Komponenten, die alle Befehle teilen
type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Repo       *repository.Repository
	Translator *i18n.Translator

	closers []func() error
}

// Bootstrap lädt die Konfiguration und öffnet die Datenbank. migrate führt die Schema-Migration aus
func Bootstrap(configPath string, migrate bool) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return New(cfg, migrate)
}

// New baut eine App aus einer bereits geladenen Konfiguration
func New(cfg *config.Config, migrate bool) (*App, error) {
	logCloser, err := logger.Init(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &App{Config: cfg}
	a.onClose(logCloser.Close)

	timezone.Initialize(cfg.Server.Timezone)

	a.Translator, err = i18n.New(cfg.I18n.DefaultLanguage)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.DB, err = db.Open(cfg.DB)
	if err != nil {
		a.Close()
		return nil, err
	}
	gdb := a.DB
	a.onClose(func() error { return db.Close(gdb) })

	if migrate {
		if err := db.Migrate(a.DB); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Repo = repository.NewRepository(a.DB)
	return a, nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close gibt alles in umgekehrter Reihenfolge frei
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Localizers liefert den Localizer zur Sprache einer Sitzung
func (a *App) Localizers() capture.LocalizerFunc {
	return func(lang string) capture.Localizer {
		return a.Translator.Localizer(lang)
	}
}

// NewSource erstellt die konfigurierte Bildquelle
func (a *App) NewSource() (capture.FrameSource, error) {
	switch a.Config.Camera.Source {
	case config.SourceDevice:
		return opencv.NewCamera(a.Config.Camera.DeviceID), nil
	case config.SourceDirectory:
		return imagedir.New(a.Config.Camera.Directory), nil
	default:
		return nil, fmt.Errorf("unknown camera source %q", a.Config.Camera.Source)
	}
}

// NewStore liefert den Speicherzugriff und veröffentlicht geschriebene Ereignisse, wenn eine
// Queue konfiguriert ist. Beim Backend "none" ist die Queue nil
func (a *App) NewStore() (capture.Store, queue.Queue, error) {
	var store capture.Store = repository.NewStore(a.DB)

	var q queue.Queue
	switch a.Config.Queue.Backend {
	case config.QueueNone, "":
		return store, nil, nil
	case config.QueueMemory:
		q = queue.NewInMemory(a.Config.Queue.Capacity)
	case config.QueueRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.Config.Queue.RedisAddr,
			Password: a.Config.Queue.RedisPassword,
			DB:       a.Config.Queue.RedisDB,
		})
		a.onClose(client.Close)
		q = queue.NewRedisQueue(client, a.Config.Queue.Key)
	default:
		return nil, nil, fmt.Errorf("unknown queue backend %q", a.Config.Queue.Backend)
	}
	log.Infof("Attendance events are queued for sync via %s backend", a.Config.Queue.Backend)
	return queue.NewPublishingStore(store, q), q, nil
}

// NewRegistry erstellt die Prometheus-Registry mit Prozess- und Go-Collectoren
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Pipeline bündelt den Controller mit den Ressourcen, die ihm gehören
type Pipeline struct {
	Controller *capture.Controller
	Vision     *opencv.Service
	Queue      queue.Queue
}

// NewPipeline baut den Controller mit bridges als Anzeigezielen. Bei aktivierter Vorschau kommt
// der Preview-Store des Vision-Services hinzu
func (a *App) NewPipeline(bridges capture.Bridges, recorder capture.Recorder) (*Pipeline, error) {
	vision, err := opencv.NewService(a.Config)
	if err != nil {
		return nil, err
	}
	a.onClose(vision.Close)
	if vision.Preview != nil {
		bridges = append(bridges, vision.Previews)
	}

	source, err := a.NewSource()
	if err != nil {
		return nil, err
	}
	store, q, err := a.NewStore()
	if err != nil {
		return nil, err
	}

	ctrl, err := capture.NewController(capture.Dependencies{
		Source:   source,
		Locator:  vision.Locator,
		Encoder:  vision.Encoder,
		Store:    store,
		Preview:  vision.Preview,
		Bridge:   bridges,
		Recorder: recorder,
		Clock:    timezone.Now,
	}, capture.Options{
		PollInterval:  a.Config.Camera.PollInterval,
		SessionWindow: a.Config.Camera.SessionWindow,
	})
	if err != nil {
		return nil, err
	}
	return &Pipeline{Controller: ctrl, Vision: vision, Queue: q}, nil
}

// DrainLocal protokolliert Ereignisse aus der prozessinternen Queue, bis ctx endet. Andere
// Backends liest der externe Sync-Dienst
func DrainLocal(ctx context.Context, q queue.Queue) {
	mem, ok := q.(*queue.InMemory)
	if !ok {
		return
	}
	msgs, err := mem.Consume(ctx)
	if err != nil {
		log.Errorf("Failed to consume local queue: %v", err)
		return
	}
	for msg := range msgs {
		log.WithField("type", msg.Type).Infof("Attendance event ready for sync: %s", msg.Body)
	}
}
