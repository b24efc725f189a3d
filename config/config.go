package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config repräsentiert die Hauptkonfiguration des Ponto-Terminals
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Detector DetectorConfig `mapstructure:"detector"`
	Encoder  EncoderConfig  `mapstructure:"encoder"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Queue    QueueConfig    `mapstructure:"queue"`
	I18n     I18nConfig     `mapstructure:"i18n"`
}

// ServerConfig enthält Server-bezogene Einstellungen
type ServerConfig struct {
	Host          string   `mapstructure:"host"`
	Port          int      `mapstructure:"port"`
	DataDir       string   `mapstructure:"data_dir"`
	Timezone      string   `mapstructure:"timezone"`
	SessionSecret string   `mapstructure:"session_secret"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
	Metrics       bool     `mapstructure:"metrics"`
}

// LogConfig enthält Log-Einstellungen
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DBConfig enthält Datenbankeinstellungen (SQLite)
type DBConfig struct {
	File string `mapstructure:"file"`
}

// Kamera-Quellen
const (
	SourceDevice    = "device"
	SourceDirectory = "directory"
)

// CameraConfig beschreibt die Bildquelle und den Takt einer Erfassungssitzung
type CameraConfig struct {
	Source        string        `mapstructure:"source"`    // "device" oder "directory"
	DeviceID      int           `mapstructure:"device_id"` // Index der Kamera für OpenCV
	Directory     string        `mapstructure:"directory"` // Bildverzeichnis für Headless-Betrieb
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	SessionWindow time.Duration `mapstructure:"session_window"`
}

// DetectorConfig enthält die Parameter der Haar-Kaskade
type DetectorConfig struct {
	CascadeFile  string  `mapstructure:"cascade_file"`
	ScaleFactor  float64 `mapstructure:"scale_factor"`
	MinNeighbors int     `mapstructure:"min_neighbors"`
	MinSize      int     `mapstructure:"min_size"` // Minimale Kantenlänge eines Gesichts in Pixeln
}

// Encoder-Backends
const (
	EncoderOpenCV = "opencv"
	EncoderXDraw  = "xdraw"
)

// EncoderConfig legt die Normalisierung vor dem Hashing fest
type EncoderConfig struct {
	Backend       string `mapstructure:"backend"` // "opencv" oder "xdraw"
	Width         int    `mapstructure:"width"`
	Height        int    `mapstructure:"height"`
	Interpolation string `mapstructure:"interpolation"`
}

// PreviewConfig steuert das Vorschaubild
type PreviewConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	JPEGQuality int  `mapstructure:"jpeg_quality"`
}

// MQTTConfig enthält die Konfiguration für den MQTT-Client
type MQTTConfig struct {
	Enabled       bool                `mapstructure:"enabled"`
	Broker        string              `mapstructure:"broker"`
	Port          int                 `mapstructure:"port"`
	Username      string              `mapstructure:"username"`
	Password      string              `mapstructure:"password"`
	ClientID      string              `mapstructure:"client_id"`
	TopicPrefix   string              `mapstructure:"topic_prefix"`
	HomeAssistant HomeAssistantConfig `mapstructure:"homeassistant"`
}

// HomeAssistantConfig enthält die Konfiguration für die Home Assistant Integration
type HomeAssistantConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	DiscoveryPrefix string `mapstructure:"discovery_prefix"`
}

// Queue-Backends
const (
	QueueNone   = "none"
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// QueueConfig beschreibt die Übergabe neuer Ereignisse an den Synchronisierer
type QueueConfig struct {
	Backend       string `mapstructure:"backend"` // "none", "memory" oder "redis"
	Key           string `mapstructure:"key"`
	Capacity      int    `mapstructure:"capacity"` // nur für "memory"
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// I18nConfig enthält die Spracheinstellungen
type I18nConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
}

// Load lädt die Konfiguration aus Datei, Umgebungsvariablen und Standardwerten
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Warnf("Config file %s does not exist, using defaults", configPath)
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.Infof("Config loaded from %s", configPath)
		}
	}

	// Umgebungsvariablen überlagern die Konfiguration, z.B. PONTO_CAMERA_SOURCE
	v.SetEnvPrefix("PONTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := ensureDirectories(&cfg); err != nil {
		return nil, fmt.Errorf("failed to create required directories: %w", err)
	}

	return &cfg, nil
}

// setDefaults legt Standardwerte für die Konfiguration fest
func setDefaults(v *viper.Viper) {
	// Server-Standardwerte
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.timezone", "")
	v.SetDefault("server.session_secret", "registro-ponto")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.metrics", true)

	// Log-Standardwerte
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	// DB-Standardwerte
	v.SetDefault("db.file", "./data/ponto.db")

	// Kamera: 30 ms Takt, 5 s Fenster
	v.SetDefault("camera.source", SourceDevice)
	v.SetDefault("camera.device_id", 0)
	v.SetDefault("camera.directory", "./data/frames")
	v.SetDefault("camera.poll_interval", 30*time.Millisecond)
	v.SetDefault("camera.session_window", 5*time.Second)

	// Haar-Kaskade
	v.SetDefault("detector.cascade_file", "./data/haarcascade_frontalface_default.xml")
	v.SetDefault("detector.scale_factor", 1.1)
	v.SetDefault("detector.min_neighbors", 5)
	v.SetDefault("detector.min_size", 50)

	// Encoder
	v.SetDefault("encoder.backend", EncoderOpenCV)
	v.SetDefault("encoder.width", 100)
	v.SetDefault("encoder.height", 100)
	v.SetDefault("encoder.interpolation", "linear")

	v.SetDefault("preview.enabled", true)
	v.SetDefault("preview.jpeg_quality", 80)

	// MQTT-Standardwerte
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.client_id", "registro-ponto")
	v.SetDefault("mqtt.topic_prefix", "ponto")
	v.SetDefault("mqtt.homeassistant.enabled", false)
	v.SetDefault("mqtt.homeassistant.discovery_prefix", "homeassistant")

	// Queue-Standardwerte
	v.SetDefault("queue.backend", QueueNone)
	v.SetDefault("queue.key", "ponto:attendance")
	v.SetDefault("queue.capacity", 1024)
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_password", "")
	v.SetDefault("queue.redis_db", 0)

	v.SetDefault("i18n.default_language", "pt-BR")
}

// Validate prüft die Werte, die ohne Fehlermeldung zu falschem Verhalten führen würden
func (c *Config) Validate() error {
	switch c.Camera.Source {
	case SourceDevice:
	case SourceDirectory:
		if c.Camera.Directory == "" {
			return fmt.Errorf("camera.directory is required for source %q", SourceDirectory)
		}
	default:
		return fmt.Errorf("unknown camera.source %q", c.Camera.Source)
	}
	if c.Camera.PollInterval <= 0 {
		return fmt.Errorf("camera.poll_interval must be positive, got %s", c.Camera.PollInterval)
	}
	if c.Camera.SessionWindow <= 0 {
		return fmt.Errorf("camera.session_window must be positive, got %s", c.Camera.SessionWindow)
	}

	if c.Detector.ScaleFactor <= 1.0 {
		return fmt.Errorf("detector.scale_factor must be greater than 1, got %v", c.Detector.ScaleFactor)
	}
	if c.Detector.MinNeighbors < 0 || c.Detector.MinSize < 0 {
		return fmt.Errorf("detector.min_neighbors and detector.min_size must not be negative")
	}

	switch c.Encoder.Backend {
	case EncoderOpenCV, EncoderXDraw:
	default:
		return fmt.Errorf("unknown encoder.backend %q", c.Encoder.Backend)
	}
	if c.Encoder.Width <= 0 || c.Encoder.Height <= 0 {
		return fmt.Errorf("encoder size must be positive, got %dx%d", c.Encoder.Width, c.Encoder.Height)
	}

	switch c.Queue.Backend {
	case QueueNone, QueueMemory, QueueRedis:
	default:
		return fmt.Errorf("unknown queue.backend %q", c.Queue.Backend)
	}

	if c.Preview.JPEGQuality < 1 || c.Preview.JPEGQuality > 100 {
		return fmt.Errorf("preview.jpeg_quality must be within 1..100, got %d", c.Preview.JPEGQuality)
	}
	return nil
}

// Address liefert host:port für den HTTP-Server
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ensureDirectories stellt sicher, dass alle erforderlichen Verzeichnisse existieren
func ensureDirectories(cfg *Config) error {
	// Daten-Basisverzeichnis
	if cfg.Server.DataDir != "" {
		if err := os.MkdirAll(cfg.Server.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// Log-Verzeichnis
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	// Datenbank-Verzeichnis
	if cfg.DB.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.File), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return nil
}
