package homeassistant

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Konstanten für Home Assistant MQTT Discovery
const (
	// Standard-Discovery-Präfix von Home Assistant
	DefaultDiscoveryPrefix = "homeassistant"

	// Component-Typ für Sensoren
	ComponentSensor = "sensor"

	// Node-ID des Ponto-Terminals
	NodeID = "registro_ponto"
)

// MessagePublisher ist der Teil des MQTT-Clients, den diese Integration braucht
type MessagePublisher interface {
	Publish(topic string, payload interface{}) error
	PublishRetain(topic string, payload interface{}) error
}

// SensorConfig repräsentiert die MQTT-Discovery-Konfiguration für einen Sensor in Home Assistant
type SensorConfig struct {
	Name                string  `json:"name"`
	UniqueID            string  `json:"unique_id"`
	StateTopic          string  `json:"state_topic"`
	Icon                string  `json:"icon,omitempty"`
	JSONAttributesTopic string  `json:"json_attributes_topic,omitempty"`
	ValueTemplate       string  `json:"value_template,omitempty"`
	AvailabilityTopic   string  `json:"availability_topic,omitempty"`
	PayloadAvailable    string  `json:"payload_available,omitempty"`
	PayloadNotAvailable string  `json:"payload_not_available,omitempty"`
	Device              *Device `json:"device,omitempty"`
}

// Device repräsentiert die Geräteinformationen für Home Assistant
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// DiscoveryManager verwaltet die Home Assistant MQTT Discovery
type DiscoveryManager struct {
	client          MessagePublisher
	topics          Topics
	discoveryPrefix string
}

// NewDiscoveryManager erstellt einen neuen Manager für Home Assistant Discovery
func NewDiscoveryManager(client MessagePublisher, topics Topics, discoveryPrefix string) *DiscoveryManager {
	if discoveryPrefix == "" {
		discoveryPrefix = DefaultDiscoveryPrefix
	}
	return &DiscoveryManager{
		client:          client,
		topics:          topics,
		discoveryPrefix: strings.TrimSuffix(discoveryPrefix, "/"),
	}
}

// RegisterSensors veröffentlicht die Sensoren "letzter Ponto" und "letztes Ergebnis"
func (dm *DiscoveryManager) RegisterSensors() error {
	device := &Device{
		Identifiers:  []string{NodeID},
		Name:         "Registro de Ponto",
		Manufacturer: "registro-ponto",
		Model:        "Kiosk",
	}

	sensors := map[string]SensorConfig{
		"last_attendance": {
			Name:                "Último ponto",
			UniqueID:            NodeID + "_last_attendance",
			StateTopic:          dm.topics.LastAttendance(),
			JSONAttributesTopic: dm.topics.LastAttendance(),
			ValueTemplate:       "{{ value_json.name }}",
			Icon:                "mdi:badge-account",
			Device:              device,
		},
		"last_outcome": {
			Name:          "Último resultado",
			UniqueID:      NodeID + "_last_outcome",
			StateTopic:    dm.topics.Outcome(),
			ValueTemplate: "{{ value_json.kind }}",
			Icon:          "mdi:face-recognition",
			Device:        device,
		},
	}

	var failed []string
	for objectID, sensor := range sensors {
		sensor.AvailabilityTopic = dm.topics.Availability()
		sensor.PayloadAvailable = "online"
		sensor.PayloadNotAvailable = "offline"

		topic := fmt.Sprintf("%s/%s/%s/%s/config", dm.discoveryPrefix, ComponentSensor, NodeID, objectID)
		log.Infof("Registering Home Assistant sensor %s", objectID)
		if err := dm.client.PublishRetain(topic, sensor); err != nil {
			log.Errorf("Failed to register sensor %s: %v", objectID, err)
			failed = append(failed, objectID)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to publish discovery configuration for %s", strings.Join(failed, ", "))
	}
	return nil
}

// PublishAvailability veröffentlicht den Online-Status des Terminals
func (dm *DiscoveryManager) PublishAvailability(online bool) error {
	status := "offline"
	if online {
		status = "online"
	}
	return dm.client.PublishRetain(dm.topics.Availability(), status)
}
