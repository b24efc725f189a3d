package main

import (
	"registro-ponto/config"
	"registro-ponto/internal/app"
	"registro-ponto/internal/core/capture"
	"registro-ponto/internal/core/models"
	"registro-ponto/internal/integrations/homeassistant"
	"registro-ponto/internal/integrations/mqtt"
	"registro-ponto/internal/metrics"
	"registro-ponto/internal/server"
	"registro-ponto/internal/server/sse"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the kiosk with its HTTP API",
	Long: `Run the kiosk: capture sessions are started over the HTTP API or the MQTT
control topic, progress is streamed over server-sent events and outcomes
are published to MQTT when enabled.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := app.Bootstrap(configPath, true)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.Config

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := app.NewRegistry()
	recorder := metrics.New(reg)

	hub := sse.NewHub()
	go hub.Run(ctx)
	bridges := capture.Bridges{hub}

	mqttClient, stopMQTT := startMQTT(cfg.MQTT)
	defer stopMQTT()
	if mqttClient != nil {
		publisher := homeassistant.NewPublisher(mqttClient, homeassistant.Topics{Prefix: cfg.MQTT.TopicPrefix}, string(models.EventEntrada), 64)
		go publisher.Run(ctx)
		bridges = append(bridges, publisher)
	}

	pipeline, err := a.NewPipeline(bridges, recorder)
	if err != nil {
		return err
	}
	if pipeline.Queue != nil {
		go app.DrainLocal(ctx, pipeline.Queue)
	}

	station := capture.NewStation(ctx, pipeline.Controller, a.Localizers())
	defer station.Shutdown()

	if mqttClient != nil {
		mqttClient.RegisterHandler(mqtt.NewControlHandler(mqttClient.ControlTopic(), station, a.Translator.DefaultLanguageTag()))
	}

	router := server.NewRouter(cfg.Server, server.Dependencies{
		Station:         station,
		Records:         a.Repo,
		Hub:             hub,
		Previews:        pipeline.Vision.Previews,
		Languages:       a.Translator,
		Gatherer:        reg,
		SessionWindow:   cfg.Camera.SessionWindow,
		DefaultLanguage: a.Translator.DefaultLanguageTag(),
	})
	return server.New(cfg.Server.Address(), router).Run(ctx)
}

// startMQTT verbindet den MQTT-Client und meldet die Home-Assistant-Sensoren an. Der Client ist
// nil, wenn MQTT deaktiviert oder der Broker nicht erreichbar ist; stop darf immer aufgerufen werden
func startMQTT(cfg config.MQTTConfig) (client *mqtt.Client, stop func()) {
	if !cfg.Enabled {
		return nil, func() {}
	}
	client = mqtt.NewClient(cfg)
	if err := client.Start(); err != nil {
		log.Warnf("MQTT disabled for this run: %v", err)
		return nil, func() {}
	}

	if !cfg.HomeAssistant.Enabled {
		return client, client.Stop
	}

	dm := homeassistant.NewDiscoveryManager(client, homeassistant.Topics{Prefix: cfg.TopicPrefix}, cfg.HomeAssistant.DiscoveryPrefix)
	if err := dm.RegisterSensors(); err != nil {
		log.Warnf("Home Assistant discovery incomplete: %v", err)
	}
	if err := dm.PublishAvailability(true); err != nil {
		log.Warnf("Failed to publish availability: %v", err)
	}
	return client, func() {
		if err := dm.PublishAvailability(false); err != nil {
			log.Debugf("Failed to publish offline availability: %v", err)
		}
		client.Stop()
	}
}
