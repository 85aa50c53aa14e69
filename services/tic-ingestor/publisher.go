package main

import (
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MqttPublisher implementuje tic.Publisher nad paho klientem.
// QoS 0, bez retain; na potvrzení se nečeká, chyba doručení se jen zaloguje.
type MqttPublisher struct {
	client mqtt.Client
	logger *slog.Logger
	qos    byte
	retain bool
}

// NewMqttPublisher vytvoří publisher nad již připojeným klientem.
func NewMqttPublisher(client mqtt.Client, logger *slog.Logger) *MqttPublisher {
	return &MqttPublisher{client: client, logger: logger}
}

// Publish odešle zprávu a hned se vrátí.
// Token.Wait() nevoláme v dekódovací smyčce; výsledek hlídá samostatná goroutina.
func (p *MqttPublisher) Publish(topic string, payload []byte) {
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			p.logger.Error("Chyba při publikaci do MQTT", "topic", topic, "error", err)
		}
	}()
}
