package main

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MqttLogWriter implementuje io.Writer a každý zapsaný řádek logu pošle do MQTT.
type MqttLogWriter struct {
	client mqtt.Client
	topic  string
}

// NewMqttLogWriter vytvoří writer publikující na "logs/<serviceName>".
func NewMqttLogWriter(client mqtt.Client, serviceName string) *MqttLogWriter {
	return &MqttLogWriter{
		client: client,
		topic:  fmt.Sprintf("logs/%s", serviceName),
	}
}

// Write pošle kopii p bez čekání na token (fire-and-forget).
// slog buffer po návratu recykluje, proto kopie.
func (w *MqttLogWriter) Write(p []byte) (n int, err error) {
	payload := make([]byte, len(p))
	copy(payload, p)

	w.client.Publish(w.topic, 0, false, payload)
	return len(p), nil
}
