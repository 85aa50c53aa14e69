package tic

import "encoding/json"

// Payload je JSON tělo publikované zprávy.
// timestamp se posílá jen pro datasety se 4 poli.
type Payload struct {
	Timestamp *string `json:"timestamp,omitempty"`
	Data      string  `json:"data"`
}

// Message je jedna odchozí zpráva.
type Message struct {
	Topic   string
	Payload Payload
}

// NewMessage sestaví zprávu pro záznam, topic = prefix + tag.
func NewMessage(prefix string, rec Record) Message {
	return Message{
		Topic: prefix + rec.Tag,
		Payload: Payload{
			Timestamp: rec.Timestamp,
			Data:      rec.Value,
		},
	}
}

// Encode serializuje payload do JSON.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m.Payload)
}

// Publisher předá zprávu dál (MQTT, cache...). Volání nesmí blokovat
// dekódovací smyčku; doručení je věcí implementace (fire-and-forget).
type Publisher interface {
	Publish(topic string, payload []byte)
}

// PublisherFunc umožní použít obyčejnou funkci jako Publisher.
type PublisherFunc func(topic string, payload []byte)

// Publish zavolá f.
func (f PublisherFunc) Publish(topic string, payload []byte) { f(topic, payload) }

// MultiPublisher rozešle každou zprávu všem publisherům v pořadí.
type MultiPublisher []Publisher

// Publish předá zprávu postupně každému publisheru.
func (m MultiPublisher) Publish(topic string, payload []byte) {
	for _, p := range m {
		p.Publish(topic, payload)
	}
}
