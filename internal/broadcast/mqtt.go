// Package broadcast pushes countdown projections to mosque screens over MQTT.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/iqamah/internal/countdown"
)

const (
	DefaultPrefix = "mosques"
	disconnectMS  = 250
)

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

// Connect opens an auto-reconnecting client to brokerURL.
func Connect(brokerURL, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Info().Str("broker", brokerURL).Str("client_id", clientID).Msg("MQTT client initialized")
	return client, nil
}

// Topic is where a mosque's countdown is published, e.g. "mosques/example-mosque/countdown".
func Topic(prefix, slug string) string {
	return fmt.Sprintf("%s/%s/countdown", prefix, slug)
}

// Publisher sends projections as retained JSON messages so a screen that
// subscribes late gets the latest state immediately.
type Publisher struct {
	client mqtt.Client
	prefix string
	qos    byte
}

func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{client: client, prefix: prefix}
}

type message struct {
	Slug string `json:"slug"`
	countdown.Projection
}

func (p *Publisher) Publish(ctx context.Context, slug string, proj countdown.Projection) error {
	payload, err := json.Marshal(message{Slug: slug, Projection: proj})
	if err != nil {
		return fmt.Errorf("encode countdown for %s: %w", slug, err)
	}

	topic := Topic(p.prefix, slug)
	token := p.client.Publish(topic, p.qos, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects the client.
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(disconnectMS)
		log.Info().Msg("MQTT client disconnected")
	}
}

var _ countdown.Publisher = (*Publisher)(nil)
