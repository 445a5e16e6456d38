// Package mqtt mirrors per-cell telemetry to an MQTT broker using
// Home-Assistant style discovery and state topics, so a bench can be
// watched from the same dashboards as any other sensor.
package mqtt

import (
	"errors"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
)

type service struct {
	client          paho_mqtt.Client
	configuredCells map[string]struct{}
}

func New(client paho_mqtt.Client) *service {
	return &service{
		client:          client,
		configuredCells: make(map[string]struct{}),
	}
}

func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(time.Second * 5)
	if res {
		return nil
	}
	if err := token.Error(); err != nil {
		return err
	}
	return errors.New("unable to connect in time")
}
