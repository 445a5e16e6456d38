package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/anicoll/cellbench/internal/pkg/model"
)

type registerDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

type registerMessage struct {
	Tilda      string         `json:"~"`
	Name       string         `json:"name"`
	ID         string         `json:"unique_id"`
	StateTopic string         `json:"state_topic"`
	Device     registerDevice `json:"device"`
}

type stateMessage struct {
	Voltage     float64         `json:"voltage"`
	Current     float64         `json:"current"`
	Temperature float64         `json:"temperature"`
	Capacity    float64         `json:"capacity"`
	ChargePct   float64         `json:"charge_pct"`
	SafetyScore int             `json:"safety_score"`
	Mode        string          `json:"mode"`
	Warnings    []model.Warning `json:"warnings,omitempty"`
}

// Publish pushes one state message per cell. Discovery messages go out
// once per cell id for the lifetime of the connection.
func (s *service) Publish(ctx context.Context, report model.TickReport) error {
	for _, status := range report.Cells {
		if err := s.registerCell(status.Sample); err != nil {
			return err
		}
		if err := s.publishState(report.Mode, status); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) registerCell(sample model.TelemetrySample) error {
	id := cellSlug(sample)
	if _, exists := s.configuredCells[id]; exists {
		return nil
	}

	topic := fmt.Sprintf("homeassistant/sensor/%s/config", id)
	payload, err := json.Marshal(registerMessage{
		Tilda:      fmt.Sprintf("homeassistant/sensor/%s", id),
		Name:       fmt.Sprintf("%s %s", sample.Chemistry, sample.CellID),
		ID:         id,
		StateTopic: "~/state",
		Device: registerDevice{
			Name:         fmt.Sprintf("%s %s", sample.Chemistry, sample.CellID),
			Identifiers:  []string{id},
			Model:        sample.Chemistry.String(),
			Manufacturer: "cellbench",
		},
	})
	if err != nil {
		return err
	}

	token := s.client.Publish(topic, 1, true, payload)
	if err := token.Error(); err != nil {
		return err
	}
	if res := token.WaitTimeout(time.Second * 5); res {
		s.configuredCells[id] = struct{}{}
	}
	return nil
}

func (s *service) publishState(mode model.OperatingMode, status model.CellStatus) error {
	topic := fmt.Sprintf("homeassistant/sensor/%s/state", cellSlug(status.Sample))
	payload, err := json.Marshal(stateMessage{
		Voltage:     status.Sample.Voltage,
		Current:     status.Sample.Current,
		Temperature: status.Sample.Temperature,
		Capacity:    status.Sample.Capacity,
		ChargePct:   status.ChargePct,
		SafetyScore: status.SafetyScore,
		Mode:        mode.String(),
		Warnings:    status.Warnings,
	})
	if err != nil {
		return err
	}

	token := s.client.Publish(topic, 0, false, payload)
	res := token.WaitTimeout(time.Second * 10)
	if res {
		return token.Error()
	}
	if err := token.Error(); err != nil {
		return err
	}
	return errors.New("unable to publish state in time")
}

func cellSlug(sample model.TelemetrySample) string {
	name := fmt.Sprintf("%s %s", sample.Chemistry, sample.CellID)
	return strings.Replace(slug.Make(name), "-", "_", -1)
}
